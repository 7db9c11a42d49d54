package submit

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/ledger/mock_ledger"
	"github.com/popchain/popchain-core/internal/signer"
	"github.com/popchain/popchain-core/internal/sponsor"
	"github.com/popchain/popchain-core/internal/txbuilder"
	"github.com/popchain/popchain-core/pkg/crypto"
	"github.com/popchain/popchain-core/pkg/repo"
)

type testEnv struct {
	client *mock_ledger.MockClient
	wallet *sponsor.Wallet
	orch   *Orchestrator
	cfg    repo.Ledger
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	ctrl := gomock.NewController(t)
	client := mock_ledger.NewMockClient(ctrl)

	key, err := crypto.GenerateEd25519PrivateKey()
	require.Nil(t, err)
	seed, err := key.Marshal()
	require.Nil(t, err)
	secret, err := crypto.EncodeBech32PrivateKey(crypto.SchemeEd25519, seed)
	require.Nil(t, err)
	addr := signer.NewKeypair(key).Address()
	wallet, err := sponsor.Load(repo.Sponsor{SecretKey: secret, ExpectedAddress: addr.String()}, client, logrus.New())
	require.Nil(t, err)

	cfg := repo.MockRepo(t).Config.Ledger
	orch, err := New(cfg, client, logrus.New(), append([]Option{WithSponsor(wallet)}, opts...)...)
	require.Nil(t, err)
	return &testEnv{client: client, wallet: wallet, orch: orch, cfg: cfg}
}

func coin(t *testing.T, id string, balance uint64) ledger.Coin {
	ref, err := ledger.NewObjectRef(id, "1", ledger.EncodeDigest(make([]byte, 32)))
	require.Nil(t, err)
	return ledger.Coin{Ref: ref, Balance: balance}
}

func (e *testEnv) expectCoins(t *testing.T, owner ledger.Address, balances ...uint64) {
	var coins []ledger.Coin
	for i, b := range balances {
		coins = append(coins, coin(t, "0x"+string(rune('a'+i)), b))
	}
	e.client.EXPECT().GetCoins(gomock.Any(), owner, ledger.SuiCoinType, "", gomock.Any()).
		Return(&ledger.CoinPage{Coins: coins}, nil)
}

func (e *testEnv) expectRegistry() {
	registry := ledger.MustParseAddress(e.cfg.RegistryID)
	e.client.EXPECT().GetObject(gomock.Any(), registry).Return(&ledger.Object{
		Ref:   ledger.ObjectRef{ObjectID: registry, Version: 10},
		Owner: ledger.Owner{Kind: ledger.OwnerShared, InitialSharedVersion: 3},
	}, nil)
}

const (
	executed = `{"digest":"D1","effects":{"status":{"status":"success"}}}`
	created  = `{"digest":"D1","effects":{"status":{"status":"success"}},"objectChanges":[
		{"type":"mutated","objectId":"0xa1","objectType":"0xc0de::account::Registry"},
		{"type":"created","objectId":"0xacc0","objectType":"0xc0de::account::Account"}]}`
)

func newCreateAccount(t *testing.T) txbuilder.Request {
	req, err := txbuilder.NewCreateAccount("a@example.com", "attendee", "0x0")
	require.Nil(t, err)
	return req
}

func TestSubmitSponsoredFinalized(t *testing.T) {
	env := newTestEnv(t)
	env.expectCoins(t, env.wallet.Address(), repo.MistPerSui)
	env.expectRegistry()
	env.client.EXPECT().ReferenceGasPrice(gomock.Any()).Return(uint64(1000), nil)
	env.client.EXPECT().ExecuteTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txBytes []byte, sigs []string) ([]byte, error) {
			require.Len(t, sigs, 1)
			raw, err := base64.StdEncoding.DecodeString(sigs[0])
			require.Nil(t, err)
			pub := &crypto.Ed25519PublicKey{}
			require.Nil(t, pub.Unmarshal(raw[65:]))
			msg := crypto.TransactionDigest(txBytes)
			assert.True(t, pub.Verify(msg[:], raw[1:65]))
			assert.Equal(t, env.wallet.Address(), ledger.Address(crypto.DeriveAddress(raw[0], raw[65:])))
			return []byte(executed), nil
		})
	env.client.EXPECT().GetTransaction(gomock.Any(), "D1").Return([]byte(created), nil)

	out := env.orch.Submit(context.Background(), newCreateAccount(t), Sponsored())
	require.Nil(t, out.Error)
	assert.True(t, out.Succeeded())
	assert.True(t, out.Sponsored)
	assert.Equal(t, env.wallet.Address(), out.Sender)
	assert.Equal(t, "D1", out.Digest)
	assert.Equal(t, "0xacc0", out.PrimaryID)
	assert.Equal(t, []State{StateBuilt, StateSigning, StateSubmitted, StateAwaitingFinality, StateFinalized}, out.History)
}

func TestSubmitFundingGateBlocksExecution(t *testing.T) {
	env := newTestEnv(t)
	env.expectCoins(t, env.wallet.Address(), 1_000)

	out := env.orch.Submit(context.Background(), newCreateAccount(t), Sponsored())
	require.NotNil(t, out.Error)
	assert.False(t, out.Succeeded())
	assert.Equal(t, chainerr.InsufficientFunds, out.Error.Category)
	assert.Contains(t, out.Error.UserMessage(), env.wallet.Address().String())
	assert.Equal(t, []State{StateBuilt, StateFailed}, out.History)
}

func TestSubmitFundingGateCountsDeposit(t *testing.T) {
	env := newTestEnv(t)
	// covers the gas budget but not the deposit on top of it
	env.expectCoins(t, env.wallet.Address(), env.cfg.GasBudget+500)

	req, err := txbuilder.NewDeposit("0xe1", 1_000)
	require.Nil(t, err)
	out := env.orch.Submit(context.Background(), req, Sponsored())
	require.NotNil(t, out.Error)
	assert.Equal(t, chainerr.InsufficientFunds, out.Error.Category)
}

func TestSubmitWithoutSponsor(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_ledger.NewMockClient(ctrl)
	orch, err := New(repo.MockRepo(t).Config.Ledger, client, logrus.New())
	require.Nil(t, err)

	out := orch.Submit(context.Background(), newCreateAccount(t), Sponsored())
	require.NotNil(t, out.Error)
	assert.Equal(t, chainerr.NotAuthorized, out.Error.Category)
}

func TestSubmitAbortIsDecoded(t *testing.T) {
	env := newTestEnv(t)
	env.expectCoins(t, env.wallet.Address(), repo.MistPerSui)
	env.client.EXPECT().GetObject(gomock.Any(), ledger.MustParseAddress("0xe1")).Return(&ledger.Object{
		Owner: ledger.Owner{Kind: ledger.OwnerShared, InitialSharedVersion: 8},
	}, nil)
	env.client.EXPECT().ReferenceGasPrice(gomock.Any()).Return(uint64(1000), nil)
	env.client.EXPECT().ExecuteTransaction(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte(`{"digest":"D2"}`), nil)
	env.client.EXPECT().GetTransaction(gomock.Any(), "D2").Return([]byte(`{"digest":"D2","effects":{"status":{
		"status":"failure","error":"MoveAbort(MoveLocation { module: ModuleId { address: c0de, name: Identifier(\"event\") }, function: 1, instruction: 9, function_name: Some(\"add_to_whitelist\") }, 4) in command 0"}}}`), nil)

	req, err := txbuilder.NewAddToWhitelist("0xe1", "guest@example.com")
	require.Nil(t, err)
	out := env.orch.Submit(context.Background(), req, Sponsored())
	require.NotNil(t, out.Error)
	assert.Equal(t, chainerr.EventClosed, out.Error.Category)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, "D2", out.Digest)
	assert.Contains(t, out.Error.Raw, "MoveAbort")
}

func TestSubmitExecuteErrorIsNotRetried(t *testing.T) {
	env := newTestEnv(t)
	env.expectCoins(t, env.wallet.Address(), repo.MistPerSui)
	env.expectRegistry()
	env.client.EXPECT().ReferenceGasPrice(gomock.Any()).Return(uint64(1000), nil)
	env.client.EXPECT().ExecuteTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError).Times(1)

	out := env.orch.Submit(context.Background(), newCreateAccount(t), Sponsored())
	require.NotNil(t, out.Error)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, []State{StateBuilt, StateSigning, StateSubmitted, StateFailed}, out.History)
}

func TestSubmitUserRejects(t *testing.T) {
	env := newTestEnv(t)
	user := ledger.MustParseAddress("0x77")
	env.expectCoins(t, user, repo.MistPerSui)
	env.expectRegistry()
	env.client.EXPECT().ReferenceGasPrice(gomock.Any()).Return(uint64(1000), nil)

	wallet := signer.NewExternal(user, func(context.Context, []byte) (string, error) {
		return "", signer.ErrUserRejected
	})
	out := env.orch.Submit(context.Background(), newCreateAccount(t), UserSigned(wallet))
	require.NotNil(t, out.Error)
	assert.False(t, out.Sponsored)
	assert.Equal(t, chainerr.NotAuthorized, out.Error.Category)
	assert.Equal(t, user, out.Sender)
}

func TestSubmitUserWithoutFunds(t *testing.T) {
	env := newTestEnv(t)
	user := ledger.MustParseAddress("0x77")
	env.expectCoins(t, user)

	wallet := signer.NewExternal(user, nil)
	out := env.orch.Submit(context.Background(), newCreateAccount(t), UserSigned(wallet))
	require.NotNil(t, out.Error)
	assert.Equal(t, chainerr.InsufficientFunds, out.Error.Category)
}

type recordingReconciler struct {
	outcomes []*Outcome
	warning  string
}

func (r *recordingReconciler) Reconcile(_ context.Context, _ txbuilder.Request, out *Outcome) string {
	r.outcomes = append(r.outcomes, out)
	return r.warning
}

func TestSubmitCachesSharedVersionsAndReconciles(t *testing.T) {
	rec := &recordingReconciler{warning: "store unavailable"}
	env := newTestEnv(t, WithReconciler(rec))
	env.client.EXPECT().GetCoins(gomock.Any(), env.wallet.Address(), ledger.SuiCoinType, "", gomock.Any()).
		Return(&ledger.CoinPage{Coins: []ledger.Coin{coin(t, "0xa", repo.MistPerSui)}}, nil).Times(2)
	env.expectRegistry()
	env.client.EXPECT().ReferenceGasPrice(gomock.Any()).Return(uint64(1000), nil).Times(2)
	env.client.EXPECT().ExecuteTransaction(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte(executed), nil).Times(2)
	env.client.EXPECT().GetTransaction(gomock.Any(), "D1").Return([]byte(created), nil).Times(2)

	for i := 0; i < 2; i++ {
		out := env.orch.Submit(context.Background(), newCreateAccount(t), Sponsored())
		require.Nil(t, out.Error)
		assert.True(t, out.Succeeded())
		assert.Equal(t, []string{"store unavailable"}, out.Warnings)
	}
	assert.Len(t, rec.outcomes, 2)
}

func TestSelectGas(t *testing.T) {
	coins := []ledger.Coin{coin(t, "0x1", 5), coin(t, "0x2", 50), coin(t, "0x3", 20)}
	refs, err := selectGas(coins, 60)
	require.Nil(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, ledger.MustParseAddress("0x2"), refs[0].ObjectID)
	assert.Equal(t, ledger.MustParseAddress("0x3"), refs[1].ObjectID)

	_, err = selectGas(coins, 100)
	assert.Equal(t, chainerr.InsufficientFunds, chainerr.Decode(err).Category)
	_, err = selectGas(nil, 0)
	assert.NotNil(t, err)
}
