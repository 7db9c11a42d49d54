package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/store"
	"github.com/popchain/popchain-core/internal/submit"
	"github.com/popchain/popchain-core/internal/txbuilder"
	"github.com/popchain/popchain-core/pkg/digest"
)

const eventID = "0xe1"

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) InsertWhitelist(context.Context, *store.WhitelistEntry) error {
	return assert.AnError
}

func finalized(kind txbuilder.Kind, primaryID string) *submit.Outcome {
	return &submit.Outcome{
		Kind:      kind,
		State:     submit.StateFinalized,
		Digest:    "D1",
		Sender:    ledger.MustParseAddress("0x5"),
		PrimaryID: primaryID,
	}
}

func TestReconcileProfile(t *testing.T) {
	s := store.NewMemoryStore()
	r := New(s, logrus.New())
	ctx := context.Background()

	req, err := txbuilder.NewCreateAccount("A@Example.com", "attendee", "0x0")
	require.Nil(t, err)
	account := ledger.MustParseAddress("0xacc0").String()
	assert.Empty(t, r.Reconcile(ctx, req, finalized(txbuilder.KindCreateAccount, account)))

	p, err := s.GetProfileByEmail(ctx, "a@example.com")
	require.Nil(t, err)
	assert.Equal(t, account, p.PopchainAccountAddress)
	assert.Equal(t, "attendee", p.Role)
	assert.Empty(t, p.WalletAddress)
	assert.Equal(t, "D1", p.TxDigest)

	link, err := txbuilder.NewLinkWallet(account, "0xbeef")
	require.Nil(t, err)
	assert.Empty(t, r.Reconcile(ctx, link, finalized(txbuilder.KindLinkWallet, "")))
	p, err = s.GetProfileByEmail(ctx, "a@example.com")
	require.Nil(t, err)
	assert.Equal(t, ledger.MustParseAddress("0xbeef").String(), p.WalletAddress)

	orphan, err := txbuilder.NewLinkWallet("0xdead", "0xbeef")
	require.Nil(t, err)
	assert.Contains(t, r.Reconcile(ctx, orphan, finalized(txbuilder.KindLinkWallet, "")), "profile_wallet not saved")
}

func TestReconcileMissingPrimaryID(t *testing.T) {
	s := store.NewMemoryStore()
	r := New(s, logrus.New())

	req, err := txbuilder.NewCreateAccount("a@example.com", "organizer", "0x7")
	require.Nil(t, err)
	warning := r.Reconcile(context.Background(), req, finalized(txbuilder.KindCreateAccount, ""))
	assert.Contains(t, warning, "account id missing")

	_, err = s.GetProfileByEmail(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReconcileEventLifecycle(t *testing.T) {
	s := store.NewMemoryStore()
	r := New(s, logrus.New())
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	create, err := txbuilder.NewCreateEvent("DevCon", "talks", start, start.Add(time.Hour))
	require.Nil(t, err)
	id := ledger.MustParseAddress(eventID).String()
	assert.Empty(t, r.Reconcile(ctx, create, finalized(txbuilder.KindCreateEvent, id)))

	e, err := s.GetEvent(ctx, id)
	require.Nil(t, err)
	assert.Equal(t, "DevCon", e.Name)
	assert.Equal(t, ledger.MustParseAddress("0x5").String(), e.Organizer)
	assert.False(t, e.Closed)

	add, err := txbuilder.NewAddToWhitelist(eventID, "b@example.com")
	require.Nil(t, err)
	assert.Empty(t, r.Reconcile(ctx, add, finalized(txbuilder.KindAddToWhitelist, "")))
	entries, err := s.ListWhitelist(ctx, id)
	require.Nil(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, digest.Email("b@example.com").Hex(), entries[0].EmailHash)

	remove, err := txbuilder.NewRemoveFromWhitelist(eventID, "b@example.com")
	require.Nil(t, err)
	assert.Empty(t, r.Reconcile(ctx, remove, finalized(txbuilder.KindRemoveFromWhitelist, "")))
	entries, err = s.ListWhitelist(ctx, id)
	require.Nil(t, err)
	assert.Empty(t, entries)

	closeReq, err := txbuilder.NewCloseEvent(eventID)
	require.Nil(t, err)
	assert.Empty(t, r.Reconcile(ctx, closeReq, finalized(txbuilder.KindCloseEvent, "")))
	e, err = s.GetEvent(ctx, id)
	require.Nil(t, err)
	assert.True(t, e.Closed)
}

func TestReconcileCertificate(t *testing.T) {
	s := store.NewMemoryStore()
	r := New(s, logrus.New())
	ctx := context.Background()

	mint, err := txbuilder.NewMintCertificate(eventID, "0x9", "c@example.com", "https://cdn.test/c.png", 3)
	require.Nil(t, err)
	assert.Empty(t, r.Reconcile(ctx, mint, finalized(txbuilder.KindMintCertificate, "0xce")))

	c, err := s.GetCertificate(ctx, "0xce")
	require.Nil(t, err)
	assert.Equal(t, "gold", c.TierName)
	assert.EqualValues(t, 3, c.Tier)
	assert.Equal(t, "https://cdn.test/c.png", c.URL)
}

func TestReconcileFailureIsWarning(t *testing.T) {
	r := New(failingStore{store.NewMemoryStore()}, logrus.New())

	add, err := txbuilder.NewAddToWhitelist(eventID, "b@example.com")
	require.Nil(t, err)
	w, warning := WriteFor(add, finalized(txbuilder.KindAddToWhitelist, ""))
	require.NotNil(t, w)
	assert.Empty(t, warning)

	res := r.Persist(context.Background(), w)
	assert.True(t, res.OK)
	assert.Contains(t, res.Warning, "whitelist not saved off-chain")
}

func TestReconcileSkips(t *testing.T) {
	r := New(store.NewMemoryStore(), logrus.New())
	ctx := context.Background()

	deposit, err := txbuilder.NewDeposit(eventID, 100)
	require.Nil(t, err)
	assert.Empty(t, r.Reconcile(ctx, deposit, finalized(txbuilder.KindDeposit, "")))

	add, err := txbuilder.NewAddToWhitelist(eventID, "b@example.com")
	require.Nil(t, err)
	failed := &submit.Outcome{State: submit.StateFailed}
	assert.Empty(t, r.Reconcile(ctx, add, failed))
}
