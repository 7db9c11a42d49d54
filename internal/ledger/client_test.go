package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/ledger/mock_ledger"
)

func TestWaitForTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_ledger.NewMockClient(ctrl)

	notFound := errors.New("Could not find the referenced transaction")
	gomock.InOrder(
		client.EXPECT().GetTransaction(gomock.Any(), "digest").Return(nil, notFound).Times(2),
		client.EXPECT().GetTransaction(gomock.Any(), "digest").Return([]byte(`{"digest":"digest"}`), nil),
	)

	payload, err := ledger.WaitForTransaction(context.Background(), client, "digest", time.Millisecond, logrus.New())
	require.Nil(t, err)
	assert.Equal(t, `{"digest":"digest"}`, string(payload))
}

func TestWaitForTransactionCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_ledger.NewMockClient(ctrl)
	client.EXPECT().GetTransaction(gomock.Any(), "digest").Return(nil, errors.New("not found")).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := ledger.WaitForTransaction(ctx, client, "digest", time.Millisecond, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAllCoinsPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_ledger.NewMockClient(ctrl)
	owner := ledger.MustParseAddress("0x1")

	gomock.InOrder(
		client.EXPECT().GetCoins(gomock.Any(), owner, ledger.SuiCoinType, "", gomock.Any()).Return(&ledger.CoinPage{
			Coins:       []ledger.Coin{{Balance: 10}, {Balance: 20}},
			NextCursor:  "c1",
			HasNextPage: true,
		}, nil),
		client.EXPECT().GetCoins(gomock.Any(), owner, ledger.SuiCoinType, "c1", gomock.Any()).Return(&ledger.CoinPage{
			Coins: []ledger.Coin{{Balance: 5}},
		}, nil),
	)

	coins, total, err := ledger.AllCoins(context.Background(), client, owner, ledger.SuiCoinType)
	require.Nil(t, err)
	assert.Len(t, coins, 3)
	assert.EqualValues(t, 35, total.Uint64())
}
