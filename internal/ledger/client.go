package ledger

import (
	"context"
	"time"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Client is the ledger access capability. Payloads returned as raw JSON are
// interpreted by the extractor and the error decoder, never by the client.
//
//go:generate mockgen -destination mock_ledger/mock_ledger.go -package mock_ledger -source client.go
type Client interface {
	// ReferenceGasPrice returns the current epoch's gas price in mist
	ReferenceGasPrice(ctx context.Context) (uint64, error)

	// GetObject reads an object's reference, type, owner and content
	GetObject(ctx context.Context, id ObjectID) (*Object, error)

	// GetCoins returns one page of the owner's coins of coinType
	GetCoins(ctx context.Context, owner Address, coinType string, cursor string, limit uint) (*CoinPage, error)

	// GetBalance returns the owner's total balance of coinType
	GetBalance(ctx context.Context, owner Address, coinType string) (*uint256.Int, error)

	// ExecuteTransaction submits signed BCS transaction bytes
	ExecuteTransaction(ctx context.Context, txBytes []byte, signatures []string) ([]byte, error)

	// GetTransaction reads an executed transaction with effects, events and object changes
	GetTransaction(ctx context.Context, digest string) ([]byte, error)

	// QueryEvents returns one page of events emitted by a module
	QueryEvents(ctx context.Context, query EventQuery, cursor *EventID, limit uint) (*EventPage, error)
}

// WaitForTransaction polls until the transaction is readable, which the fullnode
// only allows once it has been executed and checkpointed. There is no timeout
// besides ctx.
func WaitForTransaction(ctx context.Context, client Client, digest string, interval time.Duration, logger logrus.FieldLogger) ([]byte, error) {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	queryTicker := time.NewTicker(interval)
	defer queryTicker.Stop()

	for attempt := 1; ; attempt++ {
		payload, err := client.GetTransaction(ctx, digest)
		if err == nil {
			return payload, nil
		}
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"digest":  digest,
				"attempt": attempt,
			}).Debugf("transaction not final yet: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}

const coinPageLimit = 50

// AllCoins pages through every coin of coinType held by owner and returns
// them with their summed balance.
func AllCoins(ctx context.Context, client Client, owner Address, coinType string) ([]Coin, *uint256.Int, error) {
	var coins []Coin
	total := uint256.NewInt(0)
	cursor := ""
	for {
		page, err := client.GetCoins(ctx, owner, coinType, cursor, coinPageLimit)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range page.Coins {
			coins = append(coins, c)
			total.Add(total, uint256.NewInt(c.Balance))
		}
		if !page.HasNextPage || page.NextCursor == "" || page.NextCursor == cursor {
			return coins, total, nil
		}
		cursor = page.NextCursor
	}
}
