// Package store is the off-chain relational mirror of ledger state. Every
// operation touches a single row.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("record not found")

type Profile struct {
	Email string
	Role  string

	// PopchainAccountAddress is the id of the on-chain account object.
	PopchainAccountAddress string
	WalletAddress          string
	TxDigest               string
	CreatedAt              time.Time
}

type Event struct {
	ObjectID    string
	Name        string
	Description string
	Organizer   string
	StartsAt    time.Time
	EndsAt      time.Time
	Closed      bool
	TxDigest    string
	CreatedAt   time.Time
}

// WhitelistEntry keeps the plaintext email for display; the ledger only
// holds its digest.
type WhitelistEntry struct {
	EventID   string
	Email     string
	EmailHash string
	TxDigest  string
	CreatedAt time.Time
}

type Certificate struct {
	ObjectID  string
	EventID   string
	Recipient string
	Email     string
	URL       string
	Tier      uint8
	TierName  string
	TxDigest  string
	CreatedAt time.Time
}

type Store interface {
	InsertProfile(ctx context.Context, p *Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*Profile, error)
	LinkProfileWallet(ctx context.Context, accountAddress string, wallet string) error

	InsertEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, objectID string) (*Event, error)
	CloseEvent(ctx context.Context, objectID string) error

	InsertWhitelist(ctx context.Context, w *WhitelistEntry) error
	DeleteWhitelist(ctx context.Context, eventID string, emailHash string) error
	ListWhitelist(ctx context.Context, eventID string) ([]WhitelistEntry, error)

	InsertCertificate(ctx context.Context, c *Certificate) error
	GetCertificate(ctx context.Context, objectID string) (*Certificate, error)

	Close() error
}
