package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/pkg/repo"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	email TEXT PRIMARY KEY,
	role TEXT NOT NULL,
	popchain_account_address TEXT NOT NULL UNIQUE,
	wallet_address TEXT NOT NULL DEFAULT '',
	tx_digest TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	object_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	organizer TEXT NOT NULL,
	starts_at TIMESTAMPTZ NOT NULL,
	ends_at TIMESTAMPTZ NOT NULL,
	closed BOOLEAN NOT NULL DEFAULT FALSE,
	tx_digest TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS whitelist_entries (
	event_id TEXT NOT NULL,
	email TEXT NOT NULL,
	email_hash TEXT NOT NULL,
	tx_digest TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (event_id, email_hash)
);
CREATE TABLE IF NOT EXISTS certificates (
	object_id TEXT PRIMARY KEY,
	event_id TEXT NOT NULL,
	recipient TEXT NOT NULL,
	email TEXT NOT NULL,
	url TEXT NOT NULL,
	tier SMALLINT NOT NULL,
	tier_name TEXT NOT NULL,
	tx_digest TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func NewPostgresStore(db *sql.DB, logger logrus.FieldLogger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func OpenPostgres(ctx context.Context, cfg repo.Store, logger logrus.FieldLogger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return NewPostgresStore(db, logger), nil
}

// Migrate creates the tables when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "migrate schema")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) InsertProfile(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (email, role, popchain_account_address, wallet_address, tx_digest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			popchain_account_address = EXCLUDED.popchain_account_address,
			wallet_address = EXCLUDED.wallet_address,
			tx_digest = EXCLUDED.tx_digest
	`
	_, err := s.db.ExecContext(ctx, query, p.Email, p.Role, p.PopchainAccountAddress, p.WalletAddress, p.TxDigest, createdAt(p.CreatedAt))
	if err != nil {
		return errors.Wrap(err, "insert profile")
	}
	return nil
}

func (s *PostgresStore) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT email, role, popchain_account_address, wallet_address, tx_digest, created_at FROM profiles WHERE email = $1",
		email)

	var p Profile
	err := row.Scan(&p.Email, &p.Role, &p.PopchainAccountAddress, &p.WalletAddress, &p.TxDigest, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "profile %s", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get profile")
	}
	return &p, nil
}

func (s *PostgresStore) LinkProfileWallet(ctx context.Context, accountAddress string, wallet string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET wallet_address = $1 WHERE popchain_account_address = $2",
		wallet, accountAddress)
	if err != nil {
		return errors.Wrap(err, "link profile wallet")
	}
	return expectOneRow(res, "profile "+accountAddress)
}

func (s *PostgresStore) InsertEvent(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO events (object_id, name, description, organizer, starts_at, ends_at, closed, tx_digest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (object_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, e.ObjectID, e.Name, e.Description, e.Organizer, e.StartsAt, e.EndsAt, e.Closed, e.TxDigest, createdAt(e.CreatedAt))
	if err != nil {
		return errors.Wrap(err, "insert event")
	}
	return nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, objectID string) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT object_id, name, description, organizer, starts_at, ends_at, closed, tx_digest, created_at FROM events WHERE object_id = $1",
		objectID)

	var e Event
	err := row.Scan(&e.ObjectID, &e.Name, &e.Description, &e.Organizer, &e.StartsAt, &e.EndsAt, &e.Closed, &e.TxDigest, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "event %s", objectID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get event")
	}
	return &e, nil
}

func (s *PostgresStore) CloseEvent(ctx context.Context, objectID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE events SET closed = TRUE WHERE object_id = $1", objectID)
	if err != nil {
		return errors.Wrap(err, "close event")
	}
	return expectOneRow(res, "event "+objectID)
}

func (s *PostgresStore) InsertWhitelist(ctx context.Context, w *WhitelistEntry) error {
	query := `
		INSERT INTO whitelist_entries (event_id, email, email_hash, tx_digest, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, email_hash) DO UPDATE SET
			tx_digest = EXCLUDED.tx_digest
	`
	_, err := s.db.ExecContext(ctx, query, w.EventID, w.Email, w.EmailHash, w.TxDigest, createdAt(w.CreatedAt))
	if err != nil {
		return errors.Wrap(err, "insert whitelist entry")
	}
	return nil
}

func (s *PostgresStore) DeleteWhitelist(ctx context.Context, eventID string, emailHash string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM whitelist_entries WHERE event_id = $1 AND email_hash = $2", eventID, emailHash)
	if err != nil {
		return errors.Wrap(err, "delete whitelist entry")
	}
	return nil
}

func (s *PostgresStore) ListWhitelist(ctx context.Context, eventID string) ([]WhitelistEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT event_id, email, email_hash, tx_digest, created_at FROM whitelist_entries WHERE event_id = $1 ORDER BY created_at",
		eventID)
	if err != nil {
		return nil, errors.Wrap(err, "list whitelist")
	}
	defer rows.Close()

	var entries []WhitelistEntry
	for rows.Next() {
		var w WhitelistEntry
		if err := rows.Scan(&w.EventID, &w.Email, &w.EmailHash, &w.TxDigest, &w.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan whitelist entry")
		}
		entries = append(entries, w)
	}
	return entries, errors.Wrap(rows.Err(), "list whitelist")
}

func (s *PostgresStore) InsertCertificate(ctx context.Context, c *Certificate) error {
	query := `
		INSERT INTO certificates (object_id, event_id, recipient, email, url, tier, tier_name, tx_digest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (object_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, c.ObjectID, c.EventID, c.Recipient, c.Email, c.URL, c.Tier, c.TierName, c.TxDigest, createdAt(c.CreatedAt))
	if err != nil {
		return errors.Wrap(err, "insert certificate")
	}
	return nil
}

func (s *PostgresStore) GetCertificate(ctx context.Context, objectID string) (*Certificate, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT object_id, event_id, recipient, email, url, tier, tier_name, tx_digest, created_at FROM certificates WHERE object_id = $1",
		objectID)

	var c Certificate
	err := row.Scan(&c.ObjectID, &c.EventID, &c.Recipient, &c.Email, &c.URL, &c.Tier, &c.TierName, &c.TxDigest, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "certificate %s", objectID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get certificate")
	}
	return &c, nil
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, what)
	}
	return nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
