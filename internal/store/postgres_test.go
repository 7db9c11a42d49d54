package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.Nil(t, err)
	t.Cleanup(func() {
		assert.Nil(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresStore(db, logrus.New()), mock
}

func TestPostgresStore_InsertProfile(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs("a@example.com", "attendee", "0xacc0", "", "D1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.InsertProfile(context.Background(), &Profile{
		Email:                  "a@example.com",
		Role:                   "attendee",
		PopchainAccountAddress: "0xacc0",
		TxDigest:               "D1",
	})
	assert.Nil(t, err)
}

func TestPostgresStore_GetProfileByEmail(t *testing.T) {
	s, mock := newMockStore(t)
	query := regexp.QuoteMeta("SELECT email, role, popchain_account_address, wallet_address, tx_digest, created_at FROM profiles WHERE email = $1")

	rows := sqlmock.NewRows([]string{"email", "role", "popchain_account_address", "wallet_address", "tx_digest", "created_at"}).
		AddRow("a@example.com", "attendee", "0xacc0", "", "D1", time.Now())
	mock.ExpectQuery(query).WithArgs("a@example.com").WillReturnRows(rows)

	p, err := s.GetProfileByEmail(context.Background(), "a@example.com")
	require.Nil(t, err)
	assert.Equal(t, "0xacc0", p.PopchainAccountAddress)

	mock.ExpectQuery(query).WithArgs("b@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"email", "role", "popchain_account_address", "wallet_address", "tx_digest", "created_at"}))
	_, err = s.GetProfileByEmail(context.Background(), "b@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_LinkProfileWallet(t *testing.T) {
	s, mock := newMockStore(t)
	query := regexp.QuoteMeta("UPDATE profiles SET wallet_address = $1 WHERE popchain_account_address = $2")

	mock.ExpectExec(query).WithArgs("0x77", "0xacc0").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.Nil(t, s.LinkProfileWallet(context.Background(), "0xacc0", "0x77"))

	mock.ExpectExec(query).WithArgs("0x77", "0xmissing").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.LinkProfileWallet(context.Background(), "0xmissing", "0x77"), ErrNotFound)
}

func TestPostgresStore_Events(t *testing.T) {
	s, mock := newMockStore(t)
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
		WithArgs("0xe1", "DevCon", "", "0x1", start, start.Add(time.Hour), false, "D1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET closed = TRUE WHERE object_id = $1")).
		WithArgs("0xe1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.Nil(t, s.InsertEvent(context.Background(), &Event{
		ObjectID:  "0xe1",
		Name:      "DevCon",
		Organizer: "0x1",
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		TxDigest:  "D1",
	}))
	require.Nil(t, s.CloseEvent(context.Background(), "0xe1"))
}

func TestPostgresStore_Whitelist(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO whitelist_entries")).
		WithArgs("0xe1", "guest@example.com", "0xabc", "D1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_id, email, email_hash, tx_digest, created_at FROM whitelist_entries WHERE event_id = $1")).
		WithArgs("0xe1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "email", "email_hash", "tx_digest", "created_at"}).
			AddRow("0xe1", "guest@example.com", "0xabc", "D1", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM whitelist_entries WHERE event_id = $1 AND email_hash = $2")).
		WithArgs("0xe1", "0xabc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.Nil(t, s.InsertWhitelist(ctx, &WhitelistEntry{EventID: "0xe1", Email: "guest@example.com", EmailHash: "0xabc", TxDigest: "D1"}))
	entries, err := s.ListWhitelist(ctx, "0xe1")
	require.Nil(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "guest@example.com", entries[0].Email)
	require.Nil(t, s.DeleteWhitelist(ctx, "0xe1", "0xabc"))
}

func TestPostgresStore_Certificate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificates")).
		WithArgs("0xce", "0xe1", "0x99", "a@example.com", "https://cdn.example.com/1.png", 2, "silver", "D3", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificates")).
		WillReturnError(assert.AnError)

	c := &Certificate{
		ObjectID:  "0xce",
		EventID:   "0xe1",
		Recipient: "0x99",
		Email:     "a@example.com",
		URL:       "https://cdn.example.com/1.png",
		Tier:      2,
		TierName:  "silver",
		TxDigest:  "D3",
	}
	require.Nil(t, s.InsertCertificate(context.Background(), c))
	assert.ErrorIs(t, s.InsertCertificate(context.Background(), c), assert.AnError)
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS profiles")).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Nil(t, s.Migrate(context.Background()))
}
