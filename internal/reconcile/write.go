package reconcile

import (
	"context"

	"github.com/popchain/popchain-core/internal/store"
)

// Write is one single-row change to the off-chain store.
type Write interface {
	Kind() string
	apply(ctx context.Context, s store.Store) error
}

var (
	_ Write = InsertProfile{}
	_ Write = LinkProfileWallet{}
	_ Write = InsertEvent{}
	_ Write = CloseEvent{}
	_ Write = InsertWhitelist{}
	_ Write = DeleteWhitelist{}
	_ Write = InsertCertificate{}
)

type InsertProfile struct {
	Profile store.Profile
}

func (InsertProfile) Kind() string { return "profile" }

func (w InsertProfile) apply(ctx context.Context, s store.Store) error {
	return s.InsertProfile(ctx, &w.Profile)
}

type LinkProfileWallet struct {
	AccountAddress string
	Wallet         string
}

func (LinkProfileWallet) Kind() string { return "profile_wallet" }

func (w LinkProfileWallet) apply(ctx context.Context, s store.Store) error {
	return s.LinkProfileWallet(ctx, w.AccountAddress, w.Wallet)
}

type InsertEvent struct {
	Event store.Event
}

func (InsertEvent) Kind() string { return "event" }

func (w InsertEvent) apply(ctx context.Context, s store.Store) error {
	return s.InsertEvent(ctx, &w.Event)
}

type CloseEvent struct {
	EventID string
}

func (CloseEvent) Kind() string { return "event_closed" }

func (w CloseEvent) apply(ctx context.Context, s store.Store) error {
	return s.CloseEvent(ctx, w.EventID)
}

type InsertWhitelist struct {
	Entry store.WhitelistEntry
}

func (InsertWhitelist) Kind() string { return "whitelist" }

func (w InsertWhitelist) apply(ctx context.Context, s store.Store) error {
	return s.InsertWhitelist(ctx, &w.Entry)
}

type DeleteWhitelist struct {
	EventID   string
	EmailHash string
}

func (DeleteWhitelist) Kind() string { return "whitelist_removed" }

func (w DeleteWhitelist) apply(ctx context.Context, s store.Store) error {
	return s.DeleteWhitelist(ctx, w.EventID, w.EmailHash)
}

type InsertCertificate struct {
	Certificate store.Certificate
}

func (InsertCertificate) Kind() string { return "certificate" }

func (w InsertCertificate) apply(ctx context.Context, s store.Store) error {
	return s.InsertCertificate(ctx, &w.Certificate)
}
