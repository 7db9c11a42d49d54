// Package reconcile mirrors finalized ledger mutations into the off-chain
// store. The ledger is authoritative: a failed write is reported as a
// warning and never fails the operation that produced it.
package reconcile

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/internal/store"
	"github.com/popchain/popchain-core/internal/submit"
	"github.com/popchain/popchain-core/internal/txbuilder"
)

var _ submit.Reconciler = (*Reconciler)(nil)

type Result struct {
	// OK is always true; it mirrors the on-chain outcome, not the write.
	OK      bool
	Warning string
}

type Reconciler struct {
	store  store.Store
	logger logrus.FieldLogger
}

func New(s store.Store, logger logrus.FieldLogger) *Reconciler {
	return &Reconciler{store: s, logger: logger}
}

func (r *Reconciler) Persist(ctx context.Context, w Write) Result {
	if err := w.apply(ctx, r.store); err != nil {
		r.logger.WithFields(logrus.Fields{"kind": w.Kind(), "err": err}).Warn("Off-chain write failed")
		reconcileWarnings.WithLabelValues(w.Kind()).Inc()
		return Result{OK: true, Warning: fmt.Sprintf("%s not saved off-chain: %v", w.Kind(), err)}
	}
	reconcileWrites.WithLabelValues(w.Kind()).Inc()
	return Result{OK: true}
}

// Reconcile persists the row matching a finalized request. Requests that only
// move funds have no off-chain mirror.
func (r *Reconciler) Reconcile(ctx context.Context, req txbuilder.Request, out *submit.Outcome) string {
	if !out.Succeeded() {
		return ""
	}
	w, warning := WriteFor(req, out)
	if w == nil {
		if warning != "" {
			r.logger.WithFields(logrus.Fields{"kind": req.Kind(), "digest": out.Digest}).Warn(warning)
		}
		return warning
	}
	return r.Persist(ctx, w).Warning
}

// WriteFor maps a finalized request to its store write. A nil write with a
// warning means the outcome lacked the id the row is keyed by.
func WriteFor(req txbuilder.Request, out *submit.Outcome) (Write, string) {
	switch r := req.(type) {
	case *txbuilder.CreateAccount:
		if out.PrimaryID == "" {
			return nil, "account id missing from result; profile not saved off-chain"
		}
		p := store.Profile{
			Email:                  r.Email(),
			Role:                   r.Role().String(),
			PopchainAccountAddress: out.PrimaryID,
			TxDigest:               out.Digest,
		}
		if !r.Owner().IsZero() {
			p.WalletAddress = r.Owner().String()
		}
		return InsertProfile{Profile: p}, ""
	case *txbuilder.LinkWallet:
		return LinkProfileWallet{AccountAddress: r.Account().String(), Wallet: r.Wallet().String()}, ""
	case *txbuilder.CreateEvent:
		if out.PrimaryID == "" {
			return nil, "event id missing from result; event not saved off-chain"
		}
		return InsertEvent{Event: store.Event{
			ObjectID:    out.PrimaryID,
			Name:        r.Name(),
			Description: r.Description(),
			Organizer:   out.Sender.String(),
			StartsAt:    r.StartsAt(),
			EndsAt:      r.EndsAt(),
			TxDigest:    out.Digest,
		}}, ""
	case *txbuilder.CloseEvent:
		return CloseEvent{EventID: r.Event().String()}, ""
	case *txbuilder.AddToWhitelist:
		return InsertWhitelist{Entry: store.WhitelistEntry{
			EventID:   r.Event().String(),
			Email:     r.Email(),
			EmailHash: r.EmailHash().Hex(),
			TxDigest:  out.Digest,
		}}, ""
	case *txbuilder.RemoveFromWhitelist:
		return DeleteWhitelist{EventID: r.Event().String(), EmailHash: r.EmailHash().Hex()}, ""
	case *txbuilder.MintCertificate:
		if out.PrimaryID == "" {
			return nil, "certificate id missing from result; certificate not saved off-chain"
		}
		return InsertCertificate{Certificate: store.Certificate{
			ObjectID:  out.PrimaryID,
			EventID:   r.Event().String(),
			Recipient: r.Recipient().String(),
			Email:     r.Email(),
			URL:       r.URL(),
			Tier:      r.Tier(),
			TierName:  r.TierName(),
			TxDigest:  out.Digest,
		}}, ""
	default:
		return nil, ""
	}
}
