package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/objectstore"
	"github.com/popchain/popchain-core/internal/sponsor"
	"github.com/popchain/popchain-core/internal/store"
	"github.com/popchain/popchain-core/internal/submit"
	"github.com/popchain/popchain-core/internal/txbuilder"
	"github.com/popchain/popchain-core/internal/whitelist"
	"github.com/popchain/popchain-core/pkg/digest"
)

// Each operation returns an error only for input rejected before any network
// call. Ledger failures are reported in the outcome.

func (s *Service) CreateAccount(ctx context.Context, email string, role string, owner string, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewCreateAccount(email, role, owner)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

func (s *Service) LinkWallet(ctx context.Context, accountID string, wallet string, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewLinkWallet(accountID, wallet)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

func (s *Service) CreateEvent(ctx context.Context, name string, description string, startsAt time.Time, endsAt time.Time, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewCreateEvent(name, description, startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

func (s *Service) AddToWhitelist(ctx context.Context, eventID string, email string, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewAddToWhitelist(eventID, email)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

func (s *Service) RemoveFromWhitelist(ctx context.Context, eventID string, email string, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewRemoveFromWhitelist(eventID, email)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

// Deposit refuses amounts that would leave the payer without gas. The
// shortfall is reported as a failed outcome.
func (s *Service) Deposit(ctx context.Context, eventID string, amount uint64, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewDeposit(eventID, amount)
	if err != nil {
		return nil, err
	}

	var payer ledger.Address
	switch {
	case !choice.IsSponsored():
		payer = choice.User.Address()
	case s.sponsor != nil:
		payer = s.sponsor.Address()
	default:
		return s.orchestrator.Submit(ctx, req, choice), nil
	}
	_, balance, err := ledger.AllCoins(ctx, s.client, payer, ledger.SuiCoinType)
	if err != nil {
		return submit.Rejected(req, choice, payer, chainerr.Decode(err)), nil
	}
	if err := txbuilder.CheckDepositFunds(balance, amount, txbuilder.DepositGasReserve); err != nil {
		return submit.Rejected(req, choice, payer, chainerr.Decode(err)), nil
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

func (s *Service) CloseEvent(ctx context.Context, eventID string, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewCloseEvent(eventID)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

func (s *Service) MintCertificate(ctx context.Context, eventID string, recipient string, email string, certificateURL string, tier uint8, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewMintCertificate(eventID, recipient, email, certificateURL, tier)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

func (s *Service) WithdrawTreasury(ctx context.Context, amount uint64, choice submit.SignerChoice) (*submit.Outcome, error) {
	req, err := txbuilder.NewWithdrawTreasury(amount)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Submit(ctx, req, choice), nil
}

type Upload struct {
	Handle objectstore.Handle
	// URL is empty while the content is not yet visible.
	URL     string
	Visible bool
}

// UploadCertificateImage stores the image and resolves its public URL once.
func (s *Service) UploadCertificateImage(ctx context.Context, data []byte, contentType string) (*Upload, error) {
	if s.objects == nil {
		return nil, ErrNoObjectStore
	}
	h, err := s.objects.Upload(ctx, data, contentType)
	if err != nil {
		return nil, errors.Wrap(err, "upload certificate image")
	}
	url, ok, err := s.objects.ResolvePublicURL(ctx, h)
	if err != nil {
		return nil, errors.Wrap(err, "resolve certificate image")
	}
	return &Upload{Handle: h, URL: url, Visible: ok}, nil
}

func (s *Service) ResolveCertificateImage(ctx context.Context, h objectstore.Handle) (string, bool, error) {
	if s.objects == nil {
		return "", false, ErrNoObjectStore
	}
	return s.objects.ResolvePublicURL(ctx, h)
}

func (s *Service) BulkWhitelist(ctx context.Context, eventID string, lines []string, onProgress whitelist.ProgressFunc) (whitelist.Tally, error) {
	return s.engine.Run(ctx, eventID, lines, onProgress)
}

func (s *Service) StartBulkWhitelist(ctx context.Context, eventID string, lines []string, opts whitelist.StartOptions) (*whitelist.Job, error) {
	return s.engine.Start(ctx, eventID, lines, opts)
}

func (s *Service) BulkWhitelistMany(ctx context.Context, batches []whitelist.Batch, onProgress whitelist.ProgressFunc) []whitelist.BatchResult {
	return s.engine.RunMany(ctx, batches, s.cfg.Whitelist.Concurrency, onProgress)
}

// SponsorFunding checks the sponsor against the configured minimum balance.
func (s *Service) SponsorFunding(ctx context.Context) (*sponsor.Funding, error) {
	if s.sponsor == nil {
		return nil, sponsor.ErrNotConfigured
	}
	return s.sponsor.CheckFunding(ctx, s.cfg.Sponsor.MinBalance)
}

func (s *Service) Profile(ctx context.Context, email string) (*store.Profile, error) {
	if !txbuilder.ValidEmail(email) {
		return nil, chainerr.New(chainerr.InvalidInput, "invalid email %q", email)
	}
	return s.store.GetProfileByEmail(ctx, digest.NormalizeEmail(email))
}
