package submit

import (
	"context"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/extractor"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/signer"
	"github.com/popchain/popchain-core/internal/sponsor"
	"github.com/popchain/popchain-core/internal/txbuilder"
	"github.com/popchain/popchain-core/pkg/repo"
)

// maxGasPaymentCoins is the ledger's limit on gas payment objects.
const maxGasPaymentCoins = 256

// Reconciler mirrors a finalized outcome into the off-chain store. A
// non-empty return value is a warning; it never fails the outcome.
type Reconciler interface {
	Reconcile(ctx context.Context, req txbuilder.Request, out *Outcome) (warning string)
}

type Option func(*Orchestrator)

func WithReconciler(r Reconciler) Option {
	return func(o *Orchestrator) {
		o.reconciler = r
	}
}

func WithSponsor(w *sponsor.Wallet) Option {
	return func(o *Orchestrator) {
		o.sponsor = w
	}
}

// Orchestrator drives a request through signing, execution and finality.
// It never retries a submission.
type Orchestrator struct {
	client       ledger.Client
	sponsor      *sponsor.Wallet
	reconciler   Reconciler
	targets      txbuilder.Targets
	gasBudget    uint64
	pollInterval time.Duration
	shared       *lru.Cache[ledger.ObjectID, uint64]
	logger       logrus.FieldLogger
}

func New(cfg repo.Ledger, client ledger.Client, logger logrus.FieldLogger, opts ...Option) (*Orchestrator, error) {
	targets, err := txbuilder.ParseTargets(cfg.PackageID, cfg.RegistryID, cfg.TreasuryID)
	if err != nil {
		return nil, err
	}
	size := cfg.ObjectCacheSize
	if size <= 0 {
		size = 128
	}
	shared, err := lru.New[ledger.ObjectID, uint64](size)
	if err != nil {
		return nil, errors.Wrap(err, "create shared object cache")
	}
	o := &Orchestrator{
		client:       client,
		targets:      targets,
		gasBudget:    cfg.GasBudget,
		pollInterval: cfg.FinalityPollInterval.ToDuration(),
		shared:       shared,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Orchestrator) Targets() txbuilder.Targets {
	return o.targets
}

func (o *Orchestrator) Sponsor() *sponsor.Wallet {
	return o.sponsor
}

// Submit runs req to finality. The finality wait has no timeout of its own;
// callers bound it through ctx.
func (o *Orchestrator) Submit(ctx context.Context, req txbuilder.Request, choice SignerChoice) *Outcome {
	start := time.Now()
	out := &Outcome{Kind: req.Kind(), Sponsored: choice.IsSponsored()}
	out.transition(StateBuilt)
	o.submit(ctx, req, choice, out)
	traceOutcome(out, start)

	fields := logrus.Fields{
		"kind":      out.Kind,
		"sponsored": out.Sponsored,
		"digest":    out.Digest,
		"state":     out.State,
	}
	if out.Error != nil {
		fields["category"] = out.Error.Category
		o.logger.WithFields(fields).Warnf("Submission failed: %s", out.Error.Raw)
	} else {
		fields["primary_id"] = out.PrimaryID
		o.logger.WithFields(fields).Info("Submission finalized")
	}
	return out
}

func (o *Orchestrator) submit(ctx context.Context, req txbuilder.Request, choice SignerChoice, out *Outcome) {
	call := req.Plan(o.targets)
	required := o.gasBudget + call.GasSplitTotal()

	s, coins, failure := o.prepareSigner(ctx, choice, required)
	if failure != nil {
		out.fail(failure)
		return
	}
	out.Sender = s.Address()

	payment, err := selectGas(coins, required)
	if err != nil {
		out.fail(chainerr.Decode(err))
		return
	}
	price, err := o.client.ReferenceGasPrice(ctx)
	if err != nil {
		out.fail(chainerr.Decode(err))
		return
	}
	pt, err := call.Compile(o.resolver(ctx))
	if err != nil {
		out.fail(chainerr.Decode(err))
		return
	}
	txBytes := (&ledger.TransactionData{
		Sender: out.Sender,
		Kind:   pt,
		Gas: ledger.GasData{
			Payment: payment,
			Owner:   out.Sender,
			Price:   price,
			Budget:  o.gasBudget,
		},
	}).Marshal()
	out.Digest = ledger.TransactionDigest(txBytes)

	out.transition(StateSigning)
	sig, err := s.SignTransaction(ctx, txBytes)
	if err != nil {
		out.fail(chainerr.Decode(err))
		return
	}

	out.transition(StateSubmitted)
	executed, err := o.client.ExecuteTransaction(ctx, txBytes, []string{sig})
	if err != nil {
		out.fail(chainerr.Decode(err))
		return
	}
	view := extractor.Extract(executed, req.Hint())
	if view.Digest != "" {
		out.Digest = view.Digest
	}
	if failure := statusFailure(view); failure != nil {
		out.Payload = executed
		out.fail(failure)
		return
	}

	out.transition(StateAwaitingFinality)
	final, err := ledger.WaitForTransaction(ctx, o.client, out.Digest, o.pollInterval, o.logger)
	if err != nil {
		out.fail(chainerr.Decode(err))
		return
	}
	finalView := extractor.Extract(final, req.Hint())
	out.Payload = final
	if failure := statusFailure(finalView); failure != nil {
		out.fail(failure)
		return
	}

	out.PrimaryID = finalView.PrimaryID
	if out.PrimaryID == "" {
		out.PrimaryID = view.PrimaryID
	}
	out.Created = finalView.Created
	if len(out.Created) == 0 {
		out.Created = view.Created
	}
	out.Events = finalView.Events
	if len(out.Events) == 0 {
		out.Events = view.Events
	}
	out.transition(StateFinalized)

	if o.reconciler != nil {
		if warning := o.reconciler.Reconcile(ctx, req, out); warning != "" {
			out.Warnings = append(out.Warnings, warning)
		}
	}
}

// prepareSigner picks the signer and its gas coins. Sponsored submissions
// pass the funding gate first so a short sponsor never reaches execution.
func (o *Orchestrator) prepareSigner(ctx context.Context, choice SignerChoice, required uint64) (signer.Signer, []ledger.Coin, *chainerr.DecodedError) {
	if !choice.IsSponsored() {
		coins, total, err := ledger.AllCoins(ctx, o.client, choice.User.Address(), ledger.SuiCoinType)
		if err != nil {
			return nil, nil, chainerr.Decode(err)
		}
		if total.Cmp(uint256.NewInt(required)) < 0 {
			return nil, nil, chainerr.New(chainerr.InsufficientFunds,
				"wallet %s holds %s SUI but %s SUI is required", choice.User.Address(), sponsor.FormatSui(total), sponsor.FormatSui(uint256.NewInt(required)))
		}
		return choice.User, coins, nil
	}

	if o.sponsor == nil {
		return nil, nil, chainerr.New(chainerr.NotAuthorized, "sponsor wallet is not configured")
	}
	funding, err := o.sponsor.CheckFunding(ctx, required)
	if err != nil {
		return nil, nil, chainerr.Decode(err)
	}
	if !funding.Sufficient {
		fundingGateBlocked.Inc()
		return nil, nil, chainerr.New(chainerr.InsufficientFunds, "%s", funding.Message())
	}
	return o.sponsor.Signer(), funding.Coins, nil
}

func statusFailure(v *extractor.View) *chainerr.DecodedError {
	if v.Status == "failure" || (v.Status != "success" && v.StatusError != "") {
		return chainerr.Decode(v.StatusError)
	}
	return nil
}

// selectGas picks the largest coins until they cover amount.
func selectGas(coins []ledger.Coin, amount uint64) ([]ledger.ObjectRef, error) {
	sorted := append([]ledger.Coin(nil), coins...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Balance > sorted[j].Balance
	})
	var picked []ledger.Coin
	var sum uint64
	for _, c := range sorted {
		if sum >= amount || len(picked) == maxGasPaymentCoins {
			break
		}
		picked = append(picked, c)
		sum += c.Balance
	}
	if sum < amount || len(picked) == 0 {
		return nil, chainerr.New(chainerr.InsufficientFunds, "gas coins cover %d of %d mist", sum, amount)
	}
	return lo.Map(picked, func(c ledger.Coin, _ int) ledger.ObjectRef {
		return c.Ref
	}), nil
}

// resolver reads object inputs. Shared objects only need their initial
// version, which never changes, so it is cached.
func (o *Orchestrator) resolver(ctx context.Context) ledger.ObjectResolver {
	return func(id ledger.ObjectID, mutable bool) (ledger.ObjectArg, error) {
		if version, ok := o.shared.Get(id); ok {
			return ledger.SharedObjectArg(id, version, mutable), nil
		}
		obj, err := o.client.GetObject(ctx, id)
		if err != nil {
			return ledger.ObjectArg{}, err
		}
		if obj.Owner.Kind == ledger.OwnerShared {
			o.shared.Add(id, obj.Owner.InitialSharedVersion)
			return ledger.SharedObjectArg(id, obj.Owner.InitialSharedVersion, mutable), nil
		}
		return ledger.OwnedObjectArg(obj.Ref), nil
	}
}
