package submit

import (
	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/extractor"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/signer"
	"github.com/popchain/popchain-core/internal/txbuilder"
)

type State string

const (
	StateBuilt            State = "built"
	StateSigning          State = "signing"
	StateSubmitted        State = "submitted"
	StateAwaitingFinality State = "awaiting_finality"
	StateFinalized        State = "finalized"
	StateFailed           State = "failed"
)

// SignerChoice selects who signs and pays. The zero value selects the sponsor.
type SignerChoice struct {
	User signer.Signer
}

func Sponsored() SignerChoice {
	return SignerChoice{}
}

func UserSigned(s signer.Signer) SignerChoice {
	return SignerChoice{User: s}
}

func (c SignerChoice) IsSponsored() bool {
	return c.User == nil
}

// Outcome is the result of one submission. Failures are carried in Error,
// never returned as Go errors.
type Outcome struct {
	Kind      txbuilder.Kind
	State     State
	History   []State
	Sponsored bool
	Sender    ledger.Address
	Digest    string

	// PrimaryID may be empty on success when no created object could be identified.
	PrimaryID string
	Created   []extractor.CreatedObject
	Events    []extractor.Event
	Payload   []byte

	Error    *chainerr.DecodedError
	Warnings []string
}

func (o *Outcome) Succeeded() bool {
	return o.State == StateFinalized
}

// Rejected is the outcome of a request stopped by a pre-flight check before
// anything was signed.
func Rejected(req txbuilder.Request, choice SignerChoice, sender ledger.Address, err *chainerr.DecodedError) *Outcome {
	out := &Outcome{Kind: req.Kind(), Sponsored: choice.IsSponsored(), Sender: sender}
	out.transition(StateBuilt)
	return out.fail(err)
}

func (o *Outcome) transition(s State) {
	o.State = s
	o.History = append(o.History, s)
}

func (o *Outcome) fail(err *chainerr.DecodedError) *Outcome {
	o.Error = err
	o.transition(StateFailed)
	return o
}
