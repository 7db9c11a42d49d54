package txbuilder

import (
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/extractor"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/pkg/digest"
)

// DepositGasReserve is kept back from the payer's balance for gas when
// checking a deposit. unit: mist
const DepositGasReserve uint64 = 10_000_000

var EventHint = extractor.Hint{
	TypeSuffix: "::event::Event",
	EventType:  "::event::EventCreated",
	EventField: "event_id",
}

type CreateEvent struct {
	base
	name        string
	description string
	startsAt    time.Time
	endsAt      time.Time
}

func NewCreateEvent(name string, description string, startsAt time.Time, endsAt time.Time) (*CreateEvent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, chainerr.New(chainerr.InvalidInput, "event name is required")
	}
	if startsAt.IsZero() || endsAt.IsZero() {
		return nil, chainerr.New(chainerr.InvalidInput, "event start and end are required")
	}
	if endsAt.Before(startsAt) {
		return nil, chainerr.New(chainerr.InvalidInput, "event ends before it starts")
	}
	return &CreateEvent{name: name, description: strings.TrimSpace(description), startsAt: startsAt, endsAt: endsAt}, nil
}

func (r *CreateEvent) Kind() Kind {
	return KindCreateEvent
}

func (r *CreateEvent) Name() string {
	return r.name
}

func (r *CreateEvent) Description() string {
	return r.description
}

func (r *CreateEvent) StartsAt() time.Time {
	return r.startsAt
}

func (r *CreateEvent) EndsAt() time.Time {
	return r.endsAt
}

func (r *CreateEvent) Hint() extractor.Hint {
	return EventHint
}

func (r *CreateEvent) Plan(t Targets) ledger.MoveCall {
	return ledger.MoveCall{
		Package:  t.Package,
		Module:   moduleEvent,
		Function: "create_event",
		Args: []ledger.Arg{
			ledger.ObjectInput(t.Registry, true),
			ledger.PureBytes([]byte(r.name)),
			ledger.PureBytes([]byte(r.description)),
			ledger.PureU64(uint64(r.startsAt.UnixMilli())),
			ledger.PureU64(uint64(r.endsAt.UnixMilli())),
		},
	}
}

// whitelistChange carries only the digest on chain; the plaintext email is
// kept for the off-chain row.
type whitelistChange struct {
	base
	event     ledger.ObjectID
	email     string
	emailHash digest.Digest
}

func newWhitelistChange(eventID string, email string) (whitelistChange, error) {
	event, err := parseObjectID("event id", eventID)
	if err != nil {
		return whitelistChange{}, err
	}
	hash, normalized, err := emailDigest(email)
	if err != nil {
		return whitelistChange{}, err
	}
	return whitelistChange{event: event, email: normalized, emailHash: hash}, nil
}

func (c whitelistChange) Event() ledger.ObjectID {
	return c.event
}

func (c whitelistChange) Email() string {
	return c.email
}

func (c whitelistChange) EmailHash() digest.Digest {
	return c.emailHash
}

func (c whitelistChange) plan(t Targets, function string) ledger.MoveCall {
	return ledger.MoveCall{
		Package:  t.Package,
		Module:   moduleEvent,
		Function: function,
		Args: []ledger.Arg{
			ledger.ObjectInput(c.event, true),
			ledger.PureBytes(c.emailHash.Bytes()),
		},
	}
}

type AddToWhitelist struct {
	whitelistChange
}

func NewAddToWhitelist(eventID string, email string) (*AddToWhitelist, error) {
	c, err := newWhitelistChange(eventID, email)
	if err != nil {
		return nil, err
	}
	return &AddToWhitelist{c}, nil
}

func (r *AddToWhitelist) Kind() Kind {
	return KindAddToWhitelist
}

func (r *AddToWhitelist) Plan(t Targets) ledger.MoveCall {
	return r.plan(t, "add_to_whitelist")
}

type RemoveFromWhitelist struct {
	whitelistChange
}

func NewRemoveFromWhitelist(eventID string, email string) (*RemoveFromWhitelist, error) {
	c, err := newWhitelistChange(eventID, email)
	if err != nil {
		return nil, err
	}
	return &RemoveFromWhitelist{c}, nil
}

func (r *RemoveFromWhitelist) Kind() Kind {
	return KindRemoveFromWhitelist
}

func (r *RemoveFromWhitelist) Plan(t Targets) ledger.MoveCall {
	return r.plan(t, "remove_from_whitelist")
}

// Deposit funds an event's prize pool with a coin split off the payer's gas
// coin. Callers check the payer's balance with CheckDepositFunds first.
type Deposit struct {
	base
	event  ledger.ObjectID
	amount uint64
}

func NewDeposit(eventID string, amount uint64) (*Deposit, error) {
	event, err := parseObjectID("event id", eventID)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, chainerr.New(chainerr.InvalidInput, "deposit amount must be positive")
	}
	return &Deposit{event: event, amount: amount}, nil
}

func (r *Deposit) Kind() Kind {
	return KindDeposit
}

func (r *Deposit) Event() ledger.ObjectID {
	return r.event
}

func (r *Deposit) Amount() uint64 {
	return r.amount
}

func (r *Deposit) Plan(t Targets) ledger.MoveCall {
	return ledger.MoveCall{
		Package:  t.Package,
		Module:   moduleEvent,
		Function: "deposit",
		Args: []ledger.Arg{
			ledger.ObjectInput(r.event, true),
			ledger.SplitGas(r.amount),
		},
	}
}

// CheckDepositFunds requires balance to exceed amount plus reserve.
func CheckDepositFunds(balance *uint256.Int, amount uint64, reserve uint64) error {
	need := new(uint256.Int).Add(uint256.NewInt(amount), uint256.NewInt(reserve))
	if balance == nil || balance.Cmp(need) <= 0 {
		have := "0"
		if balance != nil {
			have = balance.Dec()
		}
		return chainerr.New(chainerr.InsufficientFunds, "balance %s mist does not cover deposit %d plus gas reserve %d", have, amount, reserve)
	}
	return nil
}

type CloseEvent struct {
	base
	event ledger.ObjectID
}

func NewCloseEvent(eventID string) (*CloseEvent, error) {
	event, err := parseObjectID("event id", eventID)
	if err != nil {
		return nil, err
	}
	return &CloseEvent{event: event}, nil
}

func (r *CloseEvent) Kind() Kind {
	return KindCloseEvent
}

func (r *CloseEvent) Event() ledger.ObjectID {
	return r.event
}

func (r *CloseEvent) Plan(t Targets) ledger.MoveCall {
	return ledger.MoveCall{
		Package:  t.Package,
		Module:   moduleEvent,
		Function: "close_event",
		Args:     []ledger.Arg{ledger.ObjectInput(r.event, true)},
	}
}
