package txbuilder

import (
	"strings"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/extractor"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/pkg/digest"
)

// Role is the numeric account role stored on chain.
type Role uint8

const (
	RoleAttendee  Role = 0
	RoleOrganizer Role = 1

	// RoleBoth only arises from direct data manipulation; builders never produce it.
	RoleBoth Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleAttendee:
		return "attendee"
	case RoleOrganizer:
		return "organizer"
	case RoleBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseRole maps the roles a user can pick. Attendees and participants share
// one on-chain role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attendee", "participant":
		return RoleAttendee, nil
	case "organizer":
		return RoleOrganizer, nil
	default:
		return 0, chainerr.New(chainerr.InvalidInput, "unsupported role %q", s)
	}
}

var AccountHint = extractor.Hint{
	TypeSuffix: "::account::Account",
	EventType:  "::account::AccountCreated",
	EventField: "account_id",
}

type CreateAccount struct {
	base
	email     string
	emailHash digest.Digest
	role      Role
	owner     ledger.Address
}

// NewCreateAccount accepts "0x0" or an empty owner for accounts created
// before a wallet is connected.
func NewCreateAccount(email string, role string, owner string) (*CreateAccount, error) {
	hash, normalized, err := emailDigest(email)
	if err != nil {
		return nil, err
	}
	r, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	o := ledger.NoOwner
	if owner = strings.TrimSpace(owner); owner != "" {
		if o, err = ledger.ParseAddress(owner); err != nil {
			return nil, chainerr.New(chainerr.InvalidInput, "owner: %v", err)
		}
	}
	return &CreateAccount{email: normalized, emailHash: hash, role: r, owner: o}, nil
}

func (r *CreateAccount) Kind() Kind { return KindCreateAccount }
func (r *CreateAccount) Email() string { return r.email }
func (r *CreateAccount) EmailHash() digest.Digest { return r.emailHash }
func (r *CreateAccount) Role() Role { return r.role }
func (r *CreateAccount) Owner() ledger.Address { return r.owner }
func (r *CreateAccount) Hint() extractor.Hint { return AccountHint }

func (r *CreateAccount) Plan(t Targets) ledger.MoveCall {
	return ledger.MoveCall{
		Package:  t.Package,
		Module:   moduleAccount,
		Function: "create_account",
		Args: []ledger.Arg{
			ledger.ObjectInput(t.Registry, true),
			ledger.PureBytes(r.emailHash.Bytes()),
			ledger.PureU8(uint8(r.role)),
			ledger.PureAddress(r.owner),
		},
	}
}

type LinkWallet struct {
	base
	account ledger.ObjectID
	wallet  ledger.Address
}

func NewLinkWallet(accountID string, wallet string) (*LinkWallet, error) {
	account, err := parseObjectID("account id", accountID)
	if err != nil {
		return nil, err
	}
	w, err := parseObjectID("wallet", wallet)
	if err != nil {
		return nil, err
	}
	return &LinkWallet{account: account, wallet: w}, nil
}

func (r *LinkWallet) Kind() Kind { return KindLinkWallet }
func (r *LinkWallet) Account() ledger.ObjectID { return r.account }
func (r *LinkWallet) Wallet() ledger.Address { return r.wallet }

func (r *LinkWallet) Plan(t Targets) ledger.MoveCall {
	return ledger.MoveCall{
		Package:  t.Package,
		Module:   moduleAccount,
		Function: "link_wallet",
		Args: []ledger.Arg{
			ledger.ObjectInput(r.account, true),
			ledger.PureAddress(r.wallet),
		},
	}
}
