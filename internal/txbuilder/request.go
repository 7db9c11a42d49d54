// Package txbuilder turns typed inputs into operation requests. Builders do
// no I/O and reject malformed input before anything reaches the network.
package txbuilder

import (
	"net/mail"
	"strings"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/extractor"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/pkg/digest"
)

type Kind string

const (
	KindCreateAccount       Kind = "create_account"
	KindCreateEvent         Kind = "create_event"
	KindAddToWhitelist      Kind = "add_to_whitelist"
	KindRemoveFromWhitelist Kind = "remove_from_whitelist"
	KindDeposit             Kind = "deposit"
	KindCloseEvent          Kind = "close_event"
	KindMintCertificate     Kind = "mint_certificate"
	KindWithdrawTreasury    Kind = "withdraw_treasury"
	KindLinkWallet          Kind = "link_wallet"
)

const (
	moduleAccount     = "account"
	moduleEvent       = "event"
	moduleCertificate = "certificate"
	moduleTreasury    = "treasury"
)

// Targets are the deployed package and its shared singletons.
type Targets struct {
	Package  ledger.ObjectID
	Registry ledger.ObjectID
	Treasury ledger.ObjectID
}

func ParseTargets(pkg, registry, treasury string) (Targets, error) {
	var t Targets
	var err error
	if t.Package, err = ledger.ParseAddress(pkg); err != nil {
		return t, chainerr.New(chainerr.InvalidInput, "package id: %v", err)
	}
	if t.Registry, err = ledger.ParseAddress(registry); err != nil {
		return t, chainerr.New(chainerr.InvalidInput, "registry id: %v", err)
	}
	if t.Treasury, err = ledger.ParseAddress(treasury); err != nil {
		return t, chainerr.New(chainerr.InvalidInput, "treasury id: %v", err)
	}
	return t, nil
}

// Request is an operation ready to be planned and submitted.
type Request interface {
	Kind() Kind

	// Plan renders the Move call against the deployed package.
	Plan(t Targets) ledger.MoveCall

	// Hint tells the extractor which created object is the result.
	Hint() extractor.Hint

	isRequest()
}

type base struct{}

func (base) isRequest() {}

func (base) Hint() extractor.Hint {
	return extractor.Hint{}
}

// ValidEmail reports whether s has the shape of a single bare address.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func emailDigest(email string) (digest.Digest, string, error) {
	normalized := digest.NormalizeEmail(email)
	if !ValidEmail(normalized) {
		return digest.Digest{}, "", chainerr.New(chainerr.InvalidInput, "invalid email %q", email)
	}
	return digest.Email(normalized), normalized, nil
}

func parseObjectID(name string, s string) (ledger.ObjectID, error) {
	id, err := ledger.ParseAddress(s)
	if err != nil {
		return id, chainerr.New(chainerr.InvalidInput, "%s: %v", name, err)
	}
	if id.IsZero() {
		return id, chainerr.New(chainerr.InvalidInput, "%s must not be zero", name)
	}
	return id, nil
}

var (
	_ Request = (*CreateAccount)(nil)
	_ Request = (*LinkWallet)(nil)
	_ Request = (*CreateEvent)(nil)
	_ Request = (*AddToWhitelist)(nil)
	_ Request = (*RemoveFromWhitelist)(nil)
	_ Request = (*Deposit)(nil)
	_ Request = (*CloseEvent)(nil)
	_ Request = (*MintCertificate)(nil)
	_ Request = (*WithdrawTreasury)(nil)
)
