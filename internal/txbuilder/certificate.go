package txbuilder

import (
	"net/url"
	"strings"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/extractor"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/pkg/digest"
)

// tier names by on-chain index
var tierNames = []string{"participant", "bronze", "silver", "gold"}

// TierName returns the off-chain display name of a tier index.
func TierName(tier uint8) (string, bool) {
	if int(tier) >= len(tierNames) {
		return "", false
	}
	return tierNames[tier], true
}

// ParseTier accepts a tier name or its index.
func ParseTier(s string) (uint8, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range tierNames {
		if s == name || (len(s) == 1 && s[0] == byte('0'+i)) {
			return uint8(i), nil
		}
	}
	return 0, chainerr.New(chainerr.InvalidInput, "unknown certificate tier %q", s)
}

var CertificateHint = extractor.Hint{
	TypeSuffix: "::certificate::Certificate",
	EventType:  "::certificate::CertificateMinted",
	EventField: "certificate_id",
}

type MintCertificate struct {
	base
	event     ledger.ObjectID
	recipient ledger.Address
	email     string
	emailHash digest.Digest
	url       string
	tier      uint8
}

// NewMintCertificate passes the URL as raw bytes; the package hashes it on chain.
func NewMintCertificate(eventID string, recipient string, email string, certificateURL string, tier uint8) (*MintCertificate, error) {
	event, err := parseObjectID("event id", eventID)
	if err != nil {
		return nil, err
	}
	to, err := parseObjectID("recipient", recipient)
	if err != nil {
		return nil, err
	}
	hash, normalized, err := emailDigest(email)
	if err != nil {
		return nil, err
	}
	certificateURL = strings.TrimSpace(certificateURL)
	u, err := url.Parse(certificateURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, chainerr.New(chainerr.InvalidInput, "invalid certificate url %q", certificateURL)
	}
	if _, ok := TierName(tier); !ok {
		return nil, chainerr.New(chainerr.InvalidInput, "tier %d out of range 0-%d", tier, len(tierNames)-1)
	}
	return &MintCertificate{
		event:     event,
		recipient: to,
		email:     normalized,
		emailHash: hash,
		url:       certificateURL,
		tier:      tier,
	}, nil
}

func (r *MintCertificate) Kind() Kind {
	return KindMintCertificate
}

func (r *MintCertificate) Event() ledger.ObjectID {
	return r.event
}

func (r *MintCertificate) Recipient() ledger.Address {
	return r.recipient
}

func (r *MintCertificate) Email() string {
	return r.email
}

func (r *MintCertificate) URL() string {
	return r.url
}

func (r *MintCertificate) Tier() uint8 {
	return r.tier
}

func (r *MintCertificate) TierName() string {
	name, _ := TierName(r.tier)
	return name
}

func (r *MintCertificate) Hint() extractor.Hint {
	return CertificateHint
}

func (r *MintCertificate) Plan(t Targets) ledger.MoveCall {
	return ledger.MoveCall{
		Package:  t.Package,
		Module:   moduleCertificate,
		Function: "mint_certificate",
		Args: []ledger.Arg{
			ledger.ObjectInput(r.event, true),
			ledger.PureBytes(r.emailHash.Bytes()),
			ledger.PureBytes([]byte(r.url)),
			ledger.PureU8(r.tier),
			ledger.PureAddress(r.recipient),
		},
	}
}

// WithdrawTreasury carries only the amount; the ledger decides who may withdraw.
type WithdrawTreasury struct {
	base
	amount uint64
}

func NewWithdrawTreasury(amount uint64) (*WithdrawTreasury, error) {
	if amount == 0 {
		return nil, chainerr.New(chainerr.InvalidInput, "withdraw amount must be positive")
	}
	return &WithdrawTreasury{amount: amount}, nil
}

func (r *WithdrawTreasury) Kind() Kind {
	return KindWithdrawTreasury
}

func (r *WithdrawTreasury) Amount() uint64 {
	return r.amount
}

func (r *WithdrawTreasury) Plan(t Targets) ledger.MoveCall {
	return ledger.MoveCall{
		Package:  t.Package,
		Module:   moduleTreasury,
		Function: "withdraw",
		Args: []ledger.Arg{
			ledger.ObjectInput(t.Treasury, true),
			ledger.PureU64(r.amount),
		},
	}
}
