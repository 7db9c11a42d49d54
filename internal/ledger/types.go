package ledger

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/popchain/popchain-core/pkg/crypto"
)

const (
	AddressLength = crypto.AddressLength
	DigestLength  = 32

	SuiCoinType = "0x2::sui::SUI"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrObjectNotFound = errors.New("object not found")
)

// Address is a 32 byte account or object address.
type Address [AddressLength]byte

// ObjectID shares the address space.
type ObjectID = Address

// NoOwner is the sentinel owner of accounts created before a wallet is linked.
var NoOwner = Address{}

// ParseAddress accepts 0x-prefixed hex of up to 64 digits; short forms such as
// "0x2" are left-padded.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return a, errors.Wrapf(ErrInvalidAddress, "%q: missing 0x prefix", s)
	}
	h := s[2:]
	if len(h) == 0 || len(h) > AddressLength*2 {
		return a, errors.Wrapf(ErrInvalidAddress, "%q: bad length", s)
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return a, errors.Wrapf(ErrInvalidAddress, "%q: %v", s, err)
	}
	copy(a[AddressLength-len(raw):], raw)
	return a, nil
}

func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ObjectRef pins an owned object to the exact version a transaction consumes.
type ObjectRef struct {
	ObjectID ObjectID
	Version  uint64
	Digest   []byte
}

func NewObjectRef(id string, version string, digest string) (ObjectRef, error) {
	var ref ObjectRef
	oid, err := ParseAddress(id)
	if err != nil {
		return ref, err
	}
	v, err := strconv.ParseUint(version, 10, 64)
	if err != nil {
		return ref, errors.Wrapf(err, "object %s: bad version %q", id, version)
	}
	d, err := DecodeDigest(digest)
	if err != nil {
		return ref, errors.Wrapf(err, "object %s", id)
	}
	return ObjectRef{ObjectID: oid, Version: v, Digest: d}, nil
}

// DecodeDigest decodes a base58 object or transaction digest.
func DecodeDigest(s string) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "decode digest %q", s)
	}
	if len(raw) != DigestLength {
		return nil, errors.Errorf("bad digest length %d, want %d", len(raw), DigestLength)
	}
	return raw, nil
}

func EncodeDigest(raw []byte) string {
	return base58.Encode(raw)
}

type OwnerKind int

const (
	OwnerAddress OwnerKind = iota
	OwnerObject
	OwnerShared
	OwnerImmutable
)

type Owner struct {
	Kind                 OwnerKind
	Address              Address
	InitialSharedVersion uint64
}

// Object is the subset of a ledger object the orchestration layer reads.
type Object struct {
	Ref     ObjectRef
	Type    string
	Owner   Owner
	Content []byte
}

type Coin struct {
	Ref     ObjectRef
	Balance uint64
}

type CoinPage struct {
	Coins       []Coin
	NextCursor  string
	HasNextPage bool
}

type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

type Event struct {
	ID          EventID
	Type        string
	Sender      string
	ParsedJSON  []byte
	TimestampMs uint64
}

type EventPage struct {
	Events      []Event
	NextCursor  *EventID
	HasNextPage bool
}

// EventQuery filters events by emitting module.
type EventQuery struct {
	Package ObjectID
	Module  string
}
