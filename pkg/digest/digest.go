package digest

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// Length is the size in bytes of every digest.
const Length = 32

// Digest is a SHA3-256 hash. The on-chain modules hash with std::hash::sha3_256,
// so values produced here compare byte for byte with the ones computed by the ledger.
type Digest [Length]byte

func Sum(b []byte) Digest {
	return sha3.Sum256(b)
}

func SumString(s string) Digest {
	return Sum([]byte(s))
}

// Email hashes an email address after trimming surrounding space and lower-casing it.
func Email(email string) Digest {
	return SumString(NormalizeEmail(email))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func FromHex(s string) (Digest, error) {
	var d Digest
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return d, errors.Wrap(err, "decode digest")
	}
	if len(raw) != Length {
		return d, errors.Errorf("bad digest length %d, want %d", len(raw), Length)
	}
	copy(d[:], raw)
	return d, nil
}

// Bytes returns a copy of the digest, the form the protocol calls take.
func (d Digest) Bytes() []byte {
	b := make([]byte, Length)
	copy(b, d[:])
	return b
}

// Hex returns the 0x-prefixed lower-case hex form.
func (d Digest) Hex() string {
	return hexutil.Encode(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}
