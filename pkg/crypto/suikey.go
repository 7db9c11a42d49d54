package crypto

import (
	"encoding/base64"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	// SchemeEd25519 is the signature scheme flag prefixed to keys, addresses and signatures.
	SchemeEd25519 byte = 0x00

	// PrivateKeyHRP is the human readable part of bech32 encoded private keys.
	PrivateKeyHRP = "suiprivkey"

	AddressLength = 32
)

// transaction data intent: scope=0, version=0, app=0
var transactionIntent = []byte{0, 0, 0}

// DecodeBech32PrivateKey decodes a suiprivkey1... string into its scheme flag and seed.
func DecodeBech32PrivateKey(s string) (byte, []byte, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return 0, nil, errors.Wrap(err, "bech32 decode")
	}
	if hrp != PrivateKeyHRP {
		return 0, nil, errors.Errorf("unexpected hrp %q", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return 0, nil, errors.Wrap(err, "convert bits")
	}
	if len(raw) != 33 {
		return 0, nil, errors.Errorf("bad private key payload length %d, want 33", len(raw))
	}
	return raw[0], raw[1:], nil
}

func EncodeBech32PrivateKey(scheme byte, seed []byte) (string, error) {
	raw := append([]byte{scheme}, seed...)
	data, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "convert bits")
	}
	return bech32.Encode(PrivateKeyHRP, data)
}

// DeriveAddress returns blake2b-256(scheme || publicKey).
func DeriveAddress(scheme byte, publicKey []byte) [AddressLength]byte {
	buf := make([]byte, 0, 1+len(publicKey))
	buf = append(buf, scheme)
	buf = append(buf, publicKey...)
	return blake2b.Sum256(buf)
}

// TransactionDigest is the message actually signed for a BCS encoded transaction.
func TransactionDigest(txBytes []byte) [32]byte {
	buf := make([]byte, 0, len(transactionIntent)+len(txBytes))
	buf = append(buf, transactionIntent...)
	buf = append(buf, txBytes...)
	return blake2b.Sum256(buf)
}

// SerializeSignature renders scheme || signature || publicKey as base64, the form
// the execution endpoint accepts.
func SerializeSignature(scheme byte, sig []byte, publicKey []byte) string {
	buf := make([]byte, 0, 1+len(sig)+len(publicKey))
	buf = append(buf, scheme)
	buf = append(buf, sig...)
	buf = append(buf, publicKey...)
	return base64.StdEncoding.EncodeToString(buf)
}
