package signer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/pkg/crypto"
)

// ErrUserRejected is returned by external signers when the holder declines to sign.
var ErrUserRejected = errors.New("user rejected the request")

// Signer produces the serialized signature for BCS transaction bytes.
type Signer interface {
	Address() ledger.Address
	SignTransaction(ctx context.Context, txBytes []byte) (string, error)
}

var _ Signer = (*Keypair)(nil)

// Keypair signs in process with an ed25519 key.
type Keypair struct {
	key     *crypto.Ed25519PrivateKey
	address ledger.Address
}

func NewKeypair(key *crypto.Ed25519PrivateKey) *Keypair {
	pub := key.PublicKey().PublicKey
	return &Keypair{
		key:     key,
		address: crypto.DeriveAddress(crypto.SchemeEd25519, pub),
	}
}

func GenerateKeypair() (*Keypair, error) {
	key, err := crypto.GenerateEd25519PrivateKey()
	if err != nil {
		return nil, err
	}
	return NewKeypair(key), nil
}

func (k *Keypair) Address() ledger.Address {
	return k.address
}

func (k *Keypair) PublicKey() []byte {
	pub, _ := k.key.PublicKey().Marshal()
	return pub
}

// ExportBech32 renders the secret in the suiprivkey form wallets import.
func (k *Keypair) ExportBech32() (string, error) {
	seed, err := k.key.Marshal()
	if err != nil {
		return "", err
	}
	return crypto.EncodeBech32PrivateKey(crypto.SchemeEd25519, seed)
}

func (k *Keypair) SignTransaction(_ context.Context, txBytes []byte) (string, error) {
	msg := crypto.TransactionDigest(txBytes)
	sig, err := k.key.Sign(msg[:])
	if err != nil {
		return "", errors.Wrap(err, "sign transaction")
	}
	return crypto.SerializeSignature(crypto.SchemeEd25519, sig, k.key.PublicKey().PublicKey), nil
}

// SignFunc hands transaction bytes to a key holder outside the process, such
// as a browser wallet, and returns its serialized signature.
type SignFunc func(ctx context.Context, txBytes []byte) (string, error)

var _ Signer = (*External)(nil)

// External is a connected wallet. Rejections surface as ErrUserRejected.
type External struct {
	address ledger.Address
	sign    SignFunc
}

func NewExternal(address ledger.Address, sign SignFunc) *External {
	return &External{address: address, sign: sign}
}

func (e *External) Address() ledger.Address {
	return e.address
}

func (e *External) SignTransaction(ctx context.Context, txBytes []byte) (string, error) {
	if e.sign == nil {
		return "", errors.Wrap(ErrUserRejected, "no wallet connected")
	}
	sig, err := e.sign(ctx, txBytes)
	if err != nil {
		return "", err
	}
	if sig == "" {
		return "", errors.Wrap(ErrUserRejected, "empty signature")
	}
	return sig, nil
}
