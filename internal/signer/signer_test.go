package signer

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popchain/popchain-core/pkg/crypto"
)

func TestKeypairSignTransaction(t *testing.T) {
	kp, err := GenerateKeypair()
	require.Nil(t, err)

	txBytes := []byte{0, 0, 1, 2, 3}
	sig, err := kp.SignTransaction(context.Background(), txBytes)
	require.Nil(t, err)

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.Nil(t, err)
	require.Len(t, raw, 1+64+32)
	assert.Equal(t, crypto.SchemeEd25519, raw[0])
	assert.Equal(t, kp.PublicKey(), raw[65:])

	pub := &crypto.Ed25519PublicKey{}
	require.Nil(t, pub.Unmarshal(raw[65:]))
	msg := crypto.TransactionDigest(txBytes)
	assert.True(t, pub.Verify(msg[:], raw[1:65]))
}

func TestKeypairExportRoundTrip(t *testing.T) {
	kp, err := GenerateKeypair()
	require.Nil(t, err)

	encoded, err := kp.ExportBech32()
	require.Nil(t, err)

	scheme, seed, err := crypto.DecodeBech32PrivateKey(encoded)
	require.Nil(t, err)
	assert.Equal(t, crypto.SchemeEd25519, scheme)
	key, err := crypto.Ed25519PrivateKeyFromSeed(seed)
	require.Nil(t, err)
	assert.Equal(t, kp.Address(), NewKeypair(key).Address())
}

func TestExternalSigner(t *testing.T) {
	kp, err := GenerateKeypair()
	require.Nil(t, err)

	wallet := NewExternal(kp.Address(), kp.SignTransaction)
	assert.Equal(t, kp.Address(), wallet.Address())
	sig, err := wallet.SignTransaction(context.Background(), []byte{1})
	require.Nil(t, err)
	assert.NotEmpty(t, sig)

	rejecting := NewExternal(kp.Address(), func(context.Context, []byte) (string, error) {
		return "", ErrUserRejected
	})
	_, err = rejecting.SignTransaction(context.Background(), []byte{1})
	assert.ErrorIs(t, err, ErrUserRejected)

	_, err = NewExternal(kp.Address(), nil).SignTransaction(context.Background(), []byte{1})
	assert.ErrorIs(t, err, ErrUserRejected)
}
