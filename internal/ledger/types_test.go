package ledger

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("0x2")
	require.Nil(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000002", a.String())

	full := "0x5f2b0c2e7a4e1f3c9e8d7a6b5c4d3e2f1a0b9c8d7e6f5a4b3c2d1e0f9a8b7c6d"
	a, err = ParseAddress(full)
	require.Nil(t, err)
	assert.Equal(t, full, a.String())

	_, err = ParseAddress("5f2b")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAddress("0x")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAddress("0xzz")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAddress(full + "00")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	assert.True(t, NoOwner.IsZero())
	assert.Equal(t, NoOwner, MustParseAddress("0x0"))
}

func TestAddressText(t *testing.T) {
	a := MustParseAddress("0xabc")
	text, err := a.MarshalText()
	require.Nil(t, err)

	var b Address
	require.Nil(t, b.UnmarshalText(text))
	assert.Equal(t, a, b)
	assert.NotNil(t, b.UnmarshalText([]byte("abc")))
}

func TestNewObjectRef(t *testing.T) {
	digest := base58.Encode(make([]byte, 32))
	ref, err := NewObjectRef("0x5", "42", digest)
	require.Nil(t, err)
	assert.Equal(t, MustParseAddress("0x5"), ref.ObjectID)
	assert.EqualValues(t, 42, ref.Version)
	assert.Len(t, ref.Digest, 32)
	assert.Equal(t, digest, EncodeDigest(ref.Digest))

	_, err = NewObjectRef("0x5", "x", digest)
	assert.NotNil(t, err)
	_, err = NewObjectRef("0x5", "1", base58.Encode([]byte{1, 2, 3}))
	assert.NotNil(t, err)
}
