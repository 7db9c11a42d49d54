package digest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumDeterministic(t *testing.T) {
	emails := []string{"a@example.com", "organizer+1@popchain.io", "", "UPPER@EXAMPLE.COM"}
	for _, email := range emails {
		d1 := SumString(email)
		d2 := SumString(email)
		assert.Equal(t, d1, d2)
		assert.True(t, bytes.Equal(d1.Bytes(), d2.Bytes()))

		decoded, err := FromHex(d1.Hex())
		require.Nil(t, err)
		assert.Equal(t, d1.Bytes(), decoded.Bytes())
	}
}

func TestKnownVector(t *testing.T) {
	// sha3-256("")
	assert.Equal(t, "0xa7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", SumString("").Hex())
}

func TestEmailNormalization(t *testing.T) {
	assert.Equal(t, Email("a@example.com"), Email("  A@Example.COM \n"))
	assert.NotEqual(t, SumString("A@example.com"), SumString("a@example.com"))
}

func TestBytesIsCopy(t *testing.T) {
	d := SumString("x")
	b := d.Bytes()
	b[0] ^= 0xff
	assert.NotEqual(t, b[0], d[0])
}

func TestFromHex(t *testing.T) {
	d := SumString("hello")
	noPrefix := d.Hex()[2:]
	got, err := FromHex(noPrefix)
	require.Nil(t, err)
	assert.Equal(t, d, got)

	_, err = FromHex("0x1234")
	assert.NotNil(t, err)

	_, err = FromHex("zz")
	assert.NotNil(t, err)
	assert.True(t, Digest{}.IsZero())
}
