package bcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestULEB128(t *testing.T) {
	cases := map[uint64][]byte{
		0:       {0x00},
		1:       {0x01},
		127:     {0x7f},
		128:     {0x80, 0x01},
		300:     {0xac, 0x02},
		16384:   {0x80, 0x80, 0x01},
		1 << 32: {0x80, 0x80, 0x80, 0x80, 0x10},
	}
	for v, want := range cases {
		assert.Equal(t, want, NewEncoder().ULEB128(v).Result(), "value %d", v)
	}
}

func TestIntegers(t *testing.T) {
	assert.Equal(t, []byte{0x2a}, U8(42))
	assert.Equal(t, []byte{0x01, 0x02}, NewEncoder().U16(0x0201).Result())
	assert.Equal(t, []byte{0x00, 0xe4, 0x0b, 0x54, 0x02, 0x00, 0x00, 0x00}, U64(10_000_000_000))
	assert.Equal(t, []byte{0x01}, Bool(true))
	assert.Equal(t, []byte{0x00}, Bool(false))
}

func TestVectors(t *testing.T) {
	assert.Equal(t, []byte{0x03, 'a', 'b', 'c'}, ByteVector([]byte("abc")))
	assert.Equal(t, []byte{0x00}, ByteVector(nil))
	assert.Equal(t, []byte{0x05, 'e', 'v', 'e', 'n', 't'}, NewEncoder().String("event").Result())

	fixed := NewEncoder().Fixed([]byte{1, 2}).U8(3).Result()
	assert.Equal(t, []byte{1, 2, 3}, fixed)
}

func TestResultIsCopy(t *testing.T) {
	e := NewEncoder().U8(1)
	out := e.Result()
	out[0] = 9
	assert.Equal(t, []byte{1}, e.Result())
}
