// Package bcs implements the subset of Binary Canonical Serialization needed to
// encode Move transaction data: little-endian integers, ULEB128 lengths and
// variant tags, length-prefixed byte vectors and fixed-size byte arrays.
package bcs

import (
	"bytes"
	"encoding/binary"
)

type Encoder struct {
	buf bytes.Buffer
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) ULEB128(v uint64) *Encoder {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		e.buf.WriteByte(b)
		if v == 0 {
			return e
		}
	}
}

// Variant writes an enum variant index.
func (e *Encoder) Variant(idx uint32) *Encoder {
	return e.ULEB128(uint64(idx))
}

// Len writes a sequence length.
func (e *Encoder) Len(n int) *Encoder {
	return e.ULEB128(uint64(n))
}

func (e *Encoder) U8(v uint8) *Encoder {
	e.buf.WriteByte(v)
	return e
}

func (e *Encoder) U16(v uint16) *Encoder {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) U64(v uint64) *Encoder {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		return e.U8(1)
	}
	return e.U8(0)
}

// Bytes writes a length-prefixed byte vector.
func (e *Encoder) Bytes(b []byte) *Encoder {
	e.Len(len(b))
	e.buf.Write(b)
	return e
}

// Fixed writes b without a length prefix, for fixed-size arrays such as addresses.
func (e *Encoder) Fixed(b []byte) *Encoder {
	e.buf.Write(b)
	return e
}

func (e *Encoder) String(s string) *Encoder {
	return e.Bytes([]byte(s))
}

func (e *Encoder) Result() []byte {
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	return out
}

func U8(v uint8) []byte {
	return NewEncoder().U8(v).Result()
}

func U64(v uint64) []byte {
	return NewEncoder().U64(v).Result()
}

func Bool(v bool) []byte {
	return NewEncoder().Bool(v).Result()
}

// ByteVector encodes a Move vector<u8>.
func ByteVector(b []byte) []byte {
	return NewEncoder().Bytes(b).Result()
}
