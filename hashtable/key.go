package hashtable

import (
	"errors"
	"fmt"
)

// MaxKeyLength is the longest key a Key can hold.
const MaxKeyLength = 64

// ErrKeyTooLong is returned when a key exceeds MaxKeyLength bytes.
var ErrKeyTooLong = errors.New("hashtable: key too long")

// Key is a bounded byte string stored inline. The zero Key is empty.
type Key struct {
	data [MaxKeyLength]byte
	n    uint8
}

// NewKey copies s into a Key.
func NewKey(s string) (Key, error) {
	var k Key
	if len(s) > MaxKeyLength {
		return k, fmt.Errorf("%w: %d bytes (max %d)", ErrKeyTooLong, len(s), MaxKeyLength)
	}
	k.n = uint8(copy(k.data[:], s))
	return k, nil
}

// KeyFromBytes copies b into a Key.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) > MaxKeyLength {
		return k, fmt.Errorf("%w: %d bytes (max %d)", ErrKeyTooLong, len(b), MaxKeyLength)
	}
	k.n = uint8(copy(k.data[:], b))
	return k, nil
}

// MustKey is like NewKey but panics if s is too long.
func MustKey(s string) Key {
	k, err := NewKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Len returns the key length in bytes.
func (k Key) Len() int { return int(k.n) }

// IsEmpty reports whether k is the empty key.
func (k Key) IsEmpty() bool { return k.n == 0 }

// Bytes returns a copy of the key bytes.
func (k Key) Bytes() []byte {
	b := make([]byte, k.n)
	copy(b, k.data[:k.n])
	return b
}

func (k Key) String() string {
	return string(k.data[:k.n])
}

// Hash returns the djb2 hash of the key bytes.
func (k Key) Hash() uint32 {
	return djb2(k.data[:k.n])
}

func djb2(b []byte) uint32 {
	h := uint32(5381)
	for _, c := range b {
		h = h*33 + uint32(c)
	}
	return h
}
