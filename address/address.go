// Package address implements deterministic, collision-free record addressing.
//
// Every record subwave stores lives at an Address derived from the record kind
// and its identity tuple. The same tuple always yields the same Address, and no
// two distinct (kind, tuple) inputs share an Address, so the store needs no
// secondary index to find "the" merchant, config or subscription for an
// identity. Principals (authorities, subscribers, token mints) use the same
// 32-byte Address type.
package address

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"lukechampine.com/blake3"
)

// Size is the byte length of an Address.
const Size = 32

// Address is a 32-byte principal or derived record key.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type Address [Size]byte

// Zero is the zero Address.
var Zero Address

// ErrInvalid is returned when a string is not a base58 encoded 32-byte address.
var ErrInvalid = errors.New("address: invalid address")

// Kind tags the record kind a derived address belongs to.
type Kind uint8

// Record kinds.
const (
	KindMerchant     Kind = 1
	KindConfig       Kind = 2
	KindSubscription Kind = 3
)

var seeds = map[Kind]string{
	KindMerchant:     "merchant",
	KindConfig:       "config",
	KindSubscription: "subscription",
}

// String returns the derivation seed of the kind.
func (k Kind) String() string {
	if s, ok := seeds[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is a known record kind.
func (k Kind) Valid() bool {
	_, ok := seeds[k]
	return ok
}

// Derive returns the address for a record kind and identity tuple.
//
// The seed and every part are written length-prefixed before hashing, so
// ("ab", "c") and ("a", "bc") hash different inputs.
func Derive(kind Kind, parts ...[]byte) Address {
	buf := bytes.NewBuffer(nil)
	writeDelimited(buf, []byte(kind.String()))
	for _, p := range parts {
		writeDelimited(buf, p)
	}
	return Address(blake3.Sum256(buf.Bytes()))
}

func writeDelimited(buf *bytes.Buffer, b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	buf.Write(n[:])
	buf.Write(b)
}

// MerchantAddress derives the merchant key for (authority, tokenMint).
func MerchantAddress(authority, tokenMint Address) Address {
	return Derive(KindMerchant, authority[:], tokenMint[:])
}

// ConfigAddress derives the subscription config key for (merchant, productName).
func ConfigAddress(merchant Address, productName string) Address {
	return Derive(KindConfig, merchant[:], []byte(productName))
}

// SubscriptionAddress derives the subscription key for (subscriber, config).
func SubscriptionAddress(subscriber, config Address) Address {
	return Derive(KindSubscription, subscriber[:], config[:])
}

// FromBytes copies b into an Address.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalid, Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Parse decodes a base58 address.
func Parse(s string) (Address, error) {
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrInvalid)
	}
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return Zero, fmt.Errorf("%w: %q is not base58", ErrInvalid, s)
	}
	return FromBytes(raw)
}

// MustParse is like Parse but panics on error. Use for hardcoded values.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the base58 form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool {
	return a == Zero
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
