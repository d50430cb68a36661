// Package codec implements the fixed-size binary layout of stored records.
//
// Every record starts with a one-byte kind tag and a one-byte layout version,
// followed by its fields in declaration order, big endian. The record's own
// address is the storage key and is not part of the payload.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/subscription"
)

// Version is the current layout version.
const Version byte = 1

const headerLen = 2

// Encoded record sizes.
const (
	MerchantSize     = headerLen + 2*address.Size
	ConfigSize       = headerLen + address.Size + 8 + 4 + 4 + merchant.MaxProductNameLen + 1
	SubscriptionSize = headerLen + 3*address.Size + 8 + 8 + 1 + 8
)

var (
	ErrShortBuffer    = errors.New("codec: short buffer")
	ErrKindMismatch   = errors.New("codec: record kind mismatch")
	ErrVersion        = errors.New("codec: unsupported layout version")
	ErrNameTooLong    = errors.New("codec: product name exceeds capacity")
	ErrCorruptPayload = errors.New("codec: corrupt payload")
)

// KindOf returns the kind tag of an encoded record.
func KindOf(data []byte) (address.Kind, error) {
	if len(data) < headerLen {
		return 0, ErrShortBuffer
	}
	k := address.Kind(data[0])
	if !k.Valid() {
		return 0, fmt.Errorf("%w: unknown tag %d", ErrCorruptPayload, data[0])
	}
	return k, nil
}

func header(data []byte, kind address.Kind, size int) error {
	if len(data) != size {
		if len(data) < size {
			return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortBuffer, kind, size, len(data))
		}
		return fmt.Errorf("%w: %s is %d bytes, got %d", ErrCorruptPayload, kind, size, len(data))
	}
	if address.Kind(data[0]) != kind {
		return fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, kind, address.Kind(data[0]))
	}
	if data[1] != Version {
		return fmt.Errorf("%w: %d", ErrVersion, data[1])
	}
	return nil
}

// EncodeMerchant encodes m.
func EncodeMerchant(m *merchant.Merchant) []byte {
	buf := make([]byte, MerchantSize)
	buf[0], buf[1] = byte(address.KindMerchant), Version
	off := headerLen
	off += copy(buf[off:], m.Authority[:])
	copy(buf[off:], m.TokenMint[:])
	return buf
}

// DecodeMerchant decodes the merchant stored at addr.
func DecodeMerchant(addr address.Address, data []byte) (*merchant.Merchant, error) {
	if err := header(data, address.KindMerchant, MerchantSize); err != nil {
		return nil, err
	}
	m := &merchant.Merchant{Address: addr}
	off := headerLen
	off += copy(m.Authority[:], data[off:])
	copy(m.TokenMint[:], data[off:])
	return m, nil
}

// EncodeConfig encodes c. It fails if the product name does not fit.
func EncodeConfig(c *merchant.Config) ([]byte, error) {
	if len(c.ProductName) > merchant.MaxProductNameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(c.ProductName))
	}
	buf := make([]byte, ConfigSize)
	buf[0], buf[1] = byte(address.KindConfig), Version
	off := headerLen
	off += copy(buf[off:], c.Merchant[:])
	binary.BigEndian.PutUint64(buf[off:], c.Price)
	off += 8
	binary.BigEndian.PutUint32(buf[off:], c.IntervalDays)
	off += 4
	binary.BigEndian.PutUint32(buf[off:], uint32(len(c.ProductName)))
	off += 4
	copy(buf[off:], c.ProductName)
	off += merchant.MaxProductNameLen
	buf[off] = boolByte(c.Active)
	return buf, nil
}

// DecodeConfig decodes the config stored at addr.
func DecodeConfig(addr address.Address, data []byte) (*merchant.Config, error) {
	if err := header(data, address.KindConfig, ConfigSize); err != nil {
		return nil, err
	}
	c := &merchant.Config{Address: addr}
	off := headerLen
	off += copy(c.Merchant[:], data[off:])
	c.Price = binary.BigEndian.Uint64(data[off:])
	off += 8
	c.IntervalDays = binary.BigEndian.Uint32(data[off:])
	off += 4
	n := binary.BigEndian.Uint32(data[off:])
	off += 4
	if n > merchant.MaxProductNameLen {
		return nil, fmt.Errorf("%w: name length %d", ErrCorruptPayload, n)
	}
	c.ProductName = string(data[off : off+int(n)])
	off += merchant.MaxProductNameLen
	active, err := readBool(data[off])
	if err != nil {
		return nil, err
	}
	c.Active = active
	return c, nil
}

// EncodeSubscription encodes s.
func EncodeSubscription(s *subscription.Subscription) []byte {
	buf := make([]byte, SubscriptionSize)
	buf[0], buf[1] = byte(address.KindSubscription), Version
	off := headerLen
	off += copy(buf[off:], s.Subscriber[:])
	off += copy(buf[off:], s.Merchant[:])
	off += copy(buf[off:], s.Config[:])
	binary.BigEndian.PutUint64(buf[off:], uint64(s.StartTimestamp))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], uint64(s.ExpiryTimestamp))
	off += 8
	buf[off] = boolByte(s.Active)
	off++
	binary.BigEndian.PutUint64(buf[off:], s.TotalPaid)
	return buf
}

// DecodeSubscription decodes the subscription stored at addr.
func DecodeSubscription(addr address.Address, data []byte) (*subscription.Subscription, error) {
	if err := header(data, address.KindSubscription, SubscriptionSize); err != nil {
		return nil, err
	}
	s := &subscription.Subscription{Address: addr}
	off := headerLen
	off += copy(s.Subscriber[:], data[off:])
	off += copy(s.Merchant[:], data[off:])
	off += copy(s.Config[:], data[off:])
	s.StartTimestamp = int64(binary.BigEndian.Uint64(data[off:]))
	off += 8
	s.ExpiryTimestamp = int64(binary.BigEndian.Uint64(data[off:]))
	off += 8
	active, err := readBool(data[off])
	if err != nil {
		return nil, err
	}
	s.Active = active
	off++
	s.TotalPaid = binary.BigEndian.Uint64(data[off:])
	return s, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func readBool(b byte) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: bool byte %d", ErrCorruptPayload, b)
	}
}
