package codec_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/codec"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/subscription"
)

func fill(b byte) address.Address {
	var a address.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func TestSizes(t *testing.T) {
	assert.Equal(t, 66, codec.MerchantSize)
	assert.Equal(t, 101, codec.ConfigSize)
	assert.Equal(t, 123, codec.SubscriptionSize)
}

func TestMerchant(t *testing.T) {
	m := &merchant.Merchant{Address: fill(1), Authority: fill(2), TokenMint: fill(3)}

	data := codec.EncodeMerchant(m)
	require.Len(t, data, codec.MerchantSize)

	kind, err := codec.KindOf(data)
	require.NoError(t, err)
	assert.Equal(t, address.KindMerchant, kind)

	got, err := codec.DecodeMerchant(m.Address, data)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestConfig(t *testing.T) {
	c := &merchant.Config{
		Address:      fill(4),
		Merchant:     fill(1),
		Price:        math.MaxUint64,
		IntervalDays: 30,
		ProductName:  strings.Repeat("x", merchant.MaxProductNameLen),
		Active:       true,
	}

	data, err := codec.EncodeConfig(c)
	require.NoError(t, err)
	require.Len(t, data, codec.ConfigSize)

	got, err := codec.DecodeConfig(c.Address, data)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	c.ProductName = ""
	c.Active = false
	data, err = codec.EncodeConfig(c)
	require.NoError(t, err)
	require.Len(t, data, codec.ConfigSize, "size is fixed regardless of name length")
	got, err = codec.DecodeConfig(c.Address, data)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestConfigNameTooLong(t *testing.T) {
	c := &merchant.Config{ProductName: strings.Repeat("x", merchant.MaxProductNameLen+1)}
	_, err := codec.EncodeConfig(c)
	assert.ErrorIs(t, err, codec.ErrNameTooLong)
}

func TestSubscription(t *testing.T) {
	s := &subscription.Subscription{
		Address:         fill(9),
		Subscriber:      fill(5),
		Merchant:        fill(1),
		Config:          fill(4),
		StartTimestamp:  -5,
		ExpiryTimestamp: math.MaxInt64,
		Active:          true,
		TotalPaid:       3000,
	}

	data := codec.EncodeSubscription(s)
	require.Len(t, data, codec.SubscriptionSize)

	got, err := codec.DecodeSubscription(s.Address, data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDecodeErrors(t *testing.T) {
	m := codec.EncodeMerchant(&merchant.Merchant{})
	sub := codec.EncodeSubscription(&subscription.Subscription{})

	_, err := codec.DecodeSubscription(address.Zero, m)
	assert.ErrorIs(t, err, codec.ErrShortBuffer)

	_, err = codec.DecodeMerchant(address.Zero, sub)
	assert.ErrorIs(t, err, codec.ErrCorruptPayload)

	wrongTag := append([]byte(nil), sub...)
	wrongTag[0] = byte(address.KindMerchant)
	_, err = codec.DecodeSubscription(address.Zero, wrongTag)
	assert.ErrorIs(t, err, codec.ErrKindMismatch)

	wrongVersion := append([]byte(nil), sub...)
	wrongVersion[1] = 99
	_, err = codec.DecodeSubscription(address.Zero, wrongVersion)
	assert.ErrorIs(t, err, codec.ErrVersion)

	badBool := append([]byte(nil), sub...)
	badBool[codec.SubscriptionSize-9] = 2
	_, err = codec.DecodeSubscription(address.Zero, badBool)
	assert.ErrorIs(t, err, codec.ErrCorruptPayload)

	_, err = codec.KindOf([]byte{1})
	assert.ErrorIs(t, err, codec.ErrShortBuffer)

	_, err = codec.KindOf([]byte{77, 1})
	assert.ErrorIs(t, err, codec.ErrCorruptPayload)
}
