package address_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave/address"
)

func addr(b byte) address.Address {
	var a address.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func TestDeriveDeterministic(t *testing.T) {
	authority, mint := addr(1), addr(2)

	assert.Equal(t, address.MerchantAddress(authority, mint), address.MerchantAddress(authority, mint))
	assert.NotEqual(t, address.MerchantAddress(authority, mint), address.MerchantAddress(mint, authority))
}

func TestDeriveNoCollisions(t *testing.T) {
	a, b := addr(7), addr(9)

	seen := map[address.Address]string{}
	add := func(name string, k address.Address) {
		t.Helper()
		if prev, ok := seen[k]; ok {
			t.Fatalf("%s collides with %s", name, prev)
		}
		seen[k] = name
	}

	add("merchant(a,b)", address.MerchantAddress(a, b))
	add("subscription(a,b)", address.SubscriptionAddress(a, b))
	add("config(a,\"\")", address.ConfigAddress(a, ""))
	add("config(a,pro)", address.ConfigAddress(a, "pro"))
	add("config(b,pro)", address.ConfigAddress(b, "pro"))
	add("derive(config,ab,c)", address.Derive(address.KindConfig, []byte("ab"), []byte("c")))
	add("derive(config,a,bc)", address.Derive(address.KindConfig, []byte("a"), []byte("bc")))
	add("derive(config,abc)", address.Derive(address.KindConfig, []byte("abc")))
	add("derive(merchant,abc)", address.Derive(address.KindMerchant, []byte("abc")))
}

func TestConfigAddressProductNameSensitive(t *testing.T) {
	m := addr(3)
	assert.NotEqual(t, address.ConfigAddress(m, "Pro"), address.ConfigAddress(m, "pro"))
	assert.NotEqual(t, address.ConfigAddress(m, "pro"), address.ConfigAddress(m, "pro "))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "merchant", address.KindMerchant.String())
	assert.Equal(t, "config", address.KindConfig.String())
	assert.Equal(t, "subscription", address.KindSubscription.String())
	assert.True(t, address.KindSubscription.Valid())
	assert.False(t, address.Kind(0).Valid())
	assert.Equal(t, "kind(42)", address.Kind(42).String())
}

func TestParseRoundTrip(t *testing.T) {
	a := address.ConfigAddress(addr(5), "gold")

	parsed, err := address.Parse(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"too short", "3mJr7AoUXx2Wqd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := address.Parse(tt.input)
			assert.ErrorIs(t, err, address.ErrInvalid)
		})
	}
}

func TestJSONText(t *testing.T) {
	type wrapper struct {
		Addr address.Address `json:"addr"`
	}

	in := wrapper{Addr: addr(11)}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), in.Addr.String())

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Addr, out.Addr)
}

func TestIsZero(t *testing.T) {
	assert.True(t, address.Zero.IsZero())
	assert.False(t, addr(1).IsZero())
}

func TestBytesIsCopy(t *testing.T) {
	a := addr(4)
	b := a.Bytes()
	b[0] = 0xff
	assert.Equal(t, byte(4), a[0])
}
