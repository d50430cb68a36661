package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/internal/config"
	"github.com/xraph/subwave/payment/tokenledger"
	"github.com/xraph/subwave/store/leveldb"
	"github.com/xraph/subwave/store/memory"
)

func TestOpenStore(t *testing.T) {
	s, err := openStore(config.StoreConfig{Driver: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	s, err = openStore(config.StoreConfig{Driver: config.StoreLevelDB, Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	assert.IsType(t, &leveldb.Store{}, s)
	require.NoError(t, s.Close())
}

func TestOpenGatewaySeedsBalances(t *testing.T) {
	holder := address.Derive(address.KindMerchant, []byte("holder"))
	mint := address.Derive(address.KindMerchant, []byte("mint"))

	gw, err := openGateway(config.GatewayConfig{
		Driver:   config.GatewayTokenLedger,
		Balances: []config.Balance{{Holder: holder.String(), Mint: mint.String(), Amount: 42}},
	})
	require.NoError(t, err)

	tl, ok := gw.(*tokenledger.Ledger)
	require.True(t, ok)
	assert.Equal(t, uint64(42), tl.Balance(holder, mint))

	_, err = openGateway(config.GatewayConfig{Balances: []config.Balance{{Holder: "bad", Mint: mint.String()}}})
	assert.Error(t, err)
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.LogConfig{Level: "info", Format: "json"}).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	newLogger(&buf, config.LogConfig{Level: "info", Format: "text"}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
