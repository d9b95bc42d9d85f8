package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
)

const minimal = `
chains:
  - chain_id: 1
    name: Ethereum
    rpc_url: http://mainnet.local
    native: {symbol: ETH, name: Ether}
    wrapped_native:
      address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
      symbol: WETH
      name: Wrapped Ether
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	require.Equal(t, ":1337", cfg.ListenAddr)
	require.Equal(t, 5*time.Second, cfg.GraceTimeout)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
	require.EqualValues(t, 1, cfg.DefaultChainID)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 1024, cfg.Pending.Capacity)
	require.Equal(t, 5*time.Minute, cfg.Pending.TTL)
	require.EqualValues(t, 18, cfg.Chains[0].Native.Decimals)
	require.EqualValues(t, 18, cfg.Chains[0].WrappedNative.Decimals)

	native, ok := cfg.Registry().Native(1)
	require.True(t, ok)
	require.Equal(t, "ETH", native.Symbol())
	require.Equal(t, "WETH", native.Wrapped().Symbol())
	require.Equal(t, map[uint64]string{1: "http://mainnet.local"}, cfg.RPCURLs())
}

func TestLoadShippedConfig(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join("..", "..", "cfg", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 10, 137}, cfg.Registry().ChainIDs())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEFAULT_CHAIN_ID", "1")

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.ListenAddr)
	require.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("DEFAULT_CHAIN_ID", "10")
	_, err = Load(writeConfig(t, minimal))
	require.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	t.Setenv("DEFAULT_CHAIN_ID", "mainnet")
	_, err = Load(writeConfig(t, minimal))
	require.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "no chains", body: `listen_addr: ":1"`},
		{name: "unknown field", body: minimal + "\nrpc_url: http://legacy\n"},
		{name: "bad wrapped address", body: `
chains:
  - chain_id: 1
    native: {symbol: ETH}
    wrapped_native: {address: "0x1234"}
`},
		{name: "duplicate chain", body: minimal + `
  - chain_id: 1
    native: {symbol: ETH}
    wrapped_native: {address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"}
`},
		{name: "default chain missing", body: "default_chain_id: 5\n" + minimal},
		{name: "negative capacity", body: "pending: {capacity: -1}\n" + minimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
