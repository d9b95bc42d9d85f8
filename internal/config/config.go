package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
)

// Config holds application configuration loaded from file.
type Config struct {
	ListenAddr        string        `yaml:"listen_addr"`
	GraceTimeout      time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	DefaultChainID    uint64        `yaml:"default_chain_id"`
	LogLevel          string        `yaml:"log_level"`
	Pending           Pending       `yaml:"pending"`
	Chains            []Chain       `yaml:"chains"`
}

// Pending bounds the table of requests waiting for the background.
type Pending struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// Chain describes a supported network and its native currency.
type Chain struct {
	ChainID       uint64  `yaml:"chain_id"`
	Name          string  `yaml:"name"`
	RPCURL        string  `yaml:"rpc_url"`
	Native        Asset   `yaml:"native"`
	WrappedNative Wrapped `yaml:"wrapped_native"`
}

// Asset is a currency without a contract.
type Asset struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals uint8  `yaml:"decimals"`
}

// Wrapped is the ERC-20 form of a native currency.
type Wrapped struct {
	Address string `yaml:"address"`
	Asset   `yaml:",inline"`
}

// Load reads the config from a YAML file path, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "os.Open")
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoder.Decode")
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, errors.Wrap(err, "cfg.applyEnv")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, errors.Wrap(err, "cfg.validate")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	const defaultTimeout = 5 * time.Second
	if c.ListenAddr == "" {
		c.ListenAddr = ":1337"
	}
	if c.GraceTimeout == 0 {
		c.GraceTimeout = defaultTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultTimeout
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaultTimeout
	}
	if c.DefaultChainID == 0 {
		c.DefaultChainID = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Pending.Capacity == 0 {
		c.Pending.Capacity = 1024
	}
	if c.Pending.TTL == 0 {
		c.Pending.TTL = 5 * time.Minute
	}
	for i := range c.Chains {
		if c.Chains[i].Native.Decimals == 0 {
			c.Chains[i].Native.Decimals = 18
		}
		if c.Chains[i].WrappedNative.Decimals == 0 {
			c.Chains[i].WrappedNative.Decimals = c.Chains[i].Native.Decimals
		}
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DEFAULT_CHAIN_ID"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(apperrors.ErrInvalidArgument, "DEFAULT_CHAIN_ID %q", v)
		}
		c.DefaultChainID = id
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.Chains) == 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "at least one chain is required")
	}
	seen := make(map[uint64]struct{}, len(c.Chains))
	for _, ch := range c.Chains {
		if ch.ChainID == 0 {
			return errors.Wrapf(apperrors.ErrInvalidArgument, "chain %q has no chain_id", ch.Name)
		}
		if _, dup := seen[ch.ChainID]; dup {
			return errors.Wrapf(apperrors.ErrInvalidArgument, "chain %d configured twice", ch.ChainID)
		}
		seen[ch.ChainID] = struct{}{}
		if !common.IsHexAddress(ch.WrappedNative.Address) {
			return errors.Wrapf(apperrors.ErrInvalidArgument, "chain %d: bad wrapped_native.address %q", ch.ChainID, ch.WrappedNative.Address)
		}
		if ch.Native.Symbol == "" {
			return errors.Wrapf(apperrors.ErrInvalidArgument, "chain %d: native.symbol is required", ch.ChainID)
		}
	}
	if _, ok := seen[c.DefaultChainID]; !ok {
		return errors.Wrapf(apperrors.ErrInvalidArgument, "default chain %d is not configured", c.DefaultChainID)
	}
	if c.Pending.Capacity < 0 || c.Pending.TTL < 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "pending limits cannot be negative")
	}
	return nil
}

// Registry builds the native currency of every configured chain.
func (c Config) Registry() *currency.Registry {
	natives := make([]*currency.Native, 0, len(c.Chains))
	for _, ch := range c.Chains {
		w := ch.WrappedNative
		wrapped := currency.NewToken(ch.ChainID, common.HexToAddress(w.Address), w.Decimals, w.Symbol, w.Name)
		natives = append(natives, currency.NewNative(wrapped, ch.Native.Symbol, ch.Native.Name, ch.Native.Decimals))
	}
	return currency.NewRegistry(natives...)
}

// RPCURLs maps chain id to its configured endpoint.
func (c Config) RPCURLs() map[uint64]string {
	urls := make(map[uint64]string, len(c.Chains))
	for _, ch := range c.Chains {
		if ch.RPCURL != "" {
			urls[ch.ChainID] = ch.RPCURL
		}
	}
	return urls
}
