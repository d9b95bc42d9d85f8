package currency

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeSentinel is the pseudo-address aggregators use for a chain's base asset.
var NativeSentinel = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Currency is either a chain's native asset or an ERC-20 token.
type Currency interface {
	ChainID() uint64
	Decimals() uint8
	Symbol() string
	Name() string
	IsNative() bool
	// Wrapped returns the token that stands in for the currency inside pools.
	Wrapped() *Token
	Equals(other Currency) bool
}

// Token is an ERC-20 token identified by chain and address.
type Token struct {
	chainID  uint64
	address  common.Address
	decimals uint8
	symbol   string
	name     string

	// BuyFeeBps and SellFeeBps are transfer fees of fee-on-transfer tokens, nil when unknown.
	BuyFeeBps  *big.Int
	SellFeeBps *big.Int
}

// NewToken creates a Token.
func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) *Token {
	return &Token{
		chainID:  chainID,
		address:  address,
		decimals: decimals,
		symbol:   symbol,
		name:     name,
	}
}

func (t *Token) ChainID() uint64         { return t.chainID }
func (t *Token) Address() common.Address { return t.address }
func (t *Token) Decimals() uint8         { return t.decimals }
func (t *Token) Symbol() string          { return t.symbol }
func (t *Token) Name() string            { return t.name }
func (t *Token) IsNative() bool          { return false }
func (t *Token) Wrapped() *Token         { return t }

// Equals reports whether other is a token with the same chain and address.
func (t *Token) Equals(other Currency) bool {
	if t == nil || other == nil || other.IsNative() {
		return false
	}
	o, ok := other.(*Token)
	if !ok || o == nil {
		return false
	}
	return t.chainID == o.chainID && t.address == o.address
}

// SortsBefore reports whether t is token0 in a pool with other.
func (t *Token) SortsBefore(other *Token) bool {
	return bytes.Compare(t.address.Bytes(), other.address.Bytes()) < 0
}

// Native is a chain's base asset. Pools hold it through its wrapped token.
type Native struct {
	decimals uint8
	symbol   string
	name     string
	wrapped  *Token
}

// NewNative creates the native currency of the wrapped token's chain.
func NewNative(wrapped *Token, symbol, name string, decimals uint8) *Native {
	return &Native{
		decimals: decimals,
		symbol:   symbol,
		name:     name,
		wrapped:  wrapped,
	}
}

func (n *Native) ChainID() uint64 { return n.wrapped.chainID }
func (n *Native) Decimals() uint8 { return n.decimals }
func (n *Native) Symbol() string  { return n.symbol }
func (n *Native) Name() string    { return n.name }
func (n *Native) IsNative() bool  { return true }
func (n *Native) Wrapped() *Token { return n.wrapped }

// Equals reports whether other is the native currency of the same chain.
func (n *Native) Equals(other Currency) bool {
	if n == nil || other == nil {
		return false
	}
	return other.IsNative() && other.ChainID() == n.ChainID()
}

// IsNativeAddress reports whether addr names the native currency: its symbol,
// the zero address or NativeSentinel.
func IsNativeAddress(addr string, native *Native) bool {
	if native == nil {
		return false
	}
	if strings.EqualFold(addr, native.Symbol()) {
		return true
	}
	if !common.IsHexAddress(addr) {
		return false
	}
	a := common.HexToAddress(addr)
	return a == (common.Address{}) || a == NativeSentinel
}

// Equal is a nil-safe Currency comparison.
func Equal(a, b Currency) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}
