package routing

import (
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
	"github.com/fleshka4/dex-bridge/internal/pool"
)

// PoolType discriminates quote edges.
type PoolType string

const (
	PoolTypeV2 PoolType = "v2-pool"
	PoolTypeV3 PoolType = "v3-pool"
)

// TradeType tells which side of a quote is fixed.
type TradeType string

const (
	ExactInput  TradeType = "EXACT_INPUT"
	ExactOutput TradeType = "EXACT_OUTPUT"
)

// QuoteArgs describes the currencies a quote was requested for.
type QuoteArgs struct {
	TokenInAddress   string    `json:"tokenInAddress"`
	TokenInChainID   uint64    `json:"tokenInChainId"`
	TokenInDecimals  uint8     `json:"tokenInDecimals"`
	TokenInSymbol    string    `json:"tokenInSymbol,omitempty"`
	TokenOutAddress  string    `json:"tokenOutAddress"`
	TokenOutChainID  uint64    `json:"tokenOutChainId"`
	TokenOutDecimals uint8     `json:"tokenOutDecimals"`
	TokenOutSymbol   string    `json:"tokenOutSymbol,omitempty"`
	RoutingType      string    `json:"routingType,omitempty"`
	TradeType        TradeType `json:"tradeType,omitempty"`
}

// TokenInRoute is a token reference inside a quote edge.
type TokenInRoute struct {
	Address    string      `json:"address"`
	ChainID    uint64      `json:"chainId"`
	Symbol     string      `json:"symbol"`
	Decimals   json.Number `json:"decimals"`
	Name       string      `json:"name,omitempty"`
	BuyFeeBps  string      `json:"buyFeeBps,omitempty"`
	SellFeeBps string      `json:"sellFeeBps,omitempty"`
}

// Reserve is one side of a v2 pair.
type Reserve struct {
	Token    TokenInRoute `json:"token"`
	Quotient string       `json:"quotient"`
}

// PoolInRoute is one hop of a candidate route together with the pool state
// needed to rebuild it offline.
type PoolInRoute struct {
	Type      PoolType     `json:"type"`
	Address   string       `json:"address,omitempty"`
	TokenIn   TokenInRoute `json:"tokenIn"`
	TokenOut  TokenInRoute `json:"tokenOut"`
	AmountIn  string       `json:"amountIn,omitempty"`
	AmountOut string       `json:"amountOut,omitempty"`

	// v3 state.
	Fee          string `json:"fee,omitempty"`
	SqrtRatioX96 string `json:"sqrtRatioX96,omitempty"`
	Liquidity    string `json:"liquidity,omitempty"`
	TickCurrent  string `json:"tickCurrent,omitempty"`

	// v2 state.
	Reserve0 *Reserve `json:"reserve0,omitempty"`
	Reserve1 *Reserve `json:"reserve1,omitempty"`
}

func parseToken(t TokenInRoute) (*currency.Token, error) {
	if !common.IsHexAddress(t.Address) {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "bad token address %q", t.Address)
	}
	decimals, err := strconv.ParseUint(t.Decimals.String(), 10, 8)
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "bad decimals %q for %s", t.Decimals, t.Symbol)
	}
	token := currency.NewToken(t.ChainID, common.HexToAddress(t.Address), uint8(decimals), t.Symbol, t.Name)
	if token.BuyFeeBps, err = parseOptionalInt(t.BuyFeeBps); err != nil {
		return nil, errors.Wrap(err, "buyFeeBps")
	}
	if token.SellFeeBps, err = parseOptionalInt(t.SellFeeBps); err != nil {
		return nil, errors.Wrap(err, "sellFeeBps")
	}
	return token, nil
}

func parseOptionalInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "bad integer %q", s)
	}
	return v, nil
}

func parseAddress(s string) common.Address {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s)
	}
	return common.Address{}
}

func buildV2Pair(e PoolInRoute) (*pool.V2Pair, error) {
	if e.Reserve0 == nil || e.Reserve1 == nil {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, "v2 edge without reserves")
	}
	r0, err := parseReserve(*e.Reserve0)
	if err != nil {
		return nil, errors.Wrap(err, "reserve0")
	}
	r1, err := parseReserve(*e.Reserve1)
	if err != nil {
		return nil, errors.Wrap(err, "reserve1")
	}
	pair, err := pool.NewV2Pair(parseAddress(e.Address), r0, r1)
	if err != nil {
		return nil, errors.Wrap(err, "pool.NewV2Pair")
	}
	return pair, nil
}

func parseReserve(r Reserve) (currency.Amount, error) {
	token, err := parseToken(r.Token)
	if err != nil {
		return currency.Amount{}, err
	}
	return currency.ParseAmount(token, r.Quotient)
}

func buildV3Pool(e PoolInRoute) (*pool.V3Pool, error) {
	tokenIn, err := parseToken(e.TokenIn)
	if err != nil {
		return nil, errors.Wrap(err, "tokenIn")
	}
	tokenOut, err := parseToken(e.TokenOut)
	if err != nil {
		return nil, errors.Wrap(err, "tokenOut")
	}
	fee, err := strconv.ParseUint(e.Fee, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "bad fee %q", e.Fee)
	}
	sqrtRatio, err := uint256.FromDecimal(e.SqrtRatioX96)
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "bad sqrtRatioX96 %q", e.SqrtRatioX96)
	}
	liquidity, err := uint256.FromDecimal(e.Liquidity)
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "bad liquidity %q", e.Liquidity)
	}
	tick, err := strconv.Atoi(e.TickCurrent)
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "bad tickCurrent %q", e.TickCurrent)
	}
	p, err := pool.NewV3Pool(parseAddress(e.Address), tokenIn, tokenOut, pool.FeeAmount(fee), sqrtRatio, liquidity, tick)
	if err != nil {
		return nil, errors.Wrap(err, "pool.NewV3Pool")
	}
	return p, nil
}
