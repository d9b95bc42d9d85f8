package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
	"github.com/fleshka4/dex-bridge/internal/dexmath"
)

// FeeAmount is a v3 fee tier in hundredths of a basis point.
type FeeAmount uint32

const (
	FeeLowest FeeAmount = 100
	FeeLow    FeeAmount = 500
	FeeMedium FeeAmount = 3000
	FeeHigh   FeeAmount = 10000

	maxFee FeeAmount = 1_000_000
)

// Tick bounds of the v3 price range.
const (
	MinTick = -887272
	MaxTick = 887272
)

// V3Pool is a concentrated-liquidity pool at a fixed point in time.
type V3Pool struct {
	address      common.Address
	token0       *currency.Token
	token1       *currency.Token
	fee          FeeAmount
	sqrtRatioX96 *uint256.Int
	liquidity    *uint256.Int
	tickCurrent  int
}

// NewV3Pool creates a pool from its pricing state. Tokens may be given in either order.
func NewV3Pool(
	address common.Address,
	tokenA, tokenB *currency.Token,
	fee FeeAmount,
	sqrtRatioX96, liquidity *uint256.Int,
	tickCurrent int,
) (*V3Pool, error) {
	if fee >= maxFee {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "fee %d out of range", fee)
	}
	if tickCurrent < MinTick || tickCurrent > MaxTick {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "tick %d out of range", tickCurrent)
	}
	if sqrtRatioX96 == nil || sqrtRatioX96.IsZero() {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, "zero sqrt ratio")
	}
	if liquidity == nil {
		liquidity = new(uint256.Int)
	}
	t0, t1, err := sortTokens(tokenA, tokenB)
	if err != nil {
		return nil, errors.Wrap(err, "sortTokens")
	}
	return &V3Pool{
		address:      address,
		token0:       t0,
		token1:       t1,
		fee:          fee,
		sqrtRatioX96: new(uint256.Int).Set(sqrtRatioX96),
		liquidity:    new(uint256.Int).Set(liquidity),
		tickCurrent:  tickCurrent,
	}, nil
}

func (p *V3Pool) Protocol() Protocol              { return ProtocolV3 }
func (p *V3Pool) Address() common.Address         { return p.address }
func (p *V3Pool) ChainID() uint64                 { return p.token0.ChainID() }
func (p *V3Pool) Token0() *currency.Token         { return p.token0 }
func (p *V3Pool) Token1() *currency.Token         { return p.token1 }
func (p *V3Pool) Fee() FeeAmount                  { return p.fee }
func (p *V3Pool) SqrtRatioX96() *uint256.Int      { return new(uint256.Int).Set(p.sqrtRatioX96) }
func (p *V3Pool) Liquidity() *uint256.Int         { return new(uint256.Int).Set(p.liquidity) }
func (p *V3Pool) TickCurrent() int                { return p.tickCurrent }
func (p *V3Pool) Involves(t *currency.Token) bool { return involves(p, t) }

// PriceOf returns the spot price of t implied by sqrtRatioX96.
func (p *V3Pool) PriceOf(t *currency.Token) (currency.Price, error) {
	base, quote, ok := dexmath.PriceRatio(p.sqrtRatioX96)
	if !ok {
		return currency.Price{}, errors.Wrap(apperrors.ErrInvalidArgument, "sqrt ratio overflow")
	}
	price := currency.NewPrice(p.token0, p.token1, base, quote)
	switch {
	case p.token0.Equals(t):
		return price, nil
	case p.token1.Equals(t):
		return price.Invert(), nil
	}
	return currency.Price{}, errors.Wrapf(apperrors.ErrInvalidArgument, "token %s not in pool", t.Symbol())
}
