package dexmath

import (
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

// DefaultV2FeeBps is the Uniswap V2 swap fee, 0.3%.
const DefaultV2FeeBps = 30

var (
	bpsDen = big.NewInt(10_000)

	// Q128 is 2^128, the denominator of Q128.128 prices.
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)

	q64 = new(uint256.Int).Lsh(uint256.NewInt(1), 64)

	defaultMath = newMathService()
)

type mathTmp struct {
	a *big.Int
	b *big.Int
	c *big.Int
}

type mathService struct {
	pool *sync.Pool
}

func newMathService() *mathService {
	return &mathService{
		pool: &sync.Pool{
			New: func() any {
				return &mathTmp{
					a: new(big.Int),
					b: new(big.Int),
					c: new(big.Int),
				}
			},
		},
	}
}

func (m *mathService) getAmountOutInto(out, amountIn, reserveIn, reserveOut *big.Int, feeBps int64) bool {
	if out == nil {
		return false
	}
	// basic validation.
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 || feeBps < 0 || feeBps >= 10_000 {
		out.SetInt64(0)
		return false
	}

	t := m.pool.Get().(*mathTmp)
	defer m.pool.Put(t)

	// ainFee := amountIn * (10000 - fee).
	t.a.SetInt64(10_000 - feeBps)
	t.a.Mul(amountIn, t.a)

	// num := ainFee * reserveOut.
	t.b.Mul(t.a, reserveOut)

	// den := reserveIn * 10000 + ainFee.
	t.c.Mul(reserveIn, bpsDen)
	t.c.Add(t.c, t.a)

	if t.c.Sign() == 0 {
		out.SetInt64(0)
		return false
	}

	out.Quo(t.b, t.c)
	if out.Sign() == 0 {
		return false
	}
	return true
}

// GetAmountOutInto computes the output of a constant-product swap charging feeBps
// basis points on the input, and writes it into out.
//
// Returns false when any value is non-positive, the fee is out of range or the
// output rounds down to zero.
func GetAmountOutInto(out, amountIn, reserveIn, reserveOut *big.Int, feeBps int64) bool {
	return defaultMath.getAmountOutInto(out, amountIn, reserveIn, reserveOut, feeBps)
}

// GetAmountOut is the allocating form of GetAmountOutInto.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeBps int64) (*big.Int, bool) {
	out := new(big.Int)
	ok := defaultMath.getAmountOutInto(out, amountIn, reserveIn, reserveOut, feeBps)
	return out, ok
}

// SqrtPriceX96ToPriceX128 converts a Q64.96 square-root price into the Q128.128
// price of token0 in token1. The square is taken with a 512-bit intermediate.
func SqrtPriceX96ToPriceX128(sqrtPriceX96 *uint256.Int) (*uint256.Int, bool) {
	if sqrtPriceX96 == nil || sqrtPriceX96.IsZero() {
		return new(uint256.Int), false
	}
	out, overflow := new(uint256.Int).MulDivOverflow(sqrtPriceX96, sqrtPriceX96, q64)
	return out, !overflow
}

// PriceRatio returns the token0 price in token1 as a raw ratio quote/base.
func PriceRatio(sqrtPriceX96 *uint256.Int) (base, quote *big.Int, ok bool) {
	priceX128, ok := SqrtPriceX96ToPriceX128(sqrtPriceX96)
	if !ok {
		return nil, nil, false
	}
	return new(big.Int).Set(Q128), priceX128.ToBig(), true
}
