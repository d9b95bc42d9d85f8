package dexmath

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func bi(s string) *big.Int {
	z, _ := new(big.Int).SetString(s, 10)
	return z
}

func TestGetAmountOutInto_Basic(t *testing.T) {
	t.Parallel()

	out := new(big.Int)
	ok := GetAmountOutInto(out, bi("100"), bi("1000"), bi("1000"), DefaultV2FeeBps)
	if !ok {
		t.Fatalf("ok=false")
	}
	if out.Cmp(bi("90")) != 0 { // 90.6... -> 90
		t.Fatalf("want 90 got %s", out.String())
	}
}

func TestGetAmountOutInto_Zeroes(t *testing.T) {
	t.Parallel()

	out := new(big.Int)
	if ok := GetAmountOutInto(out, bi("0"), bi("1"), bi("1"), DefaultV2FeeBps); ok {
		t.Fatal("zero amountIn should be false")
	}
	if ok := GetAmountOutInto(out, bi("1"), bi("0"), bi("1"), DefaultV2FeeBps); ok {
		t.Fatal("zero reserveIn should be false")
	}
	if ok := GetAmountOutInto(out, bi("1"), bi("1"), bi("0"), DefaultV2FeeBps); ok {
		t.Fatal("zero reserveOut should be false")
	}
	if ok := GetAmountOutInto(nil, bi("1"), bi("1"), bi("1"), DefaultV2FeeBps); ok {
		t.Fatal("nil out should be false")
	}
}

func TestGetAmountOut_FeeBounds(t *testing.T) {
	t.Parallel()

	if _, ok := GetAmountOut(bi("100"), bi("1000"), bi("1000"), 10_000); ok {
		t.Fatal("100% fee should be false")
	}
	if _, ok := GetAmountOut(bi("100"), bi("1000"), bi("1000"), -1); ok {
		t.Fatal("negative fee should be false")
	}

	// No fee: 100*1000/(1000+100) = 90.9 -> 90.
	out, ok := GetAmountOut(bi("100"), bi("1000"), bi("1000"), 0)
	if !ok || out.Cmp(bi("90")) != 0 {
		t.Fatalf("want 90 got %s ok=%v", out, ok)
	}
}

func TestGetAmountOut_RoundsToZero(t *testing.T) {
	t.Parallel()

	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	if _, ok := GetAmountOut(bi("1"), e18, e18, DefaultV2FeeBps); ok {
		t.Fatal("dust swap should be false")
	}
}

func TestSqrtPriceX96ToPriceX128(t *testing.T) {
	t.Parallel()

	// sqrt(1) * 2^96 encodes a price of exactly one.
	one := new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	p, ok := SqrtPriceX96ToPriceX128(one)
	if !ok {
		t.Fatal("ok=false")
	}
	if p.ToBig().Cmp(Q128) != 0 {
		t.Fatalf("want 2^128 got %s", p.ToBig())
	}

	// sqrt(4) * 2^96 encodes four.
	two := new(uint256.Int).Lsh(uint256.NewInt(2), 96)
	base, quote, ok := PriceRatio(two)
	if !ok {
		t.Fatal("ok=false")
	}
	if new(big.Int).Quo(quote, base).Int64() != 4 {
		t.Fatalf("want 4 got %s/%s", quote, base)
	}

	if _, ok := SqrtPriceX96ToPriceX128(new(uint256.Int)); ok {
		t.Fatal("zero sqrt price should be false")
	}
}

func BenchmarkGetAmountOutInto(b *testing.B) {
	out := new(big.Int)
	in, rIn, rOut := bi("1000000000000000000"), bi("500000000000000000000"), bi("900000000000")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		GetAmountOutInto(out, in, rIn, rOut, DefaultV2FeeBps)
	}
}
