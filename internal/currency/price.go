package currency

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
)

const priceDivPrecision = 40

// Price is the exchange rate between two currencies in raw units:
// baseRaw units of base are worth quoteRaw units of quote.
type Price struct {
	base     Currency
	quote    Currency
	baseRaw  *big.Int
	quoteRaw *big.Int
}

// NewPrice creates a Price from a raw ratio.
func NewPrice(base, quote Currency, baseRaw, quoteRaw *big.Int) Price {
	return Price{
		base:     base,
		quote:    quote,
		baseRaw:  new(big.Int).Set(baseRaw),
		quoteRaw: new(big.Int).Set(quoteRaw),
	}
}

func (p Price) Base() Currency  { return p.base }
func (p Price) Quote() Currency { return p.quote }

// Invert swaps base and quote.
func (p Price) Invert() Price {
	return NewPrice(p.quote, p.base, p.quoteRaw, p.baseRaw)
}

// Multiply chains p (base->X) with other (X->quote).
func (p Price) Multiply(other Price) (Price, error) {
	if !Equal(p.quote, other.base) {
		return Price{}, errors.Wrapf(apperrors.ErrCurrencyMismatch,
			"cannot chain %s/%s with %s/%s", p.base.Symbol(), p.quote.Symbol(), other.base.Symbol(), other.quote.Symbol())
	}
	return Price{
		base:     p.base,
		quote:    other.quote,
		baseRaw:  new(big.Int).Mul(p.baseRaw, other.baseRaw),
		quoteRaw: new(big.Int).Mul(p.quoteRaw, other.quoteRaw),
	}, nil
}

// Convert applies the price to an amount of the base currency.
func (p Price) Convert(a Amount) (Amount, error) {
	if !Equal(a.Currency(), p.base) {
		return Amount{}, errors.Wrap(apperrors.ErrCurrencyMismatch, "convert")
	}
	if p.baseRaw.Sign() == 0 {
		return Amount{}, errors.Wrap(apperrors.ErrInvalidArgument, "zero price denominator")
	}
	out := new(big.Int).Mul(a.Raw(), p.quoteRaw)
	out.Quo(out, p.baseRaw)
	return Amount{currency: p.quote, raw: out}, nil
}

// Decimal returns the human-scale price, quote units per one base unit.
func (p Price) Decimal() decimal.Decimal {
	if p.baseRaw.Sign() == 0 {
		return decimal.Zero
	}
	q := decimal.NewFromBigInt(p.quoteRaw, -int32(p.quote.Decimals()))
	b := decimal.NewFromBigInt(p.baseRaw, -int32(p.base.Decimals()))
	return q.DivRound(b, priceDivPrecision)
}

// ToSignificant formats the human-scale price.
func (p Price) ToSignificant(digits int) string {
	return toSignificant(p.Decimal(), digits)
}

// ToFixed formats the human-scale price with places decimal places.
func (p Price) ToFixed(places int32) string {
	return p.Decimal().StringFixed(places)
}

// Ratio returns copies of the raw base and quote quantities.
func (p Price) Ratio() (baseRaw, quoteRaw *big.Int) {
	return new(big.Int).Set(p.baseRaw), new(big.Int).Set(p.quoteRaw)
}
