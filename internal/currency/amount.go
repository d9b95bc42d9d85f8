package currency

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
)

// DefaultSignificantDigits is used by ToSignificant when digits is not positive.
const DefaultSignificantDigits = 6

// Amount is a raw integer quantity of a currency in its smallest unit.
type Amount struct {
	currency Currency
	raw      *big.Int
}

// NewAmount creates an Amount. raw is copied.
func NewAmount(c Currency, raw *big.Int) Amount {
	return Amount{currency: c, raw: new(big.Int).Set(raw)}
}

// ParseAmount parses a base-10 raw amount string.
func ParseAmount(c Currency, raw string) (Amount, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return Amount{}, errors.Wrapf(apperrors.ErrInvalidArgument, "bad raw amount %q", raw)
	}
	return Amount{currency: c, raw: v}, nil
}

// Currency returns the currency tag of the amount.
func (a Amount) Currency() Currency { return a.currency }

// Raw returns a copy of the raw quantity.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

// IsZero reports whether the raw quantity is zero.
func (a Amount) IsZero() bool { return a.raw == nil || a.raw.Sign() == 0 }

// Decimal returns the amount scaled by the currency decimals.
func (a Amount) Decimal() decimal.Decimal {
	if a.currency == nil {
		return decimal.NewFromBigInt(a.Raw(), 0)
	}
	return decimal.NewFromBigInt(a.Raw(), -int32(a.currency.Decimals()))
}

// ToSignificant formats the amount rounded half up to digits significant digits.
func (a Amount) ToSignificant(digits int) string {
	return toSignificant(a.Decimal(), digits)
}

// ToFixed formats the amount with exactly places decimal places.
func (a Amount) ToFixed(places int32) string {
	return a.Decimal().StringFixed(places)
}

// ToExact formats the amount without rounding.
func (a Amount) ToExact() string {
	return a.Decimal().String()
}

// WithCurrency returns the same raw quantity tagged with c. Both currencies
// must share decimals, as a native currency and its wrapped token do.
func (a Amount) WithCurrency(c Currency) (Amount, error) {
	if a.currency != nil && c.Decimals() != a.currency.Decimals() {
		return Amount{}, errors.Wrapf(apperrors.ErrCurrencyMismatch,
			"%s has %d decimals, %s has %d", a.currency.Symbol(), a.currency.Decimals(), c.Symbol(), c.Decimals())
	}
	return Amount{currency: c, raw: a.Raw()}, nil
}

// Add sums two amounts of the same currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if !Equal(a.currency, b.currency) {
		return Amount{}, errors.Wrap(apperrors.ErrCurrencyMismatch, "add")
	}
	return Amount{currency: a.currency, raw: new(big.Int).Add(a.Raw(), b.Raw())}, nil
}

func toSignificant(d decimal.Decimal, digits int) string {
	if digits <= 0 {
		digits = DefaultSignificantDigits
	}
	if d.IsZero() {
		return "0"
	}
	coef := new(big.Int).Abs(d.Coefficient())
	// Position of the most significant digit relative to the decimal point.
	magnitude := int32(len(coef.String())) + d.Exponent()
	return d.Round(int32(digits) - magnitude).String()
}
