package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
	"github.com/fleshka4/dex-bridge/internal/dexmath"
)

// V2Pair is a constant-product pair.
type V2Pair struct {
	address  common.Address
	reserve0 currency.Amount
	reserve1 currency.Amount
	feeBps   int64
}

// NewV2Pair creates a pair from two token reserves in either order.
// The reserves are kept exactly as given.
func NewV2Pair(address common.Address, a, b currency.Amount) (*V2Pair, error) {
	ta, okA := a.Currency().(*currency.Token)
	tb, okB := b.Currency().(*currency.Token)
	if !okA || !okB {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, "v2 reserves must be tokens")
	}
	t0, _, err := sortTokens(ta, tb)
	if err != nil {
		return nil, errors.Wrap(err, "sortTokens")
	}
	if !t0.Equals(ta) {
		a, b = b, a
	}
	return &V2Pair{
		address:  address,
		reserve0: a,
		reserve1: b,
		feeBps:   dexmath.DefaultV2FeeBps,
	}, nil
}

func (p *V2Pair) Protocol() Protocol        { return ProtocolV2 }
func (p *V2Pair) Address() common.Address   { return p.address }
func (p *V2Pair) ChainID() uint64           { return p.Token0().ChainID() }
func (p *V2Pair) Token0() *currency.Token   { return p.reserve0.Currency().(*currency.Token) }
func (p *V2Pair) Token1() *currency.Token   { return p.reserve1.Currency().(*currency.Token) }
func (p *V2Pair) Reserve0() currency.Amount { return p.reserve0 }
func (p *V2Pair) Reserve1() currency.Amount { return p.reserve1 }

func (p *V2Pair) Involves(t *currency.Token) bool { return involves(p, t) }

// ReserveOf returns the reserve of t.
func (p *V2Pair) ReserveOf(t *currency.Token) (currency.Amount, error) {
	switch {
	case p.Token0().Equals(t):
		return p.reserve0, nil
	case p.Token1().Equals(t):
		return p.reserve1, nil
	}
	return currency.Amount{}, errors.Wrapf(apperrors.ErrInvalidArgument, "token %s not in pair", t.Symbol())
}

// PriceOf returns the spot price of t implied by the reserves.
func (p *V2Pair) PriceOf(t *currency.Token) (currency.Price, error) {
	price := currency.NewPrice(p.Token0(), p.Token1(), p.reserve0.Raw(), p.reserve1.Raw())
	switch {
	case p.Token0().Equals(t):
		return price, nil
	case p.Token1().Equals(t):
		return price.Invert(), nil
	}
	return currency.Price{}, errors.Wrapf(apperrors.ErrInvalidArgument, "token %s not in pair", t.Symbol())
}

// GetOutputAmount returns the output of swapping in through the pair.
func (p *V2Pair) GetOutputAmount(in currency.Amount) (currency.Amount, error) {
	tokenIn, ok := in.Currency().(*currency.Token)
	if !ok || !p.Involves(tokenIn) {
		return currency.Amount{}, errors.Wrap(apperrors.ErrInvalidArgument, "input token not in pair")
	}
	reserveIn, reserveOut := p.reserve0, p.reserve1
	if p.Token1().Equals(tokenIn) {
		reserveIn, reserveOut = p.reserve1, p.reserve0
	}
	out, ok := dexmath.GetAmountOut(in.Raw(), reserveIn.Raw(), reserveOut.Raw(), p.feeBps)
	if !ok {
		return currency.Amount{}, errors.Wrap(apperrors.ErrInsufficientLiquidity, "dexmath.GetAmountOut")
	}
	return currency.NewAmount(reserveOut.Currency(), out), nil
}
