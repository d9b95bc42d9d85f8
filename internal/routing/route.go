package routing

import (
	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
	"github.com/fleshka4/dex-bridge/internal/pool"
)

// Route is an ordered chain of pools from Input to Output. Path holds the
// tokens visited, so len(Path) == len(Pools)+1.
type Route[P pool.Pool] struct {
	Pools  []P
	Path   []*currency.Token
	Input  currency.Currency
	Output currency.Currency
}

// NewRoute checks that every pool connects consecutive path tokens and that the
// path starts and ends at the wrapped input and output.
func NewRoute[P pool.Pool](pools []P, path []*currency.Token, input, output currency.Currency) (*Route[P], error) {
	if len(pools) == 0 {
		return nil, errors.Wrap(apperrors.ErrMalformedRoute, "no pools")
	}
	if len(path) != len(pools)+1 {
		return nil, errors.Wrapf(apperrors.ErrMalformedRoute, "%d tokens for %d pools", len(path), len(pools))
	}
	chainID := pools[0].ChainID()
	for i, p := range pools {
		if p.ChainID() != chainID {
			return nil, errors.Wrapf(apperrors.ErrMalformedRoute, "pool %d on chain %d, want %d", i, p.ChainID(), chainID)
		}
		if !p.Involves(path[i]) || !p.Involves(path[i+1]) {
			return nil, errors.Wrapf(apperrors.ErrMalformedRoute, "pool %d does not join %s and %s",
				i, path[i].Symbol(), path[i+1].Symbol())
		}
	}
	if !input.Wrapped().Equals(path[0]) {
		return nil, errors.Wrapf(apperrors.ErrMalformedRoute, "route starts at %s, input is %s", path[0].Symbol(), input.Symbol())
	}
	if !output.Wrapped().Equals(path[len(path)-1]) {
		return nil, errors.Wrapf(apperrors.ErrMalformedRoute, "route ends at %s, output is %s",
			path[len(path)-1].Symbol(), output.Symbol())
	}
	return &Route[P]{
		Pools:  pools,
		Path:   path,
		Input:  input,
		Output: output,
	}, nil
}

// ChainID returns the chain all pools live on.
func (r *Route[P]) ChainID() uint64 { return r.Pools[0].ChainID() }

// MidPrice is the product of the spot prices along the path, denominated in
// Input and Output.
func (r *Route[P]) MidPrice() (currency.Price, error) {
	price, err := r.Pools[0].PriceOf(r.Path[0])
	if err != nil {
		return currency.Price{}, errors.Wrap(err, "PriceOf")
	}
	for i := 1; i < len(r.Pools); i++ {
		next, err := r.Pools[i].PriceOf(r.Path[i])
		if err != nil {
			return currency.Price{}, errors.Wrap(err, "PriceOf")
		}
		if price, err = price.Multiply(next); err != nil {
			return currency.Price{}, errors.Wrap(err, "price.Multiply")
		}
	}
	baseRaw, quoteRaw := price.Ratio()
	return currency.NewPrice(r.Input, r.Output, baseRaw, quoteRaw), nil
}

func (r *Route[P]) genericPools() []pool.Pool {
	out := make([]pool.Pool, len(r.Pools))
	for i, p := range r.Pools {
		out[i] = p
	}
	return out
}
