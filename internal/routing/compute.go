package routing

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
	"github.com/fleshka4/dex-bridge/internal/pool"
)

// RouteResult is one reconstructed candidate. Exactly one of RouteV2, RouteV3
// and MixedRoute is set.
type RouteResult struct {
	RouteV2    *Route[*pool.V2Pair]
	RouteV3    *Route[*pool.V3Pool]
	MixedRoute *Route[pool.Pool]

	InputAmount  currency.Amount
	OutputAmount currency.Amount

	Hops []Hop
}

// Hop is one pool of a route with the amounts the quote reported for it.
type Hop struct {
	Pool      pool.Pool
	AmountIn  *currency.Amount
	AmountOut *currency.Amount

	// ReserveAmountOut is what the v2 reserves yield for AmountIn. It is nil
	// for v3 hops, hops quoted without an input and swaps the reserves cannot fill.
	ReserveAmountOut *currency.Amount
}

// Protocol reports which route field is populated.
func (r RouteResult) Protocol() pool.Protocol {
	switch {
	case r.RouteV2 != nil:
		return pool.ProtocolV2
	case r.RouteV3 != nil:
		return pool.ProtocolV3
	}
	return pool.ProtocolMixed
}

// TokenPath returns the tokens visited by the populated route.
func (r RouteResult) TokenPath() []*currency.Token {
	switch {
	case r.RouteV2 != nil:
		return r.RouteV2.Path
	case r.RouteV3 != nil:
		return r.RouteV3.Path
	case r.MixedRoute != nil:
		return r.MixedRoute.Path
	}
	return nil
}

// Pools returns the pools of the populated route.
func (r RouteResult) Pools() []pool.Pool {
	switch {
	case r.RouteV2 != nil:
		return r.RouteV2.genericPools()
	case r.RouteV3 != nil:
		return r.RouteV3.genericPools()
	case r.MixedRoute != nil:
		return r.MixedRoute.genericPools()
	}
	return nil
}

// MidPrice returns the spot price of the populated route.
func (r RouteResult) MidPrice() (currency.Price, error) {
	switch {
	case r.RouteV2 != nil:
		return r.RouteV2.MidPrice()
	case r.RouteV3 != nil:
		return r.RouteV3.MidPrice()
	case r.MixedRoute != nil:
		return r.MixedRoute.MidPrice()
	}
	return currency.Price{}, errors.Wrap(apperrors.ErrMalformedRoute, "empty result")
}

// Computer rebuilds typed routes from quote edges without touching the chain.
type Computer struct {
	natives *currency.Registry
}

// NewComputer creates a Computer resolving native currencies through natives.
func NewComputer(natives *currency.Registry) *Computer {
	return &Computer{natives: natives}
}

// ComputeRoutes turns each candidate edge list into a RouteResult, keeping the
// candidate order. A native request is reported as native even though the
// pools hold its wrapped token; otherwise amounts carry the route's own edge
// tokens, and the requested decimals and symbol are not used.
func (c *Computer) ComputeRoutes(args QuoteArgs, routes [][]PoolInRoute) ([]RouteResult, error) {
	if len(routes) == 0 {
		return []RouteResult{}, nil
	}

	currencyIn, err := c.requestedCurrency(args.TokenInAddress, args.TokenInChainID, args.TokenInDecimals, args.TokenInSymbol)
	if err != nil {
		return nil, errors.Wrap(err, "tokenIn")
	}
	currencyOut, err := c.requestedCurrency(args.TokenOutAddress, args.TokenOutChainID, args.TokenOutDecimals, args.TokenOutSymbol)
	if err != nil {
		return nil, errors.Wrap(err, "tokenOut")
	}

	results := make([]RouteResult, 0, len(routes))
	for i, edges := range routes {
		res, err := computeRoute(currencyIn, currencyOut, edges)
		if err != nil {
			return nil, errors.Wrapf(err, "route %d", i)
		}
		results = append(results, res)
	}
	return results, nil
}

func (c *Computer) requestedCurrency(address string, chainID uint64, decimals uint8, symbol string) (currency.Currency, error) {
	if native, ok := c.natives.Native(chainID); ok && currency.IsNativeAddress(address, native) {
		return native, nil
	}
	if !common.IsHexAddress(address) {
		return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "bad currency address %q", address)
	}
	return currency.NewToken(chainID, common.HexToAddress(address), decimals, symbol, ""), nil
}

func classify(edges []PoolInRoute) (pool.Protocol, error) {
	v2, v3 := 0, 0
	for i, e := range edges {
		switch e.Type {
		case PoolTypeV2:
			v2++
		case PoolTypeV3:
			v3++
		default:
			return "", errors.Wrapf(apperrors.ErrUnknownPoolType, "edge %d: %q", i, e.Type)
		}
	}
	switch len(edges) {
	case v2:
		return pool.ProtocolV2, nil
	case v3:
		return pool.ProtocolV3, nil
	}
	return pool.ProtocolMixed, nil
}

func computeRoute(currencyIn, currencyOut currency.Currency, edges []PoolInRoute) (RouteResult, error) {
	if len(edges) == 0 {
		return RouteResult{}, errors.Wrap(apperrors.ErrMalformedRoute, "empty edge list")
	}
	protocol, err := classify(edges)
	if err != nil {
		return RouteResult{}, err
	}

	pools := make([]pool.Pool, 0, len(edges))
	path := make([]*currency.Token, 0, len(edges)+1)
	for i, e := range edges {
		p, err := buildPool(e)
		if err != nil {
			return RouteResult{}, errors.Wrapf(err, "edge %d", i)
		}
		tokenIn, err := parseToken(e.TokenIn)
		if err != nil {
			return RouteResult{}, errors.Wrapf(err, "edge %d tokenIn", i)
		}
		pools = append(pools, p)
		path = append(path, tokenIn)
	}
	last := edges[len(edges)-1]
	tokenOut, err := parseToken(last.TokenOut)
	if err != nil {
		return RouteResult{}, errors.Wrap(err, "last tokenOut")
	}
	path = append(path, tokenOut)
	currencyIn = routeCurrency(currencyIn, path[0])
	currencyOut = routeCurrency(currencyOut, tokenOut)

	var res RouteResult
	res.InputAmount, err = currency.ParseAmount(currencyIn, edges[0].AmountIn)
	if err != nil {
		return RouteResult{}, errors.Wrap(err, "amountIn")
	}
	res.OutputAmount, err = currency.ParseAmount(currencyOut, last.AmountOut)
	if err != nil {
		return RouteResult{}, errors.Wrap(err, "amountOut")
	}

	switch protocol {
	case pool.ProtocolV2:
		res.RouteV2, err = NewRoute(narrow[*pool.V2Pair](pools), path, currencyIn, currencyOut)
	case pool.ProtocolV3:
		res.RouteV3, err = NewRoute(narrow[*pool.V3Pool](pools), path, currencyIn, currencyOut)
	default:
		res.MixedRoute, err = NewRoute(pools, path, currencyIn, currencyOut)
	}
	if err != nil {
		return RouteResult{}, errors.Wrap(err, "NewRoute")
	}

	res.Hops = make([]Hop, 0, len(edges))
	for i, e := range edges {
		hop, err := newHop(pools[i], path[i], path[i+1], e)
		if err != nil {
			return RouteResult{}, errors.Wrapf(err, "edge %d", i)
		}
		res.Hops = append(res.Hops, hop)
	}
	return res, nil
}

func newHop(p pool.Pool, tokenIn, tokenOut *currency.Token, e PoolInRoute) (Hop, error) {
	hop := Hop{Pool: p}
	var err error
	if hop.AmountIn, err = parseOptionalAmount(tokenIn, e.AmountIn); err != nil {
		return Hop{}, errors.Wrap(err, "amountIn")
	}
	if hop.AmountOut, err = parseOptionalAmount(tokenOut, e.AmountOut); err != nil {
		return Hop{}, errors.Wrap(err, "amountOut")
	}

	pair, ok := p.(*pool.V2Pair)
	if !ok || hop.AmountIn == nil {
		return hop, nil
	}
	out, err := pair.GetOutputAmount(*hop.AmountIn)
	switch {
	case errors.Is(err, apperrors.ErrInsufficientLiquidity):
		return hop, nil
	case err != nil:
		return Hop{}, errors.Wrap(err, "GetOutputAmount")
	}
	hop.ReserveAmountOut = &out
	return hop, nil
}

func parseOptionalAmount(t *currency.Token, raw string) (*currency.Amount, error) {
	if raw == "" {
		return nil, nil
	}
	a, err := currency.ParseAmount(t, raw)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// routeCurrency prefers the edge token over a requested token with the same
// address, so amounts are scaled by the decimals the pools report. A native
// request is kept. A token that does not match is left for NewRoute to reject.
func routeCurrency(requested currency.Currency, edge *currency.Token) currency.Currency {
	if !requested.IsNative() && requested.Equals(edge) {
		return edge
	}
	return requested
}

func buildPool(e PoolInRoute) (pool.Pool, error) {
	switch e.Type {
	case PoolTypeV2:
		return buildV2Pair(e)
	case PoolTypeV3:
		return buildV3Pool(e)
	}
	return nil, errors.Wrapf(apperrors.ErrUnknownPoolType, "%q", e.Type)
}

// narrow converts pools already classified as P.
func narrow[P pool.Pool](pools []pool.Pool) []P {
	out := make([]P, len(pools))
	for i, p := range pools {
		out[i] = p.(P)
	}
	return out
}
