package dto

import (
	"github.com/fleshka4/dex-bridge/internal/currency"
	"github.com/fleshka4/dex-bridge/internal/pool"
	"github.com/fleshka4/dex-bridge/internal/routing"
)

// RoutesRequest is the JSON body of POST /routes.
type RoutesRequest struct {
	Args   routing.QuoteArgs       `json:"args"`
	Routes [][]routing.PoolInRoute `json:"routes"`
}

// RoutesResponse is the JSON answer of POST /routes.
type RoutesResponse struct {
	Routes []Route `json:"routes"`
	Trade  *Trade  `json:"trade,omitempty"`
}

type Currency struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address,omitempty"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	IsNative bool   `json:"isNative"`
}

type Amount struct {
	Currency    Currency `json:"currency"`
	Raw         string   `json:"raw"`
	Exact       string   `json:"exact"`
	Significant string   `json:"significant"`
}

type Pool struct {
	Protocol pool.Protocol  `json:"protocol"`
	Address  string         `json:"address,omitempty"`
	Token0   Currency       `json:"token0"`
	Token1   Currency       `json:"token1"`
	Fee      pool.FeeAmount `json:"fee,omitempty"`

	AmountIn         *Amount `json:"amountIn,omitempty"`
	AmountOut        *Amount `json:"amountOut,omitempty"`
	ReserveAmountOut *Amount `json:"reserveAmountOut,omitempty"`
}

type Route struct {
	Protocol     pool.Protocol `json:"protocol"`
	TokenPath    []Currency    `json:"tokenPath"`
	Pools        []Pool        `json:"pools"`
	InputAmount  Amount        `json:"inputAmount"`
	OutputAmount Amount        `json:"outputAmount"`
	MidPrice     string        `json:"midPrice,omitempty"`
}

type Trade struct {
	TradeType      routing.TradeType `json:"tradeType"`
	InputAmount    Amount            `json:"inputAmount"`
	OutputAmount   Amount            `json:"outputAmount"`
	ExecutionPrice string            `json:"executionPrice"`
}

func FromCurrency(c currency.Currency) Currency {
	out := Currency{
		ChainID:  c.ChainID(),
		Symbol:   c.Symbol(),
		Decimals: c.Decimals(),
		IsNative: c.IsNative(),
	}
	if t, ok := c.(*currency.Token); ok {
		out.Address = t.Address().Hex()
	}
	return out
}

func FromAmount(a currency.Amount) Amount {
	return Amount{
		Currency:    FromCurrency(a.Currency()),
		Raw:         a.Raw().String(),
		Exact:       a.ToExact(),
		Significant: a.ToSignificant(currency.DefaultSignificantDigits),
	}
}

func FromPool(p pool.Pool) Pool {
	out := Pool{
		Protocol: p.Protocol(),
		Token0:   FromCurrency(p.Token0()),
		Token1:   FromCurrency(p.Token1()),
	}
	switch v := p.(type) {
	case *pool.V2Pair:
		out.Address = v.Address().Hex()
	case *pool.V3Pool:
		out.Address = v.Address().Hex()
		out.Fee = v.Fee()
	}
	return out
}

// FromHop is FromPool plus the amounts quoted for the hop and, for v2 pairs,
// the output the reserves imply.
func FromHop(h routing.Hop) Pool {
	out := FromPool(h.Pool)
	out.AmountIn = fromOptionalAmount(h.AmountIn)
	out.AmountOut = fromOptionalAmount(h.AmountOut)
	out.ReserveAmountOut = fromOptionalAmount(h.ReserveAmountOut)
	return out
}

func fromOptionalAmount(a *currency.Amount) *Amount {
	if a == nil {
		return nil
	}
	out := FromAmount(*a)
	return &out
}

func FromRoute(r routing.RouteResult) Route {
	out := Route{
		Protocol:     r.Protocol(),
		InputAmount:  FromAmount(r.InputAmount),
		OutputAmount: FromAmount(r.OutputAmount),
	}
	for _, t := range r.TokenPath() {
		out.TokenPath = append(out.TokenPath, FromCurrency(t))
	}
	for _, h := range r.Hops {
		out.Pools = append(out.Pools, FromHop(h))
	}
	// A route whose pools cannot price it is still returned, without a mid price.
	if mid, err := r.MidPrice(); err == nil {
		out.MidPrice = mid.ToSignificant(currency.DefaultSignificantDigits)
	}
	return out
}

func FromTrade(t *routing.Trade) *Trade {
	if t == nil {
		return nil
	}
	return &Trade{
		TradeType:      t.TradeType,
		InputAmount:    FromAmount(t.InputAmount),
		OutputAmount:   FromAmount(t.OutputAmount),
		ExecutionPrice: t.ExecutionPrice().ToSignificant(currency.DefaultSignificantDigits),
	}
}
