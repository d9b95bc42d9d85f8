package routing

import (
	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
)

// Trade is a quote split across one or more routes.
type Trade struct {
	TradeType    TradeType
	Routes       []RouteResult
	InputAmount  currency.Amount
	OutputAmount currency.Amount
}

// NewTrade sums the amounts of routes. All routes must share input and output currencies.
func NewTrade(tradeType TradeType, routes []RouteResult) (*Trade, error) {
	if len(routes) == 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, "trade without routes")
	}
	if tradeType == "" {
		tradeType = ExactInput
	}

	in, out := routes[0].InputAmount, routes[0].OutputAmount
	for i := 1; i < len(routes); i++ {
		var err error
		if in, err = in.Add(routes[i].InputAmount); err != nil {
			return nil, errors.Wrapf(err, "route %d input", i)
		}
		if out, err = out.Add(routes[i].OutputAmount); err != nil {
			return nil, errors.Wrapf(err, "route %d output", i)
		}
	}
	return &Trade{
		TradeType:    tradeType,
		Routes:       routes,
		InputAmount:  in,
		OutputAmount: out,
	}, nil
}

// ExecutionPrice is the average price paid across all routes.
func (t *Trade) ExecutionPrice() currency.Price {
	return currency.NewPrice(t.InputAmount.Currency(), t.OutputAmount.Currency(), t.InputAmount.Raw(), t.OutputAmount.Raw())
}
