package dto

import (
	"github.com/fleshka4/dex-bridge/internal/routing"
)

// RoutesRequest asks for the candidate routes of a quote to be rebuilt.
type RoutesRequest struct {
	Args   routing.QuoteArgs
	Routes [][]routing.PoolInRoute
}

// RoutesResult holds the rebuilt routes in input order. Trade is nil when
// there are no routes.
type RoutesResult struct {
	Routes []routing.RouteResult
	Trade  *routing.Trade
}
