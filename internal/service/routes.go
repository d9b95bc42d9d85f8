package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fleshka4/dex-bridge/internal/metrics"
	"github.com/fleshka4/dex-bridge/internal/routing"
	"github.com/fleshka4/dex-bridge/internal/service/dto"
	"github.com/fleshka4/dex-bridge/internal/service/validate"
)

// RouteService rebuilds quote routes offline.
type RouteService struct {
	computer *routing.Computer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRouteService creates RouteService.
func NewRouteService(computer *routing.Computer, m *metrics.Metrics, logger *zap.Logger) *RouteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &RouteService{computer: computer, metrics: m, logger: logger}
}

// ComputeRoutes validates the request, rebuilds every candidate route from the
// pool state embedded in it, and aggregates them into a trade.
func (s *RouteService) ComputeRoutes(ctx context.Context, req dto.RoutesRequest) (*dto.RoutesResult, error) {
	if err := validate.RoutesRequestValidate(req); err != nil {
		return nil, errors.Wrap(err, "validate.RoutesRequestValidate")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "ctx.Err")
	}

	routes, err := s.computer.ComputeRoutes(req.Args, req.Routes)
	if err != nil {
		return nil, errors.Wrap(err, "computer.ComputeRoutes")
	}
	for _, r := range routes {
		s.metrics.ComputedRoutes.WithLabelValues(string(r.Protocol())).Inc()
	}

	res := &dto.RoutesResult{Routes: routes}
	if len(routes) == 0 {
		return res, nil
	}

	res.Trade, err = routing.NewTrade(req.Args.TradeType, routes)
	if err != nil {
		return nil, errors.Wrap(err, "routing.NewTrade")
	}

	s.logger.Debug("routes computed",
		zap.Int("routes", len(routes)),
		zap.String("input", res.Trade.InputAmount.ToExact()),
		zap.String("output", res.Trade.OutputAmount.ToExact()),
	)
	return res, nil
}
