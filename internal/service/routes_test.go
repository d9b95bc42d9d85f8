package service

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	"github.com/fleshka4/dex-bridge/internal/currency"
	"github.com/fleshka4/dex-bridge/internal/metrics"
	"github.com/fleshka4/dex-bridge/internal/pool"
	"github.com/fleshka4/dex-bridge/internal/routing"
	"github.com/fleshka4/dex-bridge/internal/service/dto"
)

var (
	dai  = routing.TokenInRoute{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", ChainID: 1, Symbol: "DAI", Decimals: "6"}
	usdc = routing.TokenInRoute{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", ChainID: 1, Symbol: "USDC", Decimals: "6"}
)

func newTestService(t *testing.T) (*RouteService, *metrics.Metrics) {
	t.Helper()

	wrapped := currency.NewToken(1, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH", "Wrapped Ether")
	registry := currency.NewRegistry(currency.NewNative(wrapped, "ETH", "Ether", 18))
	m := metrics.New(prometheus.NewRegistry())
	return NewRouteService(routing.NewComputer(registry), m, nil), m
}

func v2Edge(amountIn, amountOut string) routing.PoolInRoute {
	return routing.PoolInRoute{
		Type:      routing.PoolTypeV2,
		TokenIn:   dai,
		TokenOut:  usdc,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Reserve0:  &routing.Reserve{Token: dai, Quotient: "100000000"},
		Reserve1:  &routing.Reserve{Token: usdc, Quotient: "500000000"},
	}
}

func request(routes ...[]routing.PoolInRoute) dto.RoutesRequest {
	return dto.RoutesRequest{
		Args: routing.QuoteArgs{
			TokenInAddress:   dai.Address,
			TokenInChainID:   1,
			TokenInDecimals:  6,
			TokenInSymbol:    "DAI",
			TokenOutAddress:  usdc.Address,
			TokenOutChainID:  1,
			TokenOutDecimals: 6,
			TokenOutSymbol:   "USDC",
			TradeType:        routing.ExactInput,
		},
		Routes: routes,
	}
}

func TestComputeRoutes(t *testing.T) {
	t.Parallel()

	t.Run("split trade", func(t *testing.T) {
		t.Parallel()

		svc, m := newTestService(t)
		res, err := svc.ComputeRoutes(context.Background(), request(
			[]routing.PoolInRoute{v2Edge("1000000", "5000000")},
			[]routing.PoolInRoute{v2Edge("500000", "2400000")},
		))
		require.NoError(t, err)
		require.Len(t, res.Routes, 2)
		require.NotNil(t, res.Trade)
		require.Equal(t, "1.5", res.Trade.InputAmount.ToExact())
		require.Equal(t, "7.4", res.Trade.OutputAmount.ToExact())
		require.Equal(t, routing.ExactInput, res.Trade.TradeType)
		require.InDelta(t, 2, testutil.ToFloat64(m.ComputedRoutes.WithLabelValues(string(pool.ProtocolV2))), 0)
	})

	t.Run("no routes", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)
		res, err := svc.ComputeRoutes(context.Background(), request())
		require.NoError(t, err)
		require.Empty(t, res.Routes)
		require.Nil(t, res.Trade)
	})

	t.Run("invalid argument", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)
		req := request()
		req.Args.TokenOutAddress = req.Args.TokenInAddress

		res, err := svc.ComputeRoutes(context.Background(), req)
		require.Nil(t, res)
		require.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
	})

	t.Run("unknown pool type", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)
		edge := v2Edge("1", "1")
		edge.Type = "v4-pool"

		_, err := svc.ComputeRoutes(context.Background(), request([]routing.PoolInRoute{edge}))
		require.True(t, errors.Is(err, apperrors.ErrUnknownPoolType))
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.ComputeRoutes(ctx, request())
		require.True(t, errors.Is(err, context.Canceled))
	})
}
