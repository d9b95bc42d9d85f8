package dto

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/fleshka4/dex-bridge/internal/currency"
	"github.com/fleshka4/dex-bridge/internal/routing"
)

func TestFromRouteHops(t *testing.T) {
	t.Parallel()

	dai := routing.TokenInRoute{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", ChainID: 1, Symbol: "DAI", Decimals: "6"}
	usdc := routing.TokenInRoute{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", ChainID: 1, Symbol: "USDC", Decimals: "6"}

	wrapped := currency.NewToken(1, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH", "")
	computer := routing.NewComputer(currency.NewRegistry(currency.NewNative(wrapped, "ETH", "Ether", 18)))

	res, err := computer.ComputeRoutes(routing.QuoteArgs{
		TokenInAddress:  dai.Address,
		TokenInChainID:  1,
		TokenOutAddress: usdc.Address,
		TokenOutChainID: 1,
	}, [][]routing.PoolInRoute{{{
		Type:      routing.PoolTypeV2,
		TokenIn:   dai,
		TokenOut:  usdc,
		AmountIn:  "1000000",
		AmountOut: "2400000",
		Reserve0:  &routing.Reserve{Token: dai, Quotient: "1000000"},
		Reserve1:  &routing.Reserve{Token: usdc, Quotient: "5000000"},
	}}})
	require.NoError(t, err)

	route := FromRoute(res[0])
	require.Len(t, route.Pools, 1)

	p := route.Pools[0]
	require.Equal(t, "1", p.AmountIn.Significant)
	require.Equal(t, "2.4", p.AmountOut.Significant)
	require.Equal(t, "2496244", p.ReserveAmountOut.Raw)
	require.Equal(t, "USDC", p.ReserveAmountOut.Currency.Symbol)

	raw, err := json.Marshal(FromHop(routing.Hop{Pool: res[0].Hops[0].Pool}))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "amountIn")
	require.NotContains(t, string(raw), "reserveAmountOut")
}
