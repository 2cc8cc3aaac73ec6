package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fystack/wallet-aggregator/internal/predictionmarket"
	"github.com/fystack/wallet-aggregator/pkg/common/types"
)

// Open positions get a wider display window than on-chain assets.
const topPositionLimit = 10

// PredictionMarketAggregator renders a prediction-market account as a
// portfolio: each open position is an asset valued at its current outcome
// price, and the account's total value appears as a synthetic USDC native
// balance.
type PredictionMarketAggregator struct {
	client *predictionmarket.Client
}

func NewPredictionMarketAggregator(client *predictionmarket.Client) *PredictionMarketAggregator {
	return &PredictionMarketAggregator{client: client}
}

func (a *PredictionMarketAggregator) Fetch(ctx context.Context, address string) (*Portfolio, error) {
	positions, err := a.client.GetPositions(ctx, address)
	if err != nil {
		return nil, &types.UpstreamError{Source: "prediction market", Err: err}
	}

	assets := make([]Asset, 0, len(positions))
	totalValue := 0.0
	active := 0
	for _, pos := range positions {
		totalValue += pos.CurrentValue
		if pos.CurrentValue > 0 {
			active++
		}
		assets = append(assets, Asset{
			Symbol:          "PM-" + pos.Outcome,
			ContractAddress: pos.Asset,
			Balance:         usdcRaw(pos.Size),
			Decimals:        6,
			Price:           pos.CurPrice,
			MarketValue:     pos.CurrentValue,
			Metadata: map[string]any{
				"title":           pos.Title,
				"outcome":         pos.Outcome,
				"oppositeOutcome": pos.OppositeOutcome,
				"icon":            pos.Icon,
				"slug":            pos.Slug,
				"endDate":         pos.EndDate,
				"avgPrice":        pos.AvgPrice,
				"initialValue":    pos.InitialValue,
				"cashPnl":         pos.CashPnl,
				"percentPnl":      pos.PercentPnl,
				"redeemable":      pos.Redeemable,
			},
		})
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].MarketValue > assets[j].MarketValue
	})
	if len(assets) > topPositionLimit {
		assets = assets[:topPositionLimit]
	}

	usdc := Asset{
		Symbol:      "USDC",
		Balance:     usdcRaw(totalValue),
		Decimals:    6,
		Price:       1, // account value is denominated in USDC
		MarketValue: totalValue,
		IsNative:    true,
	}

	return &Portfolio{
		Address:       address,
		Chain:         "Polymarket",
		ChainID:       "polymarket",
		NativeBalance: &usdc,
		Tokens:        assets,
		TopAssets:     append([]Asset{usdc}, assets...),
		TotalAssets:   len(positions),
		Note: fmt.Sprintf("Showing %d active positions out of %d total positions on Polymarket",
			active, len(positions)),
	}, nil
}

// usdcRaw renders a USD amount as a raw 6-decimal integer string.
func usdcRaw(amount float64) string {
	return decimal.NewFromFloat(amount).Shift(6).Round(0).String()
}
