package metrics

import (
	"sort"

	"github.com/kirillm/dashboard-bot/internal/domain"
)

// AssetValue — оценка одного актива в USDT
type AssetValue struct {
	Asset      string
	Free       float64
	Locked     float64
	Amount     float64
	Price      float64
	Value      float64
	SharePct   float64
	Stablecoin bool
	Important  bool
	PriceKnown bool
}

// PortfolioValuation — оценка портфеля целиком
type PortfolioValuation struct {
	TotalValue    float64
	StableValue   float64
	CryptoValue   float64
	Assets        []AssetValue
	MissingPrices []string
}

// ValuePortfolio оценивает портфель по остаткам и текущим ценам.
// Стейблкоины считаются 1:1 к USDT, остальные активы — по цене пары
// <актив>USDT. Актив без известной цены не входит в итог и помечается
// в MissingPrices.
func ValuePortfolio(balances map[string]domain.Balance, prices map[string]domain.PriceTick) PortfolioValuation {
	var v PortfolioValuation

	for asset, b := range balances {
		if b.Total == 0 {
			continue
		}

		av := AssetValue{
			Asset:      asset,
			Free:       b.Free,
			Locked:     b.Locked,
			Amount:     b.Total,
			Stablecoin: domain.IsStablecoin(asset),
			Important:  domain.IsImportantAsset(asset),
		}

		switch {
		case av.Stablecoin:
			av.Price = 1
			av.Value = b.Total
			av.PriceKnown = true
			v.StableValue += av.Value
		default:
			tick, ok := prices[asset+domain.QuoteAsset]
			if !ok {
				v.MissingPrices = append(v.MissingPrices, asset)
				v.Assets = append(v.Assets, av)
				continue
			}
			av.Price = tick.Price
			av.Value = b.Total * tick.Price
			av.PriceKnown = true
			v.CryptoValue += av.Value
		}

		v.Assets = append(v.Assets, av)
	}

	v.TotalValue = v.StableValue + v.CryptoValue

	if v.TotalValue > 0 {
		for i := range v.Assets {
			v.Assets[i].SharePct = v.Assets[i].Value / v.TotalValue * 100
		}
	}

	// Ключевые активы всегда сверху; внутри яруса — крупнейшие первыми,
	// при равенстве — по имени
	sort.Slice(v.Assets, func(i, j int) bool {
		a, b := v.Assets[i], v.Assets[j]
		if a.Important != b.Important {
			return a.Important
		}
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.Asset < b.Asset
	})
	sort.Strings(v.MissingPrices)

	return v
}
