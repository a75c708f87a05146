package metrics

import (
	"math"

	"github.com/kirillm/dashboard-bot/internal/domain"
)

// Минимальная высота столбика: каждый торговый день
// всегда видим на графике
const minBarHeightPct = 5

// ChartBar — один столбик дневного графика P&L
type ChartBar struct {
	Date       string
	Day        string
	TradeCount int
	ProfitLoss float64
	HeightPct  float64
	Positive   bool
}

// NormalizeBreakdown переводит дневную разбивку P&L в высоты столбиков.
// Высота — доля от максимального |P&L| в выборке; максимум не меньше 1,
// чтобы микроскопические результаты не растягивались на весь график.
func NormalizeBreakdown(points []domain.BreakdownPoint) []ChartBar {
	if len(points) == 0 {
		return nil
	}

	maxAbs := 1.0
	for _, pt := range points {
		if abs := math.Abs(pt.ProfitLoss); abs > maxAbs {
			maxAbs = abs
		}
	}

	bars := make([]ChartBar, 0, len(points))
	for _, pt := range points {
		bar := ChartBar{
			Date:       pt.Date,
			Day:        pt.Day,
			TradeCount: pt.TradeCount,
			ProfitLoss: pt.ProfitLoss,
			Positive:   pt.ProfitLoss >= 0,
		}
		height := math.Abs(pt.ProfitLoss) / maxAbs * 100
		if height < minBarHeightPct {
			height = minBarHeightPct
		}
		bar.HeightPct = height
		bars = append(bars, bar)
	}
	return bars
}
