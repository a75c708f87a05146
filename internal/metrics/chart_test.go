package metrics

import (
	"testing"

	"github.com/kirillm/dashboard-bot/internal/domain"
)

func TestNormalizeBreakdown(t *testing.T) {
	points := []domain.BreakdownPoint{
		{Date: "2026-08-22", Day: "Sat", TradeCount: 3, ProfitLoss: 50},
		{Date: "2026-08-23", Day: "Sun", TradeCount: 1, ProfitLoss: -25},
		{Date: "2026-08-24", Day: "Mon", TradeCount: 0, ProfitLoss: 0},
		{Date: "2026-08-25", Day: "Tue", TradeCount: 2, ProfitLoss: 1},
	}

	bars := NormalizeBreakdown(points)
	if len(bars) != 4 {
		t.Fatalf("len(bars) = %d, want 4", len(bars))
	}

	// Максимальный |P&L| занимает всю высоту
	if !almostEqual(bars[0].HeightPct, 100) {
		t.Errorf("max bar height = %v, want 100", bars[0].HeightPct)
	}
	if !almostEqual(bars[1].HeightPct, 50) {
		t.Errorf("loss bar height = %v, want 50", bars[1].HeightPct)
	}
	if bars[1].Positive {
		t.Error("loss bar must not be positive")
	}

	// Нулевой и микроскопический дни прижаты к минимуму
	if !almostEqual(bars[2].HeightPct, minBarHeightPct) {
		t.Errorf("zero day height = %v, want %v", bars[2].HeightPct, float64(minBarHeightPct))
	}
	if !almostEqual(bars[3].HeightPct, minBarHeightPct) {
		t.Errorf("tiny day height = %v, want %v", bars[3].HeightPct, float64(minBarHeightPct))
	}
	if !bars[2].Positive {
		t.Error("zero P&L renders as a positive bar")
	}

	for _, b := range bars {
		if b.HeightPct < minBarHeightPct || b.HeightPct > 100 {
			t.Errorf("bar %s height %v outside [%d, 100]", b.Date, b.HeightPct, minBarHeightPct)
		}
	}
}

func TestNormalizeBreakdownSmallValues(t *testing.T) {
	// Все |P&L| меньше 1: делитель остаётся 1, высоты не растягиваются
	points := []domain.BreakdownPoint{
		{Date: "2026-08-26", ProfitLoss: 0.5},
		{Date: "2026-08-27", ProfitLoss: -0.2},
	}

	bars := NormalizeBreakdown(points)
	if !almostEqual(bars[0].HeightPct, 50) {
		t.Errorf("height = %v, want 50", bars[0].HeightPct)
	}
	if !almostEqual(bars[1].HeightPct, 20) {
		t.Errorf("height = %v, want 20", bars[1].HeightPct)
	}
}

func TestNormalizeBreakdownEmpty(t *testing.T) {
	if bars := NormalizeBreakdown(nil); bars != nil {
		t.Errorf("NormalizeBreakdown(nil) = %v, want nil", bars)
	}
}
