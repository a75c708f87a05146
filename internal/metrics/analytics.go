package metrics

import (
	"time"

	"github.com/kirillm/dashboard-bot/internal/domain"
)

// Окна агрегации
const (
	windowHourly  = time.Hour
	windowDaily   = 24 * time.Hour
	windowWeekly  = 7 * 24 * time.Hour
	windowMonthly = 30 * 24 * time.Hour
)

// AggregateTrades строит сводку P&L по закрытым сделкам за все
// стандартные периоды. Сделка попадает в период по моменту выхода.
// Сводка считается локально и не зависит от аналитики сервиса.
func AggregateTrades(trades []domain.Trade, now time.Time) domain.AnalyticsSummary {
	return domain.AnalyticsSummary{
		Hourly:  aggregatePeriod(trades, domain.PeriodHourly, now.Add(-windowHourly)),
		Daily:   aggregatePeriod(trades, domain.PeriodDaily, now.Add(-windowDaily)),
		Weekly:  aggregatePeriod(trades, domain.PeriodWeekly, now.Add(-windowWeekly)),
		Monthly: aggregatePeriod(trades, domain.PeriodMonthly, now.Add(-windowMonthly)),
		AllTime: aggregatePeriod(trades, domain.PeriodAllTime, time.Time{}),
	}
}

// aggregatePeriod считает статистику по сделкам, закрытым не раньше cutoff.
// Нулевой cutoff означает «за всё время».
//
// Сделка с нулевым P&L считается выигрышной: выход в ноль — не убыток.
// Показатели без определённого значения остаются nil, а не нулём:
// win rate без сделок не 0%, средний убыток без убытков не 0.
func aggregatePeriod(trades []domain.Trade, period string, cutoff time.Time) domain.AnalyticsPeriod {
	p := domain.AnalyticsPeriod{Period: period}

	var (
		sumProfit float64
		sumLoss   float64
		costBasis float64
		best      *domain.Trade
		worst     *domain.Trade
	)

	for i := range trades {
		tr := trades[i]
		if tr.ProfitLoss == nil || tr.ExitTime == nil {
			continue
		}
		if !cutoff.IsZero() && tr.ExitTime.Time.Before(cutoff) {
			continue
		}

		pl := *tr.ProfitLoss
		p.TotalTrades++
		p.TotalProfitLoss += pl
		costBasis += tr.EntryPrice * tr.Quantity

		if pl >= 0 {
			p.WinningTrades++
			sumProfit += pl
		} else {
			p.LosingTrades++
			sumLoss += pl
		}

		if best == nil || betterThan(tr, *best) {
			cp := tr
			best = &cp
		}
		if worst == nil || worseThan(tr, *worst) {
			cp := tr
			worst = &cp
		}
	}

	if p.TotalTrades > 0 {
		rate := float64(p.WinningTrades) / float64(p.TotalTrades) * 100
		p.WinRate = &rate
	}
	if p.WinningTrades > 0 {
		avg := sumProfit / float64(p.WinningTrades)
		p.AvgProfit = &avg
	}
	if p.LosingTrades > 0 {
		avg := sumLoss / float64(p.LosingTrades)
		p.AvgLoss = &avg
	}

	// Процент к совокупной стоимости входа, не к среднему процентов
	if costBasis > 0 {
		p.TotalProfitLossPct = p.TotalProfitLoss / costBasis * 100
	}

	p.BestTrade = best
	p.WorstTrade = worst
	return p
}

// betterThan: больший P&L, при равенстве — более ранний выход
func betterThan(a, b domain.Trade) bool {
	if *a.ProfitLoss != *b.ProfitLoss {
		return *a.ProfitLoss > *b.ProfitLoss
	}
	return a.ExitTime.Time.Before(b.ExitTime.Time)
}

// worseThan: меньший P&L, при равенстве — более ранний выход
func worseThan(a, b domain.Trade) bool {
	if *a.ProfitLoss != *b.ProfitLoss {
		return *a.ProfitLoss < *b.ProfitLoss
	}
	return a.ExitTime.Time.Before(b.ExitTime.Time)
}
