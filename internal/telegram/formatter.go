package telegram

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/metrics"
	"github.com/kirillm/dashboard-bot/internal/state"
	"github.com/kirillm/dashboard-bot/internal/storage"
)

// Formatter форматирует ответы для пользователя.
// Неопределённое значение рисуется как N/A, не как ноль.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

func fmtOpt(v *float64, format string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf(format, *v)
}

func pnlEmoji(v float64) string {
	if v < 0 {
		return "📉"
	}
	return "📈"
}

// FormatDashboard форматирует сводку: статус бота, цены, сигналы
func (f *Formatter) FormatDashboard(snap state.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("📊 Dashboard\n\n")

	if snap.Health != nil && !snap.Health.Reachable() {
		sb.WriteString("🔌 Service unreachable\n\n")
	}

	if snap.BotStatus != nil {
		status := "⏸ Stopped"
		if snap.BotStatus.Running {
			status = "▶️ Running"
		}
		sb.WriteString(fmt.Sprintf("Bot: %s\n", status))
		if snap.BotStatus.Running {
			sb.WriteString(fmt.Sprintf("Symbol: %s (%s)\n", snap.BotStatus.Symbol, snap.BotStatus.Strategy))
			if snap.BotStatus.InPosition {
				sb.WriteString(fmt.Sprintf("🟢 In position @ $%.2f\n", snap.BotStatus.EntryPrice))
			} else {
				sb.WriteString("⚪️ No position\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(snap.Prices) > 0 {
		sb.WriteString("Prices:\n")
		for _, symbol := range sortedSymbols(snap.Prices) {
			tick := snap.Prices[symbol]
			sb.WriteString(fmt.Sprintf("  %s: $%.2f", symbol, tick.Price))
			if a, ok := snap.Analysis[symbol]; ok && a != nil {
				summary := metrics.Summarize(a)
				sb.WriteString(fmt.Sprintf("  %s %.0f%%", signalEmoji(summary.Signal), summary.StrengthPct))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatAnalysis форматирует пакет индикаторов по символу
func (f *Formatter) FormatAnalysis(a *domain.AnalysisSnapshot) string {
	if a == nil {
		return "❌ No analysis data yet"
	}

	summary := metrics.Summarize(a)
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🔬 %s\n\n", a.Symbol))
	sb.WriteString(fmt.Sprintf("Price: %s\n", fmtOpt(a.Price, "$%.2f")))
	sb.WriteString(fmt.Sprintf("RSI: %s (%s)\n", fmtOpt(a.RSI, "%.1f"), summary.RSIZone))
	sb.WriteString(fmt.Sprintf("EMA 9/21: %s / %s (%s)\n", fmtOpt(a.EMA9, "%.2f"), fmtOpt(a.EMA21, "%.2f"), summary.Bias))
	sb.WriteString(fmt.Sprintf("MACD: %s vs %s (%s)\n", fmtOpt(a.MACD, "%.4f"), fmtOpt(a.MACDSignal, "%.4f"), summary.Momentum))
	sb.WriteString(fmt.Sprintf("Bollinger: %s\n", summary.BandPosition))
	sb.WriteString(fmt.Sprintf("\n%s Signal: %s (%.0f%%)\n", signalEmoji(a.Signal), a.Signal, summary.StrengthPct))

	return sb.String()
}

// FormatWallet форматирует оценку портфеля
func (f *Formatter) FormatWallet(v metrics.PortfolioValuation) string {
	var sb strings.Builder

	sb.WriteString("💼 Wallet\n\n")
	sb.WriteString(fmt.Sprintf("Total: $%.2f\n", v.TotalValue))
	sb.WriteString(fmt.Sprintf("  Stable: $%.2f\n", v.StableValue))
	sb.WriteString(fmt.Sprintf("  Crypto: $%.2f\n", v.CryptoValue))

	if len(v.Assets) > 0 {
		sb.WriteString("\nAssets:\n")
		for _, a := range v.Assets {
			marker := "  "
			if a.Important {
				marker = "⭐️ "
			}
			if !a.PriceKnown {
				sb.WriteString(fmt.Sprintf("%s%s: %.8f (price unknown)\n", marker, a.Asset, a.Amount))
				continue
			}
			sb.WriteString(fmt.Sprintf("%s%s: %.8f = $%.2f (%.1f%%)\n", marker, a.Asset, a.Amount, a.Value, a.SharePct))
		}
	}

	if len(v.MissingPrices) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠️ No price for: %s\n", strings.Join(v.MissingPrices, ", ")))
	}

	return sb.String()
}

// FormatAnalytics форматирует сводку P&L по периодам
func (f *Formatter) FormatAnalytics(summary domain.AnalyticsSummary) string {
	var sb strings.Builder

	sb.WriteString("📈 Analytics\n")

	periods := []domain.AnalyticsPeriod{
		summary.Hourly, summary.Daily, summary.Weekly, summary.Monthly, summary.AllTime,
	}
	for _, p := range periods {
		sb.WriteString(fmt.Sprintf("\n%s %s\n", pnlEmoji(p.TotalProfitLoss), periodTitle(p.Period)))
		if p.TotalTrades == 0 {
			sb.WriteString("  No trades\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("  Trades: %d (%dW / %dL)\n", p.TotalTrades, p.WinningTrades, p.LosingTrades))
		sb.WriteString(fmt.Sprintf("  P&L: $%.2f (%.2f%%)\n", p.TotalProfitLoss, p.TotalProfitLossPct))
		sb.WriteString(fmt.Sprintf("  Win rate: %s\n", fmtOpt(p.WinRate, "%.1f%%")))
		sb.WriteString(fmt.Sprintf("  Avg profit: %s  Avg loss: %s\n",
			fmtOpt(p.AvgProfit, "$%.2f"), fmtOpt(p.AvgLoss, "$%.2f")))
		if p.BestTrade != nil && p.BestTrade.ProfitLoss != nil {
			sb.WriteString(fmt.Sprintf("  Best: %s $%.2f\n", p.BestTrade.Symbol, *p.BestTrade.ProfitLoss))
		}
	}

	return sb.String()
}

// FormatChart рисует дневную разбивку P&L псевдографикой
func (f *Formatter) FormatChart(bars []metrics.ChartBar) string {
	if len(bars) == 0 {
		return "📉 No breakdown data yet"
	}

	var sb strings.Builder
	sb.WriteString("🗓 Daily P&L\n\n")

	const maxCells = 10
	for _, bar := range bars {
		cells := int(bar.HeightPct / 100 * maxCells)
		if cells < 1 {
			cells = 1
		}
		block := "🟩"
		if !bar.Positive {
			block = "🟥"
		}
		sb.WriteString(fmt.Sprintf("%s %s $%.2f (%d)\n",
			bar.Day, strings.Repeat(block, cells), bar.ProfitLoss, bar.TradeCount))
	}

	return sb.String()
}

// FormatTrades форматирует открытые и закрытые сделки
func (f *Formatter) FormatTrades(open, closed []domain.Trade, totalClosed int) string {
	var sb strings.Builder

	sb.WriteString("📜 Trades\n\n")

	sb.WriteString(fmt.Sprintf("Open (%d):\n", len(open)))
	if len(open) == 0 {
		sb.WriteString("  none\n")
	}
	for _, tr := range open {
		sb.WriteString(fmt.Sprintf("  🟡 #%s %s %s @ $%.2f\n", tr.ID, tr.Side, tr.Symbol, tr.EntryPrice))
		sb.WriteString(fmt.Sprintf("     Unrealized: %s (%s)\n",
			fmtOpt(tr.UnrealizedPL, "$%.2f"), fmtOpt(tr.UnrealizedPLPct, "%.2f%%")))
	}

	sb.WriteString(fmt.Sprintf("\nClosed (%d of %d):\n", len(closed), totalClosed))
	if len(closed) == 0 {
		sb.WriteString("  none\n")
	}
	for _, tr := range closed {
		emoji := "🟢"
		if tr.ProfitLoss != nil && *tr.ProfitLoss < 0 {
			emoji = "🔴"
		}
		sb.WriteString(fmt.Sprintf("  %s #%s %s: %s (%s)\n", emoji, tr.ID, tr.Symbol,
			fmtOpt(tr.ProfitLoss, "$%.2f"), fmtOpt(tr.ProfitLossPct, "%.2f%%")))
	}

	return sb.String()
}

// FormatHistory форматирует содержимое журнала: срезы и команды
func (f *Formatter) FormatHistory(snapshots []storage.PnLSnapshot, actions []storage.ActionRecord) string {
	var sb strings.Builder

	sb.WriteString("📒 Journal\n\n")

	sb.WriteString("P&L snapshots:\n")
	if len(snapshots) == 0 {
		sb.WriteString("  none yet\n")
	}
	for _, s := range snapshots {
		sb.WriteString(fmt.Sprintf("  %s %s: $%.2f over %d trades, win rate %s\n",
			pnlEmoji(s.TotalProfitLoss), s.CreatedAt.Format("01-02 15:04"),
			s.TotalProfitLoss, s.TotalTrades, fmtOpt(s.WinRate, "%.1f%%")))
	}

	sb.WriteString("\nCommands:\n")
	if len(actions) == 0 {
		sb.WriteString("  none yet\n")
	}
	for _, a := range actions {
		emoji := "✅"
		if !a.Success {
			emoji = "❌"
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			emoji, a.CreatedAt.Format("01-02 15:04"), a.Action, a.Detail))
	}

	return sb.String()
}

// FormatCloseResult форматирует итог закрытия позиции
func (f *Formatter) FormatCloseResult(r *domain.CloseResult) string {
	return fmt.Sprintf("%s Position closed\nEntry: $%.2f → Exit: $%.2f\nP&L: $%.2f (%.2f%%)",
		pnlEmoji(r.ProfitLoss), r.EntryPrice, r.ExitPrice, r.ProfitLoss, r.ProfitPct)
}

// FormatHealth форматирует состояние сервиса и свежесть данных
func (f *Formatter) FormatHealth(h *domain.Health, ages map[domain.Domain]time.Duration) string {
	var sb strings.Builder

	if h == nil {
		sb.WriteString("❓ No health data yet\n")
	} else if h.Reachable() {
		sb.WriteString("✅ Service is up\n")
	} else {
		sb.WriteString(fmt.Sprintf("🔌 Service unreachable: %s\n", h.Error))
	}

	if len(ages) > 0 {
		sb.WriteString("\nData age:\n")
		for _, d := range domain.AllDomains() {
			age, ok := ages[d]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s: %s\n", d, FormatDuration(age)))
		}
	}

	return sb.String()
}

// FormatError форматирует сообщение об ошибке
func (f *Formatter) FormatError(err error) string {
	return fmt.Sprintf("❌ Error: %v", err)
}

// FormatSuccess форматирует сообщение об успехе
func (f *Formatter) FormatSuccess(message string) string {
	return fmt.Sprintf("✅ %s", message)
}

// FormatDuration форматирует длительность
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

func periodTitle(period string) string {
	switch period {
	case domain.PeriodHourly:
		return "Last hour"
	case domain.PeriodDaily:
		return "Last 24h"
	case domain.PeriodWeekly:
		return "Last 7 days"
	case domain.PeriodMonthly:
		return "Last 30 days"
	case domain.PeriodAllTime:
		return "All time"
	default:
		return period
	}
}

func signalEmoji(signal string) string {
	switch signal {
	case domain.SignalBuy:
		return "🟢"
	case domain.SignalSell:
		return "🔴"
	default:
		return "⚪️"
	}
}

func sortedSymbols(prices map[string]domain.PriceTick) []string {
	symbols := make([]string, 0, len(prices))
	for s := range prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
