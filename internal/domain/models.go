package domain

import (
	"strings"
	"time"
)

// Domain представляет одну независимо опрашиваемую категорию данных
type Domain string

const (
	DomainPrices       Domain = "prices"
	DomainBalances     Domain = "balances"
	DomainAnalysis     Domain = "analysis"
	DomainBotStatus    Domain = "bot_status"
	DomainOpenTrades   Domain = "open_trades"
	DomainClosedTrades Domain = "closed_trades"
	DomainAnalytics    Domain = "analytics"
	DomainBreakdown    Domain = "breakdown"
	DomainHealth       Domain = "health"
)

// AllDomains возвращает все опрашиваемые домены
func AllDomains() []Domain {
	return []Domain{
		DomainPrices,
		DomainBalances,
		DomainAnalysis,
		DomainBotStatus,
		DomainOpenTrades,
		DomainClosedTrades,
		DomainAnalytics,
		DomainBreakdown,
		DomainHealth,
	}
}

// Timestamp оборачивает time.Time для разбора меток времени сервиса.
// Сервис отдает ISO 8601 без таймзоны, иногда RFC3339.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON разбирает метку времени в любом из известных форматов
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON сериализует метку времени в RFC3339
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Time.Format(time.RFC3339) + `"`), nil
}

// PriceTick представляет последнюю цену по одному символу
type PriceTick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	FetchedAt time.Time `json:"-"`
}

// Balance представляет остаток по одному активу
type Balance struct {
	Asset  string  `json:"-"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
	Total  float64 `json:"total"`
}

// AnalysisSnapshot представляет пакет индикаторов по одному символу.
// Отсутствующие значения остаются nil: отсутствие и ноль — разные вещи.
type AnalysisSnapshot struct {
	Symbol         string   `json:"symbol"`
	Price          *float64 `json:"price"`
	RSI            *float64 `json:"rsi"`
	EMA9           *float64 `json:"ema_9"`
	EMA21          *float64 `json:"ema_21"`
	MACD           *float64 `json:"macd"`
	MACDSignal     *float64 `json:"macd_signal"`
	BBUpper        *float64 `json:"bb_upper"`
	BBLower        *float64 `json:"bb_lower"`
	BBMiddle       *float64 `json:"bb_middle"`
	Trend          string   `json:"trend"`
	Signal         string   `json:"signal"`
	SignalStrength int      `json:"signal_strength"`
}

// BotTrade представляет запись из краткой истории сделок бота
type BotTrade struct {
	Type       string   `json:"type"`
	Symbol     string   `json:"symbol"`
	Quantity   float64  `json:"quantity"`
	Price      float64  `json:"price"`
	ProfitLoss *float64 `json:"profit_loss,omitempty"`
}

// BotStatus представляет операционное состояние удаленного бота.
// EntryPrice осмыслен только когда InPosition == true.
type BotStatus struct {
	Running      bool       `json:"running"`
	Symbol       string     `json:"symbol"`
	Strategy     string     `json:"strategy"`
	Quantity     float64    `json:"quantity"`
	InPosition   bool       `json:"in_position"`
	EntryPrice   float64    `json:"entry_price"`
	TradeCount   int        `json:"trades"`
	TradeHistory []BotTrade `json:"trade_history"`
}

// Trade представляет одну позицию, открытую или закрытую.
// exit_price/profit_loss заполнены только у закрытой,
// unrealized_pl — только у открытой.
type Trade struct {
	ID              string     `json:"id"`
	Symbol          string     `json:"symbol"`
	Side            string     `json:"side"`
	Quantity        float64    `json:"quantity"`
	EntryPrice      float64    `json:"entry_price"`
	EntryTime       Timestamp  `json:"entry_time"`
	ExitPrice       *float64   `json:"exit_price"`
	ExitTime        *Timestamp `json:"exit_time"`
	ProfitLoss      *float64   `json:"profit_loss"`
	ProfitLossPct   *float64   `json:"profit_loss_pct"`
	TakeProfit      *float64   `json:"take_profit"`
	StopLoss        *float64   `json:"stop_loss"`
	Status          string     `json:"status"`
	Strategy        string     `json:"strategy"`
	CurrentPrice    *float64   `json:"current_price,omitempty"`
	UnrealizedPL    *float64   `json:"unrealized_pl,omitempty"`
	UnrealizedPLPct *float64   `json:"unrealized_pl_pct,omitempty"`
}

// IsOpen проверяет, открыта ли позиция
func (t Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// AnalyticsPeriod представляет агрегированную статистику за период.
// WinRate/AvgProfit/AvgLoss равны nil, когда подходящих сделок нет.
type AnalyticsPeriod struct {
	Period             string   `json:"period"`
	TotalTrades        int      `json:"total_trades"`
	WinningTrades      int      `json:"winning_trades"`
	LosingTrades       int      `json:"losing_trades"`
	TotalProfitLoss    float64  `json:"total_profit_loss"`
	TotalProfitLossPct float64  `json:"total_profit_loss_pct"`
	WinRate            *float64 `json:"win_rate"`
	AvgProfit          *float64 `json:"avg_profit"`
	AvgLoss            *float64 `json:"avg_loss"`
	BestTrade          *Trade   `json:"best_trade"`
	WorstTrade         *Trade   `json:"worst_trade"`
}

// AnalyticsSummary представляет сводку аналитики по всем периодам
type AnalyticsSummary struct {
	Hourly     AnalyticsPeriod `json:"hourly"`
	Daily      AnalyticsPeriod `json:"daily"`
	Weekly     AnalyticsPeriod `json:"weekly"`
	Monthly    AnalyticsPeriod `json:"monthly"`
	AllTime    AnalyticsPeriod `json:"all_time"`
	OpenTrades []Trade         `json:"open_trades"`
}

// BreakdownPoint представляет агрегат одного дня для графика
type BreakdownPoint struct {
	Date       string  `json:"date"`
	Day        string  `json:"day"`
	TradeCount int     `json:"trades"`
	ProfitLoss float64 `json:"profit_loss"`
}

// CloseResult представляет итог закрытия позиции
type CloseResult struct {
	Status     string  `json:"status"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	ProfitLoss float64 `json:"profit_loss"`
	ProfitPct  float64 `json:"profit_pct"`
	Quantity   float64 `json:"quantity"`
}

// Health представляет ответ health-check сервиса
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// Reachable проверяет доступность сервиса
func (h Health) Reachable() bool {
	return h.Status == HealthOK
}

// BotConfig представляет конфигурацию запуска бота
type BotConfig struct {
	Symbol   string  `json:"symbol"`
	Strategy string  `json:"strategy"`
	Quantity float64 `json:"quantity"`
}
