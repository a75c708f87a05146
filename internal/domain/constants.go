package domain

// Trade sides
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade statuses
const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// Trends
const (
	TrendUp   = "UP"
	TrendDown = "DOWN"
)

// Composite signals
const (
	SignalBuy     = "BUY"
	SignalSell    = "SELL"
	SignalNeutral = "NEUTRAL"

	// SignalStrengthMax — максимум подтверждений от сервиса
	SignalStrengthMax = 4
)

// Analytics periods
const (
	PeriodHourly  = "hourly"
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAllTime = "all_time"
)

// Health statuses
const (
	HealthOK = "ok"
)

// QuoteAsset — котируемый актив для оценки портфеля
const QuoteAsset = "USDT"

// stablecoins — активы, оцениваемые 1:1 к доллару
var stablecoins = map[string]bool{
	"USDT": true,
	"USDC": true,
	"BUSD": true,
	"TUSD": true,
	"USD1": true,
}

// IsStablecoin проверяет, является ли актив стейблкоином
func IsStablecoin(asset string) bool {
	return stablecoins[asset]
}

// importantAssets — активы, показываемые в кошельке первыми
var importantAssets = map[string]bool{
	"BTC":  true,
	"ETH":  true,
	"BNB":  true,
	"SOL":  true,
	"XRP":  true,
	"DOGE": true,
	"ADA":  true,
	"USDT": true,
	"USDC": true,
}

// IsImportantAsset проверяет, входит ли актив в приоритетный список
func IsImportantAsset(asset string) bool {
	return importantAssets[asset]
}
