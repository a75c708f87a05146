package metrics

import (
	"github.com/kirillm/dashboard-bot/internal/domain"
)

// Пороги RSI
const (
	rsiOversold   = 30
	rsiOverbought = 70
)

// DefaultBandTolerancePct — допуск близости цены к границе
// полос Боллинджера в процентах от самой границы
const DefaultBandTolerancePct = 2.0

// RSIZone — зона индикатора RSI
type RSIZone string

const (
	RSIZoneUnknown    RSIZone = "unknown"
	RSIZoneOversold   RSIZone = "oversold"
	RSIZoneNeutral    RSIZone = "neutral"
	RSIZoneOverbought RSIZone = "overbought"
)

// Bias — направление по пересечению EMA
type Bias string

const (
	BiasUnknown Bias = "unknown"
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
)

// Momentum — импульс по MACD относительно сигнальной линии
type Momentum string

const (
	MomentumUnknown Momentum = "unknown"
	MomentumRising  Momentum = "rising"
	MomentumFalling Momentum = "falling"
)

// BandPosition — положение цены внутри полос Боллинджера
type BandPosition string

const (
	BandPositionUnknown   BandPosition = "unknown"
	BandPositionNearLower BandPosition = "near_lower"
	BandPositionInside    BandPosition = "inside"
	BandPositionNearUpper BandPosition = "near_upper"
)

// IndicatorSummary — производная сводка по пакету индикаторов символа
type IndicatorSummary struct {
	Symbol       string
	RSIZone      RSIZone
	Bias         Bias
	Momentum     Momentum
	BandPosition BandPosition
	Signal       string
	StrengthPct  float64
}

// ClassifyRSI относит значение RSI к зоне.
// nil на входе — зона неизвестна, не нейтральна.
func ClassifyRSI(rsi *float64) RSIZone {
	if rsi == nil {
		return RSIZoneUnknown
	}
	switch {
	case *rsi < rsiOversold:
		return RSIZoneOversold
	case *rsi > rsiOverbought:
		return RSIZoneOverbought
	default:
		return RSIZoneNeutral
	}
}

// ClassifyBias определяет направление по взаимному положению EMA9 и EMA21
func ClassifyBias(ema9, ema21 *float64) Bias {
	if ema9 == nil || ema21 == nil {
		return BiasUnknown
	}
	if *ema9 > *ema21 {
		return BiasBullish
	}
	return BiasBearish
}

// ClassifyMomentum определяет импульс по MACD против сигнальной линии
func ClassifyMomentum(macd, signal *float64) Momentum {
	if macd == nil || signal == nil {
		return MomentumUnknown
	}
	if *macd > *signal {
		return MomentumRising
	}
	return MomentumFalling
}

// ClassifyBandPosition определяет положение цены в полосах Боллинджера
// с допуском по умолчанию
func ClassifyBandPosition(price, bbLower, bbUpper *float64) BandPosition {
	return ClassifyBandPositionWithin(price, bbLower, bbUpper, DefaultBandTolerancePct)
}

// ClassifyBandPositionWithin определяет положение цены в полосах
// Боллинджера с заданным допуском в процентах
func ClassifyBandPositionWithin(price, bbLower, bbUpper *float64, tolerancePct float64) BandPosition {
	if price == nil || bbLower == nil || bbUpper == nil {
		return BandPositionUnknown
	}
	tol := tolerancePct / 100
	switch {
	case *price <= *bbLower*(1+tol):
		return BandPositionNearLower
	case *price >= *bbUpper*(1-tol):
		return BandPositionNearUpper
	default:
		return BandPositionInside
	}
}

// SignalStrengthPct переводит силу сигнала в проценты от максимума
func SignalStrengthPct(strength int) float64 {
	if strength <= 0 {
		return 0
	}
	if strength >= domain.SignalStrengthMax {
		return 100
	}
	return float64(strength) / float64(domain.SignalStrengthMax) * 100
}

// Summarize строит производную сводку по пакету индикаторов
func Summarize(s *domain.AnalysisSnapshot) IndicatorSummary {
	if s == nil {
		return IndicatorSummary{
			RSIZone:      RSIZoneUnknown,
			Bias:         BiasUnknown,
			Momentum:     MomentumUnknown,
			BandPosition: BandPositionUnknown,
		}
	}
	return IndicatorSummary{
		Symbol:       s.Symbol,
		RSIZone:      ClassifyRSI(s.RSI),
		Bias:         ClassifyBias(s.EMA9, s.EMA21),
		Momentum:     ClassifyMomentum(s.MACD, s.MACDSignal),
		BandPosition: ClassifyBandPosition(s.Price, s.BBLower, s.BBUpper),
		Signal:       s.Signal,
		StrengthPct:  SignalStrengthPct(s.SignalStrength),
	}
}
