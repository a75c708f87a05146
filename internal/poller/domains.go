package poller

import (
	"context"

	"github.com/kirillm/dashboard-bot/internal/config"
	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/state"
)

// ServiceAPI — операции чтения торгового сервиса, нужные опросу
type ServiceAPI interface {
	Prices(ctx context.Context) (map[string]domain.PriceTick, error)
	Balances(ctx context.Context) (map[string]domain.Balance, error)
	Analysis(ctx context.Context, symbol string) (*domain.AnalysisSnapshot, error)
	BotStatus(ctx context.Context) (*domain.BotStatus, error)
	OpenTrades(ctx context.Context) ([]domain.Trade, error)
	ClosedTrades(ctx context.Context, limit int) ([]domain.Trade, int, error)
	AnalyticsSummary(ctx context.Context) (*domain.AnalyticsSummary, error)
	Breakdown(ctx context.Context, days int) ([]domain.BreakdownPoint, error)
	Health(ctx context.Context) (*domain.Health, error)
}

// RegisterDomains подключает все стандартные домены дашборда
// к планировщику с интервалами из конфигурации.
func RegisterDomains(s *Scheduler, api ServiceAPI, svcCfg config.ServiceConfig, pollCfg config.PollingConfig) {
	s.Register(domain.DomainPrices, pollCfg.Prices, func(ctx context.Context) (func(*state.Snapshot), error) {
		prices, err := api.Prices(ctx)
		if err != nil {
			return nil, err
		}
		return func(snap *state.Snapshot) { snap.Prices = prices }, nil
	})

	s.Register(domain.DomainBalances, pollCfg.Balances, func(ctx context.Context) (func(*state.Snapshot), error) {
		balances, err := api.Balances(ctx)
		if err != nil {
			return nil, err
		}
		return func(snap *state.Snapshot) { snap.Balances = balances }, nil
	})

	symbols := svcCfg.Symbols
	s.Register(domain.DomainAnalysis, pollCfg.Analysis, func(ctx context.Context) (func(*state.Snapshot), error) {
		fresh := make(map[string]*domain.AnalysisSnapshot, len(symbols))
		var lastErr error
		for _, symbol := range symbols {
			snapshot, err := api.Analysis(ctx, symbol)
			if err != nil {
				lastErr = err
				continue
			}
			fresh[symbol] = snapshot
		}
		if len(fresh) == 0 && lastErr != nil {
			return nil, lastErr
		}
		// Для символов, не ответивших в этом цикле, переносим прошлый
		// снимок: строим новую map, старую не трогаем
		return func(snap *state.Snapshot) {
			merged := make(map[string]*domain.AnalysisSnapshot, len(symbols))
			for sym, prev := range snap.Analysis {
				merged[sym] = prev
			}
			for sym, cur := range fresh {
				merged[sym] = cur
			}
			snap.Analysis = merged
		}, nil
	})

	s.Register(domain.DomainBotStatus, pollCfg.BotStatus, func(ctx context.Context) (func(*state.Snapshot), error) {
		status, err := api.BotStatus(ctx)
		if err != nil {
			return nil, err
		}
		return func(snap *state.Snapshot) { snap.BotStatus = status }, nil
	})

	s.Register(domain.DomainOpenTrades, pollCfg.OpenTrades, func(ctx context.Context) (func(*state.Snapshot), error) {
		trades, err := api.OpenTrades(ctx)
		if err != nil {
			return nil, err
		}
		return func(snap *state.Snapshot) { snap.OpenTrades = trades }, nil
	})

	limit := svcCfg.ClosedTradesLimit
	s.Register(domain.DomainClosedTrades, pollCfg.ClosedTrades, func(ctx context.Context) (func(*state.Snapshot), error) {
		trades, total, err := api.ClosedTrades(ctx, limit)
		if err != nil {
			return nil, err
		}
		return func(snap *state.Snapshot) {
			snap.ClosedTrades = trades
			snap.TotalClosed = total
		}, nil
	})

	s.Register(domain.DomainAnalytics, pollCfg.Analytics, func(ctx context.Context) (func(*state.Snapshot), error) {
		summary, err := api.AnalyticsSummary(ctx)
		if err != nil {
			return nil, err
		}
		return func(snap *state.Snapshot) { snap.Analytics = summary }, nil
	})

	days := svcCfg.BreakdownDays
	s.Register(domain.DomainBreakdown, pollCfg.Breakdown, func(ctx context.Context) (func(*state.Snapshot), error) {
		points, err := api.Breakdown(ctx, days)
		if err != nil {
			return nil, err
		}
		return func(snap *state.Snapshot) { snap.Breakdown = points }, nil
	})

	s.Register(domain.DomainHealth, pollCfg.Health, func(ctx context.Context) (func(*state.Snapshot), error) {
		health, err := api.Health(ctx)
		if err != nil {
			// Недоступный сервис — тоже состояние здоровья
			return func(snap *state.Snapshot) {
				snap.Health = &domain.Health{Status: "unreachable", Error: err.Error()}
			}, nil
		}
		return func(snap *state.Snapshot) { snap.Health = health }, nil
	})
}
