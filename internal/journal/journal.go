package journal

import (
	"context"
	"time"

	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/metrics"
	"github.com/kirillm/dashboard-bot/internal/state"
	"github.com/kirillm/dashboard-bot/internal/storage"
	"github.com/kirillm/dashboard-bot/pkg/utils"
)

// Writer — операции записи журнала, нужные этому компоненту
type Writer interface {
	SavePnLSnapshot(snapshot *storage.PnLSnapshot) error
	SaveAction(rec *storage.ActionRecord) error
}

// Journal пишет историю дашборда в базу: срезы аналитики после
// каждого обновления закрытых сделок и след каждой команды оператора.
// Ошибки записи не останавливают опрос, только логируются.
type Journal struct {
	store  *state.Store
	writer Writer
	logger *utils.Logger
}

func New(store *state.Store, writer Writer, logger *utils.Logger) *Journal {
	return &Journal{store: store, writer: writer, logger: logger}
}

// Run слушает обновления хранилища до отмены контекста.
// Канал подписки закрывается вместе с хранилищем.
func (j *Journal) Run(ctx context.Context) {
	updates := j.store.Subscribe()
	j.logger.Info("📒 Журнал запущен")

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-updates:
			if !ok {
				return
			}
			if d == domain.DomainClosedTrades {
				j.snapshotAnalytics()
			}
		}
	}
}

// RecordAction реализует аудит команд для диспетчера
func (j *Journal) RecordAction(action, detail string, err error) {
	rec := &storage.ActionRecord{
		Action:  action,
		Detail:  detail,
		Success: err == nil,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if saveErr := j.writer.SaveAction(rec); saveErr != nil {
		j.logger.Warn("⚠️ Не удалось записать команду в журнал: %v", saveErr)
	}
}

func (j *Journal) snapshotAnalytics() {
	view := j.store.View()
	summary := metrics.AggregateTrades(view.ClosedTrades, time.Now())
	valuation := metrics.ValuePortfolio(view.Balances, view.Prices)

	p := summary.AllTime
	snapshot := &storage.PnLSnapshot{
		Period:          p.Period,
		TotalTrades:     p.TotalTrades,
		WinningTrades:   p.WinningTrades,
		LosingTrades:    p.LosingTrades,
		TotalProfitLoss: p.TotalProfitLoss,
		TotalPnLPct:     p.TotalProfitLossPct,
		WinRate:         p.WinRate,
		PortfolioValue:  valuation.TotalValue,
	}
	if err := j.writer.SavePnLSnapshot(snapshot); err != nil {
		j.logger.Warn("⚠️ Не удалось сохранить срез аналитики: %v", err)
	}
}
