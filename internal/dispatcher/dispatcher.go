package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/state"
	"github.com/kirillm/dashboard-bot/pkg/utils"
)

// ServiceActions — операции управления торговым сервисом
type ServiceActions interface {
	StartBot(ctx context.Context, cfg domain.BotConfig) (*domain.BotStatus, error)
	StopBot(ctx context.Context) error
	ClosePosition(ctx context.Context) (*domain.CloseResult, error)
	CloseTrade(ctx context.Context, tradeID string) error
}

// Refresher просит внеочередной опрос доменов после команды
type Refresher interface {
	PollNow(domains ...domain.Domain)
}

// ActionRecorder пишет след выполненной команды в журнал.
// Необязателен: nil отключает аудит.
type ActionRecorder interface {
	RecordAction(action, detail string, err error)
}

// Dispatcher выполняет команды оператора с проверкой предусловий
// по текущему состоянию и опережающим обновлением хранилища.
// Опережающие записи — подсказка интерфейсу, не истина: их перекроет
// ближайший авторитетный опрос.
type Dispatcher struct {
	actions  ServiceActions
	store    *state.Store
	poller   Refresher
	recorder ActionRecorder
	logger   *utils.Logger

	mu      sync.Mutex
	closing map[string]bool
}

func New(actions ServiceActions, store *state.Store, poller Refresher, recorder ActionRecorder, logger *utils.Logger) *Dispatcher {
	return &Dispatcher{
		actions:  actions,
		store:    store,
		poller:   poller,
		recorder: recorder,
		logger:   logger,
		closing:  make(map[string]bool),
	}
}

// StartBot запускает бота и опережающе помечает его работающим
func (d *Dispatcher) StartBot(ctx context.Context, cfg domain.BotConfig) error {
	status, err := d.actions.StartBot(ctx, cfg)
	d.record("start_bot", cfg.Symbol, err)
	if err != nil {
		return fmt.Errorf("%w: start bot: %v", domain.ErrActionFailed, err)
	}

	d.logger.Info("▶️ Бот запущен: %s (%s)", cfg.Symbol, cfg.Strategy)
	d.store.ApplyOptimistic(domain.DomainBotStatus, func(snap *state.Snapshot) {
		snap.BotStatus = status
	})
	d.poller.PollNow(domain.DomainBotStatus)
	return nil
}

// StopBot останавливает бота и опережающе помечает его остановленным
func (d *Dispatcher) StopBot(ctx context.Context) error {
	err := d.actions.StopBot(ctx)
	d.record("stop_bot", "", err)
	if err != nil {
		return fmt.Errorf("%w: stop bot: %v", domain.ErrActionFailed, err)
	}

	d.logger.Info("⏹ Бот остановлен")
	d.store.ApplyOptimistic(domain.DomainBotStatus, func(snap *state.Snapshot) {
		if snap.BotStatus == nil {
			snap.BotStatus = &domain.BotStatus{}
			return
		}
		stopped := *snap.BotStatus
		stopped.Running = false
		snap.BotStatus = &stopped
	})
	d.poller.PollNow(domain.DomainBotStatus)
	return nil
}

// ClosePosition закрывает текущую позицию бота.
// Без открытой позиции по данным последнего опроса команда
// отклоняется локально, без обращения к сервису.
func (d *Dispatcher) ClosePosition(ctx context.Context) (*domain.CloseResult, error) {
	view := d.store.View()
	if view.BotStatus == nil || !view.BotStatus.InPosition {
		return nil, domain.ErrNoOpenPosition
	}

	result, err := d.actions.ClosePosition(ctx)
	d.record("close_position", view.BotStatus.Symbol, err)
	if err != nil {
		return nil, fmt.Errorf("%w: close position: %v", domain.ErrActionFailed, err)
	}

	d.logger.Info("💰 Позиция закрыта: P&L %.2f", result.ProfitLoss)
	d.store.ApplyOptimistic(domain.DomainBotStatus, func(snap *state.Snapshot) {
		if snap.BotStatus == nil {
			return
		}
		flat := *snap.BotStatus
		flat.InPosition = false
		flat.EntryPrice = 0
		snap.BotStatus = &flat
	})
	d.poller.PollNow(domain.DomainBotStatus, domain.DomainOpenTrades, domain.DomainClosedTrades, domain.DomainAnalytics)
	return result, nil
}

// CloseTrade закрывает конкретную сделку по id.
// Сделка должна быть открыта по данным последнего опроса, и по ней
// не должно быть уже отправленной команды закрытия.
func (d *Dispatcher) CloseTrade(ctx context.Context, tradeID string) error {
	view := d.store.View()
	var found *domain.Trade
	for i := range view.OpenTrades {
		if view.OpenTrades[i].ID == tradeID {
			found = &view.OpenTrades[i]
			break
		}
	}
	if found == nil || !found.IsOpen() {
		return domain.ErrTradeNotOpen
	}

	d.mu.Lock()
	if d.closing[tradeID] {
		d.mu.Unlock()
		return domain.ErrAlreadyClosing
	}
	d.closing[tradeID] = true
	d.mu.Unlock()

	err := d.actions.CloseTrade(ctx, tradeID)
	d.record("close_trade", tradeID, err)

	d.mu.Lock()
	delete(d.closing, tradeID)
	d.mu.Unlock()

	if err != nil {
		// Опрос и после провала: сделку могли закрыть параллельно,
		// и тогда она уже в закрытых
		d.poller.PollNow(domain.DomainOpenTrades, domain.DomainClosedTrades)
		return fmt.Errorf("%w: close trade %s: %v", domain.ErrActionFailed, tradeID, err)
	}

	d.logger.Info("✅ Сделка %s закрыта", tradeID)
	d.store.ApplyOptimistic(domain.DomainOpenTrades, func(snap *state.Snapshot) {
		remaining := make([]domain.Trade, 0, len(snap.OpenTrades))
		for _, tr := range snap.OpenTrades {
			if tr.ID != tradeID {
				remaining = append(remaining, tr)
			}
		}
		snap.OpenTrades = remaining
	})
	d.poller.PollNow(domain.DomainOpenTrades, domain.DomainClosedTrades, domain.DomainAnalytics)
	return nil
}

func (d *Dispatcher) record(action, detail string, err error) {
	if d.recorder == nil {
		return
	}
	d.recorder.RecordAction(action, detail, err)
}
