package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/state"
	"github.com/kirillm/dashboard-bot/pkg/utils"
)

type fakeActions struct {
	startCalls     int
	stopCalls      int
	closePosCalls  int
	closeTrCalls   int
	startErr       error
	closePosErr    error
	closeTrErr     error
	closeTrBlocked chan struct{}
	closeTrEntered chan struct{}
}

func (f *fakeActions) StartBot(ctx context.Context, cfg domain.BotConfig) (*domain.BotStatus, error) {
	f.startCalls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &domain.BotStatus{Running: true, Symbol: cfg.Symbol, Strategy: cfg.Strategy}, nil
}

func (f *fakeActions) StopBot(ctx context.Context) error {
	f.stopCalls++
	return nil
}

func (f *fakeActions) ClosePosition(ctx context.Context) (*domain.CloseResult, error) {
	f.closePosCalls++
	if f.closePosErr != nil {
		return nil, f.closePosErr
	}
	return &domain.CloseResult{Status: "closed", ProfitLoss: 12.5}, nil
}

func (f *fakeActions) CloseTrade(ctx context.Context, tradeID string) error {
	f.closeTrCalls++
	if f.closeTrEntered != nil {
		select {
		case f.closeTrEntered <- struct{}{}:
		default:
		}
	}
	if f.closeTrBlocked != nil {
		<-f.closeTrBlocked
	}
	return f.closeTrErr
}

type fakeRefresher struct {
	polled []domain.Domain
}

func (f *fakeRefresher) PollNow(domains ...domain.Domain) {
	f.polled = append(f.polled, domains...)
}

func newTestDispatcher(actions *fakeActions, store *state.Store) (*Dispatcher, *fakeRefresher) {
	ref := &fakeRefresher{}
	return New(actions, store, ref, nil, utils.NewLogger("ERROR")), ref
}

func seedBotStatus(store *state.Store, status *domain.BotStatus) {
	seq := store.NextSeq(domain.DomainBotStatus)
	store.Apply(domain.DomainBotStatus, seq, func(snap *state.Snapshot) {
		snap.BotStatus = status
	})
}

func seedOpenTrades(store *state.Store, trades []domain.Trade) {
	seq := store.NextSeq(domain.DomainOpenTrades)
	store.Apply(domain.DomainOpenTrades, seq, func(snap *state.Snapshot) {
		snap.OpenTrades = trades
	})
}

func TestStartBotOptimisticUpdate(t *testing.T) {
	store := state.NewStore()
	actions := &fakeActions{}
	d, ref := newTestDispatcher(actions, store)

	cfg := domain.BotConfig{Symbol: "BTCUSDT", Strategy: "MA_CROSSOVER", Quantity: 0.001}
	if err := d.StartBot(context.Background(), cfg); err != nil {
		t.Fatalf("StartBot() error = %v", err)
	}

	view := store.View()
	if view.BotStatus == nil || !view.BotStatus.Running {
		t.Error("bot status must be optimistically marked running")
	}
	if len(ref.polled) == 0 || ref.polled[0] != domain.DomainBotStatus {
		t.Error("bot status domain must be repolled after the command")
	}
}

func TestStartBotFailureWrapsError(t *testing.T) {
	store := state.NewStore()
	actions := &fakeActions{startErr: errors.New("already running")}
	d, _ := newTestDispatcher(actions, store)

	err := d.StartBot(context.Background(), domain.BotConfig{Symbol: "BTCUSDT"})
	if !errors.Is(err, domain.ErrActionFailed) {
		t.Errorf("error = %v, want ErrActionFailed", err)
	}
	if store.View().BotStatus != nil {
		t.Error("failed command must not touch the store")
	}
}

func TestStopBotKeepsStatusFields(t *testing.T) {
	store := state.NewStore()
	seedBotStatus(store, &domain.BotStatus{Running: true, Symbol: "ETHUSDT", InPosition: true, EntryPrice: 3200})
	actions := &fakeActions{}
	d, _ := newTestDispatcher(actions, store)

	if err := d.StopBot(context.Background()); err != nil {
		t.Fatalf("StopBot() error = %v", err)
	}

	status := store.View().BotStatus
	if status.Running {
		t.Error("bot must be optimistically marked stopped")
	}
	if status.Symbol != "ETHUSDT" || !status.InPosition {
		t.Error("other status fields must survive the optimistic write")
	}
}

func TestClosePositionRequiresOpenPosition(t *testing.T) {
	tests := []struct {
		name   string
		status *domain.BotStatus
	}{
		{name: "no status at all", status: nil},
		{name: "bot flat", status: &domain.BotStatus{Running: true, InPosition: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := state.NewStore()
			if tt.status != nil {
				seedBotStatus(store, tt.status)
			}
			actions := &fakeActions{}
			d, _ := newTestDispatcher(actions, store)

			_, err := d.ClosePosition(context.Background())
			if !errors.Is(err, domain.ErrNoOpenPosition) {
				t.Errorf("error = %v, want ErrNoOpenPosition", err)
			}
			if actions.closePosCalls != 0 {
				t.Error("rejected command must not reach the service")
			}
		})
	}
}

func TestClosePositionSuccess(t *testing.T) {
	store := state.NewStore()
	seedBotStatus(store, &domain.BotStatus{Running: true, InPosition: true, EntryPrice: 65000, Symbol: "BTCUSDT"})
	actions := &fakeActions{}
	d, ref := newTestDispatcher(actions, store)

	result, err := d.ClosePosition(context.Background())
	if err != nil {
		t.Fatalf("ClosePosition() error = %v", err)
	}
	if result.ProfitLoss != 12.5 {
		t.Errorf("ProfitLoss = %v, want 12.5", result.ProfitLoss)
	}

	status := store.View().BotStatus
	if status.InPosition || status.EntryPrice != 0 {
		t.Error("position must be optimistically cleared")
	}

	want := map[domain.Domain]bool{}
	for _, d := range ref.polled {
		want[d] = true
	}
	for _, need := range []domain.Domain{domain.DomainBotStatus, domain.DomainOpenTrades, domain.DomainClosedTrades, domain.DomainAnalytics} {
		if !want[need] {
			t.Errorf("domain %s must be repolled after close", need)
		}
	}
}

func TestCloseTradeRejectsUnknownTrade(t *testing.T) {
	store := state.NewStore()
	seedOpenTrades(store, []domain.Trade{{ID: "7", Status: domain.TradeStatusOpen}})
	actions := &fakeActions{}
	d, _ := newTestDispatcher(actions, store)

	err := d.CloseTrade(context.Background(), "999")
	if !errors.Is(err, domain.ErrTradeNotOpen) {
		t.Errorf("error = %v, want ErrTradeNotOpen", err)
	}
	if actions.closeTrCalls != 0 {
		t.Error("rejected close must make zero network calls")
	}
}

func TestCloseTradeDuplicateGuard(t *testing.T) {
	store := state.NewStore()
	seedOpenTrades(store, []domain.Trade{{ID: "7", Status: domain.TradeStatusOpen}})
	actions := &fakeActions{
		closeTrBlocked: make(chan struct{}),
		closeTrEntered: make(chan struct{}, 1),
	}
	d, _ := newTestDispatcher(actions, store)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- d.CloseTrade(context.Background(), "7")
	}()

	// Ждём, пока первая команда возьмёт замок и зависнет на сервисе
	<-actions.closeTrEntered

	if err := d.CloseTrade(context.Background(), "7"); !errors.Is(err, domain.ErrAlreadyClosing) {
		t.Errorf("duplicate close = %v, want ErrAlreadyClosing", err)
	}

	close(actions.closeTrBlocked)
	if err := <-firstDone; err != nil {
		t.Fatalf("first close error = %v", err)
	}

	if len(store.View().OpenTrades) != 0 {
		t.Error("closed trade must be optimistically removed from open trades")
	}
}

func TestCloseTradeFailureRepolls(t *testing.T) {
	store := state.NewStore()
	seedOpenTrades(store, []domain.Trade{{ID: "7", Status: domain.TradeStatusOpen}})
	actions := &fakeActions{closeTrErr: errors.New("trade not found")}
	d, ref := newTestDispatcher(actions, store)

	err := d.CloseTrade(context.Background(), "7")
	if !errors.Is(err, domain.ErrActionFailed) {
		t.Errorf("error = %v, want ErrActionFailed", err)
	}

	// Даже после провала оба домена сделок переопрашиваются:
	// сделку могли закрыть извне, и тогда она уже в закрытых
	polled := map[domain.Domain]bool{}
	for _, d := range ref.polled {
		polled[d] = true
	}
	if !polled[domain.DomainOpenTrades] {
		t.Error("open trades must be repolled after a failed close")
	}
	if !polled[domain.DomainClosedTrades] {
		t.Error("closed trades must be repolled after a failed close")
	}

	// Провал снимает замок: повторная попытка снова доходит до сервиса
	actions.closeTrErr = nil
	if err := d.CloseTrade(context.Background(), "7"); err != nil {
		t.Errorf("retry after failure = %v, want nil", err)
	}
}
