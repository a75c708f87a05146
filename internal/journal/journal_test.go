package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/state"
	"github.com/kirillm/dashboard-bot/internal/storage"
	"github.com/kirillm/dashboard-bot/pkg/utils"
)

type fakeWriter struct {
	mu        sync.Mutex
	snapshots []storage.PnLSnapshot
	actions   []storage.ActionRecord
	saveErr   error
}

func (f *fakeWriter) SavePnLSnapshot(s *storage.PnLSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshots = append(f.snapshots, *s)
	return nil
}

func (f *fakeWriter) SaveAction(rec *storage.ActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, *rec)
	return nil
}

func (f *fakeWriter) snapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func fl(v float64) *float64 { return &v }

func TestJournalSnapshotsOnClosedTrades(t *testing.T) {
	store := state.NewStore()
	writer := &fakeWriter{}
	j := New(store, writer, utils.NewLogger("ERROR"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	// Подписка оформляется внутри Run: даём ему стартовать
	time.Sleep(20 * time.Millisecond)

	exit := domain.Timestamp{Time: time.Now().Add(-time.Minute)}
	seq := store.NextSeq(domain.DomainClosedTrades)
	store.Apply(domain.DomainClosedTrades, seq, func(snap *state.Snapshot) {
		snap.ClosedTrades = []domain.Trade{{
			ID:         "1",
			Status:     domain.TradeStatusClosed,
			EntryPrice: 100,
			Quantity:   1,
			ProfitLoss: fl(10),
			ExitTime:   &exit,
		}}
	})

	deadline := time.After(2 * time.Second)
	for writer.snapshotCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("snapshot was not written")
		case <-time.After(5 * time.Millisecond):
		}
	}

	writer.mu.Lock()
	got := writer.snapshots[0]
	writer.mu.Unlock()
	if got.TotalTrades != 1 || got.TotalProfitLoss != 10 {
		t.Errorf("snapshot = %+v", got)
	}

	store.Close()
	<-done
}

func TestJournalIgnoresOtherDomains(t *testing.T) {
	store := state.NewStore()
	writer := &fakeWriter{}
	j := New(store, writer, utils.NewLogger("ERROR"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go j.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	seq := store.NextSeq(domain.DomainPrices)
	store.Apply(domain.DomainPrices, seq, func(snap *state.Snapshot) {
		snap.Prices = map[string]domain.PriceTick{"BTCUSDT": {Price: 65000}}
	})

	time.Sleep(50 * time.Millisecond)
	if writer.snapshotCount() != 0 {
		t.Error("price updates must not produce snapshots")
	}
}

func TestJournalRecordAction(t *testing.T) {
	store := state.NewStore()
	writer := &fakeWriter{}
	j := New(store, writer, utils.NewLogger("ERROR"))

	j.RecordAction("close_trade", "42", nil)
	j.RecordAction("start_bot", "BTCUSDT", errors.New("already running"))

	if len(writer.actions) != 2 {
		t.Fatalf("len(actions) = %d, want 2", len(writer.actions))
	}
	if !writer.actions[0].Success || writer.actions[0].Detail != "42" {
		t.Errorf("first record = %+v", writer.actions[0])
	}
	if writer.actions[1].Success || writer.actions[1].Error == "" {
		t.Errorf("second record = %+v", writer.actions[1])
	}
}
