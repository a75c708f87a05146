package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillm/dashboard-bot/internal/domain"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second), srv
}

func TestClientPrices(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/prices" {
			t.Errorf("path = %s, want /api/prices", r.URL.Path)
		}
		w.Write([]byte(`{
			"BTCUSDT": {"symbol": "BTCUSDT", "price": 65432.1, "base": "BTC", "quote": "USDT"},
			"ETHUSDT": {"symbol": "ETHUSDT", "price": 3456.7, "base": "ETH", "quote": "USDT"}
		}`))
	}))
	defer srv.Close()

	before := time.Now()
	prices, err := c.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}

	btc, ok := prices["BTCUSDT"]
	if !ok {
		t.Fatal("BTCUSDT missing from prices")
	}
	if btc.Price != 65432.1 || btc.Base != "BTC" {
		t.Errorf("BTCUSDT = %+v", btc)
	}
	if btc.FetchedAt.Before(before) {
		t.Error("FetchedAt must be stamped at fetch time")
	}
}

func TestClientBalancesFillsAssetKey(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"USDT": {"free": 800, "locked": 200, "total": 1000}}`))
	}))
	defer srv.Close()

	balances, err := c.Balances(context.Background())
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if balances["USDT"].Asset != "USDT" {
		t.Error("asset name must be filled from the map key")
	}
	if balances["USDT"].Total != 1000 {
		t.Errorf("total = %v, want 1000", balances["USDT"].Total)
	}
}

func TestClientAnalysisNullIndicators(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analysis/BTCUSDT" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"symbol": "BTCUSDT", "price": 65000, "rsi": null,
			"ema_9": 65100, "ema_21": 64900,
			"signal": "BUY", "signal_strength": 3, "trend": "UP"
		}`))
	}))
	defer srv.Close()

	snap, err := c.Analysis(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Analysis() error = %v", err)
	}
	// null остаётся nil, не превращается в 0
	if snap.RSI != nil {
		t.Errorf("RSI = %v, want nil", *snap.RSI)
	}
	if snap.EMA9 == nil || *snap.EMA9 != 65100 {
		t.Errorf("EMA9 = %v, want 65100", snap.EMA9)
	}
	if snap.SignalStrength != 3 {
		t.Errorf("SignalStrength = %d, want 3", snap.SignalStrength)
	}
}

func TestClientClosedTradesLimit(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/trades/closed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("limit = %s, want 20", got)
		}
		w.Write([]byte(`{"total": 45, "count": 1, "trades": [
			{"id": "12", "symbol": "BTCUSDT", "side": "BUY", "quantity": 0.001,
			 "entry_price": 64000, "entry_time": "2026-08-27T10:00:00",
			 "exit_price": 65000, "exit_time": "2026-08-27T14:30:00",
			 "profit_loss": 1.0, "profit_loss_pct": 1.56, "status": "closed"}
		]}`))
	}))
	defer srv.Close()

	trades, total, err := c.ClosedTrades(context.Background(), 20)
	if err != nil {
		t.Fatalf("ClosedTrades() error = %v", err)
	}
	if total != 45 {
		t.Errorf("total = %d, want 45", total)
	}
	if len(trades) != 1 || trades[0].ID != "12" {
		t.Fatalf("trades = %+v", trades)
	}
	if trades[0].ProfitLoss == nil || *trades[0].ProfitLoss != 1.0 {
		t.Errorf("ProfitLoss = %v, want 1.0", trades[0].ProfitLoss)
	}
	if trades[0].ExitTime == nil || trades[0].ExitTime.Hour() != 14 {
		t.Errorf("ExitTime = %v", trades[0].ExitTime)
	}
}

func TestClientStartBot(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/bot/start" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}
		w.Write([]byte(`{"status": "started", "symbol": "BTCUSDT", "strategy": "MA_CROSSOVER"}`))
	}))
	defer srv.Close()

	status, err := c.StartBot(context.Background(), domain.BotConfig{
		Symbol: "BTCUSDT", Strategy: "MA_CROSSOVER", Quantity: 0.001,
	})
	if err != nil {
		t.Fatalf("StartBot() error = %v", err)
	}
	if !status.Running || status.Symbol != "BTCUSDT" || status.Quantity != 0.001 {
		t.Errorf("status = %+v", status)
	}
}

func TestClientErrorClassification(t *testing.T) {
	t.Run("api error with body", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "Bot is not running"}`))
		}))
		defer srv.Close()

		err := c.StopBot(context.Background())
		if !errors.Is(err, domain.ErrServiceAPI) {
			t.Errorf("error = %v, want ErrServiceAPI", err)
		}
	})

	t.Run("api error without body", func(t *testing.T) {
		c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := c.BotStatus(context.Background())
		if !errors.Is(err, domain.ErrServiceAPI) {
			t.Errorf("error = %v, want ErrServiceAPI", err)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // порт мёртв

		c := NewClient(srv.URL, time.Second)
		_, err := c.Health(context.Background())
		if !errors.Is(err, domain.ErrTransport) {
			t.Errorf("error = %v, want ErrTransport", err)
		}
	})
}

func TestClientCloseTradePath(t *testing.T) {
	var gotPath string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status": "closed"}`))
	}))
	defer srv.Close()

	if err := c.CloseTrade(context.Background(), "42"); err != nil {
		t.Fatalf("CloseTrade() error = %v", err)
	}
	if gotPath != "/api/trades/42/close" {
		t.Errorf("path = %s, want /api/trades/42/close", gotPath)
	}
}

func TestClientBreakdown(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("days"); got != "7" {
			t.Errorf("days = %s, want 7", got)
		}
		w.Write([]byte(`{"breakdown": [
			{"date": "2026-08-27", "day": "Thu", "trades": 3, "profit_loss": 12.5}
		]}`))
	}))
	defer srv.Close()

	points, err := c.Breakdown(context.Background(), 7)
	if err != nil {
		t.Fatalf("Breakdown() error = %v", err)
	}
	if len(points) != 1 || points[0].TradeCount != 3 {
		t.Errorf("points = %+v", points)
	}
}
