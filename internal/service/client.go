package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kirillm/dashboard-bot/internal/domain"
)

// Client — типизированный клиент REST API торгового сервиса.
// Никакого кэширования и ретраев: расписание и свежесть — забота планировщика.
type Client struct {
	baseURL string
	client  *http.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

type tradesResponse struct {
	Total  int            `json:"total"`
	Count  int            `json:"count"`
	Trades []domain.Trade `json:"trades"`
}

type breakdownResponse struct {
	Breakdown []domain.BreakdownPoint `json:"breakdown"`
}

type startBotResponse struct {
	Status   string `json:"status"`
	Symbol   string `json:"symbol"`
	Strategy string `json:"strategy"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Prices получает текущие цены по всем наблюдаемым символам
func (c *Client) Prices(ctx context.Context) (map[string]domain.PriceTick, error) {
	var raw map[string]domain.PriceTick
	if err := c.get(ctx, "/api/prices", &raw); err != nil {
		return nil, err
	}

	now := time.Now()
	prices := make(map[string]domain.PriceTick, len(raw))
	for symbol, tick := range raw {
		tick.Symbol = symbol
		tick.FetchedAt = now
		prices[symbol] = tick
	}
	return prices, nil
}

// Balances получает остатки по всем активам
func (c *Client) Balances(ctx context.Context) (map[string]domain.Balance, error) {
	var raw map[string]domain.Balance
	if err := c.get(ctx, "/api/balance", &raw); err != nil {
		return nil, err
	}

	balances := make(map[string]domain.Balance, len(raw))
	for asset, b := range raw {
		b.Asset = asset
		balances[asset] = b
	}
	return balances, nil
}

// Analysis получает пакет индикаторов по символу
func (c *Client) Analysis(ctx context.Context, symbol string) (*domain.AnalysisSnapshot, error) {
	var snapshot domain.AnalysisSnapshot
	if err := c.get(ctx, "/api/analysis/"+url.PathEscape(symbol), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// BotStatus получает операционное состояние бота
func (c *Client) BotStatus(ctx context.Context) (*domain.BotStatus, error) {
	var status domain.BotStatus
	if err := c.get(ctx, "/api/bot/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartBot запускает бота с заданной конфигурацией
func (c *Client) StartBot(ctx context.Context, cfg domain.BotConfig) (*domain.BotStatus, error) {
	var resp startBotResponse
	if err := c.post(ctx, "/api/bot/start", cfg, &resp); err != nil {
		return nil, err
	}

	// Сервис возвращает частичный статус: дополняем его конфигурацией запроса
	return &domain.BotStatus{
		Running:  true,
		Symbol:   resp.Symbol,
		Strategy: resp.Strategy,
		Quantity: cfg.Quantity,
	}, nil
}

// StopBot останавливает бота
func (c *Client) StopBot(ctx context.Context) error {
	return c.post(ctx, "/api/bot/stop", nil, nil)
}

// ClosePosition немедленно закрывает текущую открытую позицию
func (c *Client) ClosePosition(ctx context.Context) (*domain.CloseResult, error) {
	var result domain.CloseResult
	if err := c.post(ctx, "/api/bot/close-position", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OpenTrades получает открытые сделки с нереализованным P&L
func (c *Client) OpenTrades(ctx context.Context) ([]domain.Trade, error) {
	var resp tradesResponse
	if err := c.get(ctx, "/api/trades/open", &resp); err != nil {
		return nil, err
	}
	return resp.Trades, nil
}

// ClosedTrades получает последние закрытые сделки
func (c *Client) ClosedTrades(ctx context.Context, limit int) ([]domain.Trade, int, error) {
	path := "/api/trades/closed?limit=" + strconv.Itoa(limit)
	var resp tradesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Trades, resp.Total, nil
}

// CloseTrade закрывает конкретную открытую сделку по id
func (c *Client) CloseTrade(ctx context.Context, tradeID string) error {
	return c.post(ctx, "/api/trades/"+url.PathEscape(tradeID)+"/close", nil, nil)
}

// AnalyticsSummary получает сводку P&L аналитики за все периоды
func (c *Client) AnalyticsSummary(ctx context.Context) (*domain.AnalyticsSummary, error) {
	var summary domain.AnalyticsSummary
	if err := c.get(ctx, "/api/analytics/summary", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Breakdown получает дневную разбивку P&L за последние N дней
func (c *Client) Breakdown(ctx context.Context, days int) ([]domain.BreakdownPoint, error) {
	path := "/api/analytics/breakdown?days=" + strconv.Itoa(days)
	var resp breakdownResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Breakdown, nil
}

// Health проверяет доступность сервиса
func (c *Client) Health(ctx context.Context) (*domain.Health, error) {
	var health domain.Health
	if err := c.get(ctx, "/api/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do выполняет запрос и классифицирует результат:
// сетевая ошибка → ErrTransport, не-2xx со структурированным телом → ErrServiceAPI.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%w: %s", domain.ErrServiceAPI, errResp.Error)
		}
		return fmt.Errorf("%w: status %d", domain.ErrServiceAPI, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
