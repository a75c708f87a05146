package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kirillm/dashboard-bot/internal/dispatcher"
	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/metrics"
	"github.com/kirillm/dashboard-bot/internal/state"
	"github.com/kirillm/dashboard-bot/internal/storage"
	"github.com/kirillm/dashboard-bot/pkg/utils"
)

const commandTimeout = 15 * time.Second

// HistoryReader читает журнал дашборда. nil означает, что журнал отключён.
type HistoryReader interface {
	GetRecentSnapshots(period string, limit int) ([]storage.PnLSnapshot, error)
	GetRecentActions(limit int) ([]storage.ActionRecord, error)
}

type Bot struct {
	api        *tgbotapi.BotAPI
	chatID     int64
	logger     *utils.Logger
	store      *state.Store
	dispatcher *dispatcher.Dispatcher
	history    HistoryReader
	formatter  *Formatter
}

func NewBot(token string, chatID int64, logger *utils.Logger, store *state.Store, dsp *dispatcher.Dispatcher, history HistoryReader) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot authorized: @%s", bot.Self.UserName)

	return &Bot{
		api:        bot,
		chatID:     chatID,
		logger:     logger,
		store:      store,
		dispatcher: dsp,
		history:    history,
		formatter:  NewFormatter(),
	}, nil
}

// Start запускает обработку сообщений
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.SendMessage("🤖 Trading Dashboard started!\nUse /help to see available commands.")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		// Проверяем, что сообщение от правильного пользователя
		if update.Message.Chat.ID != b.chatID {
			b.logger.Warn("Unauthorized access attempt from chat ID: %d", update.Message.Chat.ID)
			continue
		}

		go b.handleMessage(update.Message)
	}
}

// Stop останавливает приём сообщений
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	b.logger.Info("Received message: %s", message.Text)

	if !message.IsCommand() {
		b.SendMessage("Use /help to see available commands.")
		return
	}

	switch message.Command() {
	case "start", "help":
		b.sendHelp()

	case "dashboard":
		b.SendMessage(b.formatter.FormatDashboard(b.store.View()))

	case "wallet":
		view := b.store.View()
		b.SendMessage(b.formatter.FormatWallet(metrics.ValuePortfolio(view.Balances, view.Prices)))

	case "analytics":
		view := b.store.View()
		b.SendMessage(b.formatter.FormatAnalytics(metrics.AggregateTrades(view.ClosedTrades, time.Now())))

	case "chart":
		view := b.store.View()
		b.SendMessage(b.formatter.FormatChart(metrics.NormalizeBreakdown(view.Breakdown)))

	case "trades":
		view := b.store.View()
		b.SendMessage(b.formatter.FormatTrades(view.OpenTrades, view.ClosedTrades, view.TotalClosed))

	case "price":
		b.handlePrice(message.CommandArguments())

	case "start_bot":
		b.handleStartBot(message.CommandArguments())

	case "stop_bot":
		b.handleStopBot()

	case "close_position":
		b.handleClosePosition()

	case "close_trade":
		b.handleCloseTrade(message.CommandArguments())

	case "history":
		b.handleHistory()

	case "health":
		b.handleHealth()

	default:
		b.SendMessage("❓ Unknown command. Use /help.")
	}
}

func (b *Bot) handlePrice(args string) {
	symbol := strings.ToUpper(strings.TrimSpace(args))
	if symbol == "" {
		b.SendMessage("Usage: /price SYMBOL\nExample: /price BTCUSDT")
		return
	}

	view := b.store.View()
	if a, ok := view.Analysis[symbol]; ok {
		b.SendMessage(b.formatter.FormatAnalysis(a))
		return
	}
	if tick, ok := view.Prices[symbol]; ok {
		b.SendMessage(fmt.Sprintf("💵 %s: $%.2f", symbol, tick.Price))
		return
	}
	b.SendMessage(fmt.Sprintf("❌ No data for %s", symbol))
}

func (b *Bot) handleStartBot(args string) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		b.SendMessage("Usage: /start_bot SYMBOL STRATEGY QUANTITY\nExample: /start_bot BTCUSDT MA_CROSSOVER 0.001")
		return
	}

	quantity, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || quantity <= 0 {
		b.SendMessage("❌ Invalid quantity")
		return
	}

	cfg := domain.BotConfig{
		Symbol:   strings.ToUpper(fields[0]),
		Strategy: strings.ToUpper(fields[1]),
		Quantity: quantity,
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := b.dispatcher.StartBot(ctx, cfg); err != nil {
		b.SendMessage(b.formatter.FormatError(err))
		return
	}
	b.SendMessage(b.formatter.FormatSuccess(fmt.Sprintf("Bot started: %s (%s)", cfg.Symbol, cfg.Strategy)))
}

func (b *Bot) handleStopBot() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := b.dispatcher.StopBot(ctx); err != nil {
		b.SendMessage(b.formatter.FormatError(err))
		return
	}
	b.SendMessage(b.formatter.FormatSuccess("Bot stopped"))
}

func (b *Bot) handleClosePosition() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	result, err := b.dispatcher.ClosePosition(ctx)
	if err != nil {
		b.SendMessage(b.formatter.FormatError(err))
		return
	}
	b.SendMessage(b.formatter.FormatCloseResult(result))
}

func (b *Bot) handleCloseTrade(args string) {
	tradeID := strings.TrimSpace(args)
	if tradeID == "" {
		b.SendMessage("Usage: /close_trade ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := b.dispatcher.CloseTrade(ctx, tradeID); err != nil {
		b.SendMessage(b.formatter.FormatError(err))
		return
	}
	b.SendMessage(b.formatter.FormatSuccess(fmt.Sprintf("Trade %s closed", tradeID)))
}

func (b *Bot) handleHistory() {
	if b.history == nil {
		b.SendMessage("📒 Journal is disabled (set JOURNAL_ENABLED=true)")
		return
	}

	snapshots, err := b.history.GetRecentSnapshots(domain.PeriodAllTime, 5)
	if err != nil {
		b.SendMessage(b.formatter.FormatError(err))
		return
	}
	actions, err := b.history.GetRecentActions(10)
	if err != nil {
		b.SendMessage(b.formatter.FormatError(err))
		return
	}

	b.SendMessage(b.formatter.FormatHistory(snapshots, actions))
}

func (b *Bot) handleHealth() {
	view := b.store.View()

	ages := make(map[domain.Domain]time.Duration)
	now := time.Now()
	for _, d := range domain.AllDomains() {
		if t, ok := b.store.LastUpdated(d); ok {
			ages[d] = now.Sub(t)
		}
	}

	b.SendMessage(b.formatter.FormatHealth(view.Health, ages))
}

func (b *Bot) sendHelp() {
	help := `📋 Available commands:

/dashboard - Bot status, prices and signals
/wallet - Portfolio valuation
/analytics - P&L summary by period
/chart - Daily P&L chart
/trades - Open and closed trades
/price SYMBOL - Price and indicators
/history - Journal: P&L snapshots and commands
/health - Service health and data age

/start_bot SYMBOL STRATEGY QTY - Start the bot
/stop_bot - Stop the bot
/close_position - Close the current position
/close_trade ID - Close a specific trade`
	b.SendMessage(help)
}

// SendMessage отправляет сообщение в чат
func (b *Bot) SendMessage(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message: %v", err)
	}
}
