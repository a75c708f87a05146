package poller

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/state"
	"github.com/kirillm/dashboard-bot/pkg/utils"
)

// Fetcher выполняет один опрос домена и возвращает мутацию снапшота.
// Мутация применяется только если запись не устарела к моменту ответа.
type Fetcher func(ctx context.Context) (func(*state.Snapshot), error)

// Scheduler ведёт независимый цикл опроса для каждого домена.
// Провал одного домена не трогает остальные: в хранилище просто
// остаются последние удачные данные.
type Scheduler struct {
	store     *state.Store
	logger    *utils.Logger
	limiter   *rate.Limiter
	timeout   time.Duration
	fetchers  map[domain.Domain]Fetcher
	intervals map[domain.Domain]time.Duration
	nudges    map[domain.Domain]chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

func NewScheduler(store *state.Store, logger *utils.Logger, rps float64, timeout time.Duration) *Scheduler {
	return &Scheduler{
		store:     store,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		timeout:   timeout,
		fetchers:  make(map[domain.Domain]Fetcher),
		intervals: make(map[domain.Domain]time.Duration),
		nudges:    make(map[domain.Domain]chan struct{}),
	}
}

// Register подключает домен к расписанию. Вызывать до Start.
func (s *Scheduler) Register(d domain.Domain, interval time.Duration, fetch Fetcher) {
	s.fetchers[d] = fetch
	s.intervals[d] = interval
	s.nudges[d] = make(chan struct{}, 1)
}

// Start запускает циклы опроса всех зарегистрированных доменов.
// Первый опрос каждого домена выполняется сразу, без ожидания интервала.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("🚀 Запуск планировщика опроса: %d доменов", len(s.fetchers))

	for d := range s.fetchers {
		s.wg.Add(1)
		go s.runLoop(ctx, d)
	}
}

// PollNow просит внеочередной опрос указанных доменов. Не блокирует:
// если опрос уже запрошен, повторный запрос схлопывается.
func (s *Scheduler) PollNow(domains ...domain.Domain) {
	for _, d := range domains {
		ch, ok := s.nudges[d]
		if !ok {
			continue
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Stop останавливает опрос и закрывает хранилище для записи.
// Ответы, находящиеся в полёте, будут отброшены хранилищем.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false

	// Сначала закрываем хранилище: запись после Stop запрещена,
	// даже если воркеры ещё дорабатывают текущий цикл.
	s.store.Close()
	s.cancel()
	s.wg.Wait()
	s.logger.Info("🛑 Планировщик опроса остановлен")
}

func (s *Scheduler) runLoop(ctx context.Context, d domain.Domain) {
	defer s.wg.Done()

	interval := s.intervals[d]
	nudge := s.nudges[d]
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.pollOnce(ctx, d)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx, d)
		case <-nudge:
			s.pollOnce(ctx, d)
			ticker.Reset(interval)
		}
	}
}

func (s *Scheduler) pollOnce(ctx context.Context, d domain.Domain) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	// Номер берётся до запроса: конкурентные опросы одного домена
	// упорядочены моментом старта, а не моментом прихода ответа
	seq := s.store.NextSeq(d)

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	mutate, err := s.fetchers[d](fetchCtx)
	if err != nil {
		s.logger.Warn("⚠️ Опрос домена %s не удался: %v", d, err)
		return
	}

	if !s.store.Apply(d, seq, mutate) {
		s.logger.Debug("Запись домена %s (seq=%d) отброшена как устаревшая", d, seq)
	}
}
