package state

import (
	"sync"
	"time"

	"github.com/kirillm/dashboard-bot/internal/domain"
)

// Snapshot — полное состояние дашборда на один момент времени.
// Каждое поле-коллекция заменяется целиком: мутации обязаны строить
// новую map/slice, никогда не редактировать существующую. Благодаря
// этому копия, отданная читателю через View, остаётся валидной вечно.
type Snapshot struct {
	Prices       map[string]domain.PriceTick
	Balances     map[string]domain.Balance
	Analysis     map[string]*domain.AnalysisSnapshot
	BotStatus    *domain.BotStatus
	OpenTrades   []domain.Trade
	ClosedTrades []domain.Trade
	TotalClosed  int
	Analytics    *domain.AnalyticsSummary
	Breakdown    []domain.BreakdownPoint
	Health       *domain.Health
}

// Store — версионированное хранилище состояния с per-domain порядком.
// Каждый домен несёт монотонный счётчик: запись с номером меньше уже
// применённого молча отбрасывается, поэтому запоздавший ответ никогда
// не затирает более свежие данные.
type Store struct {
	mu      sync.RWMutex
	snap    Snapshot
	issued  map[domain.Domain]uint64
	applied map[domain.Domain]uint64
	updated map[domain.Domain]time.Time
	subs    []chan domain.Domain
	closed  bool
}

func NewStore() *Store {
	return &Store{
		issued:  make(map[domain.Domain]uint64),
		applied: make(map[domain.Domain]uint64),
		updated: make(map[domain.Domain]time.Time),
	}
}

// NextSeq выдаёт следующий порядковый номер записи для домена.
// Номер берётся ДО запуска запроса: так два конкурентных опроса
// одного домена упорядочены моментом старта, а не моментом ответа.
func (s *Store) NextSeq(d domain.Domain) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[d]++
	return s.issued[d]
}

// Apply применяет авторитетную запись с номером seq к домену d.
// Возвращает false, если запись отброшена: хранилище закрыто или
// домен уже обновлён записью с номером >= seq.
func (s *Store) Apply(d domain.Domain, seq uint64, mutate func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if seq <= s.applied[d] {
		return false
	}

	mutate(&s.snap)
	s.applied[d] = seq
	s.updated[d] = time.Now()
	s.notify(d)
	return true
}

// ApplyOptimistic применяет опережающую запись, не продвигая счётчик:
// следующий авторитетный опрос домена перекроет её в любом случае.
func (s *Store) ApplyOptimistic(d domain.Domain, mutate func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	mutate(&s.snap)
	s.updated[d] = time.Now()
	s.notify(d)
	return true
}

// View возвращает копию текущего состояния. Коллекции внутри копии
// разделяются с хранилищем, но безопасны: см. Snapshot.
func (s *Store) View() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// LastUpdated возвращает момент последней успешной записи в домен
func (s *Store) LastUpdated(d domain.Domain) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.updated[d]
	return t, ok
}

// Subscribe возвращает канал уведомлений об обновлениях доменов.
// Доставка best-effort: если подписчик не успевает, уведомление
// теряется — он всё равно увидит свежие данные в следующем View.
func (s *Store) Subscribe() <-chan domain.Domain {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan domain.Domain, 16)
	s.subs = append(s.subs, ch)
	return ch
}

// Close навсегда запрещает запись. Все последующие Apply и
// ApplyOptimistic возвращают false; чтение остаётся доступным.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// Closed сообщает, закрыто ли хранилище для записи
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) notify(d domain.Domain) {
	for _, ch := range s.subs {
		select {
		case ch <- d:
		default:
		}
	}
}
