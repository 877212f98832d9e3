// Package memory implementa os repositórios em memória usados em desenvolvimento e testes.
// Cada usuário tem um mutex próprio e as escritas de uma transação só ficam visíveis no commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vfg2006/sales-performance-api/infrastructure/repository"
	"github.com/vfg2006/sales-performance-api/internal/domain"
)

type historyKey struct {
	userID      int
	periodStart int64
}

type Store struct {
	mu         sync.RWMutex
	userLocks  map[int]*sync.Mutex
	counters   map[int]*domain.UserCounters
	history    []*domain.PeriodHistoryRecord
	historyIdx map[historyKey]struct{}
	users      map[int]*domain.User
	nextID     int64
}

var (
	_ repository.CounterStore      = (*Store)(nil)
	_ repository.HistoryRepository = (*Store)(nil)
	_ repository.UserRepository    = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		userLocks:  make(map[int]*sync.Mutex),
		counters:   make(map[int]*domain.UserCounters),
		historyIdx: make(map[historyKey]struct{}),
		users:      make(map[int]*domain.User),
	}
}

func (s *Store) lockFor(userID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, exists := s.userLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

func (s *Store) RunForUser(ctx context.Context, userID int, fn func(tx repository.CounterTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	tx := &counterTx{store: s, userID: userID}
	if err := fn(tx); err != nil {
		return err
	}

	return s.commit(tx)
}

func (s *Store) commit(tx *counterTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range tx.history {
		key := historyKey{userID: record.UserID, periodStart: record.PeriodStart.UnixNano()}
		if _, exists := s.historyIdx[key]; exists {
			return domain.NewStatsError(domain.ErrConflict, record.UserID, "período já arquivado")
		}
	}

	for _, record := range tx.history {
		key := historyKey{userID: record.UserID, periodStart: record.PeriodStart.UnixNano()}
		s.historyIdx[key] = struct{}{}
		s.history = append(s.history, record)
	}

	if tx.staged != nil {
		s.counters[tx.userID] = tx.staged
	}

	return nil
}

func (s *Store) ListActive(ctx context.Context) ([]*domain.UserCounters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.UserCounters, 0, len(s.counters))
	for _, counters := range s.counters {
		out = append(out, counters.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *Store) ListDueUserIDs(ctx context.Context, now time.Time) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userIDs := make([]int, 0)
	for userID, counters := range s.counters {
		if !now.Before(counters.PeriodEnd) {
			userIDs = append(userIDs, userID)
		}
	}

	sort.Ints(userIDs)
	return userIDs, nil
}

// List implementa repository.HistoryRepository
func (s *Store) List(ctx context.Context, userIDs []int, limit int) ([]*domain.PeriodHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[int]struct{}
	if userIDs != nil {
		allowed = make(map[int]struct{}, len(userIDs))
		for _, id := range userIDs {
			allowed[id] = struct{}{}
		}
	}

	out := make([]*domain.PeriodHistoryRecord, 0)
	for _, record := range s.history {
		if allowed != nil {
			if _, ok := allowed[record.UserID]; !ok {
				continue
			}
		}
		copied := *record
		copied.Daily = record.Daily.Clone()
		out = append(out, &copied)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PeriodEnd.Equal(out[j].PeriodEnd) {
			return out[i].PeriodEnd.After(out[j].PeriodEnd)
		}
		return out[i].UserID < out[j].UserID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type counterTx struct {
	store   *Store
	userID  int
	staged  *domain.UserCounters
	history []*domain.PeriodHistoryRecord
}

func (t *counterTx) current() *domain.UserCounters {
	if t.staged != nil {
		return t.staged
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.counters[t.userID]
}

func (t *counterTx) Get(ctx context.Context) (*domain.UserCounters, error) {
	return t.current().Clone(), nil
}

func (t *counterTx) Insert(ctx context.Context, counters *domain.UserCounters) (bool, error) {
	if t.current() != nil {
		return false, nil
	}

	t.store.mu.Lock()
	t.store.nextID++
	counters.ID = t.store.nextID
	t.store.mu.Unlock()

	counters.UserID = t.userID
	counters.IsActive = true
	t.staged = counters.Clone()
	return true, nil
}

func (t *counterTx) Update(ctx context.Context, counters *domain.UserCounters) error {
	existing := t.current()
	if existing == nil || existing.ID != counters.ID {
		return domain.NewStatsError(domain.ErrNotFound, t.userID, "contadores ativos não encontrados")
	}

	t.staged = counters.Clone()
	return nil
}

func (t *counterTx) AppendHistory(ctx context.Context, record *domain.PeriodHistoryRecord) error {
	for _, staged := range t.history {
		if staged.PeriodStart.Equal(record.PeriodStart) {
			return domain.NewStatsError(domain.ErrConflict, record.UserID, "período já arquivado")
		}
	}

	copied := *record
	copied.Daily = record.Daily.Clone()
	t.history = append(t.history, &copied)
	return nil
}
