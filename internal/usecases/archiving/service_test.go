package archiving

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository/memory"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository/mocks"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"go.uber.org/mock/gomock"
)

var (
	juneStart  = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	juneMiddle = time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC)
	julyStart  = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
)

func seedCounters(t *testing.T, store repository.CounterStore, userID int, metrics domain.Metrics) {
	t.Helper()

	err := store.RunForUser(context.Background(), userID, func(tx repository.CounterTx) error {
		_, err := tx.Insert(context.Background(), &domain.UserCounters{
			UserID:      userID,
			PeriodStart: juneStart,
			PeriodEnd:   juneMiddle,
			Metrics:     metrics,
			Daily: domain.DailyBreakdown{
				"2025-06-10": {LeadsReceived: metrics.LeadsReceived},
			},
		})
		return err
	})
	require.NoError(t, err)
}

// failingStore delega ao armazenamento real, mas falha na etapa configurada da transação
type failingStore struct {
	repository.CounterStore
	failUpdate  bool
	failHistory bool
}

type failingTx struct {
	repository.CounterTx
	store *failingStore
}

var errInjected = errors.New("falha injetada")

func (s *failingStore) RunForUser(ctx context.Context, userID int, fn func(tx repository.CounterTx) error) error {
	return s.CounterStore.RunForUser(ctx, userID, func(tx repository.CounterTx) error {
		return fn(&failingTx{CounterTx: tx, store: s})
	})
}

func (t *failingTx) Update(ctx context.Context, counters *domain.UserCounters) error {
	if t.store.failUpdate {
		return errInjected
	}
	return t.CounterTx.Update(ctx, counters)
}

func (t *failingTx) AppendHistory(ctx context.Context, record *domain.PeriodHistoryRecord) error {
	if t.store.failHistory {
		return errInjected
	}
	return t.CounterTx.AppendHistory(ctx, record)
}

func TestService_ArchiveAndReset(t *testing.T) {
	ctx := context.Background()
	scenarioA := domain.Metrics{
		LeadsReceived:     3,
		LeadsConverted:    1,
		PaymentsProcessed: 1,
		PaymentsAmount:    12980,
		CommissionsEarned: 1402,
	}

	t.Run("Arquiva período vencido com snapshot fiel", func(t *testing.T) {
		store := memory.NewStore()
		seedCounters(t, store, 1, scenarioA)
		service := NewService(store, quartz.NewMock(t), Config{Location: time.UTC})

		now := juneMiddle.Add(time.Second)
		archived, err := service.ArchiveAndReset(ctx, 1, now)
		require.NoError(t, err)
		assert.True(t, archived)

		records, err := store.List(ctx, []int{1}, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, scenarioA, records[0].Metrics)
		assert.Equal(t, juneStart, records[0].PeriodStart)
		assert.Equal(t, juneMiddle, records[0].PeriodEnd)
		assert.Equal(t, now, records[0].ArchivedAt)
		assert.NotEmpty(t, records[0].ID)
		assert.Equal(t, int64(3), records[0].Daily["2025-06-10"].LeadsReceived)

		active, err := store.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.True(t, active[0].Metrics.IsZero())
		assert.Empty(t, active[0].Daily)
		assert.Equal(t, juneMiddle, active[0].PeriodStart)
		assert.Equal(t, julyStart, active[0].PeriodEnd)
		assert.Equal(t, now, active[0].UpdatedAt)
	})

	t.Run("Segunda chamada é no-op", func(t *testing.T) {
		store := memory.NewStore()
		seedCounters(t, store, 1, scenarioA)
		service := NewService(store, quartz.NewMock(t), Config{Location: time.UTC})

		now := juneMiddle.Add(time.Minute)
		archived, err := service.ArchiveAndReset(ctx, 1, now)
		require.NoError(t, err)
		assert.True(t, archived)

		archived, err = service.ArchiveAndReset(ctx, 1, now)
		require.NoError(t, err)
		assert.False(t, archived)

		records, err := store.List(ctx, nil, 0)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Período ainda não vencido é no-op", func(t *testing.T) {
		store := memory.NewStore()
		seedCounters(t, store, 1, scenarioA)
		service := NewService(store, quartz.NewMock(t), Config{Location: time.UTC})

		archived, err := service.ArchiveAndReset(ctx, 1, juneMiddle.Add(-time.Nanosecond))
		require.NoError(t, err)
		assert.False(t, archived)

		active, err := store.ListActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, scenarioA, active[0].Metrics)
	})

	t.Run("Usuário sem contadores é no-op", func(t *testing.T) {
		service := NewService(memory.NewStore(), quartz.NewMock(t), Config{Location: time.UTC})

		archived, err := service.ArchiveAndReset(ctx, 42, juneMiddle)
		require.NoError(t, err)
		assert.False(t, archived)
	})

	abortCases := []struct {
		name  string
		store func(base *memory.Store) *failingStore
	}{
		{
			name: "Falha no reset não grava histórico",
			store: func(base *memory.Store) *failingStore {
				return &failingStore{CounterStore: base, failUpdate: true}
			},
		},
		{
			name: "Falha no histórico não reinicia contadores",
			store: func(base *memory.Store) *failingStore {
				return &failingStore{CounterStore: base, failHistory: true}
			},
		},
	}

	for _, tc := range abortCases {
		t.Run(tc.name, func(t *testing.T) {
			base := memory.NewStore()
			seedCounters(t, base, 1, scenarioA)
			service := NewService(tc.store(base), quartz.NewMock(t), Config{Location: time.UTC})

			now := juneMiddle.Add(time.Hour)
			archived, err := service.ArchiveAndReset(ctx, 1, now)
			assert.False(t, archived)
			assert.ErrorIs(t, err, domain.ErrStorageFailure)
			assert.ErrorIs(t, err, errInjected)

			records, err := base.List(ctx, nil, 0)
			require.NoError(t, err)
			assert.Empty(t, records)

			active, err := base.ListActive(ctx)
			require.NoError(t, err)
			require.Len(t, active, 1)
			assert.Equal(t, scenarioA, active[0].Metrics)
			assert.Equal(t, juneMiddle, active[0].PeriodEnd)

			// uma nova tentativa com armazenamento saudável conclui o arquivamento
			retry := NewService(base, quartz.NewMock(t), Config{Location: time.UTC})
			archived, err = retry.ArchiveAndReset(ctx, 1, now)
			require.NoError(t, err)
			assert.True(t, archived)
		})
	}
}

func TestService_ArchiveAndReset_RetriesConflictOnce(t *testing.T) {
	ctx := context.Background()
	now := juneMiddle.Add(time.Second)

	tests := []struct {
		name     string
		setup    func(store *mocks.MockCounterStore, tx *mocks.MockCounterTx)
		validate func(t *testing.T, archived bool, err error)
	}{
		{
			name: "Conflito seguido de no-op",
			setup: func(store *mocks.MockCounterStore, tx *mocks.MockCounterTx) {
				conflict := domain.NewStatsError(domain.ErrConflict, 1, "período já arquivado")
				store.EXPECT().RunForUser(gomock.Any(), 1, gomock.Any()).Return(conflict)
				store.EXPECT().RunForUser(gomock.Any(), 1, gomock.Any()).
					DoAndReturn(func(ctx context.Context, userID int, fn func(repository.CounterTx) error) error {
						return fn(tx)
					})
				tx.EXPECT().Get(gomock.Any()).Return(&domain.UserCounters{
					UserID:      1,
					PeriodStart: juneMiddle,
					PeriodEnd:   julyStart,
				}, nil)
			},
			validate: func(t *testing.T, archived bool, err error) {
				require.NoError(t, err)
				assert.False(t, archived)
			},
		},
		{
			name: "Dois conflitos retornam Conflict",
			setup: func(store *mocks.MockCounterStore, tx *mocks.MockCounterTx) {
				conflict := domain.NewStatsError(domain.ErrConflict, 1, "período já arquivado")
				store.EXPECT().RunForUser(gomock.Any(), 1, gomock.Any()).Return(conflict).Times(2)
			},
			validate: func(t *testing.T, archived bool, err error) {
				assert.ErrorIs(t, err, domain.ErrConflict)
				assert.False(t, archived)
			},
		},
		{
			name: "Falha de armazenamento não é repetida",
			setup: func(store *mocks.MockCounterStore, tx *mocks.MockCounterTx) {
				store.EXPECT().RunForUser(gomock.Any(), 1, gomock.Any()).Return(errors.New("conexão perdida")).Times(1)
			},
			validate: func(t *testing.T, archived bool, err error) {
				assert.ErrorIs(t, err, domain.ErrStorageFailure)
				assert.False(t, archived)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockCounterStore(ctrl)
			tx := mocks.NewMockCounterTx(ctrl)
			tt.setup(store, tx)

			service := NewService(store, quartz.NewMock(t), Config{Location: time.UTC})
			archived, err := service.ArchiveAndReset(ctx, 1, now)
			tt.validate(t, archived, err)
		})
	}
}

func TestService_ArchiveAndResetAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	for userID := 1; userID <= 6; userID++ {
		seedCounters(t, store, userID, domain.Metrics{LeadsReceived: int64(userID)})
	}

	// usuário 7 já está no período seguinte
	err := store.RunForUser(ctx, 7, func(tx repository.CounterTx) error {
		_, err := tx.Insert(ctx, &domain.UserCounters{PeriodStart: juneMiddle, PeriodEnd: julyStart})
		return err
	})
	require.NoError(t, err)

	service := NewService(store, quartz.NewMock(t), Config{MaxConcurrentJobs: 2, Location: time.UTC})
	now := juneMiddle.Add(time.Hour)

	result, err := service.ArchiveAndResetAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Checked)
	assert.Equal(t, 6, result.Archived)
	assert.Equal(t, 0, result.Failed)

	records, err := store.List(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, records, 6)

	// forçar novamente respeita a checagem de idempotência por linha
	result, err = service.ArchiveAndResetAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Checked)
	assert.Equal(t, 0, result.Archived)

	records, err = store.List(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestService_ArchiveAndResetAll_ContinuesOnFailure(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStore()
	seedCounters(t, base, 1, domain.Metrics{LeadsReceived: 1})
	seedCounters(t, base, 2, domain.Metrics{LeadsReceived: 2})

	service := NewService(&failingStore{CounterStore: base, failUpdate: true}, quartz.NewMock(t), Config{Location: time.UTC})

	result, err := service.ArchiveAndResetAll(ctx, juneMiddle)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 0, result.Archived)
}

func TestService_ArchiveAndResetAll_NormalizesLocation(t *testing.T) {
	ctx := context.Background()
	saoPaulo := time.FixedZone("America/Sao_Paulo", -3*60*60)
	store := memory.NewStore()

	err := store.RunForUser(ctx, 7, func(tx repository.CounterTx) error {
		_, err := tx.Insert(ctx, &domain.UserCounters{
			UserID:      7,
			PeriodStart: time.Date(2025, time.June, 1, 0, 0, 0, 0, saoPaulo),
			PeriodEnd:   time.Date(2025, time.June, 16, 0, 0, 0, 0, saoPaulo),
			Metrics:     domain.Metrics{LeadsReceived: 5},
			Daily:       domain.DailyBreakdown{},
		})
		return err
	})
	require.NoError(t, err)

	service := NewService(store, quartz.NewMock(t), Config{Location: saoPaulo})

	tests := []struct {
		name string
		run  func(now time.Time) error
	}{
		{
			name: "Varredura completa recebendo horário em UTC",
			run: func(now time.Time) error {
				_, err := service.ArchiveAndResetAll(ctx, now)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 00:00:01 em São Paulo
			require.NoError(t, tt.run(time.Date(2025, time.June, 16, 3, 0, 1, 0, time.UTC)))

			active, err := store.ListActive(ctx)
			require.NoError(t, err)
			require.Len(t, active, 1)
			assert.True(t, time.Date(2025, time.June, 16, 0, 0, 0, 0, saoPaulo).Equal(active[0].PeriodStart))
			assert.True(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, saoPaulo).Equal(active[0].PeriodEnd))

			records, err := store.List(ctx, []int{7}, 0)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, int64(5), records[0].Metrics.LeadsReceived)
		})
	}
}
