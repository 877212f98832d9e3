package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository"
	"github.com/vfg2006/sales-performance-api/internal/domain"
)

func newCounters(start, end time.Time) *domain.UserCounters {
	return &domain.UserCounters{
		PeriodStart: start,
		PeriodEnd:   end,
		Daily:       domain.DailyBreakdown{},
	}
}

func TestStore_RunForUser(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	t.Run("Insert e Get dentro da mesma transação", func(t *testing.T) {
		store := NewStore()

		err := store.RunForUser(ctx, 1, func(tx repository.CounterTx) error {
			created, err := tx.Insert(ctx, newCounters(start, end))
			require.NoError(t, err)
			assert.True(t, created)

			got, err := tx.Get(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 1, got.UserID)

			created, err = tx.Insert(ctx, newCounters(start, end))
			require.NoError(t, err)
			assert.False(t, created)
			return nil
		})
		require.NoError(t, err)

		active, err := store.ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("Erro descarta escritas pendentes", func(t *testing.T) {
		store := NewStore()
		failure := errors.New("falha")

		err := store.RunForUser(ctx, 1, func(tx repository.CounterTx) error {
			_, err := tx.Insert(ctx, newCounters(start, end))
			require.NoError(t, err)
			require.NoError(t, tx.AppendHistory(ctx, &domain.PeriodHistoryRecord{UserID: 1, PeriodStart: start, PeriodEnd: end}))
			return failure
		})
		assert.ErrorIs(t, err, failure)

		active, err := store.ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)

		records, err := store.List(ctx, nil, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Histórico duplicado retorna conflito", func(t *testing.T) {
		store := NewStore()
		record := &domain.PeriodHistoryRecord{ID: "a", UserID: 1, PeriodStart: start, PeriodEnd: end}

		err := store.RunForUser(ctx, 1, func(tx repository.CounterTx) error {
			return tx.AppendHistory(ctx, record)
		})
		require.NoError(t, err)

		err = store.RunForUser(ctx, 1, func(tx repository.CounterTx) error {
			return tx.AppendHistory(ctx, record)
		})
		assert.ErrorIs(t, err, domain.ErrConflict)

		records, err := store.List(ctx, []int{1}, 0)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Incrementos concorrentes não se perdem", func(t *testing.T) {
		store := NewStore()
		const workers = 50

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.RunForUser(ctx, 1, func(tx repository.CounterTx) error {
					counters, err := tx.Get(ctx)
					if err != nil {
						return err
					}
					if counters == nil {
						counters = newCounters(start, end)
						counters.LeadsReceived = 1
						_, err = tx.Insert(ctx, counters)
						return err
					}
					counters.LeadsReceived++
					return tx.Update(ctx, counters)
				})
			}()
		}
		wg.Wait()

		active, err := store.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, int64(workers), active[0].LeadsReceived)
	})
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	periods := []time.Time{
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	for _, userID := range []int{1, 2} {
		for i := 0; i < len(periods)-1; i++ {
			record := &domain.PeriodHistoryRecord{UserID: userID, PeriodStart: periods[i], PeriodEnd: periods[i+1]}
			require.NoError(t, store.RunForUser(ctx, userID, func(tx repository.CounterTx) error {
				return tx.AppendHistory(ctx, record)
			}))
		}
	}

	testCases := []struct {
		name     string
		userIDs  []int
		limit    int
		validate func(t *testing.T, records []*domain.PeriodHistoryRecord)
	}{
		{
			name: "Todos os usuários ordenados por fim de período",
			validate: func(t *testing.T, records []*domain.PeriodHistoryRecord) {
				require.Len(t, records, 4)
				assert.Equal(t, periods[2], records[0].PeriodEnd)
				assert.Equal(t, periods[1], records[3].PeriodEnd)
			},
		},
		{
			name:    "Filtra por usuário com limite",
			userIDs: []int{2},
			limit:   1,
			validate: func(t *testing.T, records []*domain.PeriodHistoryRecord) {
				require.Len(t, records, 1)
				assert.Equal(t, 2, records[0].UserID)
				assert.Equal(t, periods[2], records[0].PeriodEnd)
			},
		},
		{
			name:    "Conjunto vazio não retorna registros",
			userIDs: []int{},
			validate: func(t *testing.T, records []*domain.PeriodHistoryRecord) {
				assert.Empty(t, records)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := store.List(ctx, tc.userIDs, tc.limit)
			require.NoError(t, err)
			tc.validate(t, records)
		})
	}
}

func TestStore_Directory(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	managerID := 2

	store.AddUser(&domain.User{ID: 1, Username: "admin", Email: "admin@example.com", RoleID: domain.RoleAdmin})
	store.AddUser(&domain.User{ID: 2, Username: "gestor", Email: "gestor@example.com", RoleID: domain.RoleManager})
	store.AddUser(&domain.User{ID: 7, Username: "ana", RoleID: domain.RoleAgent, ManagerID: &managerID, PasswordHash: "hash"})
	store.AddUser(&domain.User{ID: 8, Username: "bia", RoleID: domain.RoleAgent, ManagerID: &managerID})
	store.AddUser(&domain.User{ID: 9, Username: "caio", RoleID: domain.RoleAgent})

	ids, err := store.GetManagedUserIDs(ctx, managerID)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, ids)

	user, err := store.GetUserByEmail(ctx, "GESTOR@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 2, user.ID)

	users, err := store.GetUsersByIDs(ctx, []int{7, 99})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)

	missing, err := store.GetUserByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
