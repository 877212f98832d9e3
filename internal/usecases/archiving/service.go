// Package archiving realiza a transição atômica de período: grava o snapshot no histórico
// e zera os contadores vivos para o período seguinte.
package archiving

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/internal/metrics"
	"github.com/vfg2006/sales-performance-api/internal/period"
	"github.com/vfg2006/sales-performance-api/pkg/utils"
	"golang.org/x/sync/errgroup"
)

const (
	TriggerLazy  = "lazy"
	TriggerSweep = "sweep"

	defaultMaxConcurrentJobs = 4
)

type Archiver interface {
	// RollOver arquiva e reinicia counters dentro da transação tx, se o período já terminou
	RollOver(ctx context.Context, tx repository.CounterTx, counters *domain.UserCounters, now time.Time, trigger string) (bool, error)
	ArchiveAndReset(ctx context.Context, userID int, now time.Time) (bool, error)
	ArchiveAndResetAll(ctx context.Context, now time.Time) (*domain.SweepResult, error)
}

type Config struct {
	MaxConcurrentJobs int
	// Location define a meia-noite usada nos limites do próximo período. Padrão: time.Local
	Location *time.Location
}

type Service struct {
	store  repository.CounterStore
	clock  quartz.Clock
	config Config
}

func NewService(store repository.CounterStore, clock quartz.Clock, cfg Config) *Service {
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Service{
		store:  store,
		clock:  clock,
		config: cfg,
	}
}

func (s *Service) RollOver(
	ctx context.Context,
	tx repository.CounterTx,
	counters *domain.UserCounters,
	now time.Time,
	trigger string,
) (bool, error) {
	now = now.In(s.config.Location)
	if !period.IsRolloverDue(counters, now) {
		return false, nil
	}

	if err := period.Validate(domain.Period{Start: counters.PeriodStart, End: counters.PeriodEnd}); err != nil {
		return false, err
	}

	id, err := utils.GenerateID()
	if err != nil {
		return false, err
	}

	record := &domain.PeriodHistoryRecord{
		ID:          id,
		UserID:      counters.UserID,
		PeriodStart: counters.PeriodStart,
		PeriodEnd:   counters.PeriodEnd,
		Metrics:     counters.Metrics,
		Daily:       counters.Daily.Clone(),
		ArchivedAt:  now,
	}

	if err := tx.AppendHistory(ctx, record); err != nil {
		return false, err
	}

	next := period.Current(now)
	counters.PeriodStart = next.Start
	counters.PeriodEnd = next.End
	counters.Metrics = domain.Metrics{}
	counters.Daily = domain.DailyBreakdown{}
	counters.UpdatedAt = now

	if err := tx.Update(ctx, counters); err != nil {
		return false, err
	}

	metrics.RolloversTotal.WithLabelValues(trigger).Inc()

	logrus.WithFields(logrus.Fields{
		"user_id":      record.UserID,
		"period_start": record.PeriodStart.Format(time.DateOnly),
		"period_end":   record.PeriodEnd.Format(time.DateOnly),
		"trigger":      trigger,
	}).Info("Período arquivado e contadores reiniciados")

	return true, nil
}

// ArchiveAndReset arquiva o período do usuário se já terminou. Chamadas repetidas são no-op.
// Um conflito com outro arquivamento concorrente é repetido uma única vez.
func (s *Service) ArchiveAndReset(ctx context.Context, userID int, now time.Time) (bool, error) {
	now = now.In(s.config.Location)
	archived, err := s.archiveAndReset(ctx, userID, now)
	if errors.Is(err, domain.ErrConflict) {
		logrus.WithField("user_id", userID).Warn("Conflito de arquivamento concorrente, repetindo")
		archived, err = s.archiveAndReset(ctx, userID, now)
	}
	if err != nil {
		return false, domain.StorageError(userID, err)
	}

	return archived, nil
}

func (s *Service) archiveAndReset(ctx context.Context, userID int, now time.Time) (bool, error) {
	var archived bool

	err := s.store.RunForUser(ctx, userID, func(tx repository.CounterTx) error {
		counters, err := tx.Get(ctx)
		if err != nil {
			return err
		}
		if counters == nil {
			return nil
		}

		archived, err = s.RollOver(ctx, tx, counters, now, TriggerSweep)
		return err
	})
	if err != nil {
		return false, err
	}

	return archived, nil
}

// ArchiveAndResetAll aplica ArchiveAndReset em todas as linhas com período vencido.
// Falhas individuais são registradas e não interrompem as demais linhas.
func (s *Service) ArchiveAndResetAll(ctx context.Context, now time.Time) (*domain.SweepResult, error) {
	now = now.In(s.config.Location)
	result := &domain.SweepResult{StartedAt: s.clock.Now()}

	userIDs, err := s.store.ListDueUserIDs(ctx, now)
	if err != nil {
		return nil, domain.StorageError(0, err)
	}

	result.Checked = len(userIDs)
	if len(userIDs) == 0 {
		result.FinishedAt = s.clock.Now()
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrentJobs)

	for _, userID := range userIDs {
		g.Go(func() error {
			archived, err := s.ArchiveAndReset(gctx, userID, now)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				result.Failed++
				metrics.SweepRowsTotal.WithLabelValues("failed").Inc()
				logrus.WithError(err).WithField("user_id", userID).Error("Erro ao arquivar período do usuário")
			case archived:
				result.Archived++
				metrics.SweepRowsTotal.WithLabelValues("archived").Inc()
			default:
				result.Skipped++
				metrics.SweepRowsTotal.WithLabelValues("skipped").Inc()
			}

			return nil
		})
	}

	_ = g.Wait()
	result.FinishedAt = s.clock.Now()

	logrus.WithFields(logrus.Fields{
		"checked":  result.Checked,
		"archived": result.Archived,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Varredura de arquivamento concluída")

	return result, nil
}
