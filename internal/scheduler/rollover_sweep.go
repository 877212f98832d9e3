// Package scheduler contém os serviços agendados da API de desempenho de vendas
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-performance-api/infrastructure/lock"
	"github.com/vfg2006/sales-performance-api/internal/config"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/internal/metrics"
	"github.com/vfg2006/sales-performance-api/internal/usecases/archiving"
)

// SweepLockName identifica o lock distribuído da varredura
const SweepLockName = "rollover-sweep"

type RolloverSweepConfig struct {
	CronSchedule string
	Enabled      bool
}

type RolloverSweepService struct {
	scheduler       *gocron.Scheduler
	archiver        archiving.Archiver
	locker          lock.Locker
	clock           quartz.Clock
	location        *time.Location
	config          RolloverSweepConfig
	mu              sync.Mutex
	running         bool
	lastStartedAt   time.Time
	lastCompletedAt time.Time
	lastResult      *domain.SweepResult
	lastError       string
}

func NewRolloverSweepService(
	archiver archiving.Archiver,
	locker lock.Locker,
	clock quartz.Clock,
	location *time.Location,
	cfg *config.Config,
) *RolloverSweepService {
	sweepConfig := RolloverSweepConfig{
		CronSchedule: cfg.RolloverSweep.CronSchedule, // Default: a cada hora cheia
		Enabled:      cfg.RolloverSweep.Enabled,      // Default: habilitado
	}

	if locker == nil {
		locker = lock.LocalLocker{}
	}
	if location == nil {
		location = time.Local
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": sweepConfig.CronSchedule,
		"location":      location.String(),
	}).Info("Configuração do agendador da varredura de arquivamento carregada")

	return &RolloverSweepService{
		scheduler: gocron.NewScheduler(location),
		archiver:  archiver,
		locker:    locker,
		clock:     clock,
		location:  location,
		config:    sweepConfig,
	}
}

func (s *RolloverSweepService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("Cron da varredura de arquivamento desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando cron da varredura de arquivamento")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if _, err := s.RunSweep(ctx); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				logrus.WithError(err).Info("Varredura de arquivamento ignorada")
				return
			}
			logrus.WithError(err).Error("Erro na varredura de arquivamento")
		}
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar varredura de arquivamento: %w", err)
	}

	// Executar o cron em uma goroutine separada
	s.scheduler.StartAsync()

	// Configurar o cancelamento do cron quando o contexto for cancelado
	go func() {
		<-ctx.Done()
		logrus.Info("Parando cron da varredura de arquivamento")
		s.scheduler.Stop()
	}()

	return nil
}

// RunSweep arquiva todos os períodos vencidos. Retorna ErrConflict se outra varredura
// estiver em execução nesta instância ou em outra réplica.
func (s *RolloverSweepService) RunSweep(ctx context.Context) (*domain.SweepResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logrus.Warn("Varredura de arquivamento já está em execução")
		return nil, domain.NewStatsError(domain.ErrConflict, 0, "varredura já em execução")
	}
	s.running = true
	s.lastStartedAt = s.clock.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastCompletedAt = s.clock.Now()
		s.mu.Unlock()
	}()

	release, acquired, err := s.locker.Acquire(ctx, SweepLockName)
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		s.setOutcome(nil, err)
		return nil, domain.StorageError(0, err)
	}
	if !acquired {
		metrics.SweepRunsTotal.WithLabelValues("locked").Inc()
		logrus.Info("Varredura de arquivamento em execução em outra instância")
		return nil, domain.NewStatsError(domain.ErrConflict, 0, "varredura em execução em outra instância")
	}
	defer release()

	start := s.clock.Now().In(s.location)
	logrus.Info("Iniciando varredura de arquivamento")

	result, err := s.archiver.ArchiveAndResetAll(ctx, start)
	metrics.SweepDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		s.setOutcome(nil, err)
		return nil, err
	}

	metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
	s.setOutcome(result, nil)

	return result, nil
}

func (s *RolloverSweepService) setOutcome(result *domain.SweepResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastResult = result
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}

// TriggerManualRun inicia manualmente uma varredura de arquivamento
func (s *RolloverSweepService) TriggerManualRun() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logrus.Info("Varredura de arquivamento já em andamento, ignorando solicitação manual")
		return
	}
	s.mu.Unlock()

	logrus.Info("Iniciando varredura de arquivamento manual")
	go func() {
		if _, err := s.RunSweep(context.Background()); err != nil {
			logrus.WithError(err).Error("Erro na varredura de arquivamento manual")
		}
	}()
}

// GetStatus retorna o status atual do agendador
func (s *RolloverSweepService) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"enabled":           s.config.Enabled,
		"cron":              s.config.CronSchedule,
		"running":           s.running,
		"last_started_at":   s.lastStartedAt,
		"last_completed_at": s.lastCompletedAt,
	}
	if s.lastResult != nil {
		status["last_result"] = *s.lastResult
	}
	if s.lastError != "" {
		status["last_error"] = s.lastError
	}

	return status
}
