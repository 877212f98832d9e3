// Package counting implementa a API de incremento dos contadores de desempenho.
// Toda operação é uma leitura-modificação-escrita atômica por usuário e verifica
// o vencimento do período antes de aplicar o delta.
package counting

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-performance-api/infrastructure/repository"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/internal/metrics"
	"github.com/vfg2006/sales-performance-api/internal/period"
	"github.com/vfg2006/sales-performance-api/internal/usecases/archiving"
	"github.com/vfg2006/sales-performance-api/pkg/utils"
)

const (
	kindLeadsReceived  = "leads_received"
	kindLeadsConverted = "leads_converted"
	kindPayment        = "payment"
)

type Incrementer interface {
	EnsureActive(ctx context.Context, userID int, opts ...Option) (*domain.UserCounters, error)
	Initialize(ctx context.Context, userID int) (*domain.UserCounters, error)
	IncrementLeadsReceived(ctx context.Context, userID int, count int64, opts ...Option) (*domain.UserCounters, error)
	IncrementLeadsConverted(ctx context.Context, userID int, count int64, opts ...Option) (*domain.UserCounters, error)
	IncrementPaymentsProcessed(ctx context.Context, userID int, amount domain.Money, rate decimal.Decimal, opts ...Option) (*domain.UserCounters, error)
}

type callOptions struct {
	lazyInit bool
}

// Option ajusta o comportamento de uma chamada
type Option func(*callOptions)

// WithoutLazyInit faz a chamada falhar com ErrNotFound quando o usuário ainda não tem contadores
func WithoutLazyInit() Option {
	return func(o *callOptions) {
		o.lazyInit = false
	}
}

func buildOptions(opts []Option) callOptions {
	options := callOptions{lazyInit: true}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type Service struct {
	store    repository.CounterStore
	archiver archiving.Archiver
	clock    quartz.Clock
	location *time.Location
}

func NewService(store repository.CounterStore, archiver archiving.Archiver, clock quartz.Clock, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}

	return &Service{
		store:    store,
		archiver: archiver,
		clock:    clock,
		location: location,
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.location)
}

// EnsureActive garante que o usuário tem contadores do período corrente, arquivando o período
// anterior se necessário, e retorna a linha resultante.
func (s *Service) EnsureActive(ctx context.Context, userID int, opts ...Option) (*domain.UserCounters, error) {
	return s.apply(ctx, userID, buildOptions(opts), nil)
}

// Initialize cria a linha ativa do usuário para o período corrente. É idempotente.
func (s *Service) Initialize(ctx context.Context, userID int) (*domain.UserCounters, error) {
	return s.apply(ctx, userID, callOptions{lazyInit: true}, nil)
}

func (s *Service) IncrementLeadsReceived(ctx context.Context, userID int, count int64, opts ...Option) (*domain.UserCounters, error) {
	if count < 0 {
		return nil, domain.NewStatsError(domain.ErrInvalidInput, userID, "quantidade negativa")
	}

	counters, err := s.apply(ctx, userID, buildOptions(opts), &domain.Metrics{LeadsReceived: count})
	observe(kindLeadsReceived, err)
	return counters, err
}

func (s *Service) IncrementLeadsConverted(ctx context.Context, userID int, count int64, opts ...Option) (*domain.UserCounters, error) {
	if count < 0 {
		return nil, domain.NewStatsError(domain.ErrInvalidInput, userID, "quantidade negativa")
	}

	counters, err := s.apply(ctx, userID, buildOptions(opts), &domain.Metrics{LeadsConverted: count})
	observe(kindLeadsConverted, err)
	return counters, err
}

// IncrementPaymentsProcessed soma um pagamento e a comissão derivada da taxa informada.
// A taxa é capturada no momento do incremento e nunca recalculada.
func (s *Service) IncrementPaymentsProcessed(
	ctx context.Context,
	userID int,
	amount domain.Money,
	rate decimal.Decimal,
	opts ...Option,
) (*domain.UserCounters, error) {
	commission, err := Commission(amount, rate)
	if err != nil {
		return nil, domain.NewStatsError(domain.ErrInvalidInput, userID, err.Error())
	}

	delta := &domain.Metrics{
		PaymentsProcessed: 1,
		PaymentsAmount:    amount,
		CommissionsEarned: commission,
	}

	counters, err := s.apply(ctx, userID, buildOptions(opts), delta)
	observe(kindPayment, err)
	return counters, err
}

// apply executa, numa única transação do usuário: criação preguiçosa, arquivamento do período
// vencido e aplicação do delta (quando houver).
func (s *Service) apply(ctx context.Context, userID int, options callOptions, delta *domain.Metrics) (*domain.UserCounters, error) {
	if userID <= 0 {
		return nil, domain.NewStatsError(domain.ErrInvalidInput, userID, "usuário inválido")
	}

	now := s.now()
	var result *domain.UserCounters

	err := s.store.RunForUser(ctx, userID, func(tx repository.CounterTx) error {
		counters, err := s.ensureActive(ctx, tx, userID, now, options.lazyInit)
		if err != nil {
			return err
		}

		if delta != nil && !delta.IsZero() {
			counters.Metrics.Add(*delta)
			if counters.Daily == nil {
				counters.Daily = domain.DailyBreakdown{}
			}
			counters.Daily.Record(utils.DayKey(now), *delta)
			counters.UpdatedAt = now

			if err := tx.Update(ctx, counters); err != nil {
				return err
			}
		}

		result = counters
		return nil
	})
	if err != nil {
		return nil, domain.StorageError(userID, err)
	}

	return result, nil
}

func (s *Service) ensureActive(
	ctx context.Context,
	tx repository.CounterTx,
	userID int,
	now time.Time,
	lazyInit bool,
) (*domain.UserCounters, error) {
	counters, err := tx.Get(ctx)
	if err != nil {
		return nil, err
	}

	if counters == nil {
		if !lazyInit {
			return nil, domain.NewStatsError(domain.ErrNotFound, userID, "contadores não inicializados")
		}
		return s.create(ctx, tx, userID, now)
	}

	if _, err := s.archiver.RollOver(ctx, tx, counters, now, archiving.TriggerLazy); err != nil {
		return nil, err
	}

	return counters, nil
}

func (s *Service) create(ctx context.Context, tx repository.CounterTx, userID int, now time.Time) (*domain.UserCounters, error) {
	current := period.Current(now)
	counters := &domain.UserCounters{
		UserID:      userID,
		PeriodStart: current.Start,
		PeriodEnd:   current.End,
		Daily:       domain.DailyBreakdown{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := tx.Insert(ctx, counters)
	if err != nil {
		return nil, err
	}

	if !created {
		// outra transação criou a linha entre o Get e o Insert
		counters, err = tx.Get(ctx)
		if err != nil {
			return nil, err
		}
		if counters == nil {
			return nil, domain.NewStatsError(domain.ErrConflict, userID, "linha ativa não encontrada após conflito de inserção")
		}
		return counters, nil
	}

	metrics.CountersInitializedTotal.Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":      userID,
		"period_start": current.Start.Format(time.DateOnly),
		"period_end":   current.End.Format(time.DateOnly),
	}).Debug("Contadores inicializados")

	return counters, nil
}

func observe(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.IncrementsTotal.WithLabelValues(kind, result).Inc()
}
