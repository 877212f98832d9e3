// Package events traduz eventos de negócio (fila ou HTTP) em chamadas da API de incremento.
// A entrega é pelo menos uma vez e não há deduplicação: um evento reenviado conta de novo,
// cabe ao produtor não reenviar eventos já confirmados.
package events

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/internal/metrics"
	"github.com/vfg2006/sales-performance-api/internal/usecases/counting"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	SourceAMQP = "amqp"
	SourceHTTP = "http"
)

type Handler struct {
	counters    counting.Incrementer
	defaultRate decimal.Decimal
}

func NewHandler(counters counting.Incrementer, defaultRate decimal.Decimal) *Handler {
	return &Handler{
		counters:    counters,
		defaultRate: defaultRate,
	}
}

// Decode lê o envelope JSON de um evento de negócio
func Decode(body []byte) (domain.BusinessEvent, error) {
	var event domain.BusinessEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, domain.NewStatsError(domain.ErrInvalidInput, 0, "evento malformado: "+err.Error())
	}
	return event, nil
}

// Handle aplica o evento nos contadores do usuário. Pagamentos sem taxa usam a taxa padrão configurada.
func (h *Handler) Handle(ctx context.Context, source string, event domain.BusinessEvent) (*domain.UserCounters, error) {
	counters, err := h.apply(ctx, event)

	result := "ok"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		result = "invalid"
	case err != nil:
		result = "error"
	}
	metrics.EventsTotal.WithLabelValues(source, string(event.Type), result).Inc()

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_type":   event.Type,
			"event_source": source,
			"user_id":      event.UserID,
		}).Warn("Evento de negócio não aplicado")
		return nil, err
	}

	return counters, nil
}

func (h *Handler) apply(ctx context.Context, event domain.BusinessEvent) (*domain.UserCounters, error) {
	if event.UserID <= 0 {
		return nil, domain.NewStatsError(domain.ErrInvalidInput, event.UserID, "user_id obrigatório")
	}

	switch event.Type {
	case domain.EventLeadReceived:
		return h.counters.IncrementLeadsReceived(ctx, event.UserID, countOf(event))
	case domain.EventLeadConverted:
		return h.counters.IncrementLeadsConverted(ctx, event.UserID, countOf(event))
	case domain.EventPaymentProcessed:
		if event.Amount == nil {
			return nil, domain.NewStatsError(domain.ErrInvalidInput, event.UserID, "amount obrigatório para pagamentos")
		}
		rate := h.defaultRate
		if event.Rate != nil {
			rate = *event.Rate
		}
		return h.counters.IncrementPaymentsProcessed(ctx, event.UserID, *event.Amount, rate)
	default:
		return nil, domain.NewStatsError(domain.ErrInvalidInput, event.UserID, "tipo de evento desconhecido: "+string(event.Type))
	}
}

// countOf assume um lead por evento quando count não é informado
func countOf(event domain.BusinessEvent) int64 {
	if event.Count == nil {
		return 1
	}
	return *event.Count
}
