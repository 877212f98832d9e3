package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType identifica o evento de negócio que gera um incremento
type EventType string

const (
	EventLeadReceived     EventType = "lead.received"
	EventLeadConverted    EventType = "lead.converted"
	EventPaymentProcessed EventType = "payment.processed"
)

// BusinessEvent é o envelope recebido das fontes de eventos (fila ou HTTP).
// A entrega é pelo menos uma vez e não há deduplicação: reenvios contam de novo.
type BusinessEvent struct {
	Type   EventType        `json:"type"`
	UserID int              `json:"user_id"`
	Count  *int64           `json:"count,omitempty"`
	Amount *Money           `json:"amount,omitempty"`
	Rate   *decimal.Decimal `json:"rate,omitempty"`
}

// SweepResult resume uma execução de arquivamento em lote
type SweepResult struct {
	Checked    int       `json:"checked"`
	Archived   int       `json:"archived"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
