// Package domain contém as estruturas de dados do domínio da aplicação
package domain

import (
	"time"

	"github.com/vfg2006/sales-performance-api/pkg/utils"
)

// Money representa valores monetários em unidades menores (centavos)
type Money int64

// Metrics agrupa os cinco contadores de desempenho de um período
type Metrics struct {
	LeadsReceived     int64 `json:"leads_received"`
	LeadsConverted    int64 `json:"leads_converted"`
	PaymentsProcessed int64 `json:"payments_processed"`
	PaymentsAmount    Money `json:"payments_amount"`
	CommissionsEarned Money `json:"commissions_earned"`
}

// Add soma os valores de outra métrica nesta
func (m *Metrics) Add(other Metrics) {
	m.LeadsReceived += other.LeadsReceived
	m.LeadsConverted += other.LeadsConverted
	m.PaymentsProcessed += other.PaymentsProcessed
	m.PaymentsAmount += other.PaymentsAmount
	m.CommissionsEarned += other.CommissionsEarned
}

// IsZero indica se todos os contadores estão zerados
func (m Metrics) IsZero() bool {
	return m == Metrics{}
}

// ConversionRate retorna leads convertidos / leads recebidos em porcentagem com uma casa decimal.
// Calculado apenas na leitura, nunca persistido.
func (m Metrics) ConversionRate() float64 {
	if m.LeadsReceived == 0 {
		return 0
	}

	return utils.RoundWithOneDecimalPlace(float64(m.LeadsConverted) / float64(m.LeadsReceived) * 100)
}

// DailyBreakdown detalha os contadores por dia (YYYY-MM-DD) dentro do período.
// É um detalhe aditivo e não precisa bater com o total do período.
type DailyBreakdown map[string]*Metrics

// Record acumula uma métrica parcial no dia informado
func (d DailyBreakdown) Record(day string, delta Metrics) {
	entry, exists := d[day]
	if !exists {
		entry = &Metrics{}
		d[day] = entry
	}
	entry.Add(delta)
}

// Clone retorna uma cópia profunda do detalhamento
func (d DailyBreakdown) Clone() DailyBreakdown {
	if d == nil {
		return nil
	}

	out := make(DailyBreakdown, len(d))
	for day, metrics := range d {
		copied := *metrics
		out[day] = &copied
	}
	return out
}

// UserCounters é a linha viva de contadores do período corrente de um usuário.
// Existe no máximo uma linha ativa por usuário.
type UserCounters struct {
	ID          int64     `json:"id"`
	UserID      int       `json:"user_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"` // intervalo semiaberto [start, end)
	Metrics
	Daily     DailyBreakdown `json:"daily_breakdown,omitempty"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone retorna uma cópia independente dos contadores
func (c *UserCounters) Clone() *UserCounters {
	if c == nil {
		return nil
	}

	copied := *c
	copied.Daily = c.Daily.Clone()
	return &copied
}

// PeriodHistoryRecord é o snapshot imutável de um período arquivado
type PeriodHistoryRecord struct {
	ID          string    `json:"id"`
	UserID      int       `json:"user_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Metrics
	Daily      DailyBreakdown `json:"daily_breakdown,omitempty"`
	ArchivedAt time.Time      `json:"archived_at"`
}
