package domain

import "time"

// ViewScope indica sobre quais usuários uma visão foi calculada
type ViewScope string

const (
	ViewScopeUser ViewScope = "user"
	ViewScopeTeam ViewScope = "team"
	ViewScopeAll  ViewScope = "all"
)

// Period representa uma janela quinzenal [Start, End)
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CountersView é a visão de leitura dos contadores com as métricas derivadas
type CountersView struct {
	UserID      int       `json:"user_id,omitempty"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Metrics
	ConversionRate float64    `json:"conversion_rate"` // porcentagem, uma casa decimal
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// NewCountersView monta a visão a partir da linha viva de contadores
func NewCountersView(c *UserCounters) *CountersView {
	updatedAt := c.UpdatedAt
	return &CountersView{
		UserID:         c.UserID,
		PeriodStart:    c.PeriodStart,
		PeriodEnd:      c.PeriodEnd,
		Metrics:        c.Metrics,
		ConversionRate: c.Metrics.ConversionRate(),
		UpdatedAt:      &updatedAt,
	}
}

// EmptyCountersView é a visão zerada de um usuário que ainda não possui contadores
func EmptyCountersView(userID int, period Period) *CountersView {
	return &CountersView{
		UserID:      userID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
	}
}

// CurrentView é a resposta da consulta do período corrente.
// Counters é preenchido para um único usuário; Aggregate e Members para equipes.
type CurrentView struct {
	Scope     ViewScope       `json:"scope"`
	Period    Period          `json:"period"`
	Counters  *CountersView   `json:"counters,omitempty"`
	Aggregate *CountersView   `json:"aggregate,omitempty"`
	Members   []*CountersView `json:"members,omitempty"`
}

// HistoryEntry é um registro de histórico com as métricas derivadas
type HistoryEntry struct {
	*PeriodHistoryRecord
	ConversionRate float64 `json:"conversion_rate"`
}

type HistoryView struct {
	Scope   ViewScope       `json:"scope"`
	Records []*HistoryEntry `json:"records"`
}

// OverviewEntry é a linha de um usuário na visão geral do administrador
type OverviewEntry struct {
	Position int    `json:"position"`
	Username string `json:"username"`
	Role     string `json:"role"`
	*CountersView
}

type Overview struct {
	Period      Period           `json:"period"`
	Totals      *CountersView    `json:"totals"`
	Users       []*OverviewEntry `json:"users"`
	GeneratedAt time.Time        `json:"generated_at"`
}
