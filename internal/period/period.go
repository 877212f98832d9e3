// Package period calcula as janelas quinzenais de contagem.
// Os períodos começam nos dias 1 e 16 de cada mês, à meia-noite local.
package period

import (
	"time"

	"github.com/vfg2006/sales-performance-api/internal/domain"
)

const secondHalfStartDay = 16

// Current retorna o período [start, end) que contém now, no fuso de now.
func Current(now time.Time) domain.Period {
	year, month, day := now.Date()
	loc := now.Location()

	if day < secondHalfStartDay {
		return domain.Period{
			Start: time.Date(year, month, 1, 0, 0, 0, 0, loc),
			End:   time.Date(year, month, secondHalfStartDay, 0, 0, 0, 0, loc),
		}
	}

	// time.Date normaliza mês 13 para janeiro do ano seguinte
	return domain.Period{
		Start: time.Date(year, month, secondHalfStartDay, 0, 0, 0, 0, loc),
		End:   time.Date(year, month+1, 1, 0, 0, 0, 0, loc),
	}
}

// IsRolloverDue indica se o período dos contadores já terminou em now
func IsRolloverDue(counters *domain.UserCounters, now time.Time) bool {
	if counters == nil {
		return false
	}
	return !now.Before(counters.PeriodEnd)
}

// Contains indica se now está dentro do período [start, end)
func Contains(p domain.Period, now time.Time) bool {
	return !now.Before(p.Start) && now.Before(p.End)
}

// Validate rejeita limites de período malformados
func Validate(p domain.Period) error {
	if p.Start.IsZero() || p.End.IsZero() || !p.Start.Before(p.End) {
		return domain.NewStatsError(domain.ErrInvalidInput, 0, "limites de período inválidos")
	}
	return nil
}
