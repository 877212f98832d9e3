package utils

import "time"

// DayKey formata a data no padrão usado pelo detalhamento diário (YYYY-MM-DD)
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
