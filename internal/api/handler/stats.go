package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/internal/events"
	"github.com/vfg2006/sales-performance-api/internal/usecases/counting"
	"github.com/vfg2006/sales-performance-api/internal/usecases/stats"
	"github.com/vfg2006/sales-performance-api/pkg/apiErrors"
	"github.com/vfg2006/sales-performance-api/pkg/middleware"
)

// Sweeper executa a varredura de arquivamento de forma síncrona
type Sweeper interface {
	RunSweep(ctx context.Context) (*domain.SweepResult, error)
}

// EventHandler aplica um evento de negócio nos contadores
type EventHandler interface {
	Handle(ctx context.Context, source string, event domain.BusinessEvent) (*domain.UserCounters, error)
}

// GetCurrentStats retorna os contadores do período corrente dentro do escopo do solicitante
func GetCurrentStats(viewer stats.Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, ok := middleware.RequesterFromContext(r.Context())
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		targetUserID, err := optionalIntQuery(r, "user_id")
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "user_id inválido", nil)
			return
		}

		view, err := viewer.GetCurrentView(r.Context(), requester, targetUserID)
		if err != nil {
			writeStatsError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// GetStatsHistory retorna os períodos arquivados dentro do escopo do solicitante
func GetStatsHistory(viewer stats.Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, ok := middleware.RequesterFromContext(r.Context())
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		targetUserID, err := optionalIntQuery(r, "user_id")
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "user_id inválido", nil)
			return
		}

		limit, err := optionalIntQuery(r, "limit")
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "limit inválido", nil)
			return
		}

		var maxRecords int
		if limit != nil {
			maxRecords = *limit
		}

		view, err := viewer.GetHistory(r.Context(), requester, targetUserID, maxRecords)
		if err != nil {
			writeStatsError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// GetStatsOverview retorna a visão geral de todos os usuários (apenas administradores)
func GetStatsOverview(viewer stats.Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, ok := middleware.RequesterFromContext(r.Context())
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
			return
		}

		overview, err := viewer.GetOverview(r.Context(), requester)
		if err != nil {
			writeStatsError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, overview)
	}
}

// InitializeCounters cria a linha de contadores do usuário para o período corrente
func InitializeCounters(counters counting.Incrementer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.Atoi(httprouter.ParamsFromContext(r.Context()).ByName("id"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "ID do usuário inválido", nil)
			return
		}

		current, err := counters.Initialize(r.Context(), userID)
		if err != nil {
			writeStatsError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, domain.NewCountersView(current))
	}
}

// ForceResetAll executa a varredura de arquivamento sob demanda
func ForceResetAll(sweeper Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - ForceResetAll")

		result, err := sweeper.RunSweep(r.Context())
		if err != nil {
			writeStatsError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// PostBusinessEvent recebe um evento de negócio por HTTP e aplica o incremento correspondente.
// Não há deduplicação: reenviar o mesmo evento conta de novo.
func PostBusinessEvent(handler EventHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event domain.BusinessEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		current, err := handler.Handle(r.Context(), events.SourceHTTP, event)
		if err != nil {
			writeStatsError(w, err)
			return
		}

		writeJSON(w, http.StatusAccepted, domain.NewCountersView(current))
	}
}
