package handler

import (
	"errors"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/pkg/apiErrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("Erro ao enviar resposta")
	}
}

// writeStatsError traduz os erros do motor de estatísticas para a resposta padronizada
func writeStatsError(w http.ResponseWriter, err error) {
	var statsErr *domain.StatsError
	if errors.As(err, &statsErr) {
		var details any
		if statsErr.UserID != 0 {
			details = map[string]any{"user_id": statsErr.UserID}
		}

		message := statsErr.Error()
		if statsErr.Code == apiErrors.ErrStatsStorageFailure {
			logrus.WithError(err).WithField("user_id", statsErr.UserID).Error("Falha de armazenamento nas estatísticas")
			message = "Erro interno ao processar estatísticas"
		}
		apiErrors.WriteError(w, statsErr.Code, message, details)
		return
	}

	code := domain.ErrorCode(err)
	if code == apiErrors.ErrStatsStorageFailure {
		logrus.WithError(err).Error("Erro não classificado nas estatísticas")
		apiErrors.WriteError(w, code, "Erro interno ao processar estatísticas", nil)
		return
	}
	apiErrors.WriteError(w, code, err.Error(), nil)
}

// optionalIntQuery lê um parâmetro inteiro opcional da query string
func optionalIntQuery(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
