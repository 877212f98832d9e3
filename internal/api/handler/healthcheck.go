package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const healthcheckTimeout = 2 * time.Second

// HealthChecks associa o nome de uma dependência (postgres, redis) à sua verificação
type HealthChecks map[string]func(ctx context.Context) error

type healthcheckResponse struct {
	Status string            `json:"status"`
	Time   time.Time         `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthcheckHandler responde 200 quando todas as dependências respondem e 503 caso contrário
func HealthcheckHandler(clock quartz.Clock, checks HealthChecks) http.Handler {
	if clock == nil {
		clock = quartz.NewReal()
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthcheckTimeout)
		defer cancel()

		resp := healthcheckResponse{Status: "ok", Time: clock.Now().UTC()}
		status := http.StatusOK

		for _, name := range names {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(names))
			}
			if err := checks[name](ctx); err != nil {
				logrus.WithError(err).WithField("dependency", name).Warn("Healthcheck falhou")
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		writeJSON(w, status, resp)
	})
}

// MetricsHandler expõe as métricas no formato Prometheus
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
