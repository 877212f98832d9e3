package handler

import (
	"net/http"

	"github.com/coder/quartz"
	"github.com/vfg2006/sales-performance-api/internal/api/handler/router"
	"github.com/vfg2006/sales-performance-api/internal/usecases/authenticating"
	"github.com/vfg2006/sales-performance-api/internal/usecases/counting"
	"github.com/vfg2006/sales-performance-api/internal/usecases/stats"
	"github.com/vfg2006/sales-performance-api/pkg/middleware"
)

func Healthcheck(clock quartz.Clock, checks HealthChecks) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(clock, checks),
		},
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: MetricsHandler(),
		},
	}
}

func Authentication(service authenticating.Authenticator) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/login",
			Method:  http.MethodPost,
			Handler: Login(service),
		},
		{
			Path:        "/v1/me",
			Method:      http.MethodGet,
			Handler:     GetMe(service),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
	}
}

// Stats retorna as rotas de leitura e administração das estatísticas de desempenho
func Stats(viewer stats.Viewer, counters counting.Incrementer, sweeper Sweeper, events EventHandler) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/stats/current",
			Method:      http.MethodGet,
			Handler:     GetCurrentStats(viewer),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
		{
			Path:        "/v1/stats/history",
			Method:      http.MethodGet,
			Handler:     GetStatsHistory(viewer),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
		{
			Path:        "/v1/stats/overview",
			Method:      http.MethodGet,
			Handler:     GetStatsOverview(viewer),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
		{
			Path:        "/v1/stats/users/:id/initialize",
			Method:      http.MethodPost,
			Handler:     InitializeCounters(counters),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
		{
			Path:        "/v1/stats/reset",
			Method:      http.MethodPost,
			Handler:     ForceResetAll(sweeper),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
		{
			Path:        "/v1/stats/events",
			Method:      http.MethodPost,
			Handler:     PostBusinessEvent(events),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
	}
}

func CronJobs(services CronJobServices) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/cron/:type/run",
			Method:      http.MethodPost,
			Handler:     RunCronJob(services),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
		{
			Path:        "/v1/cron/status",
			Method:      http.MethodGet,
			Handler:     GetCronStatus(services),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
	}
}
