package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/pkg/log"
)

type fakeValidator struct {
	claims *domain.Claims
	err    error
}

func (v fakeValidator) ValidateToken(string) (*domain.Claims, error) {
	return v.claims, v.err
}

func TestAuthAndRoleMiddleware(t *testing.T) {
	agent := &domain.Claims{UserID: 7, UserRoleID: domain.RoleAgent}
	admin := &domain.Claims{UserID: 1, UserRoleID: domain.RoleAdmin}

	tests := []struct {
		name       string
		path       string
		header     string
		validator  fakeValidator
		role       func(http.Handler) http.Handler
		expectCode int
		validate   func(t *testing.T, r *http.Request)
	}{
		{
			name:       "Rota pública dispensa token",
			path:       "/healthcheck",
			validator:  fakeValidator{err: errors.New("não deveria ser chamado")},
			expectCode: http.StatusOK,
		},
		{
			name:       "Sem header Authorization",
			path:       "/v1/stats/current",
			expectCode: http.StatusUnauthorized,
		},
		{
			name:       "Header sem Bearer",
			path:       "/v1/stats/current",
			header:     "Token abc",
			expectCode: http.StatusUnauthorized,
		},
		{
			name:       "Token rejeitado",
			path:       "/v1/stats/current",
			header:     "Bearer abc",
			validator:  fakeValidator{err: errors.New("assinatura inválida")},
			expectCode: http.StatusUnauthorized,
		},
		{
			name:       "Agente autenticado recebe o Requester no contexto",
			path:       "/v1/stats/current",
			header:     "Bearer abc",
			validator:  fakeValidator{claims: agent},
			role:       AllRoles(),
			expectCode: http.StatusOK,
			validate: func(t *testing.T, r *http.Request) {
				requester, ok := RequesterFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, domain.Requester{UserID: 7, Role: domain.RoleAgent}, requester)
			},
		},
		{
			name:       "Agente barrado em rota de administrador",
			path:       "/v1/stats/overview",
			header:     "Bearer abc",
			validator:  fakeValidator{claims: agent},
			role:       AdminOnly(),
			expectCode: http.StatusForbidden,
		},
		{
			name:       "Administrador passa em rota de gestor",
			path:       "/v1/cron/status",
			header:     "Bearer abc",
			validator:  fakeValidator{claims: admin},
			role:       AdminOrManager(),
			expectCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *http.Request
			var next http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r
			})
			if tt.role != nil {
				next = tt.role(next)
			}
			h := AuthMiddleware(tt.validator)(next)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectCode, rec.Code)
			if tt.validate != nil {
				tt.validate(t, seen)
			}
		})
	}
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/v1/stats/users/:id/initialize", routeLabel("/v1/stats/users/42/initialize"))
	assert.Equal(t, "/v1/stats/current", routeLabel("/v1/stats/current"))
}

func TestLoggingMiddleware(t *testing.T) {
	var seenID string
	h := LoggingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = log.GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("Propaga o ID de correlação recebido", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/stats/current", nil)
		req.Header.Set(log.CorrelationHeader, "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "req-42", seenID)
		assert.Equal(t, "req-42", rec.Header().Get(log.CorrelationHeader))
	})

	t.Run("Gera ID quando ausente", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats/current", nil))

		assert.NotEmpty(t, seenID)
		assert.Equal(t, seenID, rec.Header().Get(log.CorrelationHeader))
	})
}

func TestCors(t *testing.T) {
	called := false
	h := Cors([]string{"http://painel.local"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	tests := []struct {
		name         string
		method       string
		origin       string
		expectCode   int
		expectAllow  string
		expectCalled bool
	}{
		{name: "Origem liberada", method: http.MethodGet, origin: "http://painel.local", expectCode: http.StatusOK, expectAllow: "http://painel.local", expectCalled: true},
		{name: "Origem desconhecida", method: http.MethodGet, origin: "http://outro.local", expectCode: http.StatusOK, expectCalled: true},
		{name: "Preflight encerra sem chamar o handler", method: http.MethodOptions, origin: "http://painel.local", expectCode: http.StatusNoContent, expectAllow: "http://painel.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(tt.method, "/v1/stats/current", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectCode, rec.Code)
			assert.Equal(t, tt.expectAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.expectCalled, called)
		})
	}
}

func TestLogPanicMiddleware(t *testing.T) {
	h := LogPanicMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("falha")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats/current", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "SRV_001")
}
