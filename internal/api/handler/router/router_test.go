package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	rt := New(WithRoutes(Route{
		Path:   "/v1/stats/users/:id/initialize",
		Method: http.MethodPost,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler:"+httprouter.ParamsFromContext(r.Context()).ByName("id"))
		}),
		Middlewares: []func(http.Handler) http.Handler{tag("externo"), tag("interno")},
	}))

	tests := []struct {
		name        string
		method      string
		path        string
		expectCode  int
		expectOrder []string
	}{
		{
			name:        "Middlewares da rota na ordem declarada",
			method:      http.MethodPost,
			path:        "/v1/stats/users/7/initialize",
			expectCode:  http.StatusOK,
			expectOrder: []string{"externo", "interno", "handler:7"},
		},
		{
			name:       "Rota inexistente",
			method:     http.MethodGet,
			path:       "/v1/nada",
			expectCode: http.StatusNotFound,
		},
		{
			name:       "Método não permitido",
			method:     http.MethodGet,
			path:       "/v1/stats/users/7/initialize",
			expectCode: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order = nil
			rec := httptest.NewRecorder()
			rt.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.expectCode, rec.Code)
			assert.Equal(t, tt.expectOrder, order)
		})
	}
}
