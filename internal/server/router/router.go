// Package router собирает HTTP маршруты сервера приема форм.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iudanet/signform/internal/server/handlers"
	mw "github.com/iudanet/signform/internal/server/middleware"
	"github.com/iudanet/signform/pkg/api"
)

// New создает маршрутизатор. limiter может быть nil, тогда отправки
// не ограничиваются. trustProxy подменяет RemoteAddr адресом из заголовков
// прокси; без него заголовки X-Forwarded-For игнорируются.
func New(
	logger *slog.Logger,
	submitH *handlers.SubmissionHandler,
	healthH *handlers.HealthHandler,
	limiter *mw.RateLimiter,
	trustProxy bool,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	if trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(mw.RecoveryMiddleware(logger))
	r.Use(mw.RequestIDMiddleware)
	r.Use(mw.LoggingWithSkip(logger, []string{api.HealthPath}))

	r.Get(api.HealthPath, healthH.Health)

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(mw.RateLimitMiddleware(limiter))
		}

		r.Post(api.SubmitPath, submitH.Submit)
		r.Post(api.SubmissionsPath, submitH.Submit)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"Método no permitido","success":false}`))
	})

	return r
}
