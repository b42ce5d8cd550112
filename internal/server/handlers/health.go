package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/signform/internal/server/storage"
	"github.com/iudanet/signform/pkg/api"
)

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger    *slog.Logger
	store     storage.RecordStore
	storeName string
	version   string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, store storage.RecordStore, storeName, version string) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		store:     store,
		storeName: storeName,
		version:   version,
	}
}

// Health обрабатывает GET /api/v1/health
// Если хранилище умеет Ping, проверяет его доступность
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Store:   h.storeName,
	}
	status := http.StatusOK

	if pinger, ok := h.store.(storage.Pinger); ok {
		if err := pinger.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "store is unreachable", slog.Any("error", err))
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(h.logger, w, resp, status)
}
