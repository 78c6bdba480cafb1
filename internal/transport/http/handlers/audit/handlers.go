package audithandler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"workforce/internal/domain/audit"
	"workforce/internal/domain/auth"
	"workforce/internal/platform/logging"
	"workforce/internal/transport/http/api"
	"workforce/internal/transport/http/middleware"
	"workforce/internal/transport/http/shared"
)

const exportLimit = 10000

type Handler struct {
	Events audit.Lister
	Logger *zap.Logger
}

func NewHandler(events audit.Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Events: events, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleHR))
		r.Get("/events", h.handleListEvents)
		r.Get("/events/export", h.handleExportEvents)
	})
}

func filterFrom(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{Action: q.Get("action"), EntityType: q.Get("entityType"), EntityID: q.Get("entityId")}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	page := shared.ParsePagination(r, 100, 500, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	events, err := h.Events.List(r.Context(), filterFrom(r), page.Limit, page.Offset)
	if err != nil {
		logging.For(r.Context(), h.Logger).Error("audit list failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	log := logging.For(r.Context(), h.Logger)
	events, err := h.Events.List(r.Context(), filterFrom(r), exportLimit, 0)
	if err != nil {
		log.Error("audit export failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_id", "action", "entity_type", "entity_id", "request_id", "created_at"}); err != nil {
		log.Warn("audit export header failed", zap.Error(err))
	}
	for _, evt := range events {
		row := []string{strconv.FormatInt(evt.ID, 10), evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			log.Warn("audit export row failed", zap.Error(err))
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Warn("audit export flush failed", zap.Error(err))
	}
}
