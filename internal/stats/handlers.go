package stats

import (
	"log/slog"
	"net/http"

	"todo_api/internal/crud"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	// 统计汇总
	summary, err := h.store.Summary(r.Context())
	if crud.PresentError(h.logger, w, r, err) {
		return
	}
	crud.WriteJSON(h.logger, w, http.StatusOK, summary)
}
