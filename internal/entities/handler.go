package entities

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-desk/internal/platform/httpx"
)

// Provider is the read side of the Directory.
type Provider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Refresh(ctx context.Context) (Snapshot, error)
}

// RefreshQueue schedules an asynchronous directory refresh.
type RefreshQueue interface {
	EnqueueEntityRefresh(ctx context.Context, reason string) error
}

// Handler exposes the entity list and context resolution.
type Handler struct {
	provider Provider
	queue    RefreshQueue
	logger   *slog.Logger
}

// NewHandler constructs a Handler. queue may be nil, in which case refreshes
// run inline.
func NewHandler(logger *slog.Logger, provider Provider, queue RefreshQueue) *Handler {
	return &Handler{provider: provider, queue: queue, logger: logger}
}

// MountRoutes registers entity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/entities", h.list)
	r.Post("/entities/refresh", h.refresh)
	r.Get("/context", h.resolve)
}

// SelectorOption is one entry of the page-level entity selector.
type SelectorOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Kind  Kind   `json:"type,omitempty"`
}

type listResponse struct {
	Snapshot
	Options []SelectorOption `json:"options"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	snap, err := h.provider.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("load entities", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Snapshot: snap, Options: SelectorOptions(snap.Entities)})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if h.queue != nil {
		if err := h.queue.EnqueueEntityRefresh(r.Context(), "manual"); err != nil {
			h.logger.Error("enqueue entity refresh", slog.Any("error", err))
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}
	snap, err := h.provider.Refresh(r.Context())
	if err != nil {
		h.logger.Error("refresh entities", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("selected")
	if selected == "" {
		selected = SelectAll
	}
	snap, err := h.provider.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("load entities", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	resolved := snap.Resolve(selected)
	if !resolved.Configured() {
		httpx.Problem(w, http.StatusConflict, "Not Configured", ErrNotConfigured.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, resolved)
}

// SelectorOptions lists the page-level selector: the consolidated entry, then
// units and groups, then branches.
func SelectorOptions(list []Entity) []SelectorOption {
	options := []SelectorOption{{Value: SelectAll, Label: ConsolidatedName}}
	for _, e := range list {
		if e.Kind.IsCompany() {
			options = append(options, SelectorOption{Value: e.ID, Label: e.Name + " (" + e.Kind.Label() + ")", Kind: e.Kind})
		}
	}
	for _, e := range list {
		if e.Kind == KindBranch {
			options = append(options, SelectorOption{Value: e.ID, Label: e.Name + " (" + e.Kind.Label() + ")", Kind: e.Kind})
		}
	}
	return options
}
