package journal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
	"github.com/odyssey-erp/odyssey-desk/internal/entities"
	"github.com/odyssey-erp/odyssey-desk/internal/platform/httpx"
)

// Handler exposes drafts and the journal list over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var in OpenInput
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
			return
		}
	}
	id, view, err := h.service.OpenDraft(r.Context(), in)
	if err != nil {
		h.fail(w, "open draft", err, nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, DraftResponse{ID: id, View: view})
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.service.View(r.Context(), id)
	if err != nil {
		h.fail(w, "view draft", err, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, DraftResponse{ID: id, View: view})
}

func (h *Handler) updateHeader(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch HeaderPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	view, err := h.service.UpdateHeader(r.Context(), id, patch)
	if err != nil {
		h.fail(w, "update draft", err, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, DraftResponse{ID: id, View: view})
}

func (h *Handler) discard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "discard draft", err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.service.AddLine(r.Context(), id)
	if err != nil {
		h.fail(w, "add line", err, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, DraftResponse{ID: id, View: view})
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var patch LinePatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	view, err := h.service.UpdateLine(r.Context(), id, index, patch)
	if err != nil {
		h.fail(w, "update line", err, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, DraftResponse{ID: id, View: view})
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	view, err := h.service.RemoveLine(r.Context(), id, index)
	if err != nil {
		h.fail(w, "remove line", err, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, DraftResponse{ID: id, View: view})
}

func (h *Handler) accounts(w http.ResponseWriter, r *http.Request) {
	set, err := h.service.Accounts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "list accounts", err, nil)
		return
	}
	if set.Accounts == nil {
		set.Accounts = []backend.Account{}
	}
	httpx.JSON(w, http.StatusOK, set)
}

func (h *Handler) scopes(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Scopes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "list scopes", err, nil)
		return
	}
	resp := ScopesResponse{Scopes: make([]ScopeOption, 0, len(list))}
	for _, e := range list {
		resp.Scopes = append(resp.Scopes, ScopeOption{Value: e.ID, Label: scopeLabel(e), Kind: e.Kind})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, view, err := h.service.SubmitOnce(r.Context(), id, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.fail(w, "submit journal", err, &view)
		return
	}
	httpx.JSON(w, http.StatusCreated, SubmitResponse{Journal: record, Draft: DraftResponse{ID: id, View: view}})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.ListJournals(r.Context(), ListInput{
		Selected:    q.Get("selected"),
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		VoucherType: q.Get("voucher_type"),
	})
	if err != nil {
		h.fail(w, "list journals", err, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// fail maps service errors onto problem responses. view, when present,
// supplies the form feedback computed by the composer.
func (h *Handler) fail(w http.ResponseWriter, op string, err error, view *View) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrDraftNotFound), errors.Is(err, ErrLineOutOfRange), errors.Is(err, backend.ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrNotFound, err))
	case errors.Is(err, ErrSubmitInFlight), errors.Is(err, ErrDuplicateSubmission), errors.Is(err, ErrNotEditable), errors.Is(err, ErrStaleAccounts):
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrConflict, err))
	case errors.As(err, &verr):
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, verr))
	case errors.Is(err, backend.ErrUnauthorized):
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrUnauthorized, err))
	default:
		fb := FeedbackFor(err, nil)
		if view != nil {
			fb = view.Feedback
		}
		status := http.StatusBadGateway
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			status = http.StatusUnprocessableEntity
		}
		var transport *backend.TransportError
		if !errors.As(err, &apiErr) && !errors.As(err, &transport) && !errors.Is(err, backend.ErrRouteNotFound) {
			h.logger.Error(op, slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		h.logger.Warn(op, slog.Any("error", err))
		httpx.FieldProblem(w, status, "Upstream Rejected", fb.Fields, fb.Notices)
	}
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Line Index", err.Error())
		return 0, false
	}
	return index, true
}

func scopeLabel(e entities.Entity) string {
	if e.Code == "" {
		return e.Name
	}
	return e.Name + " (" + e.Code + ")"
}
