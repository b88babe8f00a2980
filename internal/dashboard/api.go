// Package dashboard provides the web dashboard and JSON API over the OKR
// board.
package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/app"
	"github.com/jaakkos/okrboard/internal/domain"
	"github.com/jaakkos/okrboard/internal/okr"
	"github.com/jaakkos/okrboard/internal/sheets"
)

// ActorHeader carries the email of the team member making a write-back.
const ActorHeader = "X-Actor-Email"

const maxBodyBytes = 64 << 10

// RevisionSource reports the current data revision. Implemented by app.Watcher.
type RevisionSource interface {
	Revision() int64
}

// TeamsResponse is the JSON response from /api/teams.
type TeamsResponse struct {
	Title string   `json:"title"`
	Teams []string `json:"teams"`
}

// RevisionResponse is the JSON response from /api/revision.
type RevisionResponse struct {
	Revision int64 `json:"revision"`
}

// UpdateBody is the JSON body of POST /api/teams/{team}/krs/{kr}.
type UpdateBody struct {
	Value string `json:"value"`
	Note  string `json:"note"`
}

// PropagateBody is the JSON body of POST /api/propagate.
type PropagateBody struct {
	Team  string `json:"team"`
	KR    string `json:"kr"`
	Value string `json:"value"`
	Note  string `json:"note"`
}

// AuditResponse is the JSON response from /api/audit.
type AuditResponse struct {
	Entries []domain.AuditEntry `json:"entries"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Handler holds dependencies for dashboard HTTP handlers.
type Handler struct {
	svc      *app.BoardService
	logger   *zap.Logger
	revision RevisionSource // optional; nil reports revision 0
}

// HandlerOption configures optional dependencies for the dashboard handler.
type HandlerOption func(*Handler)

// WithRevisionSource enables live reload through /api/revision.
func WithRevisionSource(rs RevisionSource) HandlerOption {
	return func(h *Handler) { h.revision = rs }
}

// NewHandler creates a dashboard handler.
func NewHandler(svc *app.BoardService, logger *zap.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{svc: svc, logger: logger.Named("http")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes adds dashboard routes to the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/", http.RedirectHandler("/dashboard", http.StatusFound).ServeHTTP)
	r.Get("/dashboard", h.handleDashboard)
	r.Route("/api", func(r chi.Router) {
		r.Get("/teams", h.handleTeams)
		r.Get("/teams/{team}", h.handleTeam)
		r.Post("/teams/{team}/krs/{kr}", h.handleUpdate)
		r.Get("/overview", h.handleOverview)
		r.Get("/revision", h.handleRevision)
		r.Post("/propagate", h.handlePropagate)
		r.Get("/audit", h.handleAudit)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleTeams(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, TeamsResponse{
		Title: h.svc.Policy().Title(),
		Teams: h.svc.Teams(),
	})
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.LoadTeam(r.Context(), chi.URLParam(r, "team"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, board)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.Overview(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ov)
}

func (h *Handler) handleRevision(w http.ResponseWriter, r *http.Request) {
	var rev int64
	if h.revision != nil {
		rev = h.revision.Revision()
	}
	h.writeJSON(w, http.StatusOK, RevisionResponse{Revision: rev})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body UpdateBody
	if !h.decode(w, r, &body) {
		return
	}
	res, err := h.svc.UpdateValue(r.Context(), app.UpdateRequest{
		Team:  chi.URLParam(r, "team"),
		KRID:  chi.URLParam(r, "kr"),
		Value: body.Value,
		Actor: r.Header.Get(ActorHeader),
		Note:  body.Note,
	})
	if err != nil && res == nil {
		h.writeError(w, r, err)
		return
	}
	if err != nil {
		// The cell was touched; report the row along with the error.
		h.logger.Error("update incomplete", zap.Error(err))
		h.writeJSON(w, http.StatusBadGateway, map[string]any{"result": res, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handlePropagate(w http.ResponseWriter, r *http.Request) {
	var body PropagateBody
	if !h.decode(w, r, &body) {
		return
	}
	report, err := h.svc.Propagate(r.Context(), app.PropagateRequest{
		Team:  body.Team,
		KRID:  body.KR,
		Value: body.Value,
		Actor: r.Header.Get(ActorHeader),
		Note:  body.Note,
	})
	if err != nil && report == nil {
		h.writeError(w, r, err)
		return
	}
	if err != nil {
		h.logger.Error("propagate incomplete", zap.Error(err))
		h.writeJSON(w, http.StatusBadGateway, map[string]any{"result": report, "error": err.Error()})
		return
	}
	status := http.StatusOK
	if report.Failed > 0 {
		status = http.StatusMultiStatus
	}
	h.writeJSON(w, status, report)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		Team:  q.Get("team"),
		KRID:  q.Get("kr"),
		Actor: q.Get("actor"),
		Limit: 100,
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer", Kind: "bad_request"})
			return
		}
		filter.Limit = n
	}
	entries, err := h.svc.AuditLog(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	h.writeJSON(w, http.StatusOK, AuditResponse{Entries: entries})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error(), Kind: "bad_request"})
		return false
	}
	return true
}

// writeError maps service errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		empty  *okr.EmptyDataError
		format *okr.FormatError
	)
	status, resp := http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: "internal"}
	switch {
	case errors.As(err, &empty):
		status, resp = http.StatusNotFound, ErrorResponse{Error: "no data for this selection", Kind: "empty"}
	case errors.Is(err, app.ErrUnknownTeam), errors.Is(err, sheets.ErrTabNotFound):
		status, resp.Kind = http.StatusNotFound, "unknown_team"
	case errors.Is(err, app.ErrKRNotFound):
		status, resp.Kind = http.StatusNotFound, "kr_not_found"
	case errors.Is(err, app.ErrForbidden):
		status, resp.Kind = http.StatusForbidden, "forbidden"
	case errors.As(err, &format):
		status, resp.Kind = http.StatusUnprocessableEntity, "format"
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	h.writeJSON(w, status, resp)
}

// writeJSON encodes v before the status line goes out, so an unencodable
// value becomes a 500 instead of an empty 200.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		h.logger.Error("encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "response could not be encoded", Kind: "internal"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
