package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/chamados/internal/adapters/primary/validation"
	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

// DirectoryHandler serves the cascading intake choices: regional, store and
// the leader of a store.
type DirectoryHandler struct {
	directory    ports.DirectoryService
	authzSvc     ports.AuthorizationService
	clock        domain.Clock
	errorHandler *ErrorHandler
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(
	directory ports.DirectoryService,
	authzSvc ports.AuthorizationService,
	clock domain.Clock,
	errorHandler *ErrorHandler,
) *DirectoryHandler {
	return &DirectoryHandler{
		directory:    directory,
		authzSvc:     authzSvc,
		clock:        clock,
		errorHandler: errorHandler,
	}
}

// RegisterRoutes sets up the routing for the directory endpoints.
func (h *DirectoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/regionals", h.HandleRegionals)
	r.Get("/stores", h.HandleStores)
	r.Get("/leader", h.HandleLeader)
}

// LeaderResponse is the leader lookup result. Found is false when no row
// matches; Leader is then empty.
type LeaderResponse struct {
	Leader string `json:"leader"`
	Found  bool   `json:"found"`
}

// HandleRegionals handles GET /directory/regionals
func (h *DirectoryHandler) HandleRegionals(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.window(w, r)
	if !ok {
		return
	}
	WriteList(w, h.directory.RegionsInRange(r.Context(), start, end))
}

// HandleStores handles GET /directory/stores?regional=
func (h *DirectoryHandler) HandleStores(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.window(w, r)
	if !ok {
		return
	}
	regional := r.URL.Query().Get("regional")
	WriteList(w, h.directory.StoresInRange(r.Context(), regional, start, end))
}

// HandleLeader handles GET /directory/leader?regional=&store=
func (h *DirectoryHandler) HandleLeader(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.window(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	leader, found := h.directory.LeaderFor(r.Context(), q.Get("regional"), q.Get("store"), start, end)
	WriteJSON(w, http.StatusOK, LeaderResponse{Leader: strings.TrimSpace(leader), Found: found})
}

// window authorizes the caller and reads the date window of the request.
func (h *DirectoryHandler) window(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	if err := h.authorize(r); err != nil {
		h.errorHandler.Handle(w, r, err)
		return start, end, false
	}

	start, end, err := validation.ParseDateWindow(r, h.clock())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return start, end, false
	}
	return start, end, true
}

func (h *DirectoryHandler) authorize(r *http.Request) error {
	actor, err := actorFromRequest(r)
	if err != nil {
		return err
	}
	allowed, err := h.authzSvc.Can(r.Context(), actor, domain.PermDirectoryRead)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}
