package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lorrc/chamados/internal/adapters/primary/validation"
	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/internal/infrastructure/logging"
)

// AdminHandler handles administrative endpoints
type AdminHandler struct {
	ticketService ports.TicketService
	authService   ports.AuthService
	errorHandler  *ErrorHandler
	logger        *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	ticketService ports.TicketService,
	authService ports.AuthService,
	errorHandler *ErrorHandler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		ticketService: ticketService,
		authService:   authService,
		errorHandler:  errorHandler,
		logger:        logger.Named("admin_handler"),
	}
}

// RegisterRoutes sets up the routing for admin endpoints.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/reset", h.HandleReset)
	r.Post("/users", h.HandleCreateUser)
}

// ResetRequest must carry confirm=true
type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

// ResetResponse reports how many tickets were removed
type ResetResponse struct {
	Deleted int64 `json:"deleted"`
}

// CreateUserRequest defines the expected JSON body for creating a user
type CreateUserRequest struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin usuario"`
}

// UserDTO is the public view of a user
type UserDTO struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// HandleReset handles POST /admin/reset
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[ResetRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	deleted, err := h.ticketService.ResetTickets(r.Context(), actor, req.Confirm)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	logging.FromContext(r.Context(), h.logger).Warn("ticket store reset", zap.Int64("deleted", deleted))
	WriteJSON(w, http.StatusOK, ResetResponse{Deleted: deleted})
}

// HandleCreateUser handles POST /admin/users
func (h *AdminHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CreateUserRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.authService.CreateUser(r.Context(), actor, domain.UserParams{
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	})
}
