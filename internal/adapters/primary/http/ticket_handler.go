package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lorrc/chamados/internal/adapters/primary/validation"
	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/internal/infrastructure/logging"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFileStamp = "20060102_150405"
)

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService ports.TicketService
	clock         domain.Clock
	errorHandler  *ErrorHandler
	logger        *zap.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	clock domain.Clock,
	errorHandler *ErrorHandler,
	logger *zap.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		clock:         clock,
		errorHandler:  errorHandler,
		logger:        logger.Named("ticket_handler"),
	}
}

// Router sets up a new chi Router for all ticket-related routes.
func (h *TicketHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)
	r.Get("/reasons", h.HandleListReasons)
	r.Get("/export", h.HandleExportTickets)

	// Routes for a specific ticket
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Post("/close", h.HandleCloseTicket)
	})
}

// --- Request DTOs ---

// CreateTicketRequest defines the expected JSON body for opening a ticket
type CreateTicketRequest struct {
	Regional    string `json:"regional" validate:"notblank,notplaceholder,max=255"`
	Store       string `json:"store" validate:"notblank,notplaceholder,max=255"`
	Leader      string `json:"leader" validate:"notblank,max=255"`
	Reason      string `json:"reason" validate:"notblank,notplaceholder,max=255"`
	OtherReason string `json:"otherReason" validate:"max=255"`
}

// Check requires the free-text reason when "Outro" is selected.
func (r *CreateTicketRequest) Check(errs *apperrors.ValidationErrors) {
	if strings.TrimSpace(r.Reason) == domain.ReasonOther && strings.TrimSpace(r.OtherReason) == "" {
		errs.Add("otherReason", "Describe the reason when "+domain.ReasonOther+" is selected")
	}
}

// --- Handlers ---

// HandleListReasons handles GET /tickets/reasons
func (h *TicketHandler) HandleListReasons(w http.ResponseWriter, r *http.Request) {
	WriteList(w, domain.PredefinedReasons())
}

// HandleListTickets handles GET /tickets?status=&from=&to=
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	tickets, err := h.ticketService.ListTickets(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, domain.NewTicketSnapshots(tickets))
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), ports.CreateTicketParams{
		Actor:    actor,
		Regional: strings.TrimSpace(req.Regional),
		Store:    strings.TrimSpace(req.Store),
		Leader:   strings.TrimSpace(req.Leader),
		Reason:   domain.ResolveReason(req.Reason, req.OtherReason),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	logging.FromContext(r.Context(), h.logger).Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("regional", ticket.Regional),
		zap.String("store", ticket.Store),
	)

	WriteCreated(w, domain.NewTicketSnapshot(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticketID, err := validation.ParseID(chi.URLParam(r, "ticketID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.GetTicket(r.Context(), actor, ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// HandleCloseTicket handles POST /tickets/{ticketID}/close
func (h *TicketHandler) HandleCloseTicket(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticketID, err := validation.ParseID(chi.URLParam(r, "ticketID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.CloseTicket(r.Context(), ports.CloseTicketParams{
		Actor:    actor,
		TicketID: ticketID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// HandleExportTickets handles GET /tickets/export?status=&from=&to=
func (h *TicketHandler) HandleExportTickets(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Buffered so a failed export still gets a JSON error
	var buf bytes.Buffer
	count, err := h.ticketService.ExportTickets(r.Context(), params, &buf)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	filename := fmt.Sprintf("chamados_%s.xlsx", h.clock().Format(exportFileStamp))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Total-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context(), h.logger).Warn("export write failed", zap.Error(err))
	}
}

// listParams reads the caller and the status/date filters shared by listing,
// export and the report endpoints.
func listParams(r *http.Request) (ports.ListTicketsParams, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return ports.ListTicketsParams{}, err
	}

	status, err := validation.ParseStatusFilter(r)
	if err != nil {
		return ports.ListTicketsParams{}, err
	}

	rng, err := validation.ParseDateRange(r)
	if err != nil {
		return ports.ListTicketsParams{}, err
	}

	return ports.ListTicketsParams{Actor: actor, Status: status, Range: rng}, nil
}
