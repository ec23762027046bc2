package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

// TicketService implements business logic for ticket management
type TicketService struct {
	ticketRepo  ports.TicketRepository
	authzSvc    ports.AuthorizationService
	exporter    ports.TicketExporter
	broadcaster ports.EventBroadcaster
	metrics     ports.MetricsRecorder
	clock       domain.Clock
	logger      *zap.Logger
	wg          sync.WaitGroup
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(
	ticketRepo ports.TicketRepository,
	authzSvc ports.AuthorizationService,
	exporter ports.TicketExporter,
	broadcaster ports.EventBroadcaster,
	metrics ports.MetricsRecorder,
	clock domain.Clock,
	logger *zap.Logger,
) ports.TicketService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &TicketService{
		ticketRepo:  ticketRepo,
		authzSvc:    authzSvc,
		exporter:    exporter,
		broadcaster: broadcaster,
		metrics:     metrics,
		clock:       clock,
		logger:      logger.Named("ticket_service"),
	}
}

// CreateTicket opens a new ticket stamped with the current time.
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	// 1. Authorization Check
	if err := s.authorize(ctx, params.Actor, domain.PermTicketsCreate); err != nil {
		return nil, err
	}

	// 2. Build the entity; values are stored as given
	ticket := domain.NewTicket(domain.TicketParams{
		Regional: params.Regional,
		Store:    params.Store,
		Leader:   params.Leader,
		Reason:   params.Reason,
	}, s.clock())

	// 3. Persist the ticket
	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.metrics.TicketCreated(created.Reason)
	s.broadcast(domain.EventTicketCreated, created)

	return created, nil
}

// GetTicket retrieves a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID int64) (*domain.Ticket, error) {
	if err := s.authorize(ctx, actor, domain.PermTicketsRead); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByID(ctx, ticketID)
}

// CloseTicket finalizes a ticket. Closing an already closed ticket succeeds
// without touching closed_at or duration.
func (s *TicketService) CloseTicket(ctx context.Context, params ports.CloseTicketParams) (*domain.Ticket, error) {
	// 1. Authorization Check
	if err := s.authorize(ctx, params.Actor, domain.PermTicketsClose); err != nil {
		return nil, err
	}

	// 2. Fetch the ticket (NotFound leaves the store untouched)
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	// 3. Apply the transition
	if err := ticket.Close(s.clock(), params.Actor.Username); err != nil {
		if errors.Is(err, apperrors.ErrTicketAlreadyClosed) {
			return ticket, nil
		}
		return nil, err
	}

	// 4. Persist only if still open
	updated, err := s.ticketRepo.MarkClosed(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Another request closed it between the read and the write; report
		// the stored state.
		s.logger.Debug("ticket closed concurrently", zap.Int64("ticket_id", ticket.ID))
		return s.ticketRepo.GetByID(ctx, params.TicketID)
	}

	s.metrics.TicketClosed(ticket.Reason, *ticket.Elapsed)
	s.broadcast(domain.EventTicketClosed, ticket)

	return ticket, nil
}

// ListTickets returns tickets in storage order.
func (s *TicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	if err := s.authorize(ctx, params.Actor, domain.PermTicketsRead); err != nil {
		return nil, err
	}
	return s.ticketRepo.List(ctx, params.Filter())
}

// ExportTickets writes the selected tickets as a spreadsheet and returns how
// many rows were written.
func (s *TicketService) ExportTickets(ctx context.Context, params ports.ListTicketsParams, w io.Writer) (int, error) {
	if err := s.authorize(ctx, params.Actor, domain.PermTicketsExport); err != nil {
		return 0, err
	}

	tickets, err := s.ticketRepo.List(ctx, params.Filter())
	if err != nil {
		return 0, err
	}

	if err := s.exporter.Export(w, tickets); err != nil {
		return 0, err
	}
	return len(tickets), nil
}

// ResetTickets deletes every ticket. confirm must be true.
func (s *TicketService) ResetTickets(ctx context.Context, actor domain.Actor, confirm bool) (int64, error) {
	if err := s.authorize(ctx, actor, domain.PermAdminReset); err != nil {
		return 0, err
	}
	if !confirm {
		return 0, apperrors.ErrConfirmationRequired
	}

	deleted, err := s.ticketRepo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Warn("all tickets deleted",
		zap.Int64("deleted", deleted),
		zap.String("actor", actor.Username),
	)
	s.metrics.TicketsReset(deleted)
	s.broadcastEvent(domain.Event{Type: domain.EventTicketsReset, Payload: map[string]int64{"deleted": deleted}})

	return deleted, nil
}

func (s *TicketService) authorize(ctx context.Context, actor domain.Actor, permission string) error {
	allowed, err := s.authzSvc.Can(ctx, actor, permission)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

// broadcast sends a ticket event without blocking the caller.
func (s *TicketService) broadcast(eventType domain.EventType, ticket *domain.Ticket) {
	s.broadcastEvent(domain.Event{
		Type:     eventType,
		Payload:  domain.NewTicketSnapshot(ticket),
		TicketID: ticket.ID,
	})
}

func (s *TicketService) broadcastEvent(event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.broadcaster.Broadcast(event); err != nil {
			s.logger.Warn("failed to broadcast event",
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		}
	}()
}

// Shutdown waits for in-flight broadcasts.
func (s *TicketService) Shutdown() {
	s.wg.Wait()
}
