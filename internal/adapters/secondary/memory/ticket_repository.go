// Package memory keeps tickets, users and revoked tokens in process memory.
// It backs tests and single-process development runs.
package memory

import (
	"context"
	"sync"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

// TicketRepository is an in-memory ticket store. Returned tickets are copies.
type TicketRepository struct {
	mu      sync.RWMutex
	nextID  int64
	tickets []*domain.Ticket
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{nextID: 1}
}

func (r *TicketRepository) Create(_ context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneTicket(ticket)
	stored.ID = r.nextID
	r.nextID++
	r.tickets = append(r.tickets, stored)
	return cloneTicket(stored), nil
}

func (r *TicketRepository) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t := r.find(id); t != nil {
		return cloneTicket(t), nil
	}
	return nil, apperrors.ErrTicketNotFound
}

func (r *TicketRepository) List(_ context.Context, filter domain.TicketFilter) ([]*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if filter.Matches(t) {
			out = append(out, cloneTicket(t))
		}
	}
	return out, nil
}

func (r *TicketRepository) MarkClosed(_ context.Context, ticket *domain.Ticket) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.find(ticket.ID)
	if stored == nil || stored.IsClosed() {
		return false, nil
	}

	closed := cloneTicket(ticket)
	stored.ClosedAt = closed.ClosedAt
	stored.Elapsed = closed.Elapsed
	stored.ClosedBy = closed.ClosedBy
	stored.Status = domain.StatusClosed
	return true, nil
}

func (r *TicketRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.tickets))
	r.tickets = nil
	return n, nil
}

// find expects the lock to be held. Tickets are kept in id order.
func (r *TicketRepository) find(id int64) *domain.Ticket {
	for _, t := range r.tickets {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	if t.ClosedAt != nil {
		v := *t.ClosedAt
		c.ClosedAt = &v
	}
	if t.Elapsed != nil {
		v := *t.Elapsed
		c.Elapsed = &v
	}
	if t.ClosedBy != nil {
		v := *t.ClosedBy
		c.ClosedBy = &v
	}
	return &c
}
