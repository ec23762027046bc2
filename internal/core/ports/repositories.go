package ports

import (
	"context"
	"io"
	"time"

	"github.com/lorrc/chamados/internal/core/domain"
)

// TicketRepository defines the persistence port for tickets.
// Backend failures are reported as *errors.StorageError.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// List returns matching tickets in storage (id) order.
	List(ctx context.Context, filter domain.TicketFilter) ([]*domain.Ticket, error)
	// MarkClosed persists the closing fields of ticket only if the stored row
	// is still open. It reports false when another writer closed it first.
	MarkClosed(ctx context.Context, ticket *domain.Ticket) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// UserRepository defines the persistence port for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// TokenRevocationStore remembers access tokens invalidated by logout.
type TokenRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// DirectoryFeed reads the reference directory source.
type DirectoryFeed interface {
	Load(ctx context.Context) ([]domain.DirectoryEntry, error)
}

// TicketExporter writes a ticket listing as a spreadsheet.
type TicketExporter interface {
	Export(w io.Writer, tickets []*domain.Ticket) error
}

// EventBroadcaster defines the port for sending real-time events.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// MetricsRecorder receives lifecycle measurements.
type MetricsRecorder interface {
	TicketCreated(reason string)
	TicketClosed(reason string, elapsed time.Duration)
	TicketsReset(count int64)
	DirectoryReloaded(success bool, entries int)
}
