package ports

import (
	"context"
	"io"
	"time"

	"github.com/lorrc/chamados/internal/core/domain"
)

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.User, error)
	CreateUser(ctx context.Context, actor domain.Actor, params domain.UserParams) (*domain.User, error)
	// EnsureUser creates the user when missing and never touches an existing one.
	EnsureUser(ctx context.Context, params domain.UserParams) (user *domain.User, created bool, err error)
}

// AuthorizationService defines the port for checking user permissions.
type AuthorizationService interface {
	Can(ctx context.Context, actor domain.Actor, permission string) (bool, error)
	GetPermissions(ctx context.Context, actor domain.Actor) ([]string, error)
}

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	Actor    domain.Actor
	Regional string
	Store    string
	Leader   string
	Reason   string
}

// CloseTicketParams defines the input for closing a ticket.
type CloseTicketParams struct {
	Actor    domain.Actor
	TicketID int64
}

// ListTicketsParams defines the input for listing tickets.
type ListTicketsParams struct {
	Actor  domain.Actor
	Status domain.StatusFilter
	Range  *domain.DateRange
}

// Filter returns the repository filter for the params.
func (p ListTicketsParams) Filter() domain.TicketFilter {
	status := p.Status
	if status == "" {
		status = domain.FilterAll
	}
	return domain.TicketFilter{Status: status, Range: p.Range}
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	GetTicket(ctx context.Context, actor domain.Actor, ticketID int64) (*domain.Ticket, error)
	CloseTicket(ctx context.Context, params CloseTicketParams) (*domain.Ticket, error)
	ListTickets(ctx context.Context, params ListTicketsParams) ([]*domain.Ticket, error)
	ExportTickets(ctx context.Context, params ListTicketsParams, w io.Writer) (int, error)
	ResetTickets(ctx context.Context, actor domain.Actor, confirm bool) (int64, error)
	Shutdown()
}

// ReportService defines the port for aggregate projections.
type ReportService interface {
	Aggregate(ctx context.Context, params ListTicketsParams, field domain.AggregateField) (map[string]int, error)
	AverageResolution(ctx context.Context, params ListTicketsParams) (map[string]float64, error)
	GetDashboard(ctx context.Context, actor domain.Actor, filter domain.DashboardFilter) (*domain.Dashboard, error)
	GetFacets(ctx context.Context, actor domain.Actor) (domain.Facets, error)
}

// DirectoryService defines the port for the reference directory. Lookups never
// fail; an unavailable feed yields empty results.
type DirectoryService interface {
	RegionsInRange(ctx context.Context, start, end time.Time) []string
	StoresInRange(ctx context.Context, regional string, start, end time.Time) []string
	LeaderFor(ctx context.Context, regional, store string, start, end time.Time) (string, bool)
	Reload(ctx context.Context) error
	Size() int
}
