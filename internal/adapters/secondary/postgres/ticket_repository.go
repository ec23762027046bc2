package postgres

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/internal/core/utils"
)

const ticketsTable = "chamados"

var ticketColumns = []string{
	"id", "regional", "loja", "lider", "motivo",
	"abertura", "fechamento", "duracao_segundos", "status", "finalizado_por",
}

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) ports.TicketRepository {
	return &TicketRepository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// scanTicket converts a database row to a core domain model.
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		status   string
		closedAt pgtype.Timestamp
		seconds  pgtype.Int8
		closedBy pgtype.Text
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.Regional,
		&ticket.Store,
		&ticket.Leader,
		&ticket.Reason,
		&ticket.OpenedAt,
		&closedAt,
		&seconds,
		&status,
		&closedBy,
	)
	if err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatus(status)
	ticket.ClosedAt = utils.FromTimestamp(closedAt)
	ticket.Elapsed = utils.FromSeconds(seconds)
	ticket.ClosedBy = utils.FromNullString(closedBy)
	return &ticket, nil
}

// Create persists a new ticket entity.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	query, args, err := r.sb.Insert(ticketsTable).
		Columns("regional", "loja", "lider", "motivo", "abertura", "fechamento", "duracao", "duracao_segundos", "status", "finalizado_por").
		Values(
			ticket.Regional,
			ticket.Store,
			ticket.Leader,
			ticket.Reason,
			ticket.OpenedAt,
			utils.ToTimestamp(ticket.ClosedAt),
			utils.ToText(ticket.Duration()),
			utils.ToSeconds(ticket.Elapsed),
			string(ticket.Status),
			utils.ToNullString(ticket.ClosedBy),
		).
		Suffix("RETURNING " + strings.Join(ticketColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("create ticket", err)
	}

	created, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, apperrors.NewStorageError("create ticket", err)
	}
	return created, nil
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query, args, err := r.sb.Select(ticketColumns...).
		From(ticketsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("get ticket", err)
	}

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, apperrors.NewStorageError("get ticket", err)
	}
	return ticket, nil
}

// List retrieves the tickets matching filter ordered by id.
func (r *TicketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]*domain.Ticket, error) {
	builder := r.sb.Select(ticketColumns...).
		From(ticketsTable).
		OrderBy("id ASC")

	if status, ok := filter.Status.Status(); ok {
		builder = builder.Where(sq.Eq{"status": string(status)})
	}
	if filter.Range != nil {
		from, to := filter.Range.Bounds()
		builder = builder.Where(sq.GtOrEq{"abertura": from}).Where(sq.Lt{"abertura": to})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("list tickets", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("list tickets", err)
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("list tickets", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list tickets", err)
	}

	return tickets, nil
}

// MarkClosed writes the closing fields only while the stored row is open.
func (r *TicketRepository) MarkClosed(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	query, args, err := r.sb.Update(ticketsTable).
		Set("fechamento", utils.ToTimestamp(ticket.ClosedAt)).
		Set("duracao", utils.ToText(ticket.Duration())).
		Set("duracao_segundos", utils.ToSeconds(ticket.Elapsed)).
		Set("status", string(domain.StatusClosed)).
		Set("finalizado_por", utils.ToNullString(ticket.ClosedBy)).
		Where(sq.Eq{"id": ticket.ID, "status": string(domain.StatusOpen)}).
		ToSql()
	if err != nil {
		return false, apperrors.NewStorageError("close ticket", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewStorageError("close ticket", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteAll removes every ticket. The id sequence is not reset.
func (r *TicketRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM "+ticketsTable)
	if err != nil {
		return 0, apperrors.NewStorageError("delete tickets", err)
	}
	return tag.RowsAffected(), nil
}
