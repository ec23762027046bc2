package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

var ticketColumns = []string{
	"id", "regional", "loja", "lider", "motivo",
	"abertura", "fechamento", "duracao", "duracao_segundos", "status", "finalizado_por",
}

type ticketRow struct {
	ID       int64          `db:"id"`
	Regional string         `db:"regional"`
	Store    string         `db:"loja"`
	Leader   string         `db:"lider"`
	Reason   string         `db:"motivo"`
	OpenedAt string         `db:"abertura"`
	ClosedAt sql.NullString `db:"fechamento"`
	Duration sql.NullString `db:"duracao"`
	Seconds  sql.NullInt64  `db:"duracao_segundos"`
	Status   string         `db:"status"`
	ClosedBy sql.NullString `db:"finalizado_por"`
}

func (r ticketRow) toDomain() (*domain.Ticket, error) {
	openedAt, err := parseTime(r.OpenedAt)
	if err != nil {
		return nil, fmt.Errorf("ticket %d: abertura: %w", r.ID, err)
	}

	ticket := &domain.Ticket{
		ID:       r.ID,
		Regional: r.Regional,
		Store:    r.Store,
		Leader:   r.Leader,
		Reason:   r.Reason,
		OpenedAt: openedAt,
		Status:   domain.TicketStatus(r.Status),
	}

	if r.ClosedAt.Valid {
		closedAt, err := parseTime(r.ClosedAt.String)
		if err != nil {
			return nil, fmt.Errorf("ticket %d: fechamento: %w", r.ID, err)
		}
		ticket.ClosedAt = &closedAt
	}

	// Rows written by older tooling only carry the text duration.
	switch {
	case r.Seconds.Valid:
		elapsed := time.Duration(r.Seconds.Int64) * time.Second
		ticket.Elapsed = &elapsed
	case r.Duration.Valid && r.Duration.String != "":
		elapsed, err := domain.ParseDuration(r.Duration.String)
		if err != nil {
			return nil, fmt.Errorf("ticket %d: duracao: %w", r.ID, err)
		}
		ticket.Elapsed = &elapsed
	}

	if r.ClosedBy.Valid {
		by := r.ClosedBy.String
		ticket.ClosedBy = &by
	}
	return ticket, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullSeconds(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d / time.Second), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDuration(t *domain.Ticket) sql.NullString {
	if t.Elapsed == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Duration(), Valid: true}
}

// TicketRepository persists tickets in SQLite.
type TicketRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a ticket repository over an open database.
func NewTicketRepository(db *sqlx.DB) ports.TicketRepository {
	return &TicketRepository{db: db, sb: builder()}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	query, args, err := r.sb.Insert("chamados").
		Columns("regional", "loja", "lider", "motivo", "abertura", "fechamento", "duracao", "duracao_segundos", "status", "finalizado_por").
		Values(
			ticket.Regional,
			ticket.Store,
			ticket.Leader,
			ticket.Reason,
			formatTime(ticket.OpenedAt),
			nullTime(ticket.ClosedAt),
			nullDuration(ticket),
			nullSeconds(ticket.Elapsed),
			string(ticket.Status),
			nullString(ticket.ClosedBy),
		).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("create ticket", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("create ticket", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperrors.NewStorageError("create ticket", err)
	}

	return r.GetByID(ctx, id)
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query, args, err := r.sb.Select(ticketColumns...).From("chamados").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("get ticket", err)
	}

	var row ticketRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, apperrors.NewStorageError("get ticket", err)
	}

	ticket, err := row.toDomain()
	if err != nil {
		return nil, apperrors.NewStorageError("get ticket", err)
	}
	return ticket, nil
}

func (r *TicketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]*domain.Ticket, error) {
	b := r.sb.Select(ticketColumns...).From("chamados").OrderBy("id ASC")

	if status, ok := filter.Status.Status(); ok {
		b = b.Where(sq.Eq{"status": string(status)})
	}
	if filter.Range != nil {
		from, to := filter.Range.Bounds()
		b = b.Where(sq.GtOrEq{"abertura": formatTime(from)}).Where(sq.Lt{"abertura": formatTime(to)})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("list tickets", err)
	}

	var rows []ticketRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewStorageError("list tickets", err)
	}

	tickets := make([]*domain.Ticket, 0, len(rows))
	for _, row := range rows {
		ticket, err := row.toDomain()
		if err != nil {
			return nil, apperrors.NewStorageError("list tickets", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func (r *TicketRepository) MarkClosed(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	query, args, err := r.sb.Update("chamados").
		Set("fechamento", nullTime(ticket.ClosedAt)).
		Set("duracao", nullDuration(ticket)).
		Set("duracao_segundos", nullSeconds(ticket.Elapsed)).
		Set("status", string(domain.StatusClosed)).
		Set("finalizado_por", nullString(ticket.ClosedBy)).
		Where(sq.Eq{"id": ticket.ID, "status": string(domain.StatusOpen)}).
		ToSql()
	if err != nil {
		return false, apperrors.NewStorageError("close ticket", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewStorageError("close ticket", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewStorageError("close ticket", err)
	}
	return n == 1, nil
}

func (r *TicketRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chamados")
	if err != nil {
		return 0, apperrors.NewStorageError("delete tickets", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewStorageError("delete tickets", err)
	}
	return n, nil
}
