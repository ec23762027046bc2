package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/lorrc/chamados/internal/core/errors"
)

// TicketStatus represents the possible states of a ticket.
// The values are the ones persisted in the status column.
type TicketStatus string

const (
	StatusOpen   TicketStatus = "Aberto"
	StatusClosed TicketStatus = "Finalizado"
)

// IsValid reports whether s is a known status.
func (s TicketStatus) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// TicketParams holds the user-supplied metadata of a new ticket.
type TicketParams struct {
	Regional string
	Store    string
	Leader   string
	Reason   string
}

// Ticket is the core domain entity.
//
// ClosedAt and Elapsed are either both nil (open ticket) or both set (closed ticket).
type Ticket struct {
	ID       int64
	Regional string
	Store    string
	Leader   string
	Reason   string
	OpenedAt time.Time
	ClosedAt *time.Time
	Elapsed  *time.Duration
	Status   TicketStatus
	ClosedBy *string
}

// NewTicket builds an open ticket stamped with openedAt. Field values are kept
// verbatim; input validation belongs to the caller.
func NewTicket(params TicketParams, openedAt time.Time) *Ticket {
	return &Ticket{
		Regional: params.Regional,
		Store:    params.Store,
		Leader:   params.Leader,
		Reason:   params.Reason,
		OpenedAt: openedAt,
		Status:   StatusOpen,
	}
}

// IsClosed reports whether the ticket reached its terminal state.
func (t *Ticket) IsClosed() bool {
	return t.Status == StatusClosed
}

// Close moves an open ticket to Closed at closedAt. The elapsed time is
// truncated to whole seconds and never recomputed afterwards.
func (t *Ticket) Close(closedAt time.Time, closedBy string) error {
	if t.IsClosed() {
		return apperrors.ErrTicketAlreadyClosed
	}

	if closedAt.Before(t.OpenedAt) {
		closedAt = t.OpenedAt
	}

	elapsed := closedAt.Sub(t.OpenedAt).Truncate(time.Second)
	t.ClosedAt = &closedAt
	t.Elapsed = &elapsed
	t.Status = StatusClosed

	if by := strings.TrimSpace(closedBy); by != "" {
		t.ClosedBy = &by
	}

	return nil
}

// Duration returns the H:MM:SS rendering of the elapsed time, or "" while open.
func (t *Ticket) Duration() string {
	if t.Elapsed == nil {
		return ""
	}
	return FormatDuration(*t.Elapsed)
}

// ResolutionMinutes returns the minutes between opening and closing.
// ok is false for open tickets.
func (t *Ticket) ResolutionMinutes() (minutes float64, ok bool) {
	if t.ClosedAt == nil {
		return 0, false
	}
	return t.ClosedAt.Sub(t.OpenedAt).Minutes(), true
}

// FormatDuration renders d as H:MM:SS. Hours are not folded into days.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

// ParseDuration reads a duration written by FormatDuration. It also accepts the
// "N day(s), H:MM:SS" form found in records written by older tooling.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var days int64
	if idx := strings.Index(s, ","); idx >= 0 {
		dayPart := strings.Fields(s[:idx])
		if len(dayPart) != 2 || !strings.HasPrefix(dayPart[1], "day") {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		n, err := strconv.ParseInt(dayPart[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		days = n
		s = strings.TrimSpace(s[idx+1:])
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	values := make([]int64, 3)
	for i, p := range parts {
		// Fractional seconds are dropped.
		if i == 2 {
			p, _, _ = strings.Cut(p, ".")
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		values[i] = n
	}
	if values[1] > 59 || values[2] > 59 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	total := days*86400 + values[0]*3600 + values[1]*60 + values[2]
	return time.Duration(total) * time.Second, nil
}
