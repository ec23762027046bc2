package domain

import "time"

// TimestampLayout renders naive timestamps without a zone designator.
const TimestampLayout = "2006-01-02T15:04:05"

// TicketSnapshot matches the API response shape for tickets.
type TicketSnapshot struct {
	ID              int64   `json:"id"`
	Regional        string  `json:"regional"`
	Store           string  `json:"store"`
	Leader          string  `json:"leader"`
	Reason          string  `json:"reason"`
	OpenedAt        string  `json:"openedAt"`
	ClosedAt        *string `json:"closedAt"`
	Duration        *string `json:"duration"`
	DurationSeconds *int64  `json:"durationSeconds"`
	Status          string  `json:"status"`
	ClosedBy        *string `json:"closedBy"`
}

// NewTicketSnapshot builds a ticket snapshot from a domain ticket.
func NewTicketSnapshot(ticket *Ticket) TicketSnapshot {
	var closedAt *string
	if ticket.ClosedAt != nil {
		value := ticket.ClosedAt.Format(TimestampLayout)
		closedAt = &value
	}

	var duration *string
	var seconds *int64
	if ticket.Elapsed != nil {
		value := FormatDuration(*ticket.Elapsed)
		duration = &value
		secs := int64(*ticket.Elapsed / time.Second)
		seconds = &secs
	}

	return TicketSnapshot{
		ID:              ticket.ID,
		Regional:        ticket.Regional,
		Store:           ticket.Store,
		Leader:          ticket.Leader,
		Reason:          ticket.Reason,
		OpenedAt:        ticket.OpenedAt.Format(TimestampLayout),
		ClosedAt:        closedAt,
		Duration:        duration,
		DurationSeconds: seconds,
		Status:          string(ticket.Status),
		ClosedBy:        ticket.ClosedBy,
	}
}

// NewTicketSnapshots maps a slice of tickets.
func NewTicketSnapshots(tickets []*Ticket) []TicketSnapshot {
	out := make([]TicketSnapshot, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, NewTicketSnapshot(t))
	}
	return out
}
