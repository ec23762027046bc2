package domain

import (
	"strings"
	"time"

	apperrors "github.com/lorrc/chamados/internal/core/errors"
)

// StatusFilter selects tickets by lifecycle state.
type StatusFilter string

const (
	FilterAll    StatusFilter = "all"
	FilterOpen   StatusFilter = "open"
	FilterClosed StatusFilter = "closed"
)

// ParseStatusFilter accepts the API values as well as the labels used by the
// intake screens ("Todos", "Chamados Abertos", "Chamados Finalizados").
// An empty string means FilterAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return FilterAll, nil
	case "open", "aberto", "abertos", "chamados abertos":
		return FilterOpen, nil
	case "closed", "finalizado", "finalizados", "chamados finalizados":
		return FilterClosed, nil
	}
	return "", apperrors.ErrInvalidStatusFilter
}

// Status returns the ticket status the filter pins, if any.
func (f StatusFilter) Status() (TicketStatus, bool) {
	switch f {
	case FilterOpen:
		return StatusOpen, true
	case FilterClosed:
		return StatusClosed, true
	}
	return "", false
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both ends to their calendar date.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: DateOf(start), End: DateOf(end)}
	if r.Start.After(r.End) {
		return DateRange{}, apperrors.ErrInvalidDateRange
	}
	return r, nil
}

// Contains reports whether the date portion of t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Bounds returns the half-open instant interval [from, to) covering the range,
// suitable for comparisons against stored timestamps.
func (r DateRange) Bounds() (from, to time.Time) {
	return r.Start, r.End.AddDate(0, 0, 1)
}

// TicketFilter combines the list criteria.
type TicketFilter struct {
	Status StatusFilter
	Range  *DateRange
}

// Matches reports whether t satisfies the filter.
func (f TicketFilter) Matches(t *Ticket) bool {
	if status, ok := f.Status.Status(); ok && t.Status != status {
		return false
	}
	if f.Range != nil && !f.Range.Contains(t.OpenedAt) {
		return false
	}
	return true
}
