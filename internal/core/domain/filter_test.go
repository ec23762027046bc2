package domain_test

import (
	"testing"
	"time"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.StatusFilter
		wantErr bool
	}{
		{"", domain.FilterAll, false},
		{"Todos", domain.FilterAll, false},
		{"open", domain.FilterOpen, false},
		{"Chamados Abertos", domain.FilterOpen, false},
		{"CLOSED", domain.FilterClosed, false},
		{"Chamados Finalizados", domain.FilterClosed, false},
		{"pending", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseStatusFilter(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidStatusFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateRange(t *testing.T) {
	r, err := domain.NewDateRange(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC), day(2024, 3, 3))
	require.NoError(t, err)

	assert.Equal(t, day(2024, 3, 1), r.Start)
	assert.True(t, r.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2024, 3, 3, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))

	from, to := r.Bounds()
	assert.Equal(t, day(2024, 3, 1), from)
	assert.Equal(t, day(2024, 3, 4), to)

	_, err = domain.NewDateRange(day(2024, 3, 5), day(2024, 3, 1))
	assert.ErrorIs(t, err, apperrors.ErrInvalidDateRange)
}

func TestTicketFilter_Matches(t *testing.T) {
	open := domain.NewTicket(domain.TicketParams{}, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC))
	closed := domain.NewTicket(domain.TicketParams{}, time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))
	require.NoError(t, closed.Close(closed.OpenedAt.Add(time.Hour), ""))

	r, err := domain.NewDateRange(day(2024, 3, 1), day(2024, 3, 2))
	require.NoError(t, err)

	assert.True(t, domain.TicketFilter{Status: domain.FilterAll}.Matches(open))
	assert.True(t, domain.TicketFilter{Status: domain.FilterAll}.Matches(closed))
	assert.True(t, domain.TicketFilter{Status: domain.FilterOpen}.Matches(open))
	assert.False(t, domain.TicketFilter{Status: domain.FilterOpen}.Matches(closed))
	assert.True(t, domain.TicketFilter{Status: domain.FilterClosed}.Matches(closed))
	assert.True(t, domain.TicketFilter{Range: &r}.Matches(open))
	assert.False(t, domain.TicketFilter{Range: &r}.Matches(closed))
}
