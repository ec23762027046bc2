package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/mocks"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reportTickets(t *testing.T) []*domain.Ticket {
	t.Helper()
	printerA := openTicket(1)
	require.NoError(t, printerA.Close(openedAt.Add(10*time.Minute), "admin"))
	printerB := openTicket(2)
	require.NoError(t, printerB.Close(openedAt.Add(20*time.Minute), "admin"))
	laptop := domain.NewTicket(domain.TicketParams{Regional: "REGIONAL NORTE", Reason: "Notebook não liga"}, openedAt)
	laptop.ID = 3
	return []*domain.Ticket{printerA, printerB, laptop}
}

func TestReportService_Aggregate(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTicketRepository()
	svc := services.NewReportService(repo, services.NewAuthorizationService())

	repo.On("List", ctx, domain.TicketFilter{Status: domain.FilterAll}).Return(reportTickets(t), nil)

	counts, err := svc.Aggregate(ctx, ports.ListTicketsParams{Actor: operator}, domain.FieldRegional)

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"REGIONAL SUL": 2, "REGIONAL NORTE": 1}, counts)
}

func TestReportService_AverageResolution(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTicketRepository()
	svc := services.NewReportService(repo, services.NewAuthorizationService())

	repo.On("List", ctx, domain.TicketFilter{Status: domain.FilterClosed}).Return(reportTickets(t)[:2], nil)

	avg, err := svc.AverageResolution(ctx, ports.ListTicketsParams{Actor: operator, Status: domain.FilterClosed})

	require.NoError(t, err)
	require.Len(t, avg, 1)
	assert.InDelta(t, 15.0, avg["Falha Impressão"], 1e-9)
}

func TestReportService_GetDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("admin gets full view", func(t *testing.T) {
		repo := mocks.NewMockTicketRepository()
		svc := services.NewReportService(repo, services.NewAuthorizationService())
		repo.On("List", ctx, domain.TicketFilter{Status: domain.FilterAll}).Return(reportTickets(t), nil)

		d, err := svc.GetDashboard(ctx, adminUser, domain.DashboardFilter{})

		require.NoError(t, err)
		assert.Equal(t, 3, d.Total)
		assert.NotEmpty(t, d.ByRegional)
		assert.NotEmpty(t, d.AvgResolution)
	})

	t.Run("operator gets simplified view", func(t *testing.T) {
		repo := mocks.NewMockTicketRepository()
		svc := services.NewReportService(repo, services.NewAuthorizationService())
		repo.On("List", ctx, domain.TicketFilter{Status: domain.FilterAll}).Return(reportTickets(t), nil)

		d, err := svc.GetDashboard(ctx, operator, domain.DashboardFilter{Statuses: []string{"Aberto"}})

		require.NoError(t, err)
		assert.Equal(t, 1, d.Total)
		assert.NotEmpty(t, d.ByStatus)
		assert.Empty(t, d.ByRegional)
		assert.Empty(t, d.AvgResolution)
	})

	t.Run("forbidden without dashboard permission", func(t *testing.T) {
		repo := mocks.NewMockTicketRepository()
		authz := mocks.NewMockAuthorizationService()
		svc := services.NewReportService(repo, authz)
		authz.On("Can", ctx, operator, domain.PermDashboardRead).Return(false, nil)

		_, err := svc.GetDashboard(ctx, operator, domain.DashboardFilter{})

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestReportService_GetFacets(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTicketRepository()
	svc := services.NewReportService(repo, services.NewAuthorizationService())
	repo.On("List", ctx, domain.TicketFilter{Status: domain.FilterAll}).Return(reportTickets(t), nil)

	f, err := svc.GetFacets(ctx, operator)

	require.NoError(t, err)
	assert.Equal(t, []string{"REGIONAL SUL", "REGIONAL NORTE"}, f.Regionals)
	assert.Equal(t, []string{"Finalizado", "Aberto"}, f.Statuses)
}
