package services

import (
	"context"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

// ReportService computes aggregate projections over the ticket store.
type ReportService struct {
	ticketRepo ports.TicketRepository
	authzSvc   ports.AuthorizationService
}

var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates a new report service.
func NewReportService(ticketRepo ports.TicketRepository, authzSvc ports.AuthorizationService) ports.ReportService {
	return &ReportService{
		ticketRepo: ticketRepo,
		authzSvc:   authzSvc,
	}
}

// Aggregate counts tickets selected by params grouped by field.
func (s *ReportService) Aggregate(ctx context.Context, params ports.ListTicketsParams, field domain.AggregateField) (map[string]int, error) {
	if err := s.authorize(ctx, params.Actor, domain.PermDashboardRead); err != nil {
		return nil, err
	}

	tickets, err := s.ticketRepo.List(ctx, params.Filter())
	if err != nil {
		return nil, err
	}
	return domain.AggregateBy(field, tickets), nil
}

// AverageResolution returns the mean resolution time in minutes per reason
// for the closed tickets selected by params.
func (s *ReportService) AverageResolution(ctx context.Context, params ports.ListTicketsParams) (map[string]float64, error) {
	if err := s.authorize(ctx, params.Actor, domain.PermDashboardRead); err != nil {
		return nil, err
	}

	tickets, err := s.ticketRepo.List(ctx, params.Filter())
	if err != nil {
		return nil, err
	}
	return domain.AverageResolutionTime(tickets), nil
}

// GetDashboard builds the dashboard projection. Actors without the full view
// permission get the simplified dashboard (status and reason only).
func (s *ReportService) GetDashboard(ctx context.Context, actor domain.Actor, filter domain.DashboardFilter) (*domain.Dashboard, error) {
	// 1. Authorization Check
	if err := s.authorize(ctx, actor, domain.PermDashboardRead); err != nil {
		return nil, err
	}
	full, err := s.authzSvc.Can(ctx, actor, domain.PermDashboardAll)
	if err != nil {
		return nil, err
	}

	// 2. Load the whole store
	tickets, err := s.ticketRepo.List(ctx, domain.TicketFilter{Status: domain.FilterAll})
	if err != nil {
		return nil, err
	}

	// 3. Project
	dashboard := domain.BuildDashboard(tickets, filter)
	if !full {
		dashboard.ByRegional = nil
		dashboard.AvgResolution = nil
	}
	return dashboard, nil
}

// GetFacets lists the values available to the dashboard filters.
func (s *ReportService) GetFacets(ctx context.Context, actor domain.Actor) (domain.Facets, error) {
	if err := s.authorize(ctx, actor, domain.PermDashboardRead); err != nil {
		return domain.Facets{}, err
	}

	tickets, err := s.ticketRepo.List(ctx, domain.TicketFilter{Status: domain.FilterAll})
	if err != nil {
		return domain.Facets{}, err
	}
	return domain.BuildFacets(tickets), nil
}

func (s *ReportService) authorize(ctx context.Context, actor domain.Actor, permission string) error {
	allowed, err := s.authzSvc.Can(ctx, actor, permission)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}
