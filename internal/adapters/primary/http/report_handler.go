package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/chamados/internal/adapters/primary/validation"
	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

// ReportHandler serves aggregate projections of the ticket store
type ReportHandler struct {
	reportService ports.ReportService
	errorHandler  *ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService ports.ReportService, errorHandler *ErrorHandler) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		errorHandler:  errorHandler,
	}
}

// RegisterReportRoutes mounts the raw aggregates under /reports.
func (h *ReportHandler) RegisterReportRoutes(r chi.Router) {
	r.Get("/aggregate", h.HandleAggregate)
	r.Get("/resolution-time", h.HandleResolutionTime)
}

// RegisterDashboardRoutes mounts the dashboard under /dashboard.
func (h *ReportHandler) RegisterDashboardRoutes(r chi.Router) {
	r.Get("/", h.HandleDashboard)
	r.Get("/facets", h.HandleFacets)
}

// CountDTO is one bar of a count chart
type CountDTO struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// AverageDTO is one bar of the resolution time chart, in minutes
type AverageDTO struct {
	Key     string  `json:"key"`
	Minutes float64 `json:"minutes"`
}

// DashboardDTO is the dashboard projection. byRegional and avgResolution are
// null in the simplified view.
type DashboardDTO struct {
	Total         int          `json:"total"`
	ByStatus      []CountDTO   `json:"byStatus"`
	ByReason      []CountDTO   `json:"byReason"`
	ByRegional    []CountDTO   `json:"byRegional"`
	AvgResolution []AverageDTO `json:"avgResolution"`
}

// FacetsDTO lists the values each dashboard filter can take
type FacetsDTO struct {
	Regionals []string `json:"regionals"`
	Statuses  []string `json:"statuses"`
	Reasons   []string `json:"reasons"`
}

func toCountDTOs(counts []domain.GroupCount) []CountDTO {
	out := make([]CountDTO, 0, len(counts))
	for _, c := range counts {
		out = append(out, CountDTO{Key: c.Key, Count: c.Count})
	}
	return out
}

func toAverageDTOs(averages []domain.GroupAverage) []AverageDTO {
	out := make([]AverageDTO, 0, len(averages))
	for _, a := range averages {
		out = append(out, AverageDTO{Key: a.Key, Minutes: a.Value})
	}
	return out
}

func toDashboardDTO(d *domain.Dashboard) DashboardDTO {
	dto := DashboardDTO{
		Total:    d.Total,
		ByStatus: toCountDTOs(d.ByStatus),
		ByReason: toCountDTOs(d.ByReason),
	}
	if d.ByRegional != nil {
		dto.ByRegional = toCountDTOs(d.ByRegional)
	}
	if d.AvgResolution != nil {
		dto.AvgResolution = toAverageDTOs(d.AvgResolution)
	}
	return dto
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// HandleAggregate handles GET /reports/aggregate?field=&status=&from=&to=
func (h *ReportHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	field, err := domain.ParseAggregateField(r.URL.Query().Get("field"))
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "field must be one of: regional, loja, lider, motivo, status"))
		return
	}

	counts, err := h.reportService.Aggregate(r.Context(), params, field)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toCountDTOs(domain.SortedCounts(counts)))
}

// HandleResolutionTime handles GET /reports/resolution-time?status=&from=&to=
func (h *ReportHandler) HandleResolutionTime(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	averages, err := h.reportService.AverageResolution(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toAverageDTOs(domain.SortedAverages(averages)))
}

// HandleDashboard handles GET /dashboard?regional=&status=&reason=
// Each parameter may be repeated. Status takes the same values as the
// ticket listing (all, open, closed).
func (h *ReportHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	statuses, err := validation.ParseStatuses(r, "status")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	filter := domain.DashboardFilter{
		Regionals: validation.ParseMulti(r, "regional"),
		Statuses:  statuses,
		Reasons:   validation.ParseMulti(r, "reason"),
	}

	dashboard, err := h.reportService.GetDashboard(r.Context(), actor, filter)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toDashboardDTO(dashboard))
}

// HandleFacets handles GET /dashboard/facets
func (h *ReportHandler) HandleFacets(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	facets, err := h.reportService.GetFacets(r.Context(), actor)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, FacetsDTO{
		Regionals: emptyIfNil(facets.Regionals),
		Statuses:  emptyIfNil(facets.Statuses),
		Reasons:   emptyIfNil(facets.Reasons),
	})
}
