package mocks

import (
	"context"
	"io"
	"time"

	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]*domain.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) MarkClosed(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	args := m.Called(ctx, ticket)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenRevocationStore is a mock implementation of ports.TokenRevocationStore
type MockTokenRevocationStore struct {
	mock.Mock
}

func NewMockTokenRevocationStore() *MockTokenRevocationStore {
	return &MockTokenRevocationStore{}
}

func (m *MockTokenRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenID, expiresAt)
	return args.Error(0)
}

func (m *MockTokenRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// MockDirectoryFeed is a mock implementation of ports.DirectoryFeed
type MockDirectoryFeed struct {
	mock.Mock
}

func NewMockDirectoryFeed() *MockDirectoryFeed {
	return &MockDirectoryFeed{}
}

func (m *MockDirectoryFeed) Load(ctx context.Context) ([]domain.DirectoryEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DirectoryEntry), args.Error(1)
}

// MockTicketExporter is a mock implementation of ports.TicketExporter
type MockTicketExporter struct {
	mock.Mock
}

func NewMockTicketExporter() *MockTicketExporter {
	return &MockTicketExporter{}
}

func (m *MockTicketExporter) Export(w io.Writer, tickets []*domain.Ticket) error {
	args := m.Called(w, tickets)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockMetricsRecorder is a mock implementation of ports.MetricsRecorder
type MockMetricsRecorder struct {
	mock.Mock
}

func NewMockMetricsRecorder() *MockMetricsRecorder {
	return &MockMetricsRecorder{}
}

func (m *MockMetricsRecorder) TicketCreated(reason string) {
	m.Called(reason)
}

func (m *MockMetricsRecorder) TicketClosed(reason string, elapsed time.Duration) {
	m.Called(reason, elapsed)
}

func (m *MockMetricsRecorder) TicketsReset(count int64) {
	m.Called(count)
}

func (m *MockMetricsRecorder) DirectoryReloaded(success bool, entries int) {
	m.Called(success, entries)
}

// MockAuthorizationService is a mock implementation of ports.AuthorizationService
type MockAuthorizationService struct {
	mock.Mock
}

func NewMockAuthorizationService() *MockAuthorizationService {
	return &MockAuthorizationService{}
}

func (m *MockAuthorizationService) Can(ctx context.Context, actor domain.Actor, permission string) (bool, error) {
	args := m.Called(ctx, actor, permission)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthorizationService) GetPermissions(ctx context.Context, actor domain.Actor) ([]string, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAuthService is a mock implementation of ports.AuthService
type MockAuthService struct {
	mock.Mock
}

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) CreateUser(ctx context.Context, actor domain.Actor, params domain.UserParams) (*domain.User, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) EnsureUser(ctx context.Context, params domain.UserParams) (*domain.User, bool, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Bool(1), args.Error(2)
}

// MockTicketService is a mock implementation of ports.TicketService
type MockTicketService struct {
	mock.Mock
}

func NewMockTicketService() *MockTicketService {
	return &MockTicketService{}
}

func (m *MockTicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, actor, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) CloseTicket(ctx context.Context, params ports.CloseTicketParams) (*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) ExportTickets(ctx context.Context, params ports.ListTicketsParams, w io.Writer) (int, error) {
	args := m.Called(ctx, params, w)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketService) ResetTickets(ctx context.Context, actor domain.Actor, confirm bool) (int64, error) {
	args := m.Called(ctx, actor, confirm)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketService) Shutdown() {
	m.Called()
}

// MockReportService is a mock implementation of ports.ReportService
type MockReportService struct {
	mock.Mock
}

func NewMockReportService() *MockReportService {
	return &MockReportService{}
}

func (m *MockReportService) Aggregate(ctx context.Context, params ports.ListTicketsParams, field domain.AggregateField) (map[string]int, error) {
	args := m.Called(ctx, params, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockReportService) AverageResolution(ctx context.Context, params ports.ListTicketsParams) (map[string]float64, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockReportService) GetDashboard(ctx context.Context, actor domain.Actor, filter domain.DashboardFilter) (*domain.Dashboard, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockReportService) GetFacets(ctx context.Context, actor domain.Actor) (domain.Facets, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(domain.Facets), args.Error(1)
}

// MockDirectoryService is a mock implementation of ports.DirectoryService
type MockDirectoryService struct {
	mock.Mock
}

func NewMockDirectoryService() *MockDirectoryService {
	return &MockDirectoryService{}
}

func (m *MockDirectoryService) RegionsInRange(ctx context.Context, start, end time.Time) []string {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockDirectoryService) StoresInRange(ctx context.Context, regional string, start, end time.Time) []string {
	args := m.Called(ctx, regional, start, end)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockDirectoryService) LeaderFor(ctx context.Context, regional, store string, start, end time.Time) (string, bool) {
	args := m.Called(ctx, regional, store, start, end)
	return args.String(0), args.Bool(1)
}

func (m *MockDirectoryService) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDirectoryService) Size() int {
	args := m.Called()
	return args.Int(0)
}
