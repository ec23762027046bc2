package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	wsAdapter "github.com/lorrc/chamados/internal/adapters/primary/websocket"
	"github.com/lorrc/chamados/internal/adapters/secondary/memory"
	"github.com/lorrc/chamados/internal/auth"
	"github.com/lorrc/chamados/internal/config"
	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/mocks"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/internal/core/services"
)

var testNow = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

var (
	adminUser    = &domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin}
	operatorUser = &domain.User{ID: 2, Username: "usuario", Role: domain.RoleUser}
)

type testServer struct {
	router    stdhttp.Handler
	hub       *wsAdapter.Hub
	tm        *auth.TokenManager
	authSvc   *mocks.MockAuthService
	tickets   *mocks.MockTicketService
	reports   *mocks.MockReportService
	directory *mocks.MockDirectoryService
	health    map[string]HealthChecker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Server:    config.ServerConfig{AllowedOrigins: []string{"*"}},
		WebSocket: config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024},
		App:       config.AppConfig{Version: "test", Environment: "development"},
	}

	hub := wsAdapter.NewHub(zap.NewNop())
	go hub.Run(ctx)

	s := &testServer{
		hub:       hub,
		tm:        auth.NewTokenManager("test-secret", time.Hour),
		authSvc:   mocks.NewMockAuthService(),
		tickets:   mocks.NewMockTicketService(),
		reports:   mocks.NewMockReportService(),
		directory: mocks.NewMockDirectoryService(),
		health:    map[string]HealthChecker{},
	}

	s.router = NewRouter(ctx, Dependencies{
		Config:        cfg,
		Logger:        zap.NewNop(),
		Clock:         func() time.Time { return testNow },
		TokenManager:  s.tm,
		Revocations:   memory.NewTokenStore(time.Now),
		AuthService:   s.authSvc,
		AuthzService:  services.NewAuthorizationService(),
		TicketService: s.tickets,
		ReportService: s.reports,
		Directory:     s.directory,
		Hub:           hub,
		HealthChecks:  s.health,
	})
	return s
}

func (s *testServer) token(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := s.tm.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func storedTicket(id int64) *domain.Ticket {
	ticket := domain.NewTicket(domain.TicketParams{
		Regional: "Sul",
		Store:    "Loja 12",
		Leader:   "Carla",
		Reason:   "Falha Impressão",
	}, testNow.Add(-90*time.Minute))
	ticket.ID = id
	return ticket
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	t.Run("success", func(t *testing.T) {
		s.authSvc.On("Login", mock.Anything, "admin", "admin123").Return(adminUser, nil).Once()

		rr := s.do(stdhttp.MethodPost, "/api/v1/auth/login", "", `{"username":" admin ","password":"admin123"}`)
		require.Equal(t, stdhttp.StatusOK, rr.Code)

		resp := decode[LoginResponse](t, rr)
		assert.Equal(t, "admin", resp.Username)
		assert.Equal(t, "admin", resp.Role)
		assert.Contains(t, resp.Permissions, domain.PermAdminReset)

		claims, err := s.tm.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, adminUser.Actor(), claims.Actor())
	})

	t.Run("invalid credentials", func(t *testing.T) {
		s.authSvc.On("Login", mock.Anything, "admin", "wrong").Return(nil, apperrors.ErrInvalidCredentials).Once()

		rr := s.do(stdhttp.MethodPost, "/api/v1/auth/login", "", `{"username":"admin","password":"wrong"}`)
		assert.Equal(t, stdhttp.StatusUnauthorized, rr.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decode[ErrorResponse](t, rr).Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := s.do(stdhttp.MethodPost, "/api/v1/auth/login", "", `{"username":""}`)
		require.Equal(t, stdhttp.StatusUnprocessableEntity, rr.Code)

		resp := decode[ValidationErrorResponse](t, rr)
		assert.Contains(t, resp.Fields, "username")
		assert.Contains(t, resp.Fields, "password")
	})
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, operatorUser)
	s.tickets.On("ListTickets", mock.Anything, mock.Anything).Return([]*domain.Ticket{}, nil)

	require.Equal(t, stdhttp.StatusOK, s.do(stdhttp.MethodGet, "/api/v1/tickets", token, "").Code)
	require.Equal(t, stdhttp.StatusNoContent, s.do(stdhttp.MethodPost, "/api/v1/auth/logout", token, "").Code)
	assert.Equal(t, stdhttp.StatusUnauthorized, s.do(stdhttp.MethodGet, "/api/v1/tickets", token, "").Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/tickets", "/api/v1/dashboard", "/api/v1/directory/regionals"} {
		assert.Equal(t, stdhttp.StatusUnauthorized, s.do(stdhttp.MethodGet, path, "", "").Code, path)
	}
	s.tickets.AssertNotCalled(t, "ListTickets", mock.Anything, mock.Anything)
}

func TestCreateTicket(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, operatorUser)

	t.Run("other reason is resolved", func(t *testing.T) {
		created := storedTicket(7)
		created.Reason = "Monitor piscando"
		s.tickets.On("CreateTicket", mock.Anything, ports.CreateTicketParams{
			Actor:    operatorUser.Actor(),
			Regional: "Sul",
			Store:    "Loja 12",
			Leader:   "Carla",
			Reason:   "Monitor piscando",
		}).Return(created, nil).Once()

		rr := s.do(stdhttp.MethodPost, "/api/v1/tickets", token,
			`{"regional":"Sul ","store":"Loja 12","leader":"Carla","reason":"Outro","otherReason":" Monitor piscando "}`)
		require.Equal(t, stdhttp.StatusCreated, rr.Code)

		snap := decode[domain.TicketSnapshot](t, rr)
		assert.Equal(t, int64(7), snap.ID)
		assert.Equal(t, "Aberto", snap.Status)
		assert.Equal(t, "2024-03-10T12:30:00", snap.OpenedAt)
		assert.Nil(t, snap.ClosedAt)
	})

	t.Run("placeholders and missing other reason", func(t *testing.T) {
		rr := s.do(stdhttp.MethodPost, "/api/v1/tickets", token,
			`{"regional":"Selecione uma Regional","store":"","leader":"Carla","reason":"Outro"}`)
		require.Equal(t, stdhttp.StatusUnprocessableEntity, rr.Code)

		resp := decode[ValidationErrorResponse](t, rr)
		assert.Contains(t, resp.Fields, "regional")
		assert.Contains(t, resp.Fields, "store")
		assert.Contains(t, resp.Fields, "otherReason")
	})

	t.Run("storage failure", func(t *testing.T) {
		s.tickets.On("CreateTicket", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewStorageError("tickets.create", errors.New("disk full"))).Once()

		rr := s.do(stdhttp.MethodPost, "/api/v1/tickets", token,
			`{"regional":"Sul","store":"Loja 1","leader":"Ana","reason":"Falha Impressão"}`)
		assert.Equal(t, stdhttp.StatusServiceUnavailable, rr.Code)
		assert.NotContains(t, rr.Body.String(), "disk full")
	})
}

func TestListTickets(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, operatorUser)

	rng, err := domain.NewDateRange(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	s.tickets.On("ListTickets", mock.Anything, ports.ListTicketsParams{
		Actor:  operatorUser.Actor(),
		Status: domain.FilterOpen,
		Range:  &rng,
	}).Return([]*domain.Ticket{storedTicket(1), storedTicket(2)}, nil).Once()

	rr := s.do(stdhttp.MethodGet, "/api/v1/tickets?status=open&from=2024-03-01&to=2024-03-10", token, "")
	require.Equal(t, stdhttp.StatusOK, rr.Code)

	resp := decode[ListResponse[domain.TicketSnapshot]](t, rr)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, int64(1), resp.Data[0].ID)

	t.Run("bad filters", func(t *testing.T) {
		assert.Equal(t, stdhttp.StatusBadRequest, s.do(stdhttp.MethodGet, "/api/v1/tickets?status=pending", token, "").Code)
		assert.Equal(t, stdhttp.StatusBadRequest, s.do(stdhttp.MethodGet, "/api/v1/tickets?from=2024-03-10&to=2024-03-01", token, "").Code)
	})
}

func TestGetAndCloseTicket(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, operatorUser)

	t.Run("not found", func(t *testing.T) {
		s.tickets.On("GetTicket", mock.Anything, operatorUser.Actor(), int64(99)).Return(nil, apperrors.ErrTicketNotFound).Once()
		assert.Equal(t, stdhttp.StatusNotFound, s.do(stdhttp.MethodGet, "/api/v1/tickets/99", token, "").Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		assert.Equal(t, stdhttp.StatusBadRequest, s.do(stdhttp.MethodGet, "/api/v1/tickets/abc", token, "").Code)
	})

	t.Run("close", func(t *testing.T) {
		closed := storedTicket(5)
		require.NoError(t, closed.Close(testNow, "usuario"))
		s.tickets.On("CloseTicket", mock.Anything, ports.CloseTicketParams{Actor: operatorUser.Actor(), TicketID: 5}).
			Return(closed, nil).Once()

		rr := s.do(stdhttp.MethodPost, "/api/v1/tickets/5/close", token, "")
		require.Equal(t, stdhttp.StatusOK, rr.Code)

		snap := decode[domain.TicketSnapshot](t, rr)
		assert.Equal(t, "Finalizado", snap.Status)
		require.NotNil(t, snap.Duration)
		assert.Equal(t, "1:30:00", *snap.Duration)
		require.NotNil(t, snap.DurationSeconds)
		assert.Equal(t, int64(5400), *snap.DurationSeconds)
		require.NotNil(t, snap.ClosedBy)
		assert.Equal(t, "usuario", *snap.ClosedBy)
	})
}

func TestListReasons(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(stdhttp.MethodGet, "/api/v1/tickets/reasons", s.token(t, operatorUser), "")
	require.Equal(t, stdhttp.StatusOK, rr.Code)

	resp := decode[ListResponse[string]](t, rr)
	assert.Equal(t, domain.PredefinedReasons(), resp.Data)
	assert.Equal(t, domain.ReasonOther, resp.Data[len(resp.Data)-1])
}

func TestExportTickets(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, operatorUser)

	s.tickets.On("ExportTickets", mock.Anything, mock.AnythingOfType("ports.ListTicketsParams"), mock.Anything).
		Run(func(args mock.Arguments) {
			_, _ = args.Get(2).(io.Writer).Write([]byte("PK-fake-xlsx"))
		}).
		Return(3, nil).Once()

	rr := s.do(stdhttp.MethodGet, "/api/v1/tickets/export?status=closed", token, "")
	require.Equal(t, stdhttp.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="chamados_20240310_140000.xlsx"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", rr.Header().Get("X-Total-Count"))
	assert.Equal(t, "PK-fake-xlsx", rr.Body.String())
}

func TestDirectoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, operatorUser)
	today := domain.DateOf(testNow)

	s.directory.On("RegionsInRange", mock.Anything, today, today).Return([]string{"Sul", "Norte"}).Once()
	rr := s.do(stdhttp.MethodGet, "/api/v1/directory/regionals", token, "")
	require.Equal(t, stdhttp.StatusOK, rr.Code)
	assert.Equal(t, []string{"Sul", "Norte"}, decode[ListResponse[string]](t, rr).Data)

	s.directory.On("StoresInRange", mock.Anything, "Oeste", today, today).Return(nil).Once()
	rr = s.do(stdhttp.MethodGet, "/api/v1/directory/stores?regional=Oeste", token, "")
	require.Equal(t, stdhttp.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[],"count":0}`, rr.Body.String())

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.directory.On("LeaderFor", mock.Anything, "Sul", "Loja 12", from, today).Return("Carla", true).Once()
	rr = s.do(stdhttp.MethodGet, "/api/v1/directory/leader?regional=Sul&store=Loja+12&from=2024-03-01", token, "")
	require.Equal(t, stdhttp.StatusOK, rr.Code)
	assert.Equal(t, LeaderResponse{Leader: "Carla", Found: true}, decode[LeaderResponse](t, rr))

	s.directory.AssertExpectations(t)
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, operatorUser)

	t.Run("aggregate", func(t *testing.T) {
		s.reports.On("Aggregate", mock.Anything, mock.Anything, domain.FieldRegional).
			Return(map[string]int{"Sul": 1, "Norte": 3}, nil).Once()

		rr := s.do(stdhttp.MethodGet, "/api/v1/reports/aggregate?field=regional", token, "")
		require.Equal(t, stdhttp.StatusOK, rr.Code)
		assert.Equal(t, []CountDTO{{Key: "Norte", Count: 3}, {Key: "Sul", Count: 1}}, decode[ListResponse[CountDTO]](t, rr).Data)
	})

	t.Run("unknown field", func(t *testing.T) {
		assert.Equal(t, stdhttp.StatusBadRequest, s.do(stdhttp.MethodGet, "/api/v1/reports/aggregate?field=priority", token, "").Code)
	})

	t.Run("resolution time", func(t *testing.T) {
		s.reports.On("AverageResolution", mock.Anything, mock.Anything).
			Return(map[string]float64{"Falha Impressão": 15}, nil).Once()

		rr := s.do(stdhttp.MethodGet, "/api/v1/reports/resolution-time", token, "")
		require.Equal(t, stdhttp.StatusOK, rr.Code)
		assert.Equal(t, []AverageDTO{{Key: "Falha Impressão", Minutes: 15}}, decode[ListResponse[AverageDTO]](t, rr).Data)
	})
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, operatorUser)

	s.reports.On("GetDashboard", mock.Anything, operatorUser.Actor(), domain.DashboardFilter{
		Regionals: []string{"Sul", "Norte"},
		Statuses:  []string{"Aberto"},
	}).Return(&domain.Dashboard{
		Total:    2,
		ByStatus: []domain.GroupCount{{Key: "Aberto", Count: 2}},
		ByReason: []domain.GroupCount{{Key: "Falha Impressão", Count: 2}},
	}, nil).Once()

	rr := s.do(stdhttp.MethodGet, "/api/v1/dashboard?regional=Sul&regional=Norte&status=open", token, "")
	require.Equal(t, stdhttp.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"total": 2,
		"byStatus": [{"key":"Aberto","count":2}],
		"byReason": [{"key":"Falha Impressão","count":2}],
		"byRegional": null,
		"avgResolution": null
	}`, rr.Body.String())

	rr = s.do(stdhttp.MethodGet, "/api/v1/dashboard?status=pending", token, "")
	assert.Equal(t, stdhttp.StatusBadRequest, rr.Code)

	s.reports.On("GetFacets", mock.Anything, operatorUser.Actor()).Return(domain.Facets{Regionals: []string{"Sul"}}, nil).Once()
	rr = s.do(stdhttp.MethodGet, "/api/v1/dashboard/facets", token, "")
	require.Equal(t, stdhttp.StatusOK, rr.Code)
	assert.JSONEq(t, `{"regionals":["Sul"],"statuses":[],"reasons":[]}`, rr.Body.String())
}

func TestAdminReset(t *testing.T) {
	s := newTestServer(t)

	t.Run("requires confirmation", func(t *testing.T) {
		s.tickets.On("ResetTickets", mock.Anything, adminUser.Actor(), false).Return(int64(0), apperrors.ErrConfirmationRequired).Once()
		rr := s.do(stdhttp.MethodPost, "/api/v1/admin/reset", s.token(t, adminUser), `{}`)
		assert.Equal(t, stdhttp.StatusBadRequest, rr.Code)
		assert.Equal(t, "CONFIRMATION_REQUIRED", decode[ErrorResponse](t, rr).Code)
	})

	t.Run("admin", func(t *testing.T) {
		s.tickets.On("ResetTickets", mock.Anything, adminUser.Actor(), true).Return(int64(12), nil).Once()
		rr := s.do(stdhttp.MethodPost, "/api/v1/admin/reset", s.token(t, adminUser), `{"confirm":true}`)
		require.Equal(t, stdhttp.StatusOK, rr.Code)
		assert.Equal(t, ResetResponse{Deleted: 12}, decode[ResetResponse](t, rr))
	})

	t.Run("forbidden for users", func(t *testing.T) {
		s.tickets.On("ResetTickets", mock.Anything, operatorUser.Actor(), true).Return(int64(0), apperrors.ErrForbidden).Once()
		rr := s.do(stdhttp.MethodPost, "/api/v1/admin/reset", s.token(t, operatorUser), `{"confirm":true}`)
		assert.Equal(t, stdhttp.StatusForbidden, rr.Code)
	})
}

func TestAdminCreateUser(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, adminUser)

	created := &domain.User{ID: 3, Username: "maria", Role: domain.RoleUser, CreatedAt: testNow}
	s.authSvc.On("CreateUser", mock.Anything, adminUser.Actor(), domain.UserParams{
		Username: "maria", Password: "segredo1", Role: domain.RoleUser,
	}).Return(created, nil).Once()

	rr := s.do(stdhttp.MethodPost, "/api/v1/admin/users", token, `{"username":"maria","password":"segredo1","role":"usuario"}`)
	require.Equal(t, stdhttp.StatusCreated, rr.Code)
	assert.Equal(t, "maria", decode[UserDTO](t, rr).Username)

	rr = s.do(stdhttp.MethodPost, "/api/v1/admin/users", token, `{"username":"joao","password":"x","role":"root"}`)
	require.Equal(t, stdhttp.StatusUnprocessableEntity, rr.Code)
	resp := decode[ValidationErrorResponse](t, rr)
	assert.Contains(t, resp.Fields, "password")
	assert.Contains(t, resp.Fields, "role")

	s.authSvc.On("CreateUser", mock.Anything, adminUser.Actor(), mock.Anything).Return(nil, apperrors.ErrUserExists).Once()
	rr = s.do(stdhttp.MethodPost, "/api/v1/admin/users", token, `{"username":"maria","password":"segredo1","role":"usuario"}`)
	assert.Equal(t, stdhttp.StatusConflict, rr.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	s.health["storage"] = HealthCheckFunc(func(context.Context) error { return nil })

	assert.Equal(t, stdhttp.StatusOK, s.do(stdhttp.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, stdhttp.StatusOK, s.do(stdhttp.MethodGet, "/health/ready", "", "").Code)

	s.health["redis"] = HealthCheckFunc(func(context.Context) error { return errors.New("connection refused") })
	rr := s.do(stdhttp.MethodGet, "/health/ready", "", "")
	require.Equal(t, stdhttp.StatusServiceUnavailable, rr.Code)

	resp := decode[HealthResponse](t, rr)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["storage"].Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Message)

	assert.Equal(t, stdhttp.StatusServiceUnavailable, s.do(stdhttp.MethodGet, "/health", "", "").Code)
}

func TestWebSocketFeed(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + s.token(t, operatorUser)

	t.Run("rejects missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.IsUserConnected(operatorUser.ID) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.hub.Broadcast(domain.Event{
		Type:     domain.EventTicketCreated,
		TicketID: 7,
		Payload:  domain.NewTicketSnapshot(storedTicket(7)),
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event struct {
		Type     string                `json:"type"`
		TicketID int64                 `json:"ticketId"`
		Payload  domain.TicketSnapshot `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "TICKET_CREATED", event.Type)
	assert.Equal(t, int64(7), event.TicketID)
	assert.Equal(t, "Loja 12", event.Payload.Store)
}
