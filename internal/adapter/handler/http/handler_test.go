package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/logger"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/memory"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/prometheus"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/repository"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/config"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	engine *gin.Engine
	store  *mocks.FaultyStore
	admin  string
	staff  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	metrics := prometheus.NewPrometheusAdapter()
	store := &mocks.FaultyStore{Next: memory.NewFleetStore()}
	cache := memory.NewCache()
	locks := memory.NewLocker()

	users := repository.NewUserRepository(store)
	bikes := repository.NewBikeRepository(store)
	batteries := repository.NewBatteryRepository(store)
	companies := repository.NewCompanyRepository(store)
	swaps := repository.NewSwapRecordRepository(store)

	counter := services.NewCounterService(repository.NewDailyCounterRepository(store), swaps, log, time.UTC, 10, 0)
	ledger := services.NewPaymentService(repository.NewPaymentRepository(store), users, log, cache, 100)
	deps := services.CoordinatorDeps{
		Users:           users,
		Bikes:           bikes,
		Batteries:       batteries,
		Swaps:           swaps,
		Reconciliations: repository.NewReconciliationRepository(store),
		Counter:         counter,
		Dues:            ledger,
		Locks:           locks,
		Cache:           cache,
		Events:          &mocks.MockEventPublisher{},
		Logger:          log,
		Metrics:         metrics,
	}
	validate := domain.NewValidator()

	router, err := NewRouter(
		&config.HTTP{Env: "test", AllowedOrigins: "http://localhost:3000"},
		NewJWTTokenService(testSecret, log),
		metrics.Handler(),
		NewFlowHandler(services.NewCoordinator(deps), log, metrics),
		NewUserHandler(services.NewUserService(users, companies, swaps, log, cache, locks, time.Second), log, metrics),
		NewPaymentHandler(ledger, log, metrics),
		NewBikeHandler(services.NewBikeService(bikes, log, validate, cache, locks, time.Second), log, metrics),
		NewBatteryHandler(services.NewBatteryService(batteries, log, validate, cache, locks, time.Second), log, metrics),
		NewCompanyHandler(services.NewCompanyService(companies, users, log, cache), log, metrics),
		NewAdminHandler(counter, services.NewReconcileService(deps, time.Second), log, metrics),
	)
	require.NoError(t, err)

	return &testServer{
		engine: router.Engine(),
		store:  store,
		admin:  signToken(t, testSecret, "admin-1", "admin"),
		staff:  signToken(t, testSecret, "staff-1", "staff"),
	}
}

func signToken(t *testing.T, secret, staffID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":      uuid.NewString(),
		"user_id": staffID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createUser(t *testing.T, name string) *domain.User {
	t.Helper()
	w := s.do(t, s.staff, http.MethodPost, "/users", UserRequest{UserName: name, UserPhone: "9000000000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*domain.User](t, w)
}

func (s *testServer) createBike(t *testing.T, reg string) *domain.Bike {
	t.Helper()
	w := s.do(t, s.staff, http.MethodPost, "/bikes", BikeRequest{BikeRegNum: reg, BikeModel: "Hero Electric"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*domain.Bike](t, w)
}

func (s *testServer) createBattery(t *testing.T, reg string) *domain.Battery {
	t.Helper()
	w := s.do(t, s.staff, http.MethodPost, "/batteries", BatteryRequest{BatRegNum: reg})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*domain.Battery](t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "staff-1", "staff"), http.StatusUnauthorized},
		{"unknown role", "Bearer " + signToken(t, testSecret, "staff-1", "rider"), http.StatusUnauthorized},
		{"staff", "Bearer " + s.staff, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/bikes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	bike := s.createBike(t, "KA01AA0001")

	w := s.do(t, s.staff, http.MethodDelete, "/bikes/"+bike.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/admin/reconcile", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, s.admin, http.MethodDelete, "/bikes/"+bike.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, s.admin, http.MethodGet, "/bikes/"+bike.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlowsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser(t, "Ravi")
	bike := s.createBike(t, "KA01AA0002")
	t1 := s.createBattery(t, "BT-1")
	t2 := s.createBattery(t, "BT-2")

	w := s.do(t, s.staff, http.MethodPost, "/flows/assign", domain.AssignRequest{
		UserID: user.ID, BikeID: bike.ID, BatteryID: t1.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assigned := decode[domain.AssignResult](t, w)
	assert.True(t, assigned.User.UserStatus)
	assert.True(t, assigned.Bike.BikeStatus)
	assert.Equal(t, user.ID, *assigned.Battery.CurrOwner)

	w = s.do(t, s.staff, http.MethodGet, "/bikes/available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[pageResponse[domain.Bike]](t, w).Total)

	w = s.do(t, s.staff, http.MethodPost, "/flows/swap", domain.SwapRequest{
		UserID: user.ID, UserName: user.UserName, OldBatteryID: t1.ID, NewBatteryID: t1.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "newBatteryId", decode[errorResponse](t, w).Field)

	w = s.do(t, s.staff, http.MethodPost, "/flows/swap", domain.SwapRequest{
		UserID: user.ID, UserName: user.UserName, OldBatteryID: t1.ID, NewBatteryID: t2.ID,
		OldBatRegNum: t1.BatRegNum, NewBatRegNum: t2.BatRegNum,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	swapped := decode[domain.SwapResult](t, w)
	assert.True(t, swapped.Success)
	assert.Equal(t, 1, swapped.User.TotalSwapCount)
	assert.Equal(t, 1, swapped.TodaySwapCount)
	assert.Equal(t, t2.ID, *swapped.User.BatteryID)

	w = s.do(t, s.staff, http.MethodGet, "/counters/today", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[CounterResponse](t, w).TodaySwapCount)

	w = s.do(t, s.staff, http.MethodGet, "/users/"+user.ID+"/swaps", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[pageResponse[domain.SwapRecord]](t, w).Total)

	w = s.do(t, s.staff, http.MethodPost, "/flows/return", domain.ReturnRequest{UserID: user.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	returned := decode[domain.ReturnResult](t, w)
	assert.False(t, returned.User.UserStatus)
	assert.Nil(t, returned.User.BikeID)
	assert.Nil(t, returned.User.BatteryID)
	assert.NotNil(t, returned.Dues)

	w = s.do(t, s.staff, http.MethodPost, "/flows/return", domain.ReturnRequest{UserID: user.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	u1 := s.createUser(t, "Asha")
	u2 := s.createUser(t, "Bala")
	bike := s.createBike(t, "KA01AA0003")
	b1 := s.createBattery(t, "BT-3")
	b2 := s.createBattery(t, "BT-4")

	w := s.do(t, s.staff, http.MethodPost, "/users/"+u2.ID+"/block", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[*domain.User](t, w).IsBlocked)

	w = s.do(t, s.staff, http.MethodPost, "/flows/assign", domain.AssignRequest{UserID: u2.ID, BikeID: bike.ID, BatteryID: b2.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/flows/assign", domain.AssignRequest{UserID: u1.ID, BikeID: bike.ID, BatteryID: b1.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/users/"+u2.ID+"/unblock", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/flows/assign", domain.AssignRequest{UserID: u2.ID, BikeID: bike.ID, BatteryID: b2.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/flows/assign", domain.AssignRequest{UserID: u2.ID, BikeID: "missing", BatteryID: b2.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/flows/assign", domain.AssignRequest{UserID: u2.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, s.admin, http.MethodDelete, "/bikes/"+bike.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartialFailureThenReconcile(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser(t, "Chitra")
	bike := s.createBike(t, "KA01AA0004")
	battery := s.createBattery(t, "BT-5")

	s.store.Fault = func(op, collection, id string, fields map[string]interface{}) error {
		if op != "update" {
			return nil
		}
		if collection == ports.CollectionBatteries {
			return domain.ErrUnavailable
		}
		if collection == ports.CollectionBikes && fields["bikeStatus"] == false {
			return domain.ErrUnavailable
		}
		return nil
	}

	w := s.do(t, s.staff, http.MethodPost, "/flows/assign", domain.AssignRequest{UserID: user.ID, BikeID: bike.ID, BatteryID: battery.ID})
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[errorResponse](t, w).ReconciliationID)

	s.store.Fault = nil

	w = s.do(t, s.admin, http.MethodPost, "/admin/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[domain.ReconcileReport](t, w)
	assert.Equal(t, []string{bike.ID}, report.BikesReleased)
	assert.Len(t, report.ReconciliationsResolved, 1)

	w = s.do(t, s.staff, http.MethodGet, "/bikes/"+bike.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	released := decode[*domain.Bike](t, w)
	assert.False(t, released.BikeStatus)
	assert.Nil(t, released.CurrOwner)
}

func TestEntityCRUD(t *testing.T) {
	s := newTestServer(t)

	s.createBike(t, "KA01AA0005")
	w := s.do(t, s.staff, http.MethodPost, "/bikes", BikeRequest{BikeRegNum: "ka01aa0005"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/bikes", map[string]string{"bikeModel": "no reg"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	battery := s.createBattery(t, "BT-6")
	w = s.do(t, s.staff, http.MethodPut, "/batteries/"+battery.ID, BatteryRequest{BatRegNum: "BT-6A"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BT-6A", decode[*domain.Battery](t, w).BatRegNum)

	w = s.do(t, s.staff, http.MethodGet, "/batteries?search=6a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[pageResponse[domain.Battery]](t, w).Total)

	w = s.do(t, s.staff, http.MethodGet, "/batteries?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/companies", CompanyRequest{CompanyName: "Zomato HSR"})
	require.Equal(t, http.StatusCreated, w.Code)
	company := decode[*domain.Company](t, w)

	w = s.do(t, s.staff, http.MethodPost, "/users", UserRequest{UserName: "Dev", CompanyID: &company.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	user := decode[*domain.User](t, w)

	w = s.do(t, s.admin, http.MethodDelete, "/companies/"+company.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, s.staff, http.MethodPut, "/users/"+user.ID+"/call", CallRequest{CallStatus: "pending", CallNote: "call back"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.CallPending, decode[*domain.User](t, w).CallStatus)

	w = s.do(t, s.staff, http.MethodPut, "/users/"+user.ID+"/call", CallRequest{CallStatus: "later"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, s.admin, http.MethodDelete, "/users/"+user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, s.admin, http.MethodDelete, "/companies/"+company.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser(t, "Esha")
	path := "/users/" + user.ID + "/payments"

	w := s.do(t, s.staff, http.MethodPost, path, PaymentRequest{Amount: 2000, Type: "deposit", Method: "cash"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, s.staff, http.MethodPost, path, PaymentRequest{Amount: 300, Type: "pending", Method: "cash"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(300), decode[RecordPaymentResponse](t, w).Summary.PendingAmount)

	w = s.do(t, s.staff, http.MethodPost, path, PaymentRequest{Amount: 10, Type: "rent", Method: "adjustment"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	edit := EditPaymentsRequest{DepositAmount: 2000, PaidAmount: 500, PendingAmount: 0, Note: "settled"}
	w = s.do(t, s.staff, http.MethodPut, path, edit)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[EditPaymentsResponse](t, w)
	assert.NotEmpty(t, first.Adjustments)
	assert.Equal(t, int64(0), first.Summary.PendingAmount)

	w = s.do(t, s.staff, http.MethodPut, path, edit)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[EditPaymentsResponse](t, w).Adjustments)

	w = s.do(t, s.staff, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ledger := decode[PaymentsResponse](t, w)
	assert.Len(t, ledger.Records, 2+len(first.Adjustments))
	assert.Equal(t, int64(500), ledger.Summary.PaidAmount)

	w = s.do(t, s.staff, http.MethodGet, "/users/"+user.ID+"/dues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), decode[domain.Dues](t, w).Total)

	w = s.do(t, s.staff, http.MethodGet, "/users/missing/dues", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCounterRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, s.staff, http.MethodGet, "/counters/2024-05-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CounterResponse{TodayDate: "2024-05-01", TodaySwapCount: 0}, decode[CounterResponse](t, w))

	w = s.do(t, s.staff, http.MethodGet, "/counters/yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, s.staff, http.MethodPost, "/counters/2024-05-01/recount", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, s.admin, http.MethodPost, "/counters/2024-05-01/recount", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[CounterResponse](t, w).TodaySwapCount)
}

func TestStoreUnavailable(t *testing.T) {
	s := newTestServer(t)
	s.store.Fault = func(string, string, string, map[string]interface{}) error {
		return domain.ErrUnavailable
	}

	w := s.do(t, s.staff, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Failed to list users", decode[errorResponse](t, w).Error)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"partial failure", &domain.PartialFailure{Flow: domain.FlowSwap, Err: domain.ErrUnavailable}, http.StatusInternalServerError},
		{"blocked", fmt.Errorf("swap: %w", domain.ErrUserBlocked), http.StatusForbidden},
		{"same battery", domain.ErrSameBattery, http.StatusBadRequest},
		{"conflict", &domain.ConflictError{Resource: "bikes", Err: domain.ErrVersionConflict}, http.StatusConflict},
		{"rolled back conflict", &domain.FlowError{Flow: domain.FlowAssign, Err: &domain.ConflictError{}}, http.StatusConflict},
		{"not found", &domain.StoreError{Op: "get", Err: domain.ErrNotFound}, http.StatusNotFound},
		{"duplicate", &domain.StoreError{Op: "create", Err: domain.ErrDuplicate}, http.StatusConflict},
		{"unavailable", &domain.StoreError{Op: "list", Err: domain.ErrUnavailable}, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, statusFor(tt.err))
		})
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Farah")

	w := s.do(t, "", http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `caption_http_requests_total{method="POST",path="/users",status="201"} 1`)
}
