package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/gas-voucher/internal/application/service"
	"github.com/garyjia/gas-voucher/internal/auth"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/internal/domain/workflow"
	"github.com/garyjia/gas-voucher/internal/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	server   *Server
	tokens   *auth.TokenManager
	vouchers *mockVoucherService
	payments *mockPaymentService
	export   *mockExportService
	users    *mockUserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		tokens:   auth.NewTokenManager("test-secret", "gas-voucher", time.Hour),
		vouchers: &mockVoucherService{},
		payments: &mockPaymentService{},
		export:   &mockExportService{},
		users:    &mockUserService{},
	}
	ts.server = NewServer(DefaultServerConfig(), Dependencies{
		VoucherService: ts.vouchers,
		PaymentService: ts.payments,
		ExportService:  ts.export,
		UserService:    ts.users,
		Tokens:         ts.tokens,
	}, mockLogger{})
	t.Cleanup(func() {
		ts.vouchers.AssertExpectations(t)
		ts.payments.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body, userID, role string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		token, err := ts.tokens.Issue(userID, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) (Response, map[string]interface{}) {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	var data map[string]interface{}
	if len(raw.Data) > 0 && raw.Data[0] == '{' {
		require.NoError(t, json.Unmarshal(raw.Data, &data))
	}
	return Response{Success: raw.Success, Error: raw.Error}, data
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	resp, data := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", data["status"])
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	h := NewHandlers(nil, nil, nil, func(ctx context.Context) (interface{}, error) {
		return map[string]string{"database": "down"}, errors.New("database ping failed")
	}, mockLogger{})
	router := gin.New()
	router.GET("/health", h.HealthCheck)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp, data := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "unhealthy", data["status"])
}

func TestAuth_MissingAndInvalidToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/vouchers/my-vouchers", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/vouchers/my-vouchers", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_AdminRoutesRejectUsers(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/vouchers/pending", "/vouchers/all", "/vouchers/export", "/monthly-payments/user/1"} {
		rec := ts.do(t, http.MethodGet, path, "", "42", entity.RoleUser)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestRequestVoucher(t *testing.T) {
	ts := newTestServer(t)
	ts.vouchers.On("Request", "42", 15, mock.Anything).
		Return(&entity.Voucher{ID: "v1", UserID: "42", Kilos: 15, Status: entity.VoucherStatusPending}, nil)

	rec := ts.do(t, http.MethodPost, "/vouchers/request", `{"kilos":15,"bank":"BancoEstado"}`, "42", entity.RoleUser)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp, data := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "v1", data["id"])
	assert.Equal(t, "pending", data["status"])
}

func TestAuth_SyncsTokenProfile(t *testing.T) {
	ts := newTestServer(t)
	ts.vouchers.On("ListByUser", "42").Return([]*entity.Voucher{}, nil).Twice()

	token, err := ts.tokens.Issue("42", entity.RoleUser, auth.WithProfile(entity.UserSummary{Name: "Ana", Email: "ana@example.com"}))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/vouchers/my-vouchers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []entity.UserSummary{{ID: "42", Name: "Ana", Email: "ana@example.com"}}, ts.users.synced())

	ts.users.err = errors.New("database is locked")
	rec = httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "a failed profile write must not fail the request")
}

func TestRequestVoucher_InvalidBody(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{`{"kilos":0}`, `{"kilos":-5}`, `{}`, `not json`} {
		rec := ts.do(t, http.MethodPost, "/vouchers/request", body, "42", entity.RoleUser)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestApproveVoucher(t *testing.T) {
	ts := newTestServer(t)
	amount := decimal.RequireFromString("21500")
	ts.vouchers.On("Approve", "v1", "21500", mock.Anything, "1").
		Return(&entity.Voucher{ID: "v1", Status: entity.VoucherStatusApproved, Amount: &amount}, nil)

	rec := ts.do(t, http.MethodPatch, "/vouchers/v1/approve", `{"amount":21500,"notes":"ok"}`, "1", entity.RoleAdmin)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, data := decode(t, rec)
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, "21500", data["amount"])
}

func TestApproveVoucher_RequiresAmount(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPatch, "/vouchers/v1/approve", `{"notes":"ok"}`, "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoucherErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("voucher v1: %w", entity.ErrNotFound), http.StatusNotFound},
		{"invalid transition", fmt.Errorf("approve: %w", workflow.ErrInvalidTransition), http.StatusConflict},
		{"validation", entity.NewValidationError("amount", "must not be negative"), http.StatusBadRequest},
		{"conflict", entity.ErrConflict, http.StatusConflict},
		{"internal", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.vouchers.On("MarkDelivered", "v1").Return(nil, tt.err)

			rec := ts.do(t, http.MethodPatch, "/vouchers/v1/deliver", "", "1", entity.RoleAdmin)

			assert.Equal(t, tt.status, rec.Code)
			resp, _ := decode(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			assert.NotContains(t, resp.Error, "disk full")
		})
	}
}

func TestRejectVoucher_EmptyBody(t *testing.T) {
	ts := newTestServer(t)
	ts.vouchers.On("Reject", "v1", (*string)(nil), "1").
		Return(&entity.Voucher{ID: "v1", Status: entity.VoucherStatusRejected}, nil)

	rec := ts.do(t, http.MethodPatch, "/vouchers/v1/reject", "", "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateManualVoucher(t *testing.T) {
	ts := newTestServer(t)
	ts.vouchers.On("CreateManual", "42", 45, "62000", "1").
		Return(&entity.Voucher{ID: "v2", Status: entity.VoucherStatusApproved}, nil)

	rec := ts.do(t, http.MethodPost, "/vouchers/manual",
		`{"user_id":"42","kilos":45,"amount":"62000"}`, "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestMyVouchersUsesTokenSubject(t *testing.T) {
	ts := newTestServer(t)
	ts.vouchers.On("ListByUser", "42").Return([]*entity.Voucher{{ID: "v1", UserID: "42"}}, nil)

	rec := ts.do(t, http.MethodGet, "/vouchers/my-vouchers", "", "42", entity.RoleUser)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetVoucher_HidesOtherUsersVouchers(t *testing.T) {
	ts := newTestServer(t)
	ts.vouchers.On("Get", "v1").Return(&entity.Voucher{ID: "v1", UserID: "7"}, nil)

	rec := ts.do(t, http.MethodGet, "/vouchers/v1", "", "42", entity.RoleUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/vouchers/v1", "", "7", entity.RoleUser)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGeneralStats(t *testing.T) {
	ts := newTestServer(t)
	ts.vouchers.On("GeneralStats").Return(service.GeneralStats{
		VoucherStats: service.VoucherStats{Total: 3, Pending: 1, Approved: 2, TotalAmount: decimal.NewFromInt(83500)},
		ThisMonth:    2,
	}, nil)

	rec := ts.do(t, http.MethodGet, "/vouchers/stats/general", "", "1", entity.RoleAdmin)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, data := decode(t, rec)
	assert.EqualValues(t, 3, data["total"])
	assert.EqualValues(t, 2, data["this_month"])
}

func TestExportVouchers(t *testing.T) {
	ts := newTestServer(t)
	ts.export.data = []byte("xlsx-bytes")

	rec := ts.do(t, http.MethodGet, "/vouchers/export", "", "1", entity.RoleAdmin)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestExportVouchers_MissingTemplate(t *testing.T) {
	ts := newTestServer(t)
	ts.export.err = fmt.Errorf("open template: %w", report.ErrTemplateNotFound)

	rec := ts.do(t, http.MethodGet, "/vouchers/export", "", "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreatePayment(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("Create", mock.MatchedBy(func(in service.NewPayment) bool {
		return in.UserID == "42" && in.Year == 2024 && in.Month == 3 &&
			in.Amount.Equal(decimal.NewFromInt(15000)) && in.CreatedBy == "1" &&
			in.PaymentDate != nil && in.PaymentDate.Day() == 5
	})).Return(&entity.MonthlyPayment{ID: "p1", UserID: "42", Year: 2024, Month: 3}, nil)

	rec := ts.do(t, http.MethodPost, "/monthly-payments",
		`{"user_id":"42","year":2024,"month":3,"amount":15000,"payment_date":"2024-03-05"}`, "1", entity.RoleAdmin)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreatePayment_Conflict(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("Create", mock.Anything).Return(nil, fmt.Errorf("payment: %w", entity.ErrConflict))

	rec := ts.do(t, http.MethodPost, "/monthly-payments",
		`{"user_id":"42","year":2024,"month":3,"amount":15000}`, "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreatePayment_InvalidMonth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/monthly-payments",
		`{"user_id":"42","year":2024,"month":13,"amount":15000}`, "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePayment_PartialPatch(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("Update", "p1", mock.MatchedBy(func(p entity.PaymentPatch) bool {
		return p.Amount != nil && p.Amount.Equal(decimal.NewFromInt(20000)) &&
			p.Year == nil && p.Month == nil && p.Description == nil && p.PaymentDate == nil
	})).Return(&entity.MonthlyPayment{ID: "p1"}, nil)

	rec := ts.do(t, http.MethodPatch, "/monthly-payments/p1", `{"amount":20000}`, "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeletePayment_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("Delete", "p9").Return(fmt.Errorf("payment p9: %w", entity.ErrNotFound))

	rec := ts.do(t, http.MethodDelete, "/monthly-payments/p9", "", "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMonthAmount_ZeroWhenAbsent(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("MonthAmount", "42", 2024, 2).Return(decimal.Zero, nil)

	rec := ts.do(t, http.MethodGet, "/monthly-payments/user/42/year/2024/month/2", "", "1", entity.RoleAdmin)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, data := decode(t, rec)
	assert.Equal(t, "0", data["amount"])
	assert.EqualValues(t, 2, data["month"])
}

func TestYearlyTotal_BadYear(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/monthly-payments/user/42/year/abc/total", "", "1", entity.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentSummary(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.On("Summary", "42").Return([]service.YearSummary{
		{Year: 2024, Total: decimal.NewFromInt(30000), Months: []service.MonthSummary{
			{Month: 1, Amount: decimal.NewFromInt(15000)},
			{Month: 2, Amount: decimal.NewFromInt(15000)},
		}},
	}, nil)

	rec := ts.do(t, http.MethodGet, "/monthly-payments/user/42/summary", "", "1", entity.RoleAdmin)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []service.YearSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Len(t, body.Data[0].Months, 2)
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	server := NewServer(cfg, Dependencies{Tokens: auth.NewTokenManager("s", "", time.Hour)}, mockLogger{})

	req := httptest.NewRequest(http.MethodOptions, "/vouchers/request", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
