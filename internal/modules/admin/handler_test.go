package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/export"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/domain/stats"
	"cleandigo/internal/domain/sweeper"
	"cleandigo/internal/middleware"
	"cleandigo/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

type MockGate struct {
	mock.Mock
}

func (m *MockGate) Export(ctx context.Context, c access.Caller, f export.Filter, format export.Format) (*export.Result, error) {
	args := m.Called(ctx, c, f, format)
	r, _ := args.Get(0).(*export.Result)
	return r, args.Error(1)
}

func (m *MockGate) Dashboard(ctx context.Context, c access.Caller) (*stats.Dashboard, error) {
	args := m.Called(ctx, c)
	d, _ := args.Get(0).(*stats.Dashboard)
	return d, args.Error(1)
}

func (m *MockGate) Sweep(ctx context.Context, c access.Caller, thresholdHours int) (*sweeper.Summary, error) {
	args := m.Called(ctx, c, thresholdHours)
	s, _ := args.Get(0).(*sweeper.Summary)
	return s, args.Error(1)
}

func (m *MockGate) AuditLog(ctx context.Context, c access.Caller, f audit.Filter) ([]audit.Entry, error) {
	args := m.Called(ctx, c, f)
	e, _ := args.Get(0).([]audit.Entry)
	return e, args.Error(1)
}

type staticResolver struct{ role profile.Role }

func (r staticResolver) Resolve(_ context.Context, id uuid.UUID) (access.Caller, error) {
	return access.Caller{ID: id, Role: r.role}, nil
}

var admin = access.Caller{ID: uuid.New(), Role: profile.RoleAdmin}

func newRouter(gate Gate) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("user_id", admin.ID.String())
		c.Next()
	}, middleware.ResolveCaller(staticResolver{role: admin.Role}))
	internal := r.Group("/internal")
	NewHandler(gate, 24, middleware.InternalTokenAuth("cron-token")).RegisterRoutes(protected, internal)
	return r
}

func do(r http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func sampleRows() []export.Row {
	return []export.Row{{
		BookingID:     uuid.NewString(),
		CustomerName:  "Jo Smith",
		Address:       "1 George St, Sydney",
		Status:        "pending",
		Cleaner:       "Not assigned",
		PaymentStatus: "Pending",
	}}
}

func TestExportCSVDownload(t *testing.T) {
	gate := new(MockGate)
	want := export.Filter{
		DateFrom: "2024-01-01",
		DateTo:   "2024-01-31",
		Statuses: []booking.Status{booking.StatusPending},
		Page:     2,
		PageSize: 50,
	}
	gate.On("Export", mock.Anything, admin, want, export.FormatCSV).Return(&export.Result{
		Rows: sampleRows(), Total: 51, Page: 2, PageSize: 50, Format: export.FormatCSV,
		Filename: "cleandigo-bookings-2024-01-01-to-2024-01-31-page-2.csv",
	}, nil)

	rr := do(newRouter(gate), http.MethodGet,
		"/api/v1/admin/exports/bookings?start_date=2024-01-01&end_date=2024-01-31&status=pending&page=2&limit=50", nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, csvContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "cleandigo-bookings-2024-01-01-to-2024-01-31-page-2.csv")
	assert.Equal(t, "51", rr.Header().Get("X-Total-Count"))

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(export.Header, ","), strings.TrimRight(lines[0], "\r"))
	assert.Contains(t, lines[1], `"1 George St, Sydney"`)
	gate.AssertExpectations(t)
}

func TestExportXLSXDownload(t *testing.T) {
	gate := new(MockGate)
	gate.On("Export", mock.Anything, admin, export.Filter{}, export.FormatXLSX).Return(&export.Result{
		Rows: sampleRows(), Total: 1, Page: 1, PageSize: 1000, Format: export.FormatXLSX,
		Filename: "cleandigo-bookings-all-to-all-page-1.xlsx",
	}, nil)

	rr := do(newRouter(gate), http.MethodGet, "/api/v1/admin/exports/bookings?format=xlsx", nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Jo Smith", rows[1][4])
}

func TestExportRejectsBadQuery(t *testing.T) {
	gate := new(MockGate)
	r := newRouter(gate)

	for _, q := range []string{"format=pdf", "page=0", "limit=abc", "status=archived"} {
		rr := do(r, http.MethodGet, "/api/v1/admin/exports/bookings?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		assert.Equal(t, "VALIDATION_ERROR", gjson.Get(rr.Body.String(), "error.code").String(), q)
	}
	gate.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsForbidden(t *testing.T) {
	gate := new(MockGate)
	gate.On("Dashboard", mock.Anything, admin).Return(nil, apperr.ErrUnauthorized)

	rr := do(newRouter(gate), http.MethodGet, "/api/v1/admin/stats", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSweepUsesDefaultThreshold(t *testing.T) {
	gate := new(MockGate)
	gate.On("Sweep", mock.Anything, admin, 24).Return(&sweeper.Summary{Processed: 2}, nil).Once()
	gate.On("Sweep", mock.Anything, admin, 48).Return(&sweeper.Summary{Processed: 1}, nil).Once()
	r := newRouter(gate)

	rr := do(r, http.MethodPost, "/api/v1/admin/sweep", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(2), gjson.Get(rr.Body.String(), "data.processed").Int())

	rr = do(r, http.MethodPost, "/api/v1/admin/sweep", map[string]any{"threshold_hours": 48})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(1), gjson.Get(rr.Body.String(), "data.processed").Int())
	gate.AssertExpectations(t)
}

func TestInternalSweepNeedsToken(t *testing.T) {
	gate := new(MockGate)
	gate.On("Sweep", mock.Anything, access.System(), 24).Return(&sweeper.Summary{Processed: 3}, nil)
	r := newRouter(gate)

	rr := do(r, http.MethodPost, "/internal/sweep", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(r, http.MethodPost, "/internal/sweep", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(r, http.MethodPost, "/internal/sweep", nil, "Authorization", "Bearer cron-token")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(3), gjson.Get(rr.Body.String(), "data.processed").Int())
	gate.AssertNumberOfCalls(t, "Sweep", 1)
}

func TestAuditLogFilter(t *testing.T) {
	gate := new(MockGate)
	gate.On("AuditLog", mock.Anything, admin, audit.Filter{Table: "bookings", Action: audit.ActionStaleFlagged, Limit: 10}).
		Return([]audit.Entry{{ID: 1, Table: "bookings", Action: audit.ActionStaleFlagged}}, nil)

	rr := do(newRouter(gate), http.MethodGet, "/api/v1/admin/audit-log?table=bookings&action=STALE_FLAGGED&limit=10", nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(1), gjson.Get(rr.Body.String(), "data.#").Int())
	gate.AssertExpectations(t)
}
