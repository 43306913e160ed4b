package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/payment"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/middleware"
	"cleandigo/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type MockGate struct {
	mock.Mock
}

func (m *MockGate) RecordPayment(ctx context.Context, c access.Caller, bookingID uuid.UUID, req payment.RecordRequest) (*payment.Payment, error) {
	args := m.Called(ctx, c, bookingID, req)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *MockGate) Payments(ctx context.Context, c access.Caller, bookingID uuid.UUID) ([]payment.Payment, error) {
	args := m.Called(ctx, c, bookingID)
	p, _ := args.Get(0).([]payment.Payment)
	return p, args.Error(1)
}

type staticResolver struct{ role profile.Role }

func (r staticResolver) Resolve(_ context.Context, id uuid.UUID) (access.Caller, error) {
	return access.Caller{ID: id, Role: r.role}, nil
}

func serve(t *testing.T, gate Gate, caller access.Caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("user_id", caller.ID.String())
		c.Next()
	}, middleware.ResolveCaller(staticResolver{role: caller.Role}))
	NewHandler(gate).RegisterRoutes(v1)

	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRecordPayment(t *testing.T) {
	admin := access.Caller{ID: uuid.New(), Role: profile.RoleAdmin}
	bookingID := uuid.New()
	gate := new(MockGate)
	gate.On("RecordPayment", mock.Anything, admin, bookingID, mock.MatchedBy(func(req payment.RecordRequest) bool {
		return req.Amount == 180 && req.Method == "card"
	})).Return(&payment.Payment{ID: uuid.New(), BookingID: bookingID, Amount: 180, Status: payment.StatusPaid, InvoiceNumber: "INV-20240115-ABCDEF12"}, nil)

	rr := serve(t, gate, admin, http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/payments",
		map[string]any{"amount": 180, "payment_method": "card"})

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "paid", gjson.Get(rr.Body.String(), "data.payment_status").String())
	assert.Equal(t, "INV-20240115-ABCDEF12", gjson.Get(rr.Body.String(), "data.invoice_number").String())
	gate.AssertExpectations(t)
}

func TestRecordPaymentForbiddenForCustomer(t *testing.T) {
	customer := access.Caller{ID: uuid.New(), Role: profile.RoleCustomer}
	bookingID := uuid.New()
	gate := new(MockGate)
	gate.On("RecordPayment", mock.Anything, customer, bookingID, mock.Anything).Return(nil, apperr.ErrUnauthorized)

	rr := serve(t, gate, customer, http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/payments",
		map[string]any{"amount": 10})

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "FORBIDDEN", gjson.Get(rr.Body.String(), "error.code").String())
}

func TestListPayments(t *testing.T) {
	customer := access.Caller{ID: uuid.New(), Role: profile.RoleCustomer}
	bookingID := uuid.New()
	gate := new(MockGate)
	gate.On("Payments", mock.Anything, customer, bookingID).Return([]payment.Payment{{Amount: 50}, {Amount: 100}}, nil)

	rr := serve(t, gate, customer, http.MethodGet, "/api/v1/bookings/"+bookingID.String()+"/payments", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(2), gjson.Get(rr.Body.String(), "data.#").Int())
}
