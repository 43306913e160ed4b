package payment

import (
	"context"
	"net/http"

	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/payment"
	"cleandigo/internal/middleware"
	"cleandigo/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Gate interface {
	RecordPayment(ctx context.Context, c access.Caller, bookingID uuid.UUID, req payment.RecordRequest) (*payment.Payment, error)
	Payments(ctx context.Context, c access.Caller, bookingID uuid.UUID) ([]payment.Payment, error)
}

type Handler struct {
	gate Gate
}

func NewHandler(gate Gate) *Handler {
	return &Handler{gate: gate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:id/payments", h.Record)
	rg.GET("/bookings/:id/payments", h.List)
}

// Record handles POST /bookings/:id/payments. Admins only; the gate decides.
func (h *Handler) Record(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req payment.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}

	p, err := h.gate.RecordPayment(c.Request.Context(), caller, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.gate.Payments(c.Request.Context(), caller, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}
