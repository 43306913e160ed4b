package review

import (
	"net/http"
	"strconv"
	"time"

	"cleandigo/internal/domain/review"
	"cleandigo/internal/middleware"
	"cleandigo/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PublishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// PublicReview is what anonymous visitors see; contact details stay private.
type PublicReview struct {
	ID           uuid.UUID `json:"id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CustomerName string    `json:"customer_name"`
	CreatedAt    time.Time `json:"created_at"`
}

func publicView(items []review.Review) []PublicReview {
	out := make([]PublicReview, 0, len(items))
	for _, rv := range items {
		name := ""
		if rv.Customer != nil {
			name = rv.Customer.FirstName
		}
		out = append(out, PublicReview{ID: rv.ID, Rating: rv.Rating, Comment: rv.Comment, CustomerName: name, CreatedAt: rv.CreatedAt})
	}
	return out
}

type Handler struct {
	gate   Gate
	public PublicReviews
}

func NewHandler(gate Gate, public PublicReviews) *Handler {
	return &Handler{gate: gate, public: public}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if public != nil {
		public.GET("/reviews", h.ListPublished)
	}

	if protected != nil {
		protected.POST("/bookings/:id/reviews", h.Create)
		protected.GET("/bookings/:id/reviews", h.ByBooking)
		protected.PATCH("/admin/reviews/:id/publish", h.Publish)
	}
}

// Create handles POST /bookings/:id/reviews. Only the booking's customer may
// review, and only once it is completed.
func (h *Handler) Create(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req review.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}

	rv, err := h.gate.CreateReview(c.Request.Context(), caller, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rv)
}

func (h *Handler) ByBooking(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.gate.BookingReviews(c.Request.Context(), caller, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) Publish(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}

	rv, err := h.gate.PublishReview(c.Request.Context(), caller, id, *req.Published)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rv)
}

func (h *Handler) ListPublished(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	items, err := h.public.ListPublished(c.Request.Context(), limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, publicView(items))
}
