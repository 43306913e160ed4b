package booking

import (
	"net/http"
	"strconv"
	"strings"

	"cleandigo/internal/domain/booking"
	"cleandigo/internal/middleware"
	"cleandigo/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Handler struct {
	gate Gate
}

func NewHandler(gate Gate) *Handler {
	return &Handler{gate: gate}
}

// RegisterRoutes expects rg to run JWTAuth and ResolveCaller already.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Create)
	rg.GET("/bookings", h.List)
	rg.GET("/bookings/:id", h.Get)
	rg.GET("/bookings/:id/history", h.History)

	rg.PATCH("/bookings/:id/status", h.Transition)
	rg.POST("/bookings/:id/notes", h.Annotate)
	rg.POST("/bookings/:id/reschedule", h.Reschedule)

	rg.POST("/bookings/:id/items", h.AddItem)
	rg.DELETE("/bookings/:id/items/:itemId", h.RemoveItem)

	rg.POST("/bookings/:id/assignment", h.Assign)
	rg.GET("/bookings/:id/assignments", h.Assignments)
}

func (h *Handler) Create(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	var req booking.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}

	b, err := h.gate.CreateBooking(c.Request.Context(), caller, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	f, err := listFilter(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	items, total, err := h.gate.ListBookings(c.Request.Context(), caller, f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func listFilter(c *gin.Context) (booking.Filter, error) {
	f := booking.Filter{
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Postcode: c.Query("postcode"),
		Limit:    defaultListLimit,
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st, err := booking.ParseStatus(strings.TrimSpace(s))
			if err != nil {
				return f, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		f.Limit = min(n, maxListLimit)
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		f.Offset = n
	}
	return f, nil
}

func (h *Handler) Get(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}

	b, err := h.gate.GetBooking(c.Request.Context(), caller, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) History(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.gate.History(c.Request.Context(), caller, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

func (h *Handler) Transition(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}
	to, err := booking.ParseStatus(req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}

	tr, err := h.gate.ApplyTransition(c.Request.Context(), caller, id, to, req.Note)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tr)
}

func (h *Handler) Annotate(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}

	tr, err := h.gate.Annotate(c.Request.Context(), caller, id, req.Note, req.AdminNotes)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tr)
}

func (h *Handler) Reschedule(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}

	tr, err := h.gate.MarkRescheduledByPhone(c.Request.Context(), caller, id, req.Note)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tr)
}

func (h *Handler) AddItem(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req booking.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}

	b, err := h.gate.AddLineItem(c.Request.Context(), caller, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := response.UUIDParam(c, "itemId")
	if !ok {
		return
	}

	b, err := h.gate.RemoveLineItem(c.Request.Context(), caller, id, itemID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) Assign(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadBody(c)
		return
	}

	res, err := h.gate.AssignCleaner(c.Request.Context(), caller, id, req.CleanerID, req.Note)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Assignments(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.gate.Assignments(c.Request.Context(), caller, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}
