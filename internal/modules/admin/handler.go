package admin

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/export"
	"cleandigo/internal/middleware"
	"cleandigo/internal/pkg/apperr"
	"cleandigo/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	gate         Gate
	defaultStale int
	internalAuth gin.HandlerFunc
}

// NewHandler wires the admin routes. internalAuth guards POST
// /internal/sweep; without it that route is not registered.
func NewHandler(gate Gate, defaultStaleHours int, internalAuth gin.HandlerFunc) *Handler {
	return &Handler{
		gate:         gate,
		defaultStale: defaultStaleHours,
		internalAuth: internalAuth,
	}
}

func (h *Handler) RegisterRoutes(protected, internal *gin.RouterGroup) {
	if protected != nil {
		a := protected.Group("/admin")
		a.GET("/stats", h.Stats)
		a.GET("/exports/bookings", h.ExportBookings)
		a.GET("/audit-log", h.AuditLog)
		a.POST("/sweep", h.Sweep)
	}

	if internal != nil && h.internalAuth != nil {
		internal.POST("/sweep", h.internalAuth, h.InternalSweep)
	}
}

func (h *Handler) Stats(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	d, err := h.gate.Dashboard(c.Request.Context(), caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

// ExportBookings streams a CSV or XLSX page of the booking projection.
// Query: format, start_date, end_date, status (comma separated), postcode,
// page, limit.
func (h *Handler) ExportBookings(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	f, format, err := exportFilter(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	res, err := h.gate.Export(c.Request.Context(), caller, f, format)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var buf bytes.Buffer
	contentType := csvContentType
	switch res.Format {
	case export.FormatXLSX:
		contentType = xlsxContentType
		err = export.WriteXLSX(&buf, res.Rows)
	default:
		err = export.WriteCSV(&buf, res.Rows)
	}
	if err != nil {
		log.Printf("export_write_failed format=%s rows=%d err=%v", res.Format, len(res.Rows), err)
		response.FromError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	c.Header("X-Total-Count", strconv.FormatInt(res.Total, 10))
	c.Header("X-Page", strconv.Itoa(res.Page))
	c.Header("X-Page-Size", strconv.Itoa(res.PageSize))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func exportFilter(c *gin.Context) (export.Filter, export.Format, error) {
	format := export.Format(strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV))))
	if format != export.FormatCSV && format != export.FormatXLSX {
		return export.Filter{}, "", fmt.Errorf("%w: format must be csv or xlsx", apperr.ErrValidation)
	}

	f := export.Filter{
		DateFrom: c.Query("start_date"),
		DateTo:   c.Query("end_date"),
		Postcode: c.Query("postcode"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st, err := booking.ParseStatus(strings.TrimSpace(s))
			if err != nil {
				return f, format, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	var err error
	if f.Page, err = intQuery(c, "page"); err != nil {
		return f, format, err
	}
	if f.PageSize, err = intQuery(c, "limit"); err != nil {
		return f, format, err
	}
	return f, format, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", apperr.ErrValidation, key)
	}
	return n, nil
}

func (h *Handler) AuditLog(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.gate.AuditLog(c.Request.Context(), caller, audit.Filter{
		Table:    c.Query("table"),
		RecordID: c.Query("record_id"),
		Action:   c.Query("action"),
		Limit:    limit,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

func (h *Handler) Sweep(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	threshold, ok := h.threshold(c)
	if !ok {
		return
	}

	summary, err := h.gate.Sweep(c.Request.Context(), caller, threshold)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// InternalSweep is the external-cron trigger, authenticated by the internal
// token instead of a profile. It sweeps as the System caller.
func (h *Handler) InternalSweep(c *gin.Context) {
	threshold, ok := h.threshold(c)
	if !ok {
		return
	}

	summary, err := h.gate.Sweep(c.Request.Context(), access.System(), threshold)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// threshold reads an optional JSON body; an empty body uses the default.
func (h *Handler) threshold(c *gin.Context) (int, bool) {
	var req SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadBody(c)
			return 0, false
		}
	}
	if req.ThresholdHours == 0 {
		req.ThresholdHours = h.defaultStale
	}
	return req.ThresholdHours, true
}
