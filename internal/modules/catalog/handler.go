package catalog

import (
	"context"
	"net/http"

	"cleandigo/internal/domain/catalog"
	"cleandigo/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Lister interface {
	ListActive(ctx context.Context) ([]catalog.Service, error)
}

type Handler struct {
	services Lister
}

func NewHandler(services Lister) *Handler {
	return &Handler{services: services}
}

func (h *Handler) RegisterRoutes(public *gin.RouterGroup) {
	public.GET("/services", h.List)
}

// List handles GET /services, the active price list customers book from.
func (h *Handler) List(c *gin.Context) {
	items, err := h.services.ListActive(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}
