package realtime

import (
	"context"
	"log"
	"net/http"

	"cleandigo/internal/domain/profile"
	"cleandigo/internal/pkg/jwt"
	"cleandigo/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	profiles ProfileReader
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint. An empty allowedOrigins list
// accepts any origin.
func NewHandler(hub *Hub, jwtService *jwt.Service, profiles ProfileReader, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Handler{
		hub:      hub,
		jwt:      jwtService,
		profiles: profiles,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin] || origins["*"]
			},
		},
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/bookings", h.Serve)
}

// Serve upgrades GET /ws/bookings?token=JWT. Browsers cannot set headers on
// websocket requests, so the token travels in the query string.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "TOKEN_REQUIRED", "token query parameter is required")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	userID, _ := uuid.Parse(claims.UserID)

	// role comes from the profile, not the token
	p, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNKNOWN_PROFILE", "profile not found")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("realtime_upgrade_failed user_id=%s err=%v", userID, err)
		return
	}
	h.hub.serve(conn, p.ID, p.Role)
}
