package app

import (
	"net/http"

	"cleandigo/internal/config"
	"cleandigo/internal/domain/realtime"
	"cleandigo/internal/middleware"
	adminmod "cleandigo/internal/modules/admin"
	bookingmod "cleandigo/internal/modules/booking"
	catalogmod "cleandigo/internal/modules/catalog"
	paymentmod "cleandigo/internal/modules/payment"
	reviewmod "cleandigo/internal/modules/review"
	"cleandigo/internal/pkg/jwt"
	"cleandigo/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.App, tokens *jwt.Service, s *Services) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	realtime.NewHandler(s.Hub, tokens, s.Profiles, cfg.CORSAllowedOrigins).RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	protected := v1.Group("", middleware.JWTAuth(tokens), middleware.ResolveCaller(s.Gate))

	protected.GET("/me", func(c *gin.Context) {
		caller, ok := middleware.MustCaller(c)
		if !ok {
			return
		}
		p, err := s.Profiles.GetByID(c.Request.Context(), caller.ID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, http.StatusOK, p)
	})

	catalogmod.NewHandler(s.Catalog).RegisterRoutes(v1)
	bookingmod.NewHandler(s.Gate).RegisterRoutes(protected)
	paymentmod.NewHandler(s.Gate).RegisterRoutes(protected)
	reviewmod.NewHandler(s.Gate, s.Reviews).RegisterRoutes(v1, protected)
	adminmod.NewHandler(s.Gate, cfg.StaleThresholdHours, middleware.InternalTokenAuth(cfg.InternalToken)).
		RegisterRoutes(protected, r.Group("/internal"))

	return r
}
