package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	JWT    JWTConfig
	Logger *zap.Logger
}

// NewRouter mounts every handler under /api/v1 behind JWT auth. /healthz
// stays public.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, Success(gin.H{"status": "ok"}))
	})

	v1 := r.Group("/api/v1")
	v1.Use(JWTMiddleware(cfg.JWT))
	{
		bookings := v1.Group("/bookings")
		bookings.POST("", h.Reserve)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/history", h.BookingHistory)
		bookings.POST("/:id/confirm", h.Confirm)
		bookings.POST("/:id/cancel", h.Cancel)

		resources := v1.Group("/resources")
		resources.POST("", h.CreateResource)
		resources.GET("", h.ListResources)
		resources.DELETE("/:id", h.DeactivateResource)
		resources.POST("/:id/rules", h.AddRule)
		resources.POST("/:id/overrides", h.AddOverride)
		resources.GET("/:id/windows", h.Windows)
		resources.GET("/:id/bookings", h.ListBookings)

		v1.POST("/variants/:id/resources", h.LinkVariantResource)
		v1.GET("/variants/:id/resources", h.VariantResources)
		v1.POST("/carts/:id/lines", h.AddCartLine)
		v1.POST("/stock", h.AddStock)
		v1.POST("/vouchers/:id/redemptions", h.RedeemVoucher)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Error(ErrCodeNotFound, "route not found"))
	})
	return r
}
