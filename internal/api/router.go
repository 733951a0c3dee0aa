package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jaehong-maker/Smart-Diffuser-Project/config"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()

	limit := rate.Limit(cfg.RateLimitPerSec)
	rateLimiter := mw.RateLimiter(limit, cfg.RateLimitBurst)
	deviceLimiter := mw.RateLimiterWith(limit, cfg.RateLimitBurst, rateLimited)

	h.responses = mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	caching := h.responses.Middleware()

	api := r.Group("/api")

	// Device and app decisions; a throttled device still gets a decision body.
	decisions := api.Group("/diffuser", deviceLimiter)
	{
		decisions.POST("", h.PostDiffuser)
		decisions.POST("/voice", h.PostVoice)
	}

	app := api.Group("", rateLimiter)
	{
		// Operator reads
		app.GET("/devices/:device_id/state", h.GetDeviceState)
		app.GET("/devices/:device_id/logs", caching, h.GetDeviceLogs)
		app.GET("/regions", caching, h.GetRegions)
		app.GET("/metrics", h.GetMetrics)

		// Reservoir alerts
		app.GET("/subscriptions", h.GetSubscription)
		app.PUT("/subscriptions", h.PutSubscription)
		app.DELETE("/subscriptions", h.DeleteSubscription)
		app.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
