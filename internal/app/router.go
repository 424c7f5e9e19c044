package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lumehq/lume-backend/internal/handlers"
	"github.com/lumehq/lume-backend/internal/platform/envutil"
)

func wireRouter(cfg Config, h Handlers, mw Middleware) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware("lume-backend"))
	r.Use(cors.New(corsConfig()))

	r.GET("/healthz", handlers.HealthCheck)

	api := r.Group("/api")

	protected := api.Group("/")
	protected.Use(mw.Auth.RequireAuth())
	{
		protected.POST("/interventions/evaluate", h.Intervention.Evaluate)
		protected.POST("/interventions/:id/feedback", h.Intervention.Feedback)
		protected.GET("/interventions/preferences", h.Intervention.Preferences)
	}

	internal := api.Group("/jobs")
	internal.Use(mw.Internal.Require())
	{
		internal.POST("/:type/run", h.Jobs.RunJob)
		internal.GET("/:id", h.Jobs.GetJobByID)
	}

	return r
}

func corsConfig() cors.Config {
	c := cors.DefaultConfig()
	origins := envutil.String("CORS_ALLOWED_ORIGINS", "")
	if origins == "" {
		c.AllowAllOrigins = true
	} else {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowOrigins = append(c.AllowOrigins, o)
			}
		}
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Internal-Token")
	c.MaxAge = 12 * time.Hour
	return c
}
