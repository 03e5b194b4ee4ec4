package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/geocoder89/accounthub/internal/observability"
)

// Deps is everything the router needs. Prom and Gatherer may be nil, in
// which case /metrics is not served.
type Deps struct {
	Log      *slog.Logger
	Config   config.Config
	Accounts handlers.AccountService
	Tokens   middlewares.TokenVerifier
	Checks   map[string]handlers.Pinger
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName(d.Config)))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	maxBody := d.Config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	users := handlers.NewUsersHandler(d.Accounts, log, d.Prom)
	authMW := middlewares.NewAuthMiddleware(d.Tokens, log)

	requireJSON := middlewares.RequireJSON()

	api := r.Group("/users", middlewares.MaxBodyBytes(maxBody))
	{
		api.POST("/register", requireJSON, users.Register)
		api.POST("/login", requireJSON, users.Login)

		profile := api.Group("/profile", authMW.RequireAuth())
		profile.GET("", users.GetProfile)
		profile.PUT("", requireJSON, users.UpdateProfile)
		profile.DELETE("", users.DeleteProfile)
	}

	return r
}

func serviceName(cfg config.Config) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return "accounthub"
}
