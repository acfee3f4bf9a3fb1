package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitepunch.app/sitepunch/account"
	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/config"
	"sitepunch.app/sitepunch/infrastructure/metrics"
	"sitepunch.app/sitepunch/store"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/web/handlers/adminapi"
	"sitepunch.app/sitepunch/web/handlers/auth"
	"sitepunch.app/sitepunch/web/handlers/clock"
	"sitepunch.app/sitepunch/web/middlewares"
)

const maxBodyBytes = 1 << 20

type Dependencies struct {
	Engine   *timeclock.Engine
	Accounts *account.Service
	Admin    *admin.Service
	Secret   []byte
	Logger   *zap.Logger
	Clock    clock.Options
	Mode     string
	// ServeMetrics mounts /metrics; off behind the Lambda proxy.
	ServeMetrics bool
}

func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.Logger(deps.Logger))
	r.Use(middlewares.Metrics())
	r.Use(middlewares.CORS())
	r.Use(middlewares.BodyLimit(maxBodyBytes))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.ServeMetrics {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	public := r.Group("/api")
	protected := r.Group("/api", middlewares.Authentication(deps.Secret))

	auth.Register(public, protected, deps.Accounts)
	adminapi.Register(public, protected, deps.Accounts, deps.Admin)
	clock.Register(protected, deps.Engine, deps.Admin, deps.Accounts, deps.Clock)

	return r
}

// Build wires the services over backend the same way for the HTTP server and
// the Lambda proxy.
func Build(backend store.Backend, cfg *config.Config, logger *zap.Logger, serveMetrics bool) (*gin.Engine, error) {
	secret, err := cfg.Auth.SigningKey()
	if err != nil {
		return nil, err
	}

	return NewRouter(Dependencies{
		Engine:   timeclock.NewEngine(backend),
		Accounts: account.NewService(backend, secret, cfg.Auth.TokenTTL, logger),
		Admin:    admin.NewService(backend, logger),
		Secret:   secret,
		Logger:   logger,
		Clock: clock.Options{
			WindowDays:        cfg.PayPeriod.WindowDays,
			OvertimeThreshold: cfg.PayPeriod.OvertimeThreshold,
		},
		Mode:         cfg.Server.Mode,
		ServeMetrics: serveMetrics,
	}), nil
}
