package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"pennycentral/internal/adroute"
	"pennycentral/internal/analytics"
	"pennycentral/internal/domain"
	"pennycentral/internal/service/admin"
	reportsvc "pennycentral/internal/service/report"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type ItemService interface {
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	Get(ctx context.Context, sku string) (*domain.Item, error)
	Patch(ctx context.Context, sku string, patch domain.ItemPatch) (*domain.Item, error)
	Delete(ctx context.Context, sku string) error
}

type ReportService interface {
	Submit(ctx context.Context, in reportsvc.SubmitInput) (*domain.Report, error)
	List(ctx context.Context, status string, limit int) ([]domain.Report, error)
	Approve(ctx context.Context, id string) (*reportsvc.Approval, error)
	Reject(ctx context.Context, id string) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
}

type StoreService interface {
	List(ctx context.Context, state string) ([]domain.Store, error)
	Get(ctx context.Context, number string) (*domain.Store, error)
}

type AdminAuth interface {
	Login(password string) (*admin.Token, error)
	Verify(token string) error
}

type Tracker interface {
	Send(ctx context.Context, clientID string, ev analytics.Event) error
}

// SubmissionLimit bounds report submissions per client IP.
type SubmissionLimit struct {
	PerMinute int
	Burst     int
}

// Deps are the services behind the API. Tracker may be nil.
type Deps struct {
	ItemSvc        ItemService
	ReportSvc      ReportService
	StoreSvc       StoreService
	Admin          AdminAuth
	Tracker        Tracker
	Launch         adroute.LaunchConfig
	AllowedOrigins []string
	Submissions    SubmissionLimit
	// Debug runs gin in debug mode; otherwise release mode is used.
	Debug bool
	// Readiness lists the dependencies /readyz pings.
	Readiness []ReadinessCheck
}

func (d Deps) validate() error {
	switch {
	case d.ItemSvc == nil:
		return errors.New("item service is required")
	case d.ReportSvc == nil:
		return errors.New("report service is required")
	case d.StoreSvc == nil:
		return errors.New("store service is required")
	case d.Admin == nil:
		return errors.New("admin auth is required")
	}
	for _, check := range d.Readiness {
		if check.Name == "" || check.Ping == nil {
			return errors.New("readiness checks need a name and a ping func")
		}
	}
	return nil
}

// buildRouter wires routes for the API. The returned func stops background
// janitors and must be called on shutdown.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, func(), error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if err := deps.validate(); err != nil {
		return nil, nil, err
	}

	if deps.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestID(), gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(deps.AllowedOrigins)))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Readiness))

	h := &handlers{deps: deps, logger: logger}
	limiter := newIPLimiter(deps.Submissions.PerMinute, deps.Submissions.Burst, 10*time.Minute)

	api := router.Group("/api")
	api.GET("/penny-list", h.listItems)
	api.GET("/items/:sku", h.getItem)
	api.POST("/reports", limiter.middleware(logger), h.submitReport)
	api.GET("/stores", h.listStores)
	api.GET("/stores/:number", h.getStore)
	api.GET("/ads/config", h.adConfig)
	api.POST("/track", h.track)
	api.POST("/admin/login", h.login)

	adminGroup := api.Group("/admin", requireAdmin(deps.Admin))
	adminGroup.PATCH("/items/:sku", h.patchItem)
	adminGroup.DELETE("/items/:sku", h.deleteItem)
	adminGroup.GET("/reports", h.listReports)
	adminGroup.POST("/reports/:id/approve", h.approveReport)
	adminGroup.POST("/reports/:id/reject", h.rejectReport)
	adminGroup.DELETE("/reports/:id", h.deleteReport)

	router.NoRoute(func(c *gin.Context) {
		writeError(c, logger, domain.ErrNotFound)
	})

	return router, limiter.stop, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
