package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readyCheckTimeout = time.Second

// Options configures the listener. Zero timeouts are left unset except
// ReadHeaderTimeout, which defaults to five seconds.
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Server owns the HTTP listener and the router's background janitors.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	stop       func()
}

// New builds a Server with every API route mounted.
func New(opts Options, logger *log.Logger, deps Deps) (*Server, error) {
	router, stop, err := buildRouter(logger, deps)
	if err != nil {
		return nil, err
	}

	headerTimeout := opts.ReadHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = 5 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: headerTimeout,
			ReadTimeout:       opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
		},
		logger: logger,
		stop:   stop,
	}, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then stops the janitors.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.stop()
	return s.httpServer.Shutdown(ctx)
}

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyHandler reports 200 only when every check passes. With no checks the
// service is not ready.
func readyHandler(checks []ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(checks) == 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "no readiness checks configured"})
			return
		}
		results := make(map[string]string, len(checks))
		ready := true
		for _, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyCheckTimeout)
			err := check.Ping(ctx)
			cancel()
			if err != nil {
				results[check.Name] = "unreachable"
				ready = false
				continue
			}
			results[check.Name] = "ok"
		}
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": results})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": results})
	}
}
