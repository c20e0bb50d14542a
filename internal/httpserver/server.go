package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jewelry-storefront/internal/logging"
)

const readyTimeout = time.Second

var errDBNotConfigured = errors.New("db not configured")

// ReadinessCheck is a dependency /readyz probes before reporting ready.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server wraps the HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New builds a Server serving the storefront API. The database is always
// probed by /readyz; extra checks (the reset code store, say) are probed
// alongside it.
func New(addr string, logger *zap.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string, checks ...ReadinessCheck) (*Server, error) {
	logger = logging.OrNop(logger).Named("http")
	all := append([]ReadinessCheck{databaseCheck(db)}, checks...)
	router, err := buildRouter(logger, all, deps, corsOrigins)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: httpSrv, logger: logger}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func databaseCheck(db *pgxpool.Pool) ReadinessCheck {
	if db == nil {
		return ReadinessCheck{Name: "postgres", Ping: func(context.Context) error { return errDBNotConfigured }}
	}
	return ReadinessCheck{Name: "postgres", Ping: db.Ping}
}

func healthHandler(started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(started).Round(time.Second).String()})
	}
}

// readyHandler probes every check concurrently and answers 503 naming the
// first failing dependency, in check order.
func readyHandler(logger *zap.Logger, checks []ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		errs := make([]error, len(checks))
		var g errgroup.Group
		for i, chk := range checks {
			g.Go(func() error {
				errs[i] = chk.Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		states := make(gin.H, len(checks))
		reason := ""
		for i, chk := range checks {
			if errs[i] == nil {
				states[chk.Name] = "ok"
				continue
			}
			states[chk.Name] = "unavailable"
			logger.Warn("readiness check failed", zap.String("dependency", chk.Name), zap.Error(errs[i]))
			if reason != "" {
				continue
			}
			if errors.Is(errs[i], errDBNotConfigured) {
				reason = errDBNotConfigured.Error()
			} else {
				reason = chk.Name + " not reachable"
			}
		}
		if reason != "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": reason, "checks": states})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": states})
	}
}
