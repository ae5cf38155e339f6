package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpungsan/murmur/internal/auth"
	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/errors"
	"github.com/hpungsan/murmur/internal/ops"
)

// SessionCookie is the name of the admin session cookie.
const SessionCookie = "murmur_session"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Options holds the dependencies of the HTTP API.
type Options struct {
	DB        *sql.DB
	Config    *config.Config
	Auth      *auth.Authenticator
	Generator ops.Generator
	Logger    *zap.Logger
}

// NewRouter builds the gin engine serving the JSON API.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	h := &Handlers{
		db:     opts.DB,
		cfg:    cfg,
		auth:   opts.Auth,
		gen:    opts.Generator,
		logger: logger,
	}

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery(), securityHeaders())

	r.GET("/healthz", h.HandleHealth)

	api := r.Group("/api")
	api.POST("/login", h.HandleLogin)
	api.POST("/logout", h.HandleLogout)
	api.POST("/feedback", h.HandleSubmit)
	api.GET("/feedback", h.admin(h.HandleList))
	api.GET("/feedback/:id", h.admin(h.HandleGet))
	api.PUT("/feedback/:id", h.admin(h.HandleSetStatus))
	api.GET("/insights", h.admin(h.HandleInsights))

	r.NoRoute(func(c *gin.Context) {
		h.renderError(c, &errors.MurmurError{
			Code:    errors.ErrNotFound,
			Status:  http.StatusNotFound,
			Message: "route not found",
		})
	})

	return r
}

// NewServer creates the HTTP server for the JSON API.
func NewServer(opts Options, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// requestLogger logs one line per request and tags it with a request id.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-ID", reqID)

		c.Next()

		logger.Info("http request",
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
// onShutdown hooks run before the server stops accepting requests.
func Run(srv *http.Server, logger *zap.Logger, onShutdown ...func()) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("murmur API running", zap.String("addr", "http://"+srv.Addr))

	if strings.HasPrefix(srv.Addr, "0.0.0.0:") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		for _, fn := range onShutdown {
			fn()
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
