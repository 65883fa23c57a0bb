package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MOYARU/verid/internal/config"
	"github.com/MOYARU/verid/internal/fingerprint"
	"github.com/MOYARU/verid/internal/report"
)

// Store is the optional persistence behind the API.
type Store interface {
	Save(ctx context.Context, r *report.Report) error
	Get(ctx context.Context, scanID string) (*report.Report, error)
}

// Server exposes the identification engine over HTTP. It never fetches
// anything itself: callers submit the hashes and page bodies they hold.
type Server struct {
	cfg      *config.Config
	registry *fingerprint.Registry
	store    Store
	log      *logrus.Entry
	router   *gin.Engine
}

type Option func(*Server)

func WithStore(st Store) Option {
	return func(s *Server) { s.store = st }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Server) { s.log = log }
}

func New(cfg *config.Config, registry *fingerprint.Registry, opts ...Option) *Server {
	s := &Server{cfg: cfg, registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)
	v1 := r.Group("/api/v1")
	{
		v1.GET("/collections", s.listCollections)
		v1.POST("/collections/reload", s.reloadCollections)
		v1.POST("/identify", s.identify)
		v1.GET("/identifications/:id", s.getIdentification)
	}
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("api stopped")
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}

func errorJSON(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{
		"status":  "error",
		"message": report.SanitizeText(err.Error()),
	})
}
