// Package server exposes the signature engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/storage"
)

// Config configures the HTTP transport.
type Config struct {
	// MaxUploadBytes limits the request body. Zero disables the limit.
	MaxUploadBytes int64
	// AllowOrigin is sent as Access-Control-Allow-Origin when set.
	AllowOrigin string
}

// Server routes signing requests to a stamper and optionally keeps the
// results in a store.
type Server struct {
	stamper *pdfstamp.Stamper
	store   *storage.Store
	logger  *zap.Logger
	cfg     Config
}

// New returns a server. A nil store disables the documents routes and a
// nil logger discards logs.
func New(stamper *pdfstamp.Stamper, store *storage.Store, logger *zap.Logger, cfg Config) *Server {
	if stamper == nil {
		stamper = pdfstamp.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		stamper: stamper,
		store:   store,
		logger:  logger,
		cfg:     cfg,
	}
}

// Handler returns the gin engine serving all routes.
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), s.cors(), s.limitBody())

	api := router.Group("/api/v1")
	{
		s.RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// RegisterRoutes adds the signing and documents routes to rg.
func (s *Server) RegisterRoutes(rg *gin.RouterGroup) {
	sign := rg.Group("/sign")
	{
		sign.POST("", s.Sign)
		sign.POST("/text", s.SignText)
		sign.POST("/image", s.SignImage)
	}

	docs := rg.Group("/documents")
	{
		docs.GET("/:id", s.GetDocument)
		docs.GET("/:id/signed", s.GetSigned)
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server started", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := c.Writer.Header().Get(headerDocumentID); id != "" {
			fields = append(fields, zap.String("document_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request", fields...)
			return
		}
		s.logger.Info("request", fields...)
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AllowOrigin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", s.cfg.AllowOrigin)
			h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
			h.Set("Access-Control-Expose-Headers", strings.Join([]string{"Content-Disposition", headerDocumentID}, ", "))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.MaxUploadBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > s.cfg.MaxUploadBytes {
			abort(c, http.StatusRequestEntityTooLarge, kindRequestTooLarge,
				fmt.Errorf("request body exceeds %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
		c.Next()
	}
}
