// Package server exposes the Anthropic Messages surface and forwards
// translated requests to an OpenAI Responses upstream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const nonStreamTimeout = 60 * time.Second

// Server is the HTTP proxy front end.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	// client bounds non-streaming upstream calls; streamClient leaves the
	// read deadline to the upstream.
	client       *http.Client
	streamClient *http.Client

	host    string
	port    int
	version string
}

// Option configures a Server.
type Option func(*Server)

// WithHost sets the listen host.
func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

// WithPort sets the listen port.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithVersion records the build version reported by /info.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewServer creates a configured proxy server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		client:       &http.Client{Timeout: nonStreamTimeout},
		streamClient: &http.Client{},
		port:         8787,
		version:      "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	s.engine = engine
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Anthropic clients use /v1/messages; the singular alias is kept for
	// older ones.
	s.engine.POST("/v1/messages", s.handleMessages)
	s.engine.POST("/v1/message", s.handleMessages)
	s.engine.POST("/v1/messages/count_tokens", s.handleCountTokens)
	s.engine.GET("/info", s.handleInfo)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("listening on %s", addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": "anthroshim", "version": s.version})
}
