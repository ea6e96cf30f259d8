// Package api exposes the client engine over a local HTTP control
// surface, so tooling and UIs can drive messaging without linking the
// engine directly.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NimbusChat/nimbus-client/pkg/network"
	"github.com/NimbusChat/nimbus-client/pkg/storage"
)

// Server is the HTTP control server wrapping one client engine
type Server struct {
	client     *network.Client
	db         *storage.MessageDB
	router     *gin.Engine
	port       int
	httpServer *http.Server
}

// Config holds server configuration
type Config struct {
	Port         int
	EnableCORS   bool
	RateLimit    int // Requests per minute
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:         8099,
		EnableCORS:   true,
		RateLimit:    300,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

// NewServer creates the control server. The message database is
// optional; conversation endpoints return 503 without one.
func NewServer(client *network.Client, db *storage.MessageDB, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &Server{
		client: client,
		db:     db,
		router: router,
		port:   config.Port,
	}

	server.setupMiddleware(config)
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(config *Config) {
	if config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}
	s.router.Use(RateLimitMiddleware(config.RateLimit))
	s.router.Use(LoggingMiddleware())
	s.router.Use(gin.Recovery())
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.POST("/connect", s.handleConnect)
		v1.POST("/disconnect", s.handleDisconnect)
		v1.GET("/events", s.handleEvents)

		messages := v1.Group("/messages")
		{
			messages.POST("/send", s.handleSend)
			messages.POST("/react", s.handleReact)
			messages.POST("/read", s.handleMarkRead)
			messages.GET("/:id", s.handleGetMessage)
		}

		v1.GET("/conversations/:jid", s.handleConversation)

		presence := v1.Group("/presence")
		{
			presence.POST("/typing", s.handleTyping)
			presence.POST("/availability", s.handleAvailability)
		}

		groups := v1.Group("/groups")
		{
			groups.GET("/:jid", s.handleGroupMetadata)
			groups.GET("/:jid/participants", s.handleGroupParticipants)
		}

		contacts := v1.Group("/contacts")
		{
			contacts.GET("/:jid/picture", s.handleProfilePicture)
			contacts.GET("/:jid/status", s.handleContactStatus)
		}
	}

	// Health check endpoint (outside versioning)
	s.router.GET("/health", s.handleHealth)
}

// Start runs the HTTP server until the context is cancelled, then
// shuts it down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Control API listening on port %d", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Control API server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Printf("Shutting down control API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
