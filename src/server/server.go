package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"prop-backend/src/logger"
	"prop-backend/src/models"
	"prop-backend/src/state"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sessionName = "prop-session"

// -----------------------------------------------------------------------------
// WebServer
// -----------------------------------------------------------------------------

type WebServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	State    *state.AppState
	engine   *gin.Engine
	sessions *sessions.CookieStore

	httpServer *http.Server
	stopOnce   sync.Once

	// WebSocket clients (live telemetry feed)
	clients    map[*Client]struct{}
	broadcast  chan models.MTelemetryPacket
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewWebServer(cfg *models.MConfig, appState *state.AppState, log *logger.Logger) *WebServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.Options.HttpOnly = true

	s := &WebServer{
		Config:   cfg,
		Logger:   log,
		State:    appState,
		engine:   gin.Default(),
		sessions: cookieStore,
		clients:  make(map[*Client]struct{}),
		// Buffered channel so a burst of EA packets never blocks ingestion
		broadcast:  make(chan models.MTelemetryPacket, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	s.engine.Use(s.requestID())

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *WebServer) setupRoutes() {
	// Public surface
	s.engine.GET("/healthz", s.getHealth)
	s.engine.GET("/", s.getIndex)

	s.engine.GET("/login", s.getLogin)
	s.engine.POST("/login", s.postLogin)
	s.engine.GET("/logout", s.getLogout)

	// Diagnostics (unauthenticated by contract)
	s.engine.GET("/diag", s.getDiag)
	s.engine.GET("/diag/:user", s.getDiagUser)
	s.engine.GET("/diag-received", s.getDiagReceived)

	// EA ingestion endpoint
	s.engine.POST("/update", s.postUpdate)

	// Session-guarded surface
	authed := s.engine.Group("/", s.requireAuth())
	authed.GET("/dashboard", s.getDashboard)
	authed.GET("/ws", s.handleWebSocket)

	// Admin surface
	admin := s.engine.Group("/admin", s.requireAuth(), s.requireAdmin())
	admin.GET("/bind", s.getAdminBind)
	admin.POST("/bind/do", s.postAdminBind)
	admin.GET("/users/new", s.getAdminNewUser)
	admin.POST("/users/new", s.postAdminNewUser)
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

// requestID tags every request so ingestion failures can be correlated with
// the EA agent's logs.
func (s *WebServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *WebServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.runHub()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop signals the hub to drain its clients and shuts the listener down.
// The work channels stay open so a late Broadcast never hits a closed
// channel; the hub simply stops consuming. Safe to call more than once.
func (s *WebServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

// -----------------------------------------------------------------------------
// Basic Handlers
// -----------------------------------------------------------------------------

func (s *WebServer) getHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// -----------------------------------------------------------------------------

func (s *WebServer) getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(
		`<h1>Prop Backend</h1><p><a href="/login">Login</a> | <a href="/diag">/diag</a> | <a href="/diag-received">/diag-received</a></p>`,
	))
}
