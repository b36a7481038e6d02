// Package server exposes the waiter over HTTP: a JSON session API, a
// websocket chat channel, and the operational endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trattoria/internal/menu"
	"trattoria/internal/metrics"
	"trattoria/internal/providers"
	"trattoria/internal/waiter"
)

// session serializes the turns of one conversation.
type session struct {
	mu    sync.Mutex
	agent *waiter.Agent
}

// Server hosts the session API. The catalog pointer is swapped wholesale on
// reload; running sessions keep the catalog they started with.
type Server struct {
	router    *gin.Engine
	llm       providers.Provider
	collector *metrics.Collector
	genOpts   waiter.Options
	menuPath  string

	mu       sync.RWMutex
	catalog  *menu.Catalog
	sessions map[string]*session
}

// New builds the server and its routes.
func New(cat *menu.Catalog, llm providers.Provider, collector *metrics.Collector, opts waiter.Options, menuPath string) *Server {
	s := &Server{
		router:    gin.New(),
		llm:       llm,
		collector: collector,
		genOpts:   opts,
		menuPath:  menuPath,
		catalog:   cat,
		sessions:  make(map[string]*session),
	}
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.collector.Handler()))
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.POST("/sessions", s.handleCreateSession)
		api.DELETE("/sessions/:id", s.handleCloseSession)
		api.POST("/sessions/:id/messages", s.handleMessage)
		api.GET("/sessions/:id/order", s.handleGetOrder)
		api.DELETE("/sessions/:id/order", s.handleResetOrder)
		api.GET("/sessions/:id/history", s.handleGetHistory)
		api.GET("/menu", s.handleGetMenu)
		api.GET("/menu/search", s.handleSearchMenu)
		api.POST("/menu/reload", s.handleReloadMenu)
	}
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessionCount()})
}

func (s *Server) sessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) getSession(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) handleCreateSession(c *gin.Context) {
	s.mu.RLock()
	cat := s.catalog
	s.mu.RUnlock()

	// Greet before publishing: the session must not be reachable while its
	// history is still being written outside the session lock.
	sess := &session{agent: waiter.New(s.llm, cat, s.genOpts)}
	greeting := sess.agent.Greeting(c.Request.Context())

	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.collector.ActiveSessions.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"session_id": id,
		"greeting":   greeting,
	})
}

func (s *Server) handleCloseSession(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	s.collector.ActiveSessions.Dec()
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) handleMessage(c *gin.Context) {
	sess, ok := s.getSession(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sess.mu.Lock()
	start := time.Now()
	res, err := sess.agent.HandleTurn(c.Request.Context(), req.Message)
	elapsed := time.Since(start)
	sess.mu.Unlock()

	s.observeTurn(res, elapsed, err)

	if err != nil {
		log.Printf("session %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "generation failed",
			"reply": res.Reply,
			"order": res.Order,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":  res.Reply,
		"order":  res.Order,
		"events": res.Events,
		"quit":   res.Quit,
	})
}

func (s *Server) observeTurn(res *waiter.TurnResult, elapsed time.Duration, err error) {
	switch {
	case err != nil:
		s.collector.TurnsTotal.WithLabelValues(metrics.OutcomeGenerationError).Inc()
		s.collector.GenerationFailures.Inc()
	case res.Command:
		s.collector.TurnsTotal.WithLabelValues(metrics.OutcomeCommand).Inc()
	default:
		s.collector.TurnsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		s.collector.GenerationLatency.Observe(elapsed.Seconds())
	}

	for _, ev := range res.Events {
		switch ev.Action {
		case "added", "added_default_variant":
			s.collector.LinesAdded.Inc()
		case "removed":
			s.collector.LinesRemoved.Inc()
		}
	}
}

func (s *Server) handleGetOrder(c *gin.Context) {
	sess, ok := s.getSession(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	sess.mu.Lock()
	snap := sess.agent.Ledger().Snapshot()
	sess.mu.Unlock()

	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleResetOrder(c *gin.Context) {
	sess, ok := s.getSession(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	sess.mu.Lock()
	sess.agent.Ledger().Reset()
	snap := sess.agent.Ledger().Snapshot()
	sess.mu.Unlock()

	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleGetHistory(c *gin.Context) {
	sess, ok := s.getSession(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	sess.mu.Lock()
	history := sess.agent.History()
	sess.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"turns": history})
}

func (s *Server) handleGetMenu(c *gin.Context) {
	s.mu.RLock()
	cat := s.catalog
	s.mu.RUnlock()

	c.String(http.StatusOK, cat.FormatForLLM())
}

func (s *Server) handleSearchMenu(c *gin.Context) {
	s.mu.RLock()
	cat := s.catalog
	s.mu.RUnlock()

	f := menu.Filters{
		Vegetarian: c.Query("vegetarian") == "true",
		Vegan:      c.Query("vegan") == "true",
		Section:    c.Query("section"),
	}
	if v := c.Query("max_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = p
		}
	}
	if v := c.Query("exclude_allergens"); v != "" {
		f.ExcludeAllergens = strings.Split(v, ",")
	}

	items := cat.Search(c.Query("q"), f)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// handleReloadMenu re-reads the menu file and swaps the catalog. Sessions
// created afterwards see the new menu; live sessions are untouched.
func (s *Server) handleReloadMenu(c *gin.Context) {
	if s.menuPath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "no menu path configured"})
		return
	}

	cat, err := menu.LoadFile(s.menuPath)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "items": len(cat.Items())})
}
