// Package server exposes the timer, tasks and statistics over a JSON HTTP
// API and serves the static web client.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/pomodoro/internal/app"
	"github.com/sadopc/pomodoro/internal/config"
	"github.com/sadopc/pomodoro/internal/logging"
)

const serviceName = "Pomodoro Tracker"

type Server struct {
	app     *app.App
	cfg     config.ServerConfig
	log     *slog.Logger
	version string
	started time.Time
	engine  *gin.Engine
}

func New(a *app.App, cfg config.ServerConfig, log *slog.Logger, version string) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		app:     a,
		cfg:     cfg,
		log:     log,
		version: version,
		started: time.Now(),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(s.log), cors(s.cfg.CORSOrigins))

	api := engine.Group("/api")
	api.GET("/health", s.health)
	api.GET("/stats", s.processStats)

	timer := api.Group("/timer")
	timer.GET("", s.timerState)
	timer.POST("/start", s.timerStart)
	timer.POST("/pause", s.timerPause)
	timer.POST("/reset", s.timerReset)
	timer.POST("/skip", s.timerSkip)
	timer.POST("/duration", s.timerDuration)

	tasks := api.Group("/tasks")
	tasks.GET("", s.listTasks)
	tasks.POST("", s.createTask)
	tasks.GET("/:id", s.getTask)
	tasks.PATCH("/:id", s.updateTask)
	tasks.DELETE("/:id", s.deleteTask)
	tasks.POST("/:id/toggle", s.toggleTask)
	tasks.POST("/:id/activate", s.activateTask)

	api.GET("/statistics", s.statistics)
	api.GET("/analytics", s.analytics)
	api.GET("/achievements", s.achievements)
	api.GET("/settings", s.getSettings)
	api.PATCH("/settings", s.updateSettings)
	api.GET("/sessions", s.sessions)
	api.GET("/export", s.exportBackup)
	api.POST("/import", s.importBackup)

	engine.NoRoute(s.static)
	return engine
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.cfg.Addr, "static_dir", s.cfg.StaticDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("run server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
	})
}

func (s *Server) processStats(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	usage := gin.H{
		"alloc":     mem.Alloc,
		"heapInuse": mem.HeapInuse,
		"sys":       mem.Sys,
		"numGC":     mem.NumGC,
	}
	c.JSON(http.StatusOK, gin.H{
		"totalUsers":  1,
		"serverTime":  time.Now().UTC().Format(time.RFC3339),
		"goVersion":   runtime.Version(),
		"goroutines":  runtime.NumGoroutine(),
		"memoryUsage": usage,
		"dataSize":    s.app.Store.DataSize(),
	})
}

// static serves files from the static directory and falls back to
// index.html for client-side routes. Unknown API paths get a JSON 404.
func (s *Server) static(c *gin.Context) {
	p := c.Request.URL.Path
	if p == "/api" || strings.HasPrefix(p, "/api/") {
		writeError(c, notFound("not_found", "API endpoint not found"))
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		writeError(c, notFound("not_found", "not found"))
		return
	}
	if s.cfg.StaticDir == "" {
		writeError(c, notFound("not_found", "not found"))
		return
	}

	name := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(path.Clean("/"+p)))
	if info, err := os.Stat(name); err != nil || info.IsDir() {
		name = filepath.Join(s.cfg.StaticDir, "index.html")
		if _, err := os.Stat(name); err != nil {
			writeError(c, notFound("not_found", "not found"))
			return
		}
	}
	c.Header("Cache-Control", cacheControl(name))
	c.File(name)
}
