// Package web provides the HTTP status API of the bot.
// It uses the Gin framework.
package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// Server represents the web server
type Server struct {
	engine           *gin.Engine
	webhookURL       string
	allowedHostRegex *regexp.Regexp
	httpClient       *http.Client
	srv              *http.Server
}

// Options configures a Server.
type Options struct {
	WebhookURL string
	// AllowedHosts is a regexp matched against the Host header; requests to
	// other hosts are rejected. Empty allows every host.
	AllowedHosts string
	RateLimit    RateLimitConfig
}

// NewServer creates a new web server
func NewServer(opts Options) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		webhookURL: opts.WebhookURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	if opts.AllowedHosts != "" {
		re, err := regexp.Compile(opts.AllowedHosts)
		if err != nil {
			return nil, fmt.Errorf("WEB_ALLOWED_HOSTS inválido: %w", err)
		}
		s.allowedHostRegex = re
	}

	s.engine.Use(s.logsMiddleware())
	s.engine.Use(rateLimitMiddleware(opts.RateLimit))

	s.setupErrorHandlers()

	return s, nil
}

// Engine returns the underlying Gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// logsMiddleware logs incoming requests and rejects unknown hosts
func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.allowedHostRegex == nil || s.allowedHostRegex.MatchString(c.Request.Host) {
			logger.Debug(fmt.Sprintf("[LOG] Nueva solicitud: %s %s", c.Request.Method, c.Request.URL.Path), "WebServer")
			c.Next()
			return
		}

		logger.Warn(fmt.Sprintf("[LOG] Solicitud Sospechosa: %s %s | %s", c.Request.Method, c.Request.URL.Path, c.ClientIP()), "WebServer")
		go s.sendLogToWebhook(c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Request.Header.Clone())
		c.AbortWithStatus(http.StatusForbidden)
	}
}

// sendLogToWebhook reports a rejected request to the Discord webhook
func (s *Server) sendLogToWebhook(method, path, ip string, header http.Header) {
	if s.webhookURL == "" {
		return
	}

	headers, _ := json.Marshal(header)
	embed := map[string]interface{}{
		"title": fmt.Sprintf("💫 | Solicitud Sospechosa Rechazada: %s %s", method, path),
		"description": fmt.Sprintf(
			"> **Ruta:** `%s`\n> **IP:** `%s`\n> **Headers:** ```%s```",
			path, ip, string(headers),
		),
		"color":     0xFFA500,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(map[string]interface{}{"embeds": []interface{}{embed}})
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
	MaxClients  int
}

// rateLimitMiddleware limits requests per client IP inside a fixed window.
// Counters live in an expiring LRU so idle clients are forgotten.
func rateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Window <= 0 {
		cfg.Window = 60 * time.Second
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}

	type clientInfo struct {
		count   int
		resetAt time.Time
	}
	var mu sync.Mutex
	clients := expirable.NewLRU[string, clientInfo](cfg.MaxClients, nil, cfg.Window)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		info, ok := clients.Get(ip)
		if !ok || now.After(info.resetAt) {
			info = clientInfo{resetAt: now.Add(cfg.Window)}
		}
		info.count++
		clients.Add(ip, info)
		mu.Unlock()

		if info.count > cfg.MaxRequests {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
			})
			return
		}

		c.Next()
	}
}

// setupErrorHandlers sets up error handling routes
func (s *Server) setupErrorHandlers() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "La ruta solicitada no existe.",
			"status":  404,
		})
	})

	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "El método HTTP no está permitido para esta ruta.",
			"status":  405,
		})
	})
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(port string) {
	s.srv = &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info(fmt.Sprintf("🚀 Servidor escuchando en http://localhost:%s", port), "WebServer")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(fmt.Sprintf("Error iniciando el servidor web: %v", err), "WebServer")
		}
	}()
}

// Shutdown stops accepting requests and waits for the active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Group creates a new router group
func (s *Server) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, handlers...)
}
