// Package web provides the HTTP server and JSON API handlers for the
// collaborative spreadsheet service.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gridvault/gridvault/internal/config"
	"github.com/gridvault/gridvault/internal/core"
	"github.com/gridvault/gridvault/internal/web/middleware"
)

// Server is the HTTP server for the spreadsheet API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)

	// Rate limiting: 100 requests per minute per IP
	limiter := newRateLimiter(100, time.Minute)
	s.router.Use(limiter.middleware)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Account routes carry no session
		r.Post("/users/signup", s.handleSignup)
		r.Post("/users/login", s.handleLogin)

		// Everything else requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(s.cfg.Auth.JWTSecret))

			r.Route("/files", func(r chi.Router) {
				r.Get("/", s.handleListDocuments)
				r.Post("/", s.handleUploadDocument)

				r.Route("/{documentID}", func(r chi.Router) {
					r.Get("/", s.handleGetDocument)
					r.Put("/", s.handleReplaceDocument)
					r.Delete("/", s.handleDeleteDocument)
					r.Get("/data", s.handleDocumentData)
					r.Get("/download", s.handleDownloadDocument)
					r.Get("/transactions", s.handleListTransactions)
					r.Get("/permissions", s.handleListPermissions)
					r.Get("/lookups", s.handleListLookups)
					r.Get("/views", s.handleListSavedViews)
				})
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", s.handleCreateTransaction)
				r.Get("/{transactionID}", s.handleGetTransaction)
				r.Put("/{transactionID}", s.handleUpdateTransaction)
				r.Delete("/{transactionID}", s.handleDeleteTransaction)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.Post("/", s.handleGrantPermission)
				r.Put("/{permissionID}", s.handleUpdatePermission)
				r.Delete("/{permissionID}", s.handleRevokePermission)
			})

			r.Route("/lookups", func(r chi.Router) {
				r.Post("/", s.handleCreateLookup)
				r.Get("/{lookupID}", s.handleGetLookup)
				r.Delete("/{lookupID}", s.handleDeleteLookup)
			})

			r.Route("/views", func(r chi.Router) {
				r.Post("/", s.handleCreateSavedView)
				r.Get("/{viewID}", s.handleGetSavedView)
				r.Put("/{viewID}", s.handleUpdateSavedView)
				r.Delete("/{viewID}", s.handleDeleteSavedView)
			})

			r.Route("/cache", func(r chi.Router) {
				r.Get("/", s.handleCacheSummary)
				r.Get("/keys", s.handleCacheKeys)
				r.Delete("/", s.handleCacheClear)
			})
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	log.Printf("Starting server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1, // consume one token
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// Use X-Real-IP if set (by RealIP middleware)
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}
