package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/opencargos/tenura/internal/config"
	"github.com/opencargos/tenura/internal/resolver"
)

// Start initializes and starts the HTTP server. It returns the actual address
// being listened on (useful for testing with port 0). The server shuts down
// gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, svc *resolver.Service) (string, error) {
	handler := Routes(cfg, svc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
	}()

	log.Printf("server: listening on %s", actualAddr)
	return actualAddr, nil
}

// Routes builds the full handler chain: API routes wrapped with request-ID
// tagging, rate limiting, and security headers. Exposed separately so tests
// can drive it through httptest without opening a socket.
func Routes(cfg *config.Config, svc *resolver.Service) http.Handler {
	api := NewHandlers(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profile", api.GetProfile)
	mux.HandleFunc("GET /api/search", api.GetSearch)
	mux.HandleFunc("GET /api/officeholders", api.GetOfficeHolders)
	mux.HandleFunc("GET /api/tenure", api.GetTenure)
	mux.HandleFunc("GET /api/displayname", api.GetDisplayName)
	mux.HandleFunc("GET /api/ranking", api.GetRanking)
	mux.HandleFunc("GET /api/health", api.GetHealth)

	rateLimiter := NewRateLimiter(cfg.Server.RequestsPerSec, cfg.Server.RateBurst)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rateLimiter)
	handler = requestIDMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	return handler
}
