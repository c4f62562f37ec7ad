// ABOUTME: HTTP server for keepsake-authority: routing, key checks and lifecycle
// ABOUTME: Serves the bulk-read, admin-action, submit-order and sign-guestbook endpoints

package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/2389/keepsake/internal/store"
	"github.com/2389/keepsake/internal/verify"
)

// maxRequestBody bounds request bodies read by the function endpoints.
const maxRequestBody = 1 << 20

// Config holds everything the server needs.
type Config struct {
	Store    store.Store
	Keys     *KeyIssuer
	Verifier verify.TokenVerifier
	Addr     string
	// AllowedOrigins lists browser origins answered with CORS headers.
	// "*" allows any origin.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server is the reference remote authority.
type Server struct {
	store    store.Store
	keys     *KeyIssuer
	verifier verify.TokenVerifier
	origins  []string
	logger   *slog.Logger

	router     *mux.Router
	httpServer *http.Server
}

// New creates a server and registers its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Keys == nil {
		return nil, errors.New("key issuer is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("token verifier is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:    cfg.Store,
		keys:     cfg.Keys,
		verifier: cfg.Verifier,
		origins:  cfg.AllowedOrigins,
		logger:   logger.With("component", "authority"),
		router:   mux.NewRouter(),
	}
	s.routes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(s.cors)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.NewRoute().Subrouter()
	api.Use(s.requireAPIKey)
	api.HandleFunc("/rest/v1/{table}", s.handleSelect).Methods(http.MethodGet)
	api.HandleFunc("/functions/v1/admin-action", s.handleAdminAction).Methods(http.MethodPost)
	api.HandleFunc("/functions/v1/submit-order", s.handleSubmitOrder).Methods(http.MethodPost)
	api.HandleFunc("/functions/v1/sign-guestbook", s.handleSignGuestbook).Methods(http.MethodPost)

	// preflight requests carry no key
	s.router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// the original context is already canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.httpServer.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// requireAPIKey accepts the key from the apikey header or a bearer token.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("apikey")
		if key == "" {
			key = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if key == "" {
			s.sendJSONError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		role, err := s.keys.Verify(key)
		if err != nil {
			s.logger.Debug("rejected api key", "error", err)
			s.sendJSONError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		if role != RoleAnon {
			s.sendJSONError(w, http.StatusUnauthorized, "unsupported api key role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Headers", "apikey, authorization, content-type")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Add("Vary", "Origin")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

// remoteIP prefers the address Cloudflare reports for the visitor.
func remoteIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
