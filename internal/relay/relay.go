// Package relay forwards read-only requests from the dashboard to the
// workflow-automation API, keeping the API key on the server.
package relay

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/obs"
	"github.com/devel-adr/medistream/internal/workflow"
)

// Errors returned when a proxy request is refused.
var (
	ErrPathNotAllowed   = errors.New("path not allowed")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// APIKeyHeader carries the upstream credential.
const APIKeyHeader = "X-N8N-API-KEY"

// maxBody bounds both the proxied request and the relayed response.
const maxBody = 4 << 20

var allowedPrefixes = []string{"/executions", "/workflows"}

// Config is the relay server configuration.
type Config struct {
	UpstreamURL string
	APIKey      string
	// Token, when set, must be presented as a Bearer token.
	Token   string
	Timeout time.Duration
}

// Server forwards allowed GET requests to the upstream workflow API.
type Server struct {
	cfg      Config
	upstream *http.Client
	log      *zap.Logger
}

// New creates a Server. A zero Timeout gets a default.
func New(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.UpstreamURL = strings.TrimRight(cfg.UpstreamURL, "/")
	return &Server{
		cfg:      cfg,
		upstream: &http.Client{Timeout: cfg.Timeout},
		log:      log,
	}
}

// Router returns the relay's HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", obs.HealthHandler(s.Ping))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post(workflow.ProxyPath, s.handleProxy)
	})
	return r
}

// ValidateRequest checks that req is a GET of an allowed path and returns
// the cleaned path.
func ValidateRequest(req workflow.ProxyRequest) (string, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet {
		return "", fmt.Errorf("%s: %w", req.Method, ErrMethodNotAllowed)
	}

	u, err := url.Parse(req.Path)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "", fmt.Errorf("%q: %w", req.Path, ErrPathNotAllowed)
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("%q: %w", req.Path, ErrPathNotAllowed)
	}

	clean := path.Clean(u.Path)
	for _, prefix := range allowedPrefixes {
		if clean == prefix || strings.HasPrefix(clean, prefix+"/") {
			if u.RawQuery != "" {
				return clean + "?" + u.RawQuery, nil
			}
			return clean, nil
		}
	}
	return "", fmt.Errorf("%q: %w", req.Path, ErrPathNotAllowed)
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	var req workflow.ProxyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := ValidateRequest(req)
	if err != nil {
		status := http.StatusForbidden
		if errors.Is(err, ErrMethodNotAllowed) {
			status = http.StatusMethodNotAllowed
		}
		obs.RelayRequests.WithLabelValues("rejected").Inc()
		s.log.Info("proxy request rejected",
			zap.String("request_id", w.Header().Get(middleware.RequestIDHeader)),
			zap.Error(err),
		)
		writeError(w, status, err.Error())
		return
	}

	status, body, err := s.forward(r.Context(), target)
	if err != nil {
		obs.RelayRequests.WithLabelValues("unreachable").Inc()
		s.log.Warn("upstream request failed", zap.String("path", target), zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}

	obs.RelayRequests.WithLabelValues(fmt.Sprintf("%dxx", status/100)).Inc()
	s.log.Debug("proxied",
		zap.String("request_id", w.Header().Get(middleware.RequestIDHeader)),
		zap.String("path", target),
		zap.Int("status", status),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// forward performs GET <upstream>/api/v1<target> with the server-held key.
func (s *Server) forward(ctx context.Context, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.UpstreamURL+"/api/v1"+target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating upstream request: %w", err)
	}
	req.Header.Set(APIKeyHeader, s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.upstream.Do(req)
	obs.RelayDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, nil, fmt.Errorf("reading upstream body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Ping checks that the upstream API answers with the configured key.
func (s *Server) Ping(ctx context.Context) error {
	status, _, err := s.forward(ctx, "/workflows?limit=1")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("upstream status %d", status)
	}
	return nil
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Token)) != 1 {
				obs.RelayRequests.WithLabelValues("unauthorized").Inc()
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requestID tags every response with an X-Request-Id, reusing the
// caller's when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(workflow.ErrorResponse{Error: msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
