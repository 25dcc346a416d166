// Package server provides the HTTP REST API for CV reconciliation and skill
// group verification.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/config"
	"github.com/jonathan/talent-reconciler/internal/schemas"
	"github.com/jonathan/talent-reconciler/internal/server/middleware"
	"github.com/jonathan/talent-reconciler/internal/server/ratelimit"
	"github.com/jonathan/talent-reconciler/internal/types"
	schemafiles "github.com/jonathan/talent-reconciler/schemas"
	"go.uber.org/zap"
)

// TalentService is the application layer the handlers call
type TalentService interface {
	Analyze(ctx context.Context, talentID uuid.UUID, extracted *types.ExtractedCVData) (*types.Analysis, error)
	GetAnalysis(ctx context.Context, talentID, analysisID uuid.UUID) (*types.Analysis, error)
	ApplyDecisions(ctx context.Context, talentID uuid.UUID, decision *types.UpdateDecision) (*types.UpdateStatistics, error)
	VerifySkillGroup(ctx context.Context, req types.VerifyRequest) (*types.SkillGroupVerification, error)
	InvalidateSkillGroup(ctx context.Context, req types.InvalidateRequest) (*types.SkillGroupVerification, error)
	GetVerificationStatus(ctx context.Context, talentID, skillGroupID uuid.UUID) (*types.SkillGroupVerification, error)
	GetAssessmentHistory(ctx context.Context, talentID, skillGroupID uuid.UUID) ([]types.SkillGroupAssessment, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	handler         http.Handler
	service         TalentService
	schemas         *schemas.Validator
	rateLimiter     *ratelimit.Limiter
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// New creates a new server instance
func New(cfg config.Config, service TalentService, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, errors.New("talent service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	validator, err := schemas.NewValidator(schemafiles.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to load request schemas: %w", err)
	}

	s := &Server{
		service:         service,
		schemas:         validator,
		rateLimiter:     ratelimit.NewLimiter(ratelimit.FromConfig(cfg.RateLimit)),
		logger:          logger,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// CV reconciliation
	mux.HandleFunc("POST /talents/{id}/cv-analyses", s.handleAnalyze)
	mux.HandleFunc("GET /talents/{id}/cv-analyses/{analysis_id}", s.handleGetAnalysis)
	mux.HandleFunc("POST /talents/{id}/cv-analyses/{analysis_id}/decisions", s.handleApplyDecisions)

	// Skill group verification
	mux.HandleFunc("POST /talents/{id}/skill-groups/{group_id}/verify", s.handleVerify)
	mux.HandleFunc("POST /talents/{id}/skill-groups/{group_id}/invalidate", s.handleInvalidate)
	mux.HandleFunc("GET /talents/{id}/skill-groups/{group_id}/verification", s.handleGetVerification)
	mux.HandleFunc("GET /talents/{id}/skill-groups/{group_id}/assessments", s.handleListAssessments)

	s.handler = middleware.RequestID(
		s.withRateLimit(
			middleware.Logging(logger)(
				middleware.CORS(cfg.Server.CORSOrigins)(mux))))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped request handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves requests until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	defer s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract client identifier (IP address)
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{
		"error":   errorCode(status),
		"message": message,
	})
}

// extractClientID extracts the client identifier from the request. Only the
// connection address is used; forwarded headers are not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	retryAfter := int(info.RetryAfter.Round(time.Second).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

	s.logger.Warn("rate limit exceeded",
		zap.String("client", s.extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit),
		zap.Duration("retry_after", info.RetryAfter),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate_limit_exceeded",
		"message":     "Rate limit exceeded. Please try again later.",
		"limit":       info.Limit,
		"remaining":   info.Remaining,
		"reset_at":    info.ResetTime.Format(time.RFC3339),
		"retry_after": retryAfter,
	})
}
