package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"llamagate/internal/ollama"
	"llamagate/internal/observability/metrics"
	"llamagate/pkg/logging"
)

var tracer = otel.Tracer("llamagate.internal.chat")

// Backend is the slice of the Ollama client the service depends on, so
// tests can substitute a fake without a network dependency.
type Backend interface {
	Ping(ctx context.Context) bool
	HasModel(ctx context.Context, name string) (bool, error)
	Chat(ctx context.Context, messages []ollama.Message, model string, temperature *float64) (string, error)
}

// Request is a single chat invocation. Messages is never empty by the time
// it reaches the service; the boundary layer validates shape.
type Request struct {
	SessionID   string
	Model       string
	Temperature *float64
	Messages    []ollama.Message
}

// Result is the success-shaped outcome of a chat invocation. On non-error
// paths exactly one of Answer and Notice is non-empty.
type Result struct {
	SessionID string
	Answer    string
	Model     string
	Notice    string
}

// Service orchestrates a chat request: resolve the model, check it is
// installed, call the backend, shape the result. Each call is independent
// and fully synchronous; nothing is cached or retried.
type Service struct {
	backend      Backend
	defaultModel string
	logger       *logging.Logger
	metrics      *metrics.ChatMetrics
}

// NewService creates the chat service. metrics may be nil.
func NewService(backend Backend, defaultModel string, logger *logging.Logger, m *metrics.ChatMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		backend:      backend,
		defaultModel: defaultModel,
		logger:       logger,
		metrics:      m,
	}
}

// DefaultModel returns the configured default model name.
func (s *Service) DefaultModel() string {
	return s.defaultModel
}

// Process runs the full request flow. A missing model is a business
// outcome, not an error: it returns a success-shaped Result whose Notice
// tells the user how to install the model.
func (s *Service) Process(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "chat.process")
	defer span.End()

	model := s.resolveModel(req.Model)
	span.SetAttributes(
		attribute.String("chat.model", model),
		attribute.Int("chat.messages", len(req.Messages)),
	)
	s.logger.Info("processing chat request",
		"session_id", req.SessionID,
		"model", model,
		"messages", len(req.Messages),
	)

	start := time.Now()
	installed, err := s.backend.HasModel(ctx, model)
	s.metrics.ObserveBackendLatency("tags", time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		if ollama.IsUnavailable(err) {
			s.logger.Error("ollama unreachable during availability check", "model", model, "error", err)
			s.metrics.ObserveRequest("backend_unavailable")
			return Result{}, newError(ErrorBackendUnavailable, err)
		}
		s.logger.Error("availability check failed", "model", model, "error", err)
		s.metrics.ObserveRequest("backend_failure")
		return Result{}, newError(ErrorBackendFailure, err)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = newSessionID()
	}

	if !installed {
		s.logger.Warn("model not installed", "session_id", sessionID, "model", model)
		s.metrics.ObserveRequest("model_not_installed")
		return Result{
			SessionID: sessionID,
			Model:     model,
			Notice:    fmt.Sprintf("Model '%s' is not installed in Ollama. Install it with: ollama pull %s, or pick another model.", model, model),
		}, nil
	}

	start = time.Now()
	answer, err := s.backend.Chat(ctx, req.Messages, model, req.Temperature)
	s.metrics.ObserveBackendLatency("chat", time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		if ollama.IsUnavailable(err) {
			s.logger.Error("ollama unreachable during chat call",
				"session_id", sessionID, "model", model, "messages", len(req.Messages), "error", err)
			s.metrics.ObserveRequest("backend_unavailable")
			return Result{}, newError(ErrorBackendUnavailable, err)
		}
		s.logger.Error("chat call failed",
			"session_id", sessionID, "model", model, "messages", len(req.Messages), "error", err)
		s.metrics.ObserveRequest("backend_failure")
		return Result{}, newError(ErrorBackendFailure, err)
	}

	if strings.TrimSpace(answer) == "" {
		s.logger.Warn("model returned empty answer", "session_id", sessionID, "model", model)
		s.metrics.ObserveRequest("empty_generation")
		return Result{
			SessionID: sessionID,
			Model:     model,
			Notice:    "The model returned no usable answer. Try rephrasing or sending again.",
		}, nil
	}

	s.logger.Info("chat request succeeded",
		"session_id", sessionID, "model", model, "answer_chars", len(answer))
	s.metrics.ObserveRequest("success")
	return Result{
		SessionID: sessionID,
		Answer:    answer,
		Model:     model,
	}, nil
}

// resolveModel applies the business rule: explicit override wins, the
// configured default otherwise.
func (s *Service) resolveModel(override string) string {
	if m := strings.TrimSpace(override); m != "" {
		return m
	}
	return strings.TrimSpace(s.defaultModel)
}

// newSessionID returns a short random identifier, "sess-" plus 8 hex chars.
func newSessionID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "sess-" + hex[:8]
}
