package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultBaseURL     = "http://127.0.0.1:11434"
	defaultTagsTimeout = 5 * time.Second
	defaultChatTimeout = 120 * time.Second

	// DefaultTemperature is applied when a request does not specify one.
	DefaultTemperature = 0.2
)

var tracer = otel.Tracer("llamagate.internal.ollama")

// Message is a single turn in the conversation, in Ollama's wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config controls how the Ollama client behaves.
type Config struct {
	BaseURL     string
	TagsTimeout time.Duration // availability probes
	ChatTimeout time.Duration // generation calls
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client wraps the Ollama REST endpoints the gateway needs. Calls are never
// retried; a failed call surfaces immediately as a typed *Error.
type Client struct {
	baseURL     string
	tagsTimeout time.Duration
	chatTimeout time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	tagsTimeout := cfg.TagsTimeout
	if tagsTimeout <= 0 {
		tagsTimeout = defaultTagsTimeout
	}
	chatTimeout := cfg.ChatTimeout
	if chatTimeout <= 0 {
		chatTimeout = defaultChatTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     baseURL,
		tagsTimeout: tagsTimeout,
		chatTimeout: chatTimeout,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Ping reports whether the Ollama server is reachable. Best effort: every
// failure collapses to false.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.listTags(ctx)
	if err != nil {
		c.logger.Warn("ollama ping failed", "error", err)
		return false
	}
	return true
}

// HasModel reports whether the named model is installed. Names are compared
// with any trailing ":tag" suffix stripped on both sides, so a request for
// "phi" matches an installed "phi:latest". An unreachable server is an
// error; a reachable server without the model is (false, nil).
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	ctx, span := tracer.Start(ctx, "ollama.has_model")
	defer span.End()
	span.SetAttributes(attribute.String("ollama.model", name))

	tags, err := c.listTags(ctx)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	want := baseName(name)
	for _, m := range tags.Models {
		if baseName(m.Name) == want {
			return true, nil
		}
	}
	c.logger.Debug("model not installed", "model", name)
	return false, nil
}

// Chat posts the conversation to /api/chat and returns the generated text.
// Streaming is always disabled. A nil temperature falls back to
// DefaultTemperature.
func (c *Client) Chat(ctx context.Context, messages []Message, model string, temperature *float64) (string, error) {
	ctx, span := tracer.Start(ctx, "ollama.chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("ollama.model", model),
		attribute.Int("ollama.messages", len(messages)),
	)

	temp := DefaultTemperature
	if temperature != nil {
		temp = *temperature
	}
	body, err := json.Marshal(chatPayload{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  chatOptions{Temperature: temp},
	})
	if err != nil {
		return "", fmt.Errorf("ollama: marshal chat payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cerr := classifyTransport("chat", err)
		span.RecordError(cerr)
		c.logger.Error("ollama chat request failed", "model", model, "error", err)
		return "", cerr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindMalformed, Op: "chat", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("ollama chat http error", "model", model, "status", resp.StatusCode)
		return "", &Error{Kind: KindHTTPStatus, Status: resp.StatusCode, Op: "chat"}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		c.logger.Error("ollama chat response undecodable", "model", model, "error", err)
		return "", &Error{Kind: KindMalformed, Op: "chat", Err: err}
	}
	if parsed.Message == nil || parsed.Message.Content == nil {
		c.logger.Error("ollama chat response missing message.content", "model", model)
		return "", &Error{Kind: KindMalformed, Op: "chat", Err: errors.New("message.content missing")}
	}
	c.logger.Debug("ollama chat succeeded", "model", model, "chars", len(*parsed.Message.Content))
	return *parsed.Message.Content, nil
}

type chatPayload struct {
	Model    string      `json:"model"`
	Messages []Message   `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  chatOptions `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Message *struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *Client) listTags(ctx context.Context) (*tagsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.tagsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: build tags request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport("tags", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindHTTPStatus, Status: resp.StatusCode, Op: "tags"}
	}
	var parsed tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Kind: KindMalformed, Op: "tags", Err: err}
	}
	return &parsed, nil
}

// classifyTransport folds transport-level failures into KindUnavailable:
// refused connections, DNS failures and timeouts all mean the server cannot
// be reached right now. The timeout flag is kept for logging.
func classifyTransport(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindUnavailable, Op: op, Err: fmt.Errorf("timeout: %w", err)}
	}
	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

// baseName strips a trailing ":tag" suffix from a model name.
func baseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, ":"); i >= 0 {
		return name[:i]
	}
	return name
}
