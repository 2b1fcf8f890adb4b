package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"llamagate/internal/chat"
	"llamagate/internal/ollama"
	"llamagate/pkg/logging"
)

var validate = validator.New()

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	service *chat.Service
	logger  *logging.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(service *chat.Service, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{service: service, logger: logger}
}

type chatMessagePayload struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type chatRequestPayload struct {
	SessionID   string               `json:"session_id"`
	Messages    []chatMessagePayload `json:"messages" validate:"required,min=1,dive"`
	Stream      bool                 `json:"stream"`
	Model       string               `json:"model"`
	Temperature *float64             `json:"temperature" validate:"omitempty,gte=0,lte=1"`
}

type chatResponsePayload struct {
	SessionID string  `json:"session_id"`
	Answer    string  `json:"answer"`
	Model     string  `json:"model"`
	Notice    *string `json:"notice"`
}

// Handle processes one chat request. The handler owns all HTTP status
// decisions; the service returns typed outcomes.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var payload chatRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonDetail(w, fmt.Sprintf("invalid request body: %v", err), http.StatusUnprocessableEntity)
		return
	}
	if err := validate.Struct(payload); err != nil {
		jsonDetail(w, validationDetail(err), http.StatusUnprocessableEntity)
		return
	}

	h.logger.Info("chat request",
		"session_id", payload.SessionID,
		"model", payload.Model,
		"messages", len(payload.Messages),
	)

	messages := make([]ollama.Message, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		messages = append(messages, ollama.Message{Role: m.Role, Content: m.Content})
	}

	result, err := h.service.Process(r.Context(), chat.Request{
		SessionID:   payload.SessionID,
		Model:       payload.Model,
		Temperature: payload.Temperature,
		Messages:    messages,
	})
	if err != nil {
		var ce *chat.Error
		if errors.As(err, &ce) && ce.Code == chat.ErrorBackendUnavailable {
			jsonDetail(w, "Ollama server is unreachable", http.StatusServiceUnavailable)
			return
		}
		jsonDetail(w, "Error communicating with Ollama", http.StatusBadGateway)
		return
	}

	resp := chatResponsePayload{
		SessionID: result.SessionID,
		Answer:    result.Answer,
		Model:     result.Model,
	}
	if result.Notice != "" {
		resp.Notice = &result.Notice
	}
	writeJSON(w, http.StatusOK, resp)
}

// validationDetail flattens validator errors into one readable line.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "request validation failed"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("field %q is required and must be non-empty", fe.Field())
	case "oneof":
		return fmt.Sprintf("field %q must be one of: system, user, assistant", fe.Field())
	case "gte", "lte":
		return fmt.Sprintf("field %q must be between 0.0 and 1.0", fe.Field())
	default:
		return fmt.Sprintf("field %q is invalid", fe.Field())
	}
}
