package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"llamagate/internal/ollama"
)

type fakeBackend struct {
	pingOK      bool
	hasModel    func(name string) (bool, error)
	chat        func(messages []ollama.Message, model string, temperature *float64) (string, error)
	chatCalls   int
	gotModel    string
	gotMessages []ollama.Message
	gotTemp     *float64
}

func (f *fakeBackend) Ping(context.Context) bool { return f.pingOK }

func (f *fakeBackend) HasModel(_ context.Context, name string) (bool, error) {
	if f.hasModel != nil {
		return f.hasModel(name)
	}
	return true, nil
}

func (f *fakeBackend) Chat(_ context.Context, messages []ollama.Message, model string, temperature *float64) (string, error) {
	f.chatCalls++
	f.gotModel = model
	f.gotMessages = messages
	f.gotTemp = temperature
	if f.chat != nil {
		return f.chat(messages, model, temperature)
	}
	return "Hi there", nil
}

func userRequest() Request {
	return Request{Messages: []ollama.Message{{Role: "user", Content: "hello"}}}
}

func TestProcessSuccess(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, "phi", nil, nil)

	res, err := svc.Process(context.Background(), userRequest())
	require.NoError(t, err)
	require.Equal(t, "Hi there", res.Answer)
	require.Equal(t, "phi", res.Model)
	require.Empty(t, res.Notice)
	require.True(t, strings.HasPrefix(res.SessionID, "sess-"))
	require.Len(t, res.SessionID, len("sess-")+8)
}

func TestProcessModelOverride(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, "phi", nil, nil)

	req := userRequest()
	req.Model = "  mistral  "
	_, err := svc.Process(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "mistral", backend.gotModel)
}

func TestProcessModelNotInstalled(t *testing.T) {
	backend := &fakeBackend{
		hasModel: func(string) (bool, error) { return false, nil },
	}
	svc := NewService(backend, "phi", nil, nil)

	res, err := svc.Process(context.Background(), userRequest())
	require.NoError(t, err)
	require.Empty(t, res.Answer)
	require.Contains(t, res.Notice, "phi")
	require.Contains(t, res.Notice, "ollama pull phi")
	require.Zero(t, backend.chatCalls, "chat must not be called for a missing model")
}

func TestProcessAvailabilityCheckUnreachable(t *testing.T) {
	backend := &fakeBackend{
		hasModel: func(string) (bool, error) {
			return false, &ollama.Error{Kind: ollama.KindUnavailable, Op: "tags"}
		},
	}
	svc := NewService(backend, "phi", nil, nil)

	_, err := svc.Process(context.Background(), userRequest())
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	require.Equal(t, ErrorBackendUnavailable, ce.Code)
}

func TestProcessAvailabilityCheckHTTPError(t *testing.T) {
	backend := &fakeBackend{
		hasModel: func(string) (bool, error) {
			return false, &ollama.Error{Kind: ollama.KindHTTPStatus, Status: 500, Op: "tags"}
		},
	}
	svc := NewService(backend, "phi", nil, nil)

	_, err := svc.Process(context.Background(), userRequest())
	var ce *Error
	require.ErrorAs(t, err, &ce)
	require.Equal(t, ErrorBackendFailure, ce.Code)
}

func TestProcessChatFailure(t *testing.T) {
	cases := []struct {
		name     string
		chatErr  error
		wantCode ErrorCode
	}{
		{
			"unavailable",
			&ollama.Error{Kind: ollama.KindUnavailable, Op: "chat"},
			ErrorBackendUnavailable,
		},
		{
			"http error",
			&ollama.Error{Kind: ollama.KindHTTPStatus, Status: 500, Op: "chat"},
			ErrorBackendFailure,
		},
		{
			"malformed body",
			&ollama.Error{Kind: ollama.KindMalformed, Op: "chat", Err: errors.New("bad shape")},
			ErrorBackendFailure,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{
				chat: func([]ollama.Message, string, *float64) (string, error) {
					return "", tc.chatErr
				},
			}
			svc := NewService(backend, "phi", nil, nil)

			_, err := svc.Process(context.Background(), userRequest())
			var ce *Error
			require.ErrorAs(t, err, &ce)
			require.Equal(t, tc.wantCode, ce.Code)
		})
	}
}

func TestProcessEmptyAnswer(t *testing.T) {
	for _, answer := range []string{"", "   ", "\n\t"} {
		backend := &fakeBackend{
			chat: func([]ollama.Message, string, *float64) (string, error) {
				return answer, nil
			},
		}
		svc := NewService(backend, "phi", nil, nil)

		res, err := svc.Process(context.Background(), userRequest())
		require.NoError(t, err)
		require.Empty(t, res.Answer)
		require.NotEmpty(t, res.Notice)
	}
}

func TestProcessSessionIDs(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, "phi", nil, nil)

	first, err := svc.Process(context.Background(), userRequest())
	require.NoError(t, err)
	second, err := svc.Process(context.Background(), userRequest())
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID, "generated ids must be independent")

	req := userRequest()
	req.SessionID = "sess-cafef00d"
	res, err := svc.Process(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "sess-cafef00d", res.SessionID, "supplied id must be echoed unchanged")
}

func TestProcessPassesTemperature(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, "phi", nil, nil)

	temp := 0.9
	req := userRequest()
	req.Temperature = &temp
	_, err := svc.Process(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, backend.gotTemp)
	require.Equal(t, 0.9, *backend.gotTemp)
}
