package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightloop/backend/internal/infrastructure/stream"
)

func collectingCallbacks(events *[]string) stream.Callbacks {
	return stream.Callbacks{
		OnToken: func(text string) {
			*events = append(*events, "token:"+text)
		},
		OnDone: func() {
			*events = append(*events, "done")
		},
		OnError: func(message string) {
			*events = append(*events, "error:"+message)
		},
	}
}

func TestClient_StreamChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		// 两个片段跨写入边界切开，验证客户端不依赖块对齐
		_, _ = w.Write([]byte("data: {\"content\":\"Hel\"}\nda"))
		flusher.Flush()
		_, _ = w.Write([]byte("ta: {\"content\":\"lo\"}\ndata: [DONE]\n"))
		flusher.Flush()
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "default")
	var events []string
	err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}}, collectingCallbacks(&events))

	require.NoError(t, err)
	assert.Equal(t, []string{"token:Hel", "token:lo", "done"}, events)
}

func TestClient_StreamChat_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "default")
	var events []string
	err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}}, collectingCallbacks(&events))

	require.Error(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0], "error:")
}

func TestClient_StreamChat_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("data: {\"content\":\"Hel\"}\n"))
		flusher.Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(server.URL, "test-key", "default")

	var events []string
	done := make(chan error, 1)
	go func() {
		done <- client.StreamChat(ctx, []Message{{Role: "user", Content: "hi"}}, stream.Callbacks{
			OnToken: func(text string) {
				events = append(events, "token:"+text)
				cancel()
			},
			OnDone: func() {
				events = append(events, "done")
			},
			OnError: func(message string) {
				events = append(events, "error:"+message)
			},
		})
	}()

	err := <-done
	require.NoError(t, err)
	assert.Equal(t, []string{"token:Hel", "done"}, events)
	cancel()
}

func TestClient_TestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "default")
	assert.NoError(t, client.TestConnection(context.Background()))
}
