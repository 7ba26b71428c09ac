package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahanpulse/internal/shared/testutil"
	"vahanpulse/pkg/contracts/domain"
)

type fakeMessage struct {
	kind int
	data []byte
}

// fakeConn records writes; reads block until Close.
type fakeConn struct {
	mu      sync.Mutex
	written []fakeMessage
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, fakeMessage{kind: kind, data: data})
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) RemoteAddr() string { return "127.0.0.1:9999" }

func (f *fakeConn) messages() []fakeMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeMessage(nil), f.written...)
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func receive(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case raw, ok := <-ch:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHub_RegisterAndPublish(t *testing.T) {
	hub, _ := startHub(t)
	client := NewClient(hub, newFakeConn(), "trace-1", DefaultTiming, nil)

	require.True(t, hub.Register(client))
	welcome := receive(t, client.send)
	assert.Equal(t, TypeConnection, welcome.Type)
	assert.Equal(t, "trace-1", welcome.TraceID)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Publish(domain.PipelineEvent{
		RunID:  "run-1",
		Stage:  domain.StageFetch,
		Status: domain.StatusCompleted,
		Rows:   42,
	})

	msg := receive(t, client.send)
	assert.Equal(t, TypePipelineEvent, msg.Type)
	assert.Equal(t, "run-1", msg.TraceID)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fetch", data["stage"])
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, float64(42), data["rows"])
}

func TestHub_Unregister(t *testing.T) {
	hub, _ := startHub(t)
	client := NewClient(hub, newFakeConn(), "", DefaultTiming, nil)
	require.True(t, hub.Register(client))
	receive(t, client.send)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok)

	// a second unregister is ignored
	hub.Unregister(client)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil)

	for i := 0; i < broadcastQueue+3; i++ {
		hub.Publish(domain.PipelineEvent{RunID: "run", Stage: domain.StageNormalize, Status: domain.StatusStarted})
	}
	assert.Equal(t, int64(3), hub.Dropped())
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	client := NewClient(hub, newFakeConn(), "", DefaultTiming, nil)
	require.True(t, hub.Register(client))
	receive(t, client.send)

	cancel()
	<-hub.done

	_, ok := <-client.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, hub.Register(NewClient(hub, newFakeConn(), "", DefaultTiming, nil)))
}

func TestClient_WritePump(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(NewHub(nil), conn, "", DefaultTiming, nil)

	done := make(chan struct{})
	go func() {
		client.WritePump()
		close(done)
	}()

	client.send <- []byte(`{"type":"a"}`)
	client.send <- []byte(`{"type":"b"}`)
	close(client.send)
	<-done

	written := conn.messages()
	require.Len(t, written, 3)
	assert.Equal(t, websocket.TextMessage, written[0].kind)
	assert.Equal(t, `{"type":"b"}`, string(written[1].data))
	assert.Equal(t, websocket.CloseMessage, written[2].kind)
}

func TestTiming_Normalized(t *testing.T) {
	assert.Equal(t, DefaultTiming.PongWait, Timing{}.normalized().PongWait)

	got := Timing{PingPeriod: time.Minute, PongWait: 10 * time.Second}.normalized()
	assert.Equal(t, 9*time.Second, got.PingPeriod)
}

func TestHandler_EndToEnd(t *testing.T) {
	hub, _ := startHub(t)
	handler := NewHandler(hub, HandlerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		AllowedOrigins:  []string{"http://localhost:8080"},
	}, nil)

	server := httptest.NewServer(handler)
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	t.Run("streams events", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		var welcome Message
		require.NoError(t, conn.ReadJSON(&welcome))
		assert.Equal(t, TypeConnection, welcome.Type)

		require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
		hub.Publish(domain.PipelineEvent{RunID: "run-9", Stage: domain.StagePersist, Status: domain.StatusFailed})

		var event Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, TypePipelineEvent, event.Type)
		assert.Equal(t, "run-9", event.TraceID)
	})

	t.Run("rejects foreign origin", func(t *testing.T) {
		header := http.Header{"Origin": []string{"http://evil.example"}}
		_, resp, err := websocket.DefaultDialer.Dial(url, header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("allows listed origin", func(t *testing.T) {
		header := http.Header{"Origin": []string{"http://localhost:8080"}}
		conn, _, err := websocket.DefaultDialer.Dial(url, header)
		require.NoError(t, err)
		conn.Close()
	})
}
