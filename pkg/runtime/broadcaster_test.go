package runtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/compiler"
)

func newTestBroadcaster(t *testing.T, pingInterval time.Duration) (*Broadcaster, *httptest.Server) {
	b := NewBroadcaster(NewEngine(), 0, pingInterval)
	server := httptest.NewServer(http.HandlerFunc(b.handleWebSocket))
	t.Cleanup(server.Close)
	return b, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNewBroadcaster(t *testing.T) {
	engine := NewEngine()
	b := NewBroadcaster(engine, 8090, 30*time.Second)

	assert.Equal(t, engine, b.engine)
	assert.Equal(t, 8090, b.port)
	assert.Equal(t, 30*time.Second, b.pingInterval)
	assert.Equal(t, 60*time.Second, b.pongWait)
	assert.NotNil(t, b.clients)
}

func TestBroadcasterPublish(t *testing.T) {
	b, server := newTestBroadcaster(t, time.Second)
	conn := dial(t, server)

	assert.Eventually(t, func() bool { return b.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	sent := AnalysisResult{
		Team:     "frontend",
		Language: "javascript",
		Violations: []ViolationRecord{{
			ID:       "v-1",
			Severity: compiler.SeverityWarning,
			Message:  "warn about debug statements",
			Line:     1,
			RuleTag:  CompiledRuleTag,
		}},
		Blocked:    false,
		AnalyzedAt: time.Now().UTC(),
	}
	b.Publish(sent)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var received AnalysisResult
	require.NoError(t, json.Unmarshal(payload, &received))
	assert.Equal(t, "frontend", received.Team)
	require.Len(t, received.Violations, 1)
	assert.Equal(t, "warn about debug statements", received.Violations[0].Message)
	assert.Equal(t, CompiledRuleTag, received.Violations[0].RuleTag)
}

func TestBroadcasterPublishFansOut(t *testing.T) {
	b, server := newTestBroadcaster(t, time.Second)
	first := dial(t, server)
	second := dial(t, server)

	assert.Eventually(t, func() bool { return b.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	b.Publish(AnalysisResult{Team: "backend"})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"team":"backend"`)
	}
}

func TestBroadcasterDropsDisconnectedClient(t *testing.T) {
	b, server := newTestBroadcaster(t, time.Second)
	conn := dial(t, server)

	assert.Eventually(t, func() bool { return b.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()

	// The write eventually fails and the client is dropped.
	assert.Eventually(t, func() bool {
		b.Publish(AnalysisResult{Team: "backend"})
		return b.ClientCount() == 0
	}, 2*time.Second, 20*time.Millisecond)
}

// Clients answering pings stay connected past several ping intervals.
func TestBroadcasterPingKeepsResponsiveClients(t *testing.T) {
	b, server := newTestBroadcaster(t, 50*time.Millisecond)
	go b.pingClients()

	conn := dial(t, server)
	pinged := make(chan struct{}, 4)
	conn.SetPingHandler(func(data string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	// The default dialer only processes control frames while reading.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a ping from the broadcaster")
	}

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, b.ClientCount())
}
