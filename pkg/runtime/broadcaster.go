// guardian/pkg/runtime/broadcaster.go

package runtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/logging"
)

// AnalysisResult is the unit fanned out to connected listeners.
type AnalysisResult struct {
	Team       string            `json:"team"`
	Language   string            `json:"language"`
	Violations []ViolationRecord `json:"violations"`
	Blocked    bool              `json:"blocked"`
	Reasons    []string          `json:"reasons,omitempty"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
}

// Broadcaster fans analysis results out to websocket clients and pings them
// periodically, dropping any that stop answering.
type Broadcaster struct {
	engine       *Engine
	port         int
	clients      map[*websocket.Conn]bool
	clientsMutex sync.Mutex
	pingInterval time.Duration
	pongWait     time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now. In production, this should be more restrictive.
	},
}

func NewBroadcaster(engine *Engine, port int, pingInterval time.Duration) *Broadcaster {
	return &Broadcaster{
		engine:       engine,
		port:         port,
		clients:      make(map[*websocket.Conn]bool),
		pingInterval: pingInterval,
		pongWait:     pingInterval * 2,
	}
}

// Start serves the websocket endpoint and health check. It blocks until the
// listener fails.
func (b *Broadcaster) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats, err := json.Marshal(b.engine.GetStats())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(stats)
	})

	mux.HandleFunc("/events", b.handleWebSocket)

	go b.pingClients()

	addr := fmt.Sprintf(":%d", b.port)
	logging.Logger.Info().Str("addr", addr).Msg("Broadcaster listening")
	return http.ListenAndServe(addr, mux)
}

func (b *Broadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}
	defer conn.Close()

	logging.Logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Client connected")

	conn.SetReadDeadline(time.Now().Add(b.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(b.pongWait))
	})

	b.clientsMutex.Lock()
	b.clients[conn] = true
	b.clientsMutex.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.clientsMutex.Lock()
	delete(b.clients, conn)
	b.clientsMutex.Unlock()

	logging.Logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Client disconnected")
}

// Publish sends one analysis result to every connected client. Clients that
// fail the write are dropped.
func (b *Broadcaster) Publish(result AnalysisResult) {
	message, err := json.Marshal(result)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("Failed to marshal analysis result")
		return
	}

	b.clientsMutex.Lock()
	defer b.clientsMutex.Unlock()
	for client := range b.clients {
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			logging.Logger.Warn().Err(err).Msg("Dropping client after failed write")
			client.Close()
			delete(b.clients, client)
		}
	}
}

// ClientCount reports the number of connected listeners.
func (b *Broadcaster) ClientCount() int {
	b.clientsMutex.Lock()
	defer b.clientsMutex.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) pingClients() {
	ticker := time.NewTicker(b.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		b.clientsMutex.Lock()
		for client := range b.clients {
			err := client.WriteControl(websocket.PingMessage, nil, time.Now().Add(b.pingInterval))
			if err != nil {
				logging.Logger.Warn().Err(err).Msg("Dropping client after failed ping")
				client.Close()
				delete(b.clients, client)
			}
		}
		b.clientsMutex.Unlock()
	}
}
