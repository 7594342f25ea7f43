package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"solfavs/pkg/pipeline"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes the pipeline state over HTTP for headless deployments:
// a JSON status endpoint and a websocket stream of pipeline events.
type Server struct {
	pl      *pipeline.Pipeline
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	mux     *http.ServeMux
}

func NewServer(pl *pipeline.Pipeline) *Server {
	s := &Server{
		pl:      pl,
		clients: make(map[*websocket.Conn]bool),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) Start(port int) error {
	go s.listenToPipeline()

	fmt.Printf("API Server listening on :%d\n", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.mux)
}

func (s *Server) statusPayload() map[string]interface{} {
	filtered, total := s.pl.Counts(time.Now())
	return map[string]interface{}{
		"mints":          s.pl.Tracked(),
		"snapshot":       s.pl.Snapshot(),
		"filtered_count": filtered,
		"total_count":    total,
		"last_updated":   s.pl.LastUpdate(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.statusPayload())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	// Send initial state
	initialData := map[string]interface{}{
		"type": "initial",
		"data": s.statusPayload(),
	}
	_ = conn.WriteJSON(initialData)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) listenToPipeline() {
	sub := s.pl.Subscribe()
	defer s.pl.Unsubscribe(sub)

	for event := range sub {
		s.broadcast(event)
	}
}

func (s *Server) broadcast(event pipeline.Event) {
	payload := map[string]interface{}{
		"type":  string(event.Type),
		"mints": event.Mints,
	}
	if event.Err != nil {
		payload["error"] = event.Err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(payload); err != nil {
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}
