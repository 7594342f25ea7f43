package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"solfavs/pkg/config"
	"solfavs/pkg/pipeline"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func newTestServer() *Server {
	prefs := config.Defaults()
	prefs.Mints = []string{"Eppcp4FhG6wmaRno3omWWvKsZHbzucVLR316SdXopump"}
	return NewServer(pipeline.New(nil, prefs, ""))
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer()

	req, _ := http.NewRequest("GET", "/api/status", nil)
	rr := httptest.NewRecorder()

	s.mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Contains(t, resp, "mints")
	assert.Contains(t, resp, "snapshot")
	assert.Contains(t, resp, "filtered_count")
	assert.Contains(t, resp, "total_count")
	assert.Len(t, resp["mints"], 1)
}

func TestHandleWS(t *testing.T) {
	s := newTestServer()
	server := httptest.NewServer(s.mux)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	assert.NoError(t, err)
	defer func() { _ = ws.Close() }()

	// Read initial state
	var msg map[string]interface{}
	err = ws.ReadJSON(&msg)
	assert.NoError(t, err)
	assert.Equal(t, "initial", msg["type"])
}
