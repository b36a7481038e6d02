package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trattoria/internal/menu"
	"trattoria/internal/metrics"
	"trattoria/internal/order"
	"trattoria/internal/providers"
	"trattoria/internal/waiter"
)

const fixture = `{
	"ristorante": "Test",
	"sezioni": [
		{
			"nome": "Caffetteria",
			"voci": [
				{"id": "cappuccino", "nome": "Cappuccino", "prezzo": 2.20},
				{"id": "croissant", "nome": "Croissant", "prezzo": 1.80}
			]
		}
	]
}`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, menuPath string) *Server {
	t.Helper()
	cat, err := menu.Load(strings.NewReader(fixture))
	require.NoError(t, err)
	return New(cat, providers.NewLocalProvider(), metrics.NewCollector(), waiter.Options{}, menuPath)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
		Greeting  string `json:"greeting"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.Greeting)
	return resp.SessionID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, "")
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/messages",
		map[string]string{"message": "vorrei un cappuccino"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Reply string         `json:"reply"`
		Order order.Snapshot `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Reply)
	require.Len(t, resp.Order.Lines, 1)
	assert.Equal(t, "cappuccino", resp.Order.Lines[0].ItemID)

	w = doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/order", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap order.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.InDelta(t, 2.20, snap.Total, 1e-9)

	w = doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vorrei un cappuccino")

	w = doJSON(t, s, http.MethodDelete, "/api/sessions/"+id+"/order", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Empty(t, snap.Lines)

	w = doJSON(t, s, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, s, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodPost, "/api/sessions/nope/messages",
		map[string]string{"message": "ciao"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/sessions/nope/order", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageRequiresBody(t *testing.T) {
	s := newTestServer(t, "")
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/messages", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConcurrentMessagesSerialized(t *testing.T) {
	s := newTestServer(t, "")
	id := createSession(t, s)

	const n = 8
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var buf bytes.Buffer
			_ = json.NewEncoder(&buf).Encode(map[string]string{"message": "vorrei un cappuccino"})
			req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/messages", &buf)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	w := doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Turns []waiter.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// greeting plus one full exchange per message, none lost or interleaved
	assert.Len(t, resp.Turns, 1+2*n)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/messages",
		map[string]string{"message": "vorrei un cappuccino"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "waiter_turns_total")
	assert.Contains(t, w.Body.String(), "waiter_active_sessions 1")
}

func TestMenuReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	s := newTestServer(t, path)
	w := doJSON(t, s, http.MethodPost, "/api/menu/reload", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// a broken file must leave the running catalog in place
	require.NoError(t, os.WriteFile(path, []byte(`{"sezioni": []}`), 0o644))
	w = doJSON(t, s, http.MethodPost, "/api/menu/reload", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cappuccino")
}

func TestMenuSearch(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/menu/search?q=cappuccino", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), "Cappuccino")

	w = doJSON(t, s, http.MethodGet, "/api/menu/search?max_price=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Croissant")
	assert.NotContains(t, w.Body.String(), "Cappuccino")
}

func TestMenuReloadWithoutPath(t *testing.T) {
	s := newTestServer(t, "")
	w := doJSON(t, s, http.MethodPost, "/api/menu/reload", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
