package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trattoria/internal/order"
)

func TestWebSocketChat(t *testing.T) {
	s := newTestServer(t, "")
	id := createSession(t, s)

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session_id=" + id
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("vorrei un cappuccino e un croissant")))

	var reply struct {
		Reply string         `json:"reply"`
		Order order.Snapshot `json:"order"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.NotEmpty(t, reply.Reply)
	assert.Len(t, reply.Order.Lines, 2)
}

func TestWebSocketUnknownSession(t *testing.T) {
	s := newTestServer(t, "")

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session_id=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if resp != nil {
		resp.Body.Close()
	}
}
