package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-risk-engine/internal/domain"
)

func dialTestHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialTestHub(t, srv)
	defer conn.Close()

	// Registration races the broadcast without a short settle pause.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(&domain.Classification{
		TokenID:        "MintStream",
		CompositeScore: 0.42,
		RiskLevel:      domain.RiskMedium,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got domain.Classification
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "MintStream", got.TokenID)
	assert.InDelta(t, 0.42, got.CompositeScore, 1e-9)
	assert.Equal(t, domain.RiskMedium, got.RiskLevel)
}

func TestHub_BroadcastToMultipleSubscribers(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dialTestHub(t, srv)
	defer first.Close()
	second := dialTestHub(t, srv)
	defer second.Close()

	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(&domain.Classification{TokenID: "MintFan"})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var got domain.Classification
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, "MintFan", got.TokenID)
	}
}

func TestHub_CloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(nil, nil)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialTestHub(t, srv)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)
	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_BroadcastAfterDisconnect(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialTestHub(t, srv)
	time.Sleep(50 * time.Millisecond)
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	// Must not panic or block with the subscriber gone.
	hub.Broadcast(&domain.Classification{TokenID: "MintGone"})
}
