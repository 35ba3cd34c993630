package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"prop-backend/src/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketLiveFeed(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	go s.runHub()
	t.Cleanup(func() { s.Stop() })

	// A packet for marco's seeded login is already in the table
	w := doJSON(s, http.MethodPost, "/update",
		map[string]any{"login": "95474178", "balance": 500},
		map[string]string{"x-api-key": "ea-secret"})
	require.Equal(t, http.StatusOK, w.Code)

	ts := httptest.NewServer(s.engine)
	defer ts.Close()

	cookies := loginAs(t, s, "marco.sabelli", "marco123")
	header := http.Header{}
	for _, c := range cookies {
		header.Add("Cookie", c.Name+"="+c.Value)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Initial packet for the bound login arrives on connect
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pkt models.MTelemetryPacket
	require.NoError(t, conn.ReadJSON(&pkt))
	assert.Equal(t, "95474178", pkt.Login)
	require.NotNil(t, pkt.Balance)
	assert.Equal(t, 500.0, *pkt.Balance)

	// A fresh ingestion is pushed live
	w = doJSON(s, http.MethodPost, "/update",
		map[string]any{"login": "95474178", "balance": 750},
		map[string]string{"x-api-key": "ea-secret"})
	require.Equal(t, http.StatusOK, w.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&pkt))
	require.NotNil(t, pkt.Balance)
	assert.Equal(t, 750.0, *pkt.Balance)

	// Packets for other logins stay off this feed
	w = doJSON(s, http.MethodPost, "/update",
		map[string]any{"login": "999", "balance": 1},
		map[string]string{"x-api-key": "ea-secret"})
	require.Equal(t, http.StatusOK, w.Code)

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	err = conn.ReadJSON(&pkt)
	assert.Error(t, err, "no frame expected for a foreign login")
}

// -----------------------------------------------------------------------------

func TestStopStopsHubCleanly(t *testing.T) {
	s := newTestServer(t, "ea-secret")

	hubDone := make(chan struct{})
	go func() {
		s.runHub()
		close(hubDone)
	}()

	require.NoError(t, s.Stop())

	select {
	case <-hubDone:
	case <-time.After(2 * time.Second):
		t.Fatal("hub still running after Stop")
	}

	// A packet arriving during teardown is dropped, never a panic
	s.Broadcast(models.MTelemetryPacket{Login: "95474178"})

	assert.NoError(t, s.Stop(), "repeated Stop is a no-op")
}
