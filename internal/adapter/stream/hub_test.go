package stream

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
)

func newTestHub() (*Hub, prometheus.Gauge) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "stream_clients"})
	return NewHub(gauge, slog.Default()), gauge
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	})
	return conn
}

func testDelta() domain.Delta {
	return domain.Delta{Updates: []domain.Update{{
		Source:    "ecowitt",
		Timestamp: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Values:    domain.Batch{{Path: domain.PathWindDirectionTrue, Value: 3.14}},
	}}}
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	hub, gauge := newTestHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.InDelta(t, 2, testutil.ToFloat64(gauge), 0)

	require.NoError(t, hub.Publish(context.Background(), testDelta()))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		d, err := domain.DecodeDelta(data)
		require.NoError(t, err)
		assert.Equal(t, testDelta().Updates[0].Values, d.Updates[0].Values)
	}
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub, _ := newTestHub()
	assert.NoError(t, hub.Publish(context.Background(), testDelta()))
	assert.Equal(t, "stream", hub.Name())
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, gauge := newTestHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.InDelta(t, 0, testutil.ToFloat64(gauge), 0)
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub, _ := newTestHub()
	c := &client{send: make(chan []byte, 1), remote: "test"}
	hub.clients[c] = struct{}{}

	done := make(chan struct{})
	go func() {
		for range sendBuffer + 5 {
			_ = hub.Publish(context.Background(), testDelta())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full client buffer")
	}
	assert.Len(t, c.send, 1)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub, _ := newTestHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
