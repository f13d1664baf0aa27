package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactor/pkg/observe"
	"github.com/vango-dev/reactor/pkg/reactive"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGraphBeforeSnapshot(t *testing.T) {
	srv := NewServer(Options{Logger: quietLogger()})
	rec := get(t, srv.Handler(), "/graph")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGraphAndStats(t *testing.T) {
	rt := reactive.New(reactive.WithName("demo"), reactive.WithLogger(quietLogger()))
	defer rt.Close()

	count := reactive.NewSignal(rt, 2).Named("count")
	double := reactive.NewMemo(rt, func() int { return count.Get() * 2 }).Named("double")
	reactive.CreateEffect(rt, func() reactive.Cleanup {
		double.Get()
		return nil
	}, reactive.EffectName("log"))
	require.NoError(t, count.Set(3))

	srv := NewServer(Options{Hub: NewHub(0, quietLogger()), Logger: quietLogger()})
	srv.SetSnapshot(rt.Snapshot())
	h := srv.Handler()

	rec := get(t, h, "/graph")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))

	var snap reactive.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "demo", snap.Runtime)
	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, "count", snap.Nodes[0].ID)
	assert.Equal(t, []string{"double"}, snap.Nodes[0].Subs)
	assert.Equal(t, "6", snap.Nodes[1].Value)
	assert.Equal(t, []string{"double"}, snap.Nodes[2].Deps)

	rec = get(t, h, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats["passes"])
	assert.EqualValues(t, 3, stats["live_nodes"])
	assert.EqualValues(t, 0, stats["clients"])
	assert.EqualValues(t, 0, stats["dropped_events"])
}

func TestRoutesDisabledWithoutDependencies(t *testing.T) {
	h := NewServer(Options{Logger: quietLogger()}).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/ws").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observe.NewMetrics(observe.WithRegistry(reg))

	rt := reactive.New(reactive.WithLogger(quietLogger()), reactive.WithObserver(metrics))
	defer rt.Close()
	s := reactive.NewSignal(rt, 0)
	reactive.CreateEffect(rt, func() reactive.Cleanup {
		s.Get()
		return nil
	})
	require.NoError(t, s.Set(1))

	h := NewServer(Options{Gatherer: reg, Logger: quietLogger()}).Handler()
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reactor_passes_total 1")
}

func TestHubDropsWhenFull(t *testing.T) {
	hub := NewHub(1, quietLogger())
	hub.Observe(reactive.Event{Kind: reactive.EventPassStart})
	hub.Observe(reactive.Event{Kind: reactive.EventPassEnd})
	hub.Observe(reactive.Event{Kind: reactive.EventPassEnd})
	assert.Equal(t, uint64(2), hub.Dropped())
}

func TestMessageFor(t *testing.T) {
	msg := messageFor(reactive.Event{Kind: reactive.EventPassStart, Runtime: "rt", Pass: 3, DirtySize: 4})
	assert.Equal(t, Message{Type: MessageEvent, Kind: "pass_start", Runtime: "rt", Pass: 3, DirtySize: 4}, msg)

	msg = messageFor(reactive.Event{Kind: reactive.EventError, Err: errors.New("boom")})
	assert.Equal(t, "boom", msg.Error)
	assert.Empty(t, msg.Node)
}

func TestWebSocketStream(t *testing.T) {
	hub := NewHub(64, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ts := httptest.NewServer(NewServer(Options{Hub: hub, Logger: quietLogger()}).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MessageHello, hello.Type)
	assert.Len(t, hello.Client, 36)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	rt := reactive.New(reactive.WithName("ws"), reactive.WithLogger(quietLogger()), reactive.WithObserver(hub))
	defer rt.Close()
	s := reactive.NewSignal(rt, 0).Named("s")
	reactive.CreateEffect(rt, func() reactive.Cleanup {
		s.Get()
		return nil
	})
	require.NoError(t, s.Set(1))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var kinds []string
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "ws", msg.Runtime)
		kinds = append(kinds, msg.Kind)
		if msg.Kind == "pass_end" {
			break
		}
	}
	assert.Contains(t, kinds, "pass_start")
	assert.Contains(t, kinds, "evaluate")

	cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDrive(t *testing.T) {
	rt := reactive.New(reactive.WithLogger(quietLogger()))
	defer rt.Close()
	s := reactive.NewSignal(rt, 0).Named("tick")

	srv := NewServer(Options{Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())

	steps := 0
	err := srv.Drive(ctx, rt, time.Millisecond, func(i int) error {
		steps++
		if steps == 3 {
			cancel()
		}
		return s.Set(i + 1)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	snap := srv.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "3", snap.Nodes[0].Value)
}

func TestStartStopsOnCancel(t *testing.T) {
	srv := NewServer(Options{Address: "127.0.0.1:0", Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
