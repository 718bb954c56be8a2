package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/recal/pkg/events"
	"github.com/charlie0129/recal/pkg/recalibration"
)

func newUnixServer(t *testing.T, h http.Handler) string {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "recal.sock")
	l, err := net.Listen("unix", sock)
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(h)
	srv.Listener = l
	srv.Start()
	t.Cleanup(srv.Close)
	return sock
}

func TestRecalibrate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recalibrate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"thermostat":"climate.living","thermometer":"sensor.living"}`, string(b))
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id":"run-1"}`)
	})
	c := NewClient(newUnixServer(t, mux))

	id, err := c.Recalibrate(recalibration.Request{Thermostat: "climate.living", Thermometer: "sensor.living"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)
}

func TestRecalibrateRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recalibrate", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `"recalibration queue is full"`)
	})
	c := NewClient(newUnixServer(t, mux))

	_, err := c.Recalibrate(recalibration.Request{Thermostat: "a", Thermometer: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGetStatusAndVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":"run-1","phase":"Done","sensorAfter":21,"offsetClicks":1}`)
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `"v1.2.3"`)
	})
	c := NewClient(newUnixServer(t, mux))

	run, err := c.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, recalibration.PhaseDone, run.Phase)
	assert.Equal(t, 21.0, run.SensorAfter)
	assert.Equal(t, 1, run.OffsetClicks)

	v, err := c.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", v)
}

func TestNotFound(t *testing.T) {
	c := NewClient(newUnixServer(t, http.NewServeMux()))

	_, err := c.GetVersion()
	assert.True(t, errors.Is(err, ErrNotFound), err)
}

func TestDaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))

	_, err := c.GetStatus()
	assert.True(t, errors.Is(err, ErrDaemonNotRunning), err)
}

func TestEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event:recalibration.phase\ndata:{\"runID\":\"run-1\",\"to\":\"Login\"}\n\n")
		fmt.Fprint(w, "event: recalibration.phase\ndata: {\"runID\":\"run-1\",\"to\":\"Done\"}\n\n")
	})
	c := NewClient(newUnixServer(t, mux))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.Events(ctx)
	require.NoError(t, err)

	var got []string
	for ev := range ch {
		assert.Equal(t, events.RecalibrationPhase, ev.Name)
		p, err := events.DecodeAs[events.RecalibrationPhaseEvent](ev)
		require.NoError(t, err)
		assert.Equal(t, "run-1", p.RunID)
		got = append(got, p.To)
	}
	assert.Equal(t, []string{"Login", "Done"}, got)
}
