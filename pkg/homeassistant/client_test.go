package homeassistant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStateServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/states/climate.living_room", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{
			"entity_id": "climate.living_room",
			"state": "heat",
			"attributes": {
				"friendly_name": "Wohnzimmer",
				"current_temperature": 20.5,
				"temperature": 22,
				"hvac_modes": ["heat", "off"]
			},
			"last_changed": "2023-12-27T15:28:26.287133+00:00",
			"last_updated": "2023-12-27T15:28:26.287133+00:00"
		}`))
	})
	mux.HandleFunc("/api/states/sensor.thermometer", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"entity_id": "sensor.thermometer", "state": "21.3", "attributes": {}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientGetState(t *testing.T) {
	srv := newStateServer(t)
	c := NewClient(srv.URL+"/", "token")
	ctx := context.Background()

	name, err := c.GetState(ctx, "climate.living_room", "friendly_name")
	require.NoError(t, err)
	assert.Equal(t, "Wohnzimmer", name)

	current, err := c.GetState(ctx, "climate.living_room", "current_temperature")
	require.NoError(t, err)
	assert.Equal(t, "20.5", current)

	target, err := c.GetState(ctx, "climate.living_room", "temperature")
	require.NoError(t, err)
	assert.Equal(t, "22", target)

	modes, err := c.GetState(ctx, "climate.living_room", "hvac_modes")
	require.NoError(t, err)
	assert.Equal(t, `["heat","off"]`, modes)

	reading, err := c.GetState(ctx, "sensor.thermometer", "")
	require.NoError(t, err)
	assert.Equal(t, "21.3", reading)
}

func TestClientErrors(t *testing.T) {
	srv := newStateServer(t)
	ctx := context.Background()

	_, err := NewClient(srv.URL, "token").GetState(ctx, "sensor.unknown", "")
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = NewClient(srv.URL, "token").GetState(ctx, "climate.living_room", "missing")
	assert.ErrorIs(t, err, ErrAttributeNotFound)

	_, err = NewClient(srv.URL, "wrong").GetState(ctx, "climate.living_room", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
