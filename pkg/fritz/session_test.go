package fritz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

// fakeConsole mimics the parts of the console the session touches. The
// sensor display is blanked for a moment after every change, like the real
// console does while it re-renders.
const fakeConsole = `<!DOCTYPE html>
<html><head><title>console</title></head>
<body style="min-height: 3000px">
<div id="login">
  <input id="uiPass" type="password">
  <button id="submitLoginBtn" onclick="login()">Anmelden</button>
</div>
<div id="nav" style="display:none">
  <button id="blueBarUserMenuIcon" onclick="show('logout')">user</button>
  <button id="logout" style="display:none" onclick="document.title='logged out'">Abmelden</button>
  <button id="sh_menu" onclick="show('sh_dev'); show('sh_control')">Smart Home</button>
  <button id="sh_dev" style="display:none" onclick="show('devices')">Geräte</button>
  <button id="sh_control" style="display:none" onclick="hide('detail'); show('control')">Steuerung</button>
</div>
<div id="devices" style="display:none">
  <button aria-label='"Wohnzimmer" bearbeiten' onclick="hide('devices'); show('detail')">edit</button>
</div>
<div id="detail" style="display:none">
  <span id="uiNumDisplay:Roomtemp">20,5</span>
  <button id="uiNumDown:Roomtemp" onclick="offset(-0.5)">-</button>
  <button id="uiNumUp:Roomtemp" onclick="offset(0.5)">+</button>
  <button id="uiMainApply" onclick="apply()">Übernehmen</button>
</div>
<div id="control" style="display:none">
  <div>
    <div><span>Wohnzimmer</span></div>
    <span class="v-temperature__display">22,0 °C</span>
    <button>on</button>
    <button onclick="target(-0.5)">-</button>
    <button onclick="target(0.5)">+</button>
  </div>
</div>
<script>
  var sensor = 20.5, off = 0, tgt = 22.0;
  function show(id) { document.getElementById(id).style.display = ''; }
  function hide(id) { document.getElementById(id).style.display = 'none'; }
  function fmt(v) { return v.toFixed(1).replace('.', ','); }
  function login() {
    if (document.getElementById('uiPass').value === 'secret') { hide('login'); show('nav'); }
  }
  function offset(d) {
    off += d;
    var el = document.getElementById('uiNumDisplay:Roomtemp');
    el.textContent = '';
    setTimeout(function () { el.textContent = fmt(sensor + off); }, 100);
    document.getElementById('uiNumUp:Roomtemp').disabled = off >= 1;
    document.getElementById('uiNumDown:Roomtemp').disabled = off <= -1;
  }
  function apply() {
    if (confirm('Einstellungen übernehmen?')) { tgt = 21.5; render(); document.body.dataset.applied = '1'; }
  }
  function target(d) { tgt += d; render(); }
  function render() { document.querySelector('.v-temperature__display').textContent = fmt(tgt) + ' °C'; }
</script>
</body></html>`

func TestSessionAgainstFakeConsole(t *testing.T) {
	if os.Getenv("RECAL_BROWSER_TESTS") == "" {
		t.Skip("set RECAL_BROWSER_TESTS=1 to run tests that start chrome")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fakeConsole))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := Open(ctx, Options{
		URL:          srv.URL,
		Password:     "secret",
		Timeout:      2 * time.Second,
		PollInterval: 50 * time.Millisecond,
		Headless:     true,
	})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer s.Close()

	if err := s.Login(ctx); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := s.OpenDevice(ctx, "Wohnzimmer"); err != nil {
		t.Fatalf("OpenDevice returned error: %v", err)
	}

	v, err := s.SensorTemperature(ctx)
	if err != nil || v != 20.5 {
		t.Fatalf("SensorTemperature() = %v, %v", v, err)
	}

	if err := s.RevealOffsetControls(ctx); err != nil {
		t.Fatalf("RevealOffsetControls returned error: %v", err)
	}
	if err := s.StepOffset(ctx, Up); err != nil {
		t.Fatalf("StepOffset returned error: %v", err)
	}
	v, err = s.SensorTemperature(ctx)
	if err != nil || v != 21.0 {
		t.Fatalf("SensorTemperature() after step = %v, %v", v, err)
	}

	// the fake console caps the offset at +1
	if err := s.StepOffset(ctx, Up); err != nil {
		t.Fatalf("StepOffset returned error: %v", err)
	}
	if err := s.StepOffset(ctx, Up); !errors.Is(err, ErrControlDisabled) {
		t.Fatalf("expected ErrControlDisabled, got %v", err)
	}

	if err := s.ApplyOffset(ctx); err != nil {
		t.Fatalf("ApplyOffset returned error: %v", err)
	}

	if err := s.OpenControl(ctx); err != nil {
		t.Fatalf("OpenControl returned error: %v", err)
	}
	v, err = s.TargetTemperature(ctx, "Wohnzimmer")
	if err != nil || v != 21.5 {
		t.Fatalf("TargetTemperature() = %v, %v", v, err)
	}
	if err := s.StepTarget(ctx, "Wohnzimmer", Up); err != nil {
		t.Fatalf("StepTarget returned error: %v", err)
	}
	v, err = s.TargetTemperature(ctx, "Wohnzimmer")
	if err != nil || v != 22.0 {
		t.Fatalf("TargetTemperature() after step = %v, %v", v, err)
	}

	if _, err := s.TargetTemperature(ctx, "Küche"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout for unknown row, got %v", err)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}
