package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charlie0129/recal/pkg/utils/ptr"
)

func TestFileDefaults(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}

	if got := f.RouterURL(); got != "http://fritz.box" {
		t.Errorf("RouterURL() = %q", got)
	}
	if got := f.Timeout(); got != 90*time.Second {
		t.Errorf("Timeout() = %v", got)
	}
	if got := f.PollInterval(); got != 500*time.Millisecond {
		t.Errorf("PollInterval() = %v", got)
	}
	if got := f.StepInterval(); got != time.Second {
		t.Errorf("StepInterval() = %v", got)
	}
	if got := f.EventType(); got != "fritz_thermostat_recalibration_needed" {
		t.Errorf("EventType() = %q", got)
	}
	if !f.Headless() {
		t.Errorf("expected headless by default")
	}
}

func TestFileLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recal.json")
	content := `{"routerURL": "http://192.168.178.1/", "timeoutSeconds": 30, "routerPassword": "secret", "deviceLabelFormat": "\"%s\" edit"}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvRouterPassword, "")

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}
	if got := f.RouterURL(); got != "http://192.168.178.1" {
		t.Errorf("RouterURL() = %q, want trailing slash trimmed", got)
	}
	if got := f.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout() = %v", got)
	}
	if got := f.RouterPassword(); got != "secret" {
		t.Errorf("RouterPassword() = %q", got)
	}
	if got := f.DeviceLabelFormat(); got != `"%s" edit` {
		t.Errorf("DeviceLabelFormat() = %q", got)
	}

	f.SetTimeoutSeconds(45)
	f.SetEventType("custom_event")
	if err := f.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	reloaded, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}
	if got := reloaded.Timeout(); got != 45*time.Second {
		t.Errorf("reloaded Timeout() = %v", got)
	}
	if got := reloaded.EventType(); got != "custom_event" {
		t.Errorf("reloaded EventType() = %q", got)
	}
}

func TestFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("  \n"), 0600); err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}
	if got := f.RouterURL(); got != "http://fritz.box" {
		t.Errorf("RouterURL() = %q", got)
	}
}

func TestFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}

func TestSecretsFromEnvironment(t *testing.T) {
	t.Setenv(EnvRouterPassword, "from-env")
	t.Setenv(EnvHomeAssistantToken, "token")

	f := NewFileFromConfig(&RawFileConfig{RouterPassword: ptr.To("from-file")}, "")
	if got := f.RouterPassword(); got != "from-env" {
		t.Errorf("RouterPassword() = %q, want env to win", got)
	}
	if got := f.HomeAssistantToken(); got != "token" {
		t.Errorf("HomeAssistantToken() = %q", got)
	}

	raw, err := NewRawFileConfigFromConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if raw.RouterPassword != nil || raw.HomeAssistantToken != nil {
		t.Errorf("secrets must not be exported")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(EnvHomeAssistantToken+"=dotenv-token\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvHomeAssistantToken, "")
	os.Unsetenv(EnvHomeAssistantToken)

	LoadDotEnv(path)
	if got := os.Getenv(EnvHomeAssistantToken); got != "dotenv-token" {
		t.Errorf("token = %q after LoadDotEnv", got)
	}

	// missing file is not fatal
	LoadDotEnv(filepath.Join(t.TempDir(), "nope"))
}

func TestConfigLogrusFieldsHideSecrets(t *testing.T) {
	var c Config = NewFileFromConfig(&RawFileConfig{
		RouterPassword:     ptr.To("router-secret"),
		HomeAssistantToken: ptr.To("ha-secret"),
		HomeAssistantURL:   ptr.To("http://homeassistant.local:8123"),
	}, "")

	fields := c.LogrusFields()
	if got := fields["homeAssistantURL"]; got != "http://homeassistant.local:8123" {
		t.Errorf("homeAssistantURL = %v", got)
	}
	if got := fields["routerPassword"]; got != true {
		t.Errorf("routerPassword = %v, want true", got)
	}
	for k, v := range fields {
		if v == "router-secret" || v == "ha-secret" {
			t.Errorf("field %s leaks a secret", k)
		}
	}
}
