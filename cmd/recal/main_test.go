package main

import (
	"bytes"
	"testing"

	"github.com/charlie0129/recal/pkg/version"
)

func TestNewCommandSubcommands(t *testing.T) {
	cmd := NewCommand()
	for _, name := range []string{"daemon", "version", "recalibrate", "status", "watch", "config", "install", "uninstall"} {
		c, _, err := cmd.Find([]string{name})
		if err != nil {
			t.Errorf("Find(%q) error = %v", name, err)
			continue
		}
		if c.Name() != name {
			t.Errorf("Find(%q) = %q", name, c.Name())
		}
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--daemon-socket", t.TempDir() + "/none.sock"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := version.Version + " " + version.GitCommit + "\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestRecalibrateRequiresEntities(t *testing.T) {
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"recalibrate", "--thermostat", "climate.living", "--daemon-socket", t.TempDir() + "/none.sock"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() succeeded without --thermometer")
	}
}
