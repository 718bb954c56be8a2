package daemon

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/sirupsen/logrus"
)

var (
	unitName = "recal.service"
	unitPath = "/etc/systemd/system/" + unitName

	systemctl = "/usr/bin/systemctl"
)

const unitTemplate = `[Unit]
Description=recal thermostat sensor recalibration daemon
Wants=network-online.target
After=network-online.target

[Service]
ExecStart={{ .Executable }} daemon --config {{ .ConfigPath }} --daemon-socket {{ .SocketPath }}{{ if .EnvFile }} --env-file {{ .EnvFile }}{{ end }}
Restart=on-failure
RestartSec=10

[Install]
WantedBy=multi-user.target
`

// UnitOptions are the daemon flags written into the service unit.
type UnitOptions struct {
	Executable string
	ConfigPath string
	SocketPath string
	EnvFile    string
}

// RenderUnit returns the systemd unit running the daemon with opts.
func RenderUnit(opts UnitOptions) (string, error) {
	t, err := template.New(unitName).Parse(unitTemplate)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// absPaths makes the file paths in opts absolute. systemd does not resolve
// relative paths in ExecStart.
func absPaths(opts UnitOptions) (UnitOptions, error) {
	for _, p := range []*string{&opts.ConfigPath, &opts.SocketPath, &opts.EnvFile} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return opts, fmt.Errorf("failed to get the absolute path of %s: %w", *p, err)
		}
		*p = abs
	}
	return opts, nil
}

// Install writes the systemd unit for the current executable and starts it.
func Install(opts UnitOptions) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)
	opts.Executable = exePath
	opts, err = absPaths(opts)
	if err != nil {
		return err
	}

	unit, err := RenderUnit(opts)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", unitName, err)
	}

	logrus.Infof("writing systemd unit to %s", unitPath)

	// warn if the file already exists
	_, err = os.Stat(unitPath)
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	err = os.WriteFile(unitPath, []byte(unit), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	if err := exec.Command(systemctl, "daemon-reload").Run(); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}

	logrus.Infof("starting recal")

	err = exec.Command(systemctl, "enable", "--now", unitName).Run()
	if err != nil {
		return fmt.Errorf("failed to enable %s: %w", unitName, err)
	}

	return nil
}
