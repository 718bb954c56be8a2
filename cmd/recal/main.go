package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/recal/pkg/client"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/recal.sock"
	configPath     = "/etc/recal.json"
)

var apiClient *client.Client

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: recal daemon is not running")
		fmt.Fprintf(os.Stderr, "Is the daemon running? Start it with 'recal daemon' or check --daemon-socket (%s).\n", unixSocketPath)
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or start the daemon with '--always-allow-non-root-access' to grant permissions to your user")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recal",
		Short: "recal recalibrates FRITZ!DECT thermostat sensors against a reference thermometer",
		Long: `recal recalibrates the temperature sensor offset of FRITZ!DECT thermostats.

It listens for a recalibration event from Home Assistant, reads the thermostat
and a reference thermometer, and adjusts the sensor offset in the FRITZ!Box
web interface using a headless browser.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			apiClient = client.NewClient(unixSocketPath)

			if cmd.Name() == "daemon" || cmd.Name() == "version" {
				return nil
			}
			if daemonVersion, err := apiClient.GetVersion(); err == nil {
				warnVersionMismatch(daemonVersion)
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "recal daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewRecalibrateCommand(),
		NewStatusCommand(),
		NewWatchCommand(),
		NewConfigCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}
