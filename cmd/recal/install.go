package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/recal/pkg/config"
	daemonutils "github.com/charlie0129/recal/pkg/utils/daemon"
)

var gInstallation = "Installation:"

func init() {
	commandGroups = append(commandGroups, gInstallation)
}

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	var (
		allowNonRootAccess bool
		timeoutSeconds     int
		eventType          string
		installEnvFile     string
	)

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install recal as a systemd service",
		GroupID: gInstallation,
		Long: `Install recal daemon as a systemd service (system-wide).

This makes recal run in the background and automatically start on boot. You must run this command as root.

Secrets are not written to the config file. Put RECAL_ROUTER_PASSWORD and RECAL_HA_TOKEN into the env file instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the recal daemon.")
			} else {
				logrus.Info("only root user is allowed to access the recal daemon.")
			}
			if cmd.Flags().Changed("timeout") {
				if timeoutSeconds <= 0 {
					return fmt.Errorf("timeout must be positive, got %d", timeoutSeconds)
				}
				conf.SetTimeoutSeconds(timeoutSeconds)
			}
			if cmd.Flags().Changed("event-type") {
				conf.SetEventType(eventType)
			}

			err = daemonutils.Install(daemonutils.UnitOptions{
				ConfigPath: configPath,
				SocketPath: unixSocketPath,
				EnvFile:    installEnvFile,
			})
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("`systemd' will use current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run ``recal install'' again.\n", exePath)

			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access recal daemon.")
	f.IntVar(&timeoutSeconds, "timeout", 90, "Seconds to wait for each element of the router console.")
	f.StringVar(&eventType, "event-type", "fritz_thermostat_recalibration_needed", "Home Assistant event that triggers a recalibration.")
	f.StringVar(&installEnvFile, "env-file", "/etc/recal.env", "Env file with secrets passed to the daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall recal (system-wide)",
		GroupID: gInstallation,
		RunE: func(_ *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			logrus.Infof("uninstallation succeeded")
			return nil
		},
	}
}
