package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/recal/pkg/config"
	"github.com/charlie0129/recal/pkg/daemon"
	"github.com/charlie0129/recal/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow non-root users to access the recal daemon.
	alwaysAllowNonRootAccess = false

	envFile = ".env"
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Short:   "Run recal daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("recal daemon starting")
			config.LoadDotEnv(envFile)
			return daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow non-root users to access the daemon.")
	f.StringVar(&envFile, "env-file", envFile,
		"File with secrets ("+config.EnvRouterPassword+", "+config.EnvHomeAssistantToken+") to load into the environment. Missing is fine.")

	return cmd
}
