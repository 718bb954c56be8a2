package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variables holding secrets. They take precedence over the
// values in the config file.
const (
	EnvRouterPassword     = "RECAL_ROUTER_PASSWORD"
	EnvHomeAssistantToken = "RECAL_HA_TOKEN"
)

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set are not overridden. A missing file is not
// an error.
func LoadDotEnv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logrus.Debugf("no env file at %s", path)
		return
	}
	if err := godotenv.Load(path); err != nil {
		logrus.WithError(err).Warnf("could not load env file %s", path)
		return
	}
	logrus.Debugf("loaded env file %s", path)
}
