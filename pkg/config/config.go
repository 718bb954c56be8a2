package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Config interface {
	RouterURL() string
	RouterPassword() string
	// Timeout bounds every wait for a console element.
	Timeout() time.Duration
	PollInterval() time.Duration
	// StepInterval is the pause between two clicks of the target
	// temperature stepper, which has no apply step of its own.
	StepInterval() time.Duration
	DeviceLabelFormat() string
	ChromeBin() string
	ControlURL() string
	Headless() bool
	HomeAssistantURL() string
	HomeAssistantToken() string
	EventType() string
	AllowNonRootAccess() bool

	SetTimeoutSeconds(int)
	SetEventType(string)
	SetAllowNonRootAccess(bool)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	// LogrusFields returns the effective settings for logging. Secrets
	// are only reported as set or not.
	LogrusFields() logrus.Fields
}
