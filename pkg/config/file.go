package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		RouterURL:          ptr.To("http://fritz.box"),
		TimeoutSeconds:     ptr.To(90),
		PollIntervalMillis: ptr.To(500),
		StepIntervalMillis: ptr.To(1000),
		// The console is German by default. Other locales label the edit
		// button differently, e.g. `"%s" edit`.
		DeviceLabelFormat:  ptr.To(`"%s" bearbeiten`),
		Headless:           ptr.To(true),
		EventType:          ptr.To("fritz_thermostat_recalibration_needed"),
		AllowNonRootAccess: ptr.To(false),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	RouterURL          *string `json:"routerURL,omitempty"`
	RouterPassword     *string `json:"routerPassword,omitempty"`
	TimeoutSeconds     *int    `json:"timeoutSeconds,omitempty"`
	PollIntervalMillis *int    `json:"pollIntervalMillis,omitempty"`
	StepIntervalMillis *int    `json:"stepIntervalMillis,omitempty"`
	DeviceLabelFormat  *string `json:"deviceLabelFormat,omitempty"`
	ChromeBin          *string `json:"chromeBin,omitempty"`
	ControlURL         *string `json:"controlURL,omitempty"`
	Headless           *bool   `json:"headless,omitempty"`
	HomeAssistantURL   *string `json:"homeAssistantURL,omitempty"`
	HomeAssistantToken *string `json:"homeAssistantToken,omitempty"`
	EventType          *string `json:"eventType,omitempty"`
	AllowNonRootAccess *bool   `json:"allowNonRootAccess,omitempty"`
}

// NewRawFileConfigFromConfig returns the effective config with secrets
// removed, suitable for handing out over the API.
func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		RouterURL:          ptr.To(c.RouterURL()),
		TimeoutSeconds:     ptr.To(int(c.Timeout() / time.Second)),
		PollIntervalMillis: ptr.To(int(c.PollInterval() / time.Millisecond)),
		StepIntervalMillis: ptr.To(int(c.StepInterval() / time.Millisecond)),
		DeviceLabelFormat:  ptr.To(c.DeviceLabelFormat()),
		ChromeBin:          ptr.To(c.ChromeBin()),
		ControlURL:         ptr.To(c.ControlURL()),
		Headless:           ptr.To(c.Headless()),
		HomeAssistantURL:   ptr.To(c.HomeAssistantURL()),
		EventType:          ptr.To(c.EventType()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
	}, nil
}

func pick[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	if def != nil {
		return *def
	}
	var zero T
	return zero
}

func (f *File) read() *RawFileConfig {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	c := *f.c
	return &c
}

func (f *File) RouterURL() string {
	return strings.TrimSuffix(pick(f.read().RouterURL, defaultFileConfig.RouterURL), "/")
}

func (f *File) RouterPassword() string {
	if v := os.Getenv(EnvRouterPassword); v != "" {
		return v
	}
	return pick(f.read().RouterPassword, nil)
}

func (f *File) Timeout() time.Duration {
	s := pick(f.read().TimeoutSeconds, defaultFileConfig.TimeoutSeconds)
	if s <= 0 {
		s = *defaultFileConfig.TimeoutSeconds
	}
	return time.Duration(s) * time.Second
}

func (f *File) PollInterval() time.Duration {
	ms := pick(f.read().PollIntervalMillis, defaultFileConfig.PollIntervalMillis)
	if ms <= 0 {
		ms = *defaultFileConfig.PollIntervalMillis
	}
	return time.Duration(ms) * time.Millisecond
}

func (f *File) StepInterval() time.Duration {
	ms := pick(f.read().StepIntervalMillis, defaultFileConfig.StepIntervalMillis)
	if ms < 0 {
		ms = *defaultFileConfig.StepIntervalMillis
	}
	return time.Duration(ms) * time.Millisecond
}

func (f *File) DeviceLabelFormat() string {
	format := pick(f.read().DeviceLabelFormat, defaultFileConfig.DeviceLabelFormat)
	if !strings.Contains(format, "%s") {
		logrus.Warnf("deviceLabelFormat %q has no %%s placeholder, using default", format)
		return *defaultFileConfig.DeviceLabelFormat
	}
	return format
}

func (f *File) ChromeBin() string {
	return pick(f.read().ChromeBin, defaultFileConfig.ChromeBin)
}

func (f *File) ControlURL() string {
	return pick(f.read().ControlURL, defaultFileConfig.ControlURL)
}

func (f *File) Headless() bool {
	return pick(f.read().Headless, defaultFileConfig.Headless)
}

func (f *File) HomeAssistantURL() string {
	return strings.TrimSuffix(pick(f.read().HomeAssistantURL, defaultFileConfig.HomeAssistantURL), "/")
}

func (f *File) HomeAssistantToken() string {
	if v := os.Getenv(EnvHomeAssistantToken); v != "" {
		return v
	}
	return pick(f.read().HomeAssistantToken, nil)
}

func (f *File) EventType() string {
	return pick(f.read().EventType, defaultFileConfig.EventType)
}

func (f *File) AllowNonRootAccess() bool {
	return pick(f.read().AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
}

func (f *File) SetTimeoutSeconds(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i <= 0 {
		panic("timeout must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.TimeoutSeconds = &i
}

func (f *File) SetEventType(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.EventType = &s
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.AllowNonRootAccess = &b
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"routerURL":         f.RouterURL(),
		"routerPassword":    f.RouterPassword() != "",
		"timeout":           f.Timeout(),
		"pollInterval":      f.PollInterval(),
		"stepInterval":      f.StepInterval(),
		"deviceLabelFormat": f.DeviceLabelFormat(),
		"headless":          f.Headless(),
		"homeAssistantURL":  f.HomeAssistantURL(),
		"homeAssistant":     f.HomeAssistantToken() != "",
		"eventType":         f.EventType(),
	}
}
