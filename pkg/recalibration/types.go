package recalibration

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/recal/pkg/fritz"
)

var (
	// ErrInvalidRequest is returned for a request missing an entity.
	ErrInvalidRequest = errors.New("invalid recalibration request")

	// ErrInvalidState is returned when an entity state is missing or not numeric.
	ErrInvalidState = errors.New("invalid entity state")

	// ErrNoProgress is returned when clicking a control does not move the
	// displayed value towards the goal.
	ErrNoProgress = errors.New("console value does not converge")
)

// Request asks for one recalibration of Thermostat against Thermometer.
type Request struct {
	Thermostat  string `json:"thermostat"`
	Thermometer string `json:"thermometer"`
}

func (r Request) Validate() error {
	if r.Thermostat == "" {
		return pkgerrors.Wrap(ErrInvalidRequest, "thermostat is empty")
	}
	if r.Thermometer == "" {
		return pkgerrors.Wrap(ErrInvalidRequest, "thermometer is empty")
	}
	return nil
}

// Phase defines the phases of a recalibration run.
type Phase string

const (
	PhaseIdle          Phase = "Idle"
	PhaseReadState     Phase = "ReadState"
	PhaseLogin         Phase = "Login"
	PhaseNavigate      Phase = "Navigate"
	PhaseAdjustOffset  Phase = "AdjustOffset"
	PhaseApply         Phase = "Apply"
	PhaseRestoreTarget Phase = "RestoreTarget"
	PhaseLogout        Phase = "Logout"
	PhaseDone          Phase = "Done"
	PhaseError         Phase = "Error"
)

// Finished reports whether a run in this phase is over.
func (p Phase) Finished() bool {
	return p == PhaseIdle || p == PhaseDone || p == PhaseError
}

// OffsetState defines the states of the offset adjustment loop.
type OffsetState string

const (
	OffsetReading         OffsetState = "Reading"
	OffsetBelowTarget     OffsetState = "BelowTarget"
	OffsetAboveTarget     OffsetState = "AboveTarget"
	OffsetAtTarget        OffsetState = "AtTarget"
	OffsetControlDisabled OffsetState = "ControlDisabled"
)

// Run is the view model of a recalibration run exposed by the daemon. Only
// the latest run is kept, in memory.
type Run struct {
	ID          string `json:"id"`
	Thermostat  string `json:"thermostat"`
	Thermometer string `json:"thermometer"`
	// Name is the thermostat's display name, used to find it in the console.
	Name  string `json:"name,omitempty"`
	Phase Phase  `json:"phase"`

	Reference  float64 `json:"reference"`
	Normalized float64 `json:"normalized"`
	// SensorBefore and SensorAfter are the sensor values shown by the console.
	SensorBefore float64 `json:"sensorBefore"`
	SensorAfter  float64 `json:"sensorAfter"`
	Target       float64 `json:"target"`

	Recalibrated       bool `json:"recalibrated"`
	OffsetClicks       int  `json:"offsetClicks"`
	OffsetLimitReached bool `json:"offsetLimitReached"`
	TargetClicks       int  `json:"targetClicks"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Error      string    `json:"error,omitempty"`
}

// StateProvider returns an entity's state, or one of its attributes when
// attribute is not empty.
type StateProvider interface {
	GetState(ctx context.Context, entityID, attribute string) (string, error)
}

// Console is a logged-out session with the router console.
type Console interface {
	Login(ctx context.Context) error
	OpenDevice(ctx context.Context, name string) error
	SensorTemperature(ctx context.Context) (float64, error)
	RevealOffsetControls(ctx context.Context) error
	// StepOffset returns fritz.ErrControlDisabled when the button cannot
	// be pressed anymore.
	StepOffset(ctx context.Context, dir fritz.Direction) error
	ApplyOffset(ctx context.Context) error
	OpenControl(ctx context.Context) error
	TargetTemperature(ctx context.Context, name string) (float64, error)
	StepTarget(ctx context.Context, name string, dir fritz.Direction) error
	Logout(ctx context.Context) error
	Close() error
}

var _ Console = (*fritz.Session)(nil)

// ConsoleFactory opens a new console session.
type ConsoleFactory func(ctx context.Context) (Console, error)

// Publisher receives phase change notifications.
type Publisher interface {
	Publish(name string, payload any)
}
