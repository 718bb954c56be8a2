package recalibration

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/events"
	"github.com/charlie0129/recal/pkg/temperature"
)

const (
	defaultMaxOffsetClicks = 40
	defaultMaxTargetClicks = 80
)

// Options configure a Handler.
type Options struct {
	States StateProvider
	Open   ConsoleFactory
	// StepInterval is the pause after each target stepper click. Zero
	// disables pacing.
	StepInterval time.Duration
	// Events receives phase changes. Optional.
	Events Publisher

	// MaxOffsetClicks and MaxTargetClicks bound the click loops. Zero means
	// the package defaults.
	MaxOffsetClicks int
	MaxTargetClicks int
}

// Handler executes recalibration runs, one at a time.
type Handler struct {
	opts Options

	// runMu serializes runs.
	runMu sync.Mutex

	mu   sync.RWMutex
	last Run
}

func NewHandler(opts Options) *Handler {
	if opts.MaxOffsetClicks <= 0 {
		opts.MaxOffsetClicks = defaultMaxOffsetClicks
	}
	if opts.MaxTargetClicks <= 0 {
		opts.MaxTargetClicks = defaultMaxTargetClicks
	}
	return &Handler{
		opts: opts,
		last: Run{Phase: PhaseIdle},
	}
}

// Status returns a copy of the current or last run.
func (h *Handler) Status() Run {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Handle runs a recalibration with a fresh run ID.
func (h *Handler) Handle(ctx context.Context, req Request) (*Run, error) {
	return h.HandleWithID(ctx, uuid.NewString(), req)
}

// HandleWithID runs a recalibration for req. It blocks while another run is
// in progress. The returned Run is never nil, and on failure it is in
// PhaseError with the error recorded.
func (h *Handler) HandleWithID(ctx context.Context, id string, req Request) (*Run, error) {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	run := &Run{
		ID:          id,
		Thermostat:  req.Thermostat,
		Thermometer: req.Thermometer,
		Phase:       PhaseIdle,
		StartedAt:   time.Now(),
	}
	h.update(run, func() {})

	log := logrus.WithFields(logrus.Fields{
		"run":        id,
		"thermostat": req.Thermostat,
	})

	err := h.execute(ctx, run, req, log)
	if err != nil {
		log.WithError(err).Error("recalibration failed")
		h.update(run, func() {
			run.Error = err.Error()
			run.FinishedAt = time.Now()
		})
		h.setPhase(run, PhaseError, log, err.Error())
	} else {
		h.update(run, func() { run.FinishedAt = time.Now() })
		h.setPhase(run, PhaseDone, log, "")
	}

	ret := h.Status()
	return &ret, err
}

func (h *Handler) execute(ctx context.Context, run *Run, req Request, log *logrus.Entry) error {
	if err := req.Validate(); err != nil {
		return err
	}

	h.setPhase(run, PhaseReadState, log, "")
	name, err := h.opts.States.GetState(ctx, req.Thermostat, "friendly_name")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read name of %s", req.Thermostat)
	}
	if name == "" {
		return pkgerrors.Wrapf(ErrInvalidState, "%s has no friendly_name", req.Thermostat)
	}
	current, err := h.readNumber(ctx, req.Thermostat, "current_temperature")
	if err != nil {
		return err
	}
	target, err := h.readNumber(ctx, req.Thermostat, "temperature")
	if err != nil {
		return err
	}
	reference, err := h.readNumber(ctx, req.Thermometer, "")
	if err != nil {
		return err
	}
	normalized := temperature.Normalize(reference)
	h.update(run, func() {
		run.Name = name
		run.Reference = reference
		run.Normalized = normalized
		run.Target = target
	})
	log.Infof("Recalibrate '%s' from %v to ~%v (%v)", name, current, normalized, reference)

	h.setPhase(run, PhaseLogin, log, "")
	console, err := h.opts.Open(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open console session")
	}
	defer func() {
		if err := console.Close(); err != nil {
			log.WithError(err).Warn("failed to close console session")
		}
	}()

	if err := console.Login(ctx); err != nil {
		return pkgerrors.Wrap(err, "failed to log in")
	}

	h.setPhase(run, PhaseNavigate, log, name)
	if err := console.OpenDevice(ctx, name); err != nil {
		return pkgerrors.Wrapf(err, "failed to open device page of '%s'", name)
	}
	displayed, err := console.SensorTemperature(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read sensor temperature")
	}
	h.update(run, func() {
		run.SensorBefore = displayed
		run.SensorAfter = displayed
	})

	if sameReading(displayed, normalized) {
		log.Info("No recalibration required")
	} else {
		log.Infof("Currently set room temperature of %v should be %v", displayed, normalized)

		h.setPhase(run, PhaseAdjustOffset, log, "")
		if err := h.adjustOffset(ctx, console, run, normalized, log); err != nil {
			return pkgerrors.Wrap(err, "failed to adjust sensor offset")
		}

		h.setPhase(run, PhaseApply, log, "")
		if err := console.ApplyOffset(ctx); err != nil {
			return pkgerrors.Wrap(err, "failed to apply sensor offset")
		}
		reached, err := console.SensorTemperature(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "failed to read sensor temperature after apply")
		}
		h.update(run, func() {
			run.SensorAfter = reached
			run.Recalibrated = true
		})
		log.Infof("Recalibrated '%s' to %v", name, reached)

		h.setPhase(run, PhaseRestoreTarget, log, "")
		if err := h.restoreTarget(ctx, console, run, name, target, log); err != nil {
			return pkgerrors.Wrap(err, "failed to restore target temperature")
		}
	}

	h.setPhase(run, PhaseLogout, log, "")
	if err := console.Logout(ctx); err != nil {
		return pkgerrors.Wrap(err, "failed to log out")
	}

	return nil
}

func (h *Handler) readNumber(ctx context.Context, entityID, attribute string) (float64, error) {
	s, err := h.opts.States.GetState(ctx, entityID, attribute)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to read %s", describe(entityID, attribute))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, pkgerrors.Wrapf(ErrInvalidState, "%s is %q", describe(entityID, attribute), s)
	}
	return v, nil
}

func describe(entityID, attribute string) string {
	if attribute == "" {
		return entityID
	}
	return entityID + "." + attribute
}

// update applies fn to run and publishes the result as the latest run.
func (h *Handler) update(run *Run, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
	h.last = *run
}

func (h *Handler) setPhase(run *Run, phase Phase, log *logrus.Entry, message string) {
	from := run.Phase
	h.update(run, func() { run.Phase = phase })

	log.WithFields(logrus.Fields{"from": from, "phase": phase}).Debug("phase changed")

	if h.opts.Events == nil {
		return
	}
	h.opts.Events.Publish(events.RecalibrationPhase, events.RecalibrationPhaseEvent{
		RunID:      run.ID,
		Thermostat: run.Thermostat,
		From:       string(from),
		To:         string(phase),
		Message:    message,
		Ts:         time.Now().Unix(),
	})
}

// readings are half-degree values parsed from text
func sameReading(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
