package recalibration

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/fritz"
)

// NextOffsetState returns the state of a stepper loop after reading
// displayed. The value is raised first and lowered after that, so the loop
// never turns back up once it went down. Both the sensor offset and the
// target temperature are stepped this way.
func NextOffsetState(displayed, target float64, state OffsetState) OffsetState {
	switch state {
	case OffsetAtTarget, OffsetControlDisabled:
		return state
	case OffsetAboveTarget:
		if displayed > target && !sameReading(displayed, target) {
			return OffsetAboveTarget
		}
		return OffsetAtTarget
	default:
		switch {
		case sameReading(displayed, target):
			return OffsetAtTarget
		case displayed < target:
			return OffsetBelowTarget
		default:
			return OffsetAboveTarget
		}
	}
}

// adjustOffset clicks the offset step buttons until the console shows goal
// or a button is disabled. The display is read again before every
// comparison.
func (h *Handler) adjustOffset(ctx context.Context, console Console, run *Run, goal float64, log *logrus.Entry) error {
	if err := console.RevealOffsetControls(ctx); err != nil {
		return err
	}

	state := OffsetReading
	for clicks := 0; ; clicks++ {
		displayed, err := console.SensorTemperature(ctx)
		if err != nil {
			return err
		}
		state = NextOffsetState(displayed, goal, state)

		var dir fritz.Direction
		switch state {
		case OffsetAtTarget:
			return nil
		case OffsetBelowTarget:
			dir = fritz.Up
		default:
			dir = fritz.Down
		}

		if clicks >= h.opts.MaxOffsetClicks {
			return pkgerrors.Wrapf(ErrNoProgress, "sensor shows %v after %d clicks", displayed, clicks)
		}

		err = console.StepOffset(ctx, dir)
		if errors.Is(err, fritz.ErrControlDisabled) {
			log.Warn("Adjust button disabled, maximum offset of +/- 5 is probably reached.")
			h.update(run, func() { run.OffsetLimitReached = true })
			return nil
		}
		if err != nil {
			return err
		}
		h.update(run, func() { run.OffsetClicks++ })
		log.WithField("direction", dir).Debugf("sensor was %v", displayed)
	}
}
