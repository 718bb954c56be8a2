package recalibration

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/fritz"
)

// restoreTarget steps the device's target temperature on the control page
// back to target. Saving an offset may reset it. A target off the console's
// half-degree grid ends on the nearest value below it.
func (h *Handler) restoreTarget(ctx context.Context, console Console, run *Run, name string, target float64, log *logrus.Entry) error {
	if err := console.OpenControl(ctx); err != nil {
		return err
	}
	current, err := console.TargetTemperature(ctx, name)
	if err != nil {
		return err
	}
	if sameReading(current, target) {
		log.Infof("Target temperature of %v still valid, no restore required", target)
		return nil
	}
	log.Infof("Target temperature of %v should be %v", current, target)

	state := OffsetReading
	for clicks := 0; ; clicks++ {
		state = NextOffsetState(current, target, state)
		if state == OffsetAtTarget {
			break
		}
		if clicks >= h.opts.MaxTargetClicks {
			return pkgerrors.Wrapf(ErrNoProgress, "target shows %v after %d clicks", current, clicks)
		}

		dir := fritz.Down
		if state == OffsetBelowTarget {
			dir = fritz.Up
		}
		if err := console.StepTarget(ctx, name, dir); err != nil {
			return err
		}
		h.update(run, func() { run.TargetClicks++ })
		if err := sleep(ctx, h.opts.StepInterval); err != nil {
			return err
		}
		current, err = console.TargetTemperature(ctx, name)
		if err != nil {
			return err
		}
	}
	log.Infof("Target temperature restored to %v", current)
	return nil
}
