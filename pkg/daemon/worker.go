package daemon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/events"
	"github.com/charlie0129/recal/pkg/recalibration"
)

const queueSize = 8

// Request sources
const (
	sourceAPI           = "api"
	sourceHomeAssistant = "homeassistant"
)

type queuedRun struct {
	id     string
	req    recalibration.Request
	source string
}

// enqueue validates req and queues it for the worker without blocking.
func enqueue(req recalibration.Request, source string) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	accepted := true
	select {
	case runQueue <- queuedRun{id: id, req: req, source: source}:
	default:
		accepted = false
	}

	sseHub.Publish(events.RecalibrationQueue, events.RecalibrationQueueEvent{
		RunID:       id,
		Thermostat:  req.Thermostat,
		Thermometer: req.Thermometer,
		Source:      source,
		Accepted:    accepted,
		Ts:          time.Now().Unix(),
	})

	entry := logrus.WithFields(logrus.Fields{
		"run":         id,
		"thermostat":  req.Thermostat,
		"thermometer": req.Thermometer,
		"source":      source,
	})
	if !accepted {
		entry.Warn("recalibration queue is full, dropping request")
		return "", ErrQueueFull
	}
	entry.Info("recalibration queued")

	return id, nil
}

// runWorker executes queued runs one after another until ctx is done.
func runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-runQueue:
			if recalHandler == nil {
				logrus.WithField("run", r.id).Error(ErrNotReady)
				continue
			}
			run, err := recalHandler.HandleWithID(ctx, r.id, r.req)
			entry := logrus.WithFields(logrus.Fields{
				"run":    r.id,
				"source": r.source,
				"phase":  run.Phase,
			})
			if err != nil {
				entry.WithError(err).Warn("recalibration run failed")
				continue
			}
			entry.Infof("recalibration run finished in %s", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		}
	}
}
