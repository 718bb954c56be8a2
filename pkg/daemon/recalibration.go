package daemon

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/fritz"
	"github.com/charlie0129/recal/pkg/homeassistant"
	"github.com/charlie0129/recal/pkg/recalibration"
)

// homeAssistantStates reads entity states with the current config, so a
// reloaded URL or token applies to the next run.
type homeAssistantStates struct{}

func (homeAssistantStates) GetState(ctx context.Context, entityID, attribute string) (string, error) {
	return homeassistant.NewClient(conf.HomeAssistantURL(), conf.HomeAssistantToken()).GetState(ctx, entityID, attribute)
}

func consoleOptions() fritz.Options {
	return fritz.Options{
		URL:               conf.RouterURL(),
		Password:          conf.RouterPassword(),
		Timeout:           conf.Timeout(),
		PollInterval:      conf.PollInterval(),
		DeviceLabelFormat: conf.DeviceLabelFormat(),
		ChromeBin:         conf.ChromeBin(),
		ControlURL:        conf.ControlURL(),
		Headless:          conf.Headless(),
	}
}

func openConsole(ctx context.Context) (recalibration.Console, error) {
	s, err := fritz.Open(ctx, consoleOptions())
	if err != nil {
		return nil, err
	}
	return s, nil
}

var (
	// listenerReload asks superviseListener to start over with the current config.
	listenerReload = make(chan struct{}, 1)

	// runListener is a test seam for listenHomeAssistant.
	runListener = listenHomeAssistant
)

func requestListenerRestart() {
	select {
	case listenerReload <- struct{}{}:
	default:
	}
}

// superviseListener runs the Home Assistant listener until ctx is done and
// restarts it after every config reload, so a changed URL, token or event
// type takes effect. A listener that exits on its own stays down until the
// next reload.
func superviseListener(ctx context.Context) {
	for {
		lctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := runListener(lctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.Errorf("home assistant listener exited: %v", err)
			}
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return
		case <-listenerReload:
			logrus.Info("restarting home assistant listener with reloaded config")
			cancel()
			<-done
		}
	}
}

// listenHomeAssistant queues a run for every recalibration event fired in
// Home Assistant. It returns nil right away if Home Assistant is not
// configured.
func listenHomeAssistant(ctx context.Context) error {
	url, token := conf.HomeAssistantURL(), conf.HomeAssistantToken()
	if url == "" || token == "" {
		logrus.Info("home assistant is not configured, only accepting requests from the api")
		return nil
	}

	eventType := conf.EventType()
	logrus.WithFields(logrus.Fields{
		"url":       url,
		"eventType": eventType,
	}).Info("listening for home assistant events")

	return homeassistant.NewListener(url, token).Listen(ctx, eventType, handleHomeAssistantEvent)
}

func handleHomeAssistantEvent(ev homeassistant.Event) {
	req, err := homeassistant.DecodeData[recalibration.Request](ev)
	if err != nil {
		logrus.WithError(err).WithField("eventType", ev.EventType).Warn("failed to decode event data")
		return
	}
	if _, err := enqueue(req, sourceHomeAssistant); err != nil {
		logrus.WithError(err).WithField("eventType", ev.EventType).Warn("ignoring recalibration event")
	}
}
