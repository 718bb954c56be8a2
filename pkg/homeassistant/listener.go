package homeassistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultReconnectDelay = 10 * time.Second
	// Events carry the full state objects of changed entities and easily
	// exceed the default read limit.
	readLimit = 1 << 20
)

// Listener subscribes to Home Assistant events over the websocket API.
type Listener struct {
	url            string
	token          string
	ReconnectDelay time.Duration
}

// NewListener creates a Listener for the instance at baseURL. The websocket
// endpoint is derived from it (http -> ws, https -> wss).
func NewListener(baseURL, token string) *Listener {
	u := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}

	return &Listener{
		url:            u + "/api/websocket",
		token:          token,
		ReconnectDelay: defaultReconnectDelay,
	}
}

// Listen subscribes to eventType and calls handle for every event until ctx
// is done. Dropped connections are re-established after ReconnectDelay. An
// invalid token ends Listen with ErrUnauthorized.
func (l *Listener) Listen(ctx context.Context, eventType string, handle func(Event)) error {
	for {
		err := l.listenOnce(ctx, eventType, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrUnauthorized) {
			return err
		}

		logrus.WithError(err).Warnf("home assistant connection lost, reconnecting in %s", l.ReconnectDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.ReconnectDelay):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, eventType string, handle func(Event)) error {
	c, _, err := websocket.Dial(ctx, l.url, nil)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to dial %s", l.url)
	}
	defer c.Close(websocket.StatusInternalError, "unexpected connection close")

	c.SetReadLimit(readLimit)

	if err := l.authenticate(ctx, c); err != nil {
		return err
	}

	const subscriptionID = 1
	err = wsjson.Write(ctx, c, message{
		ID:        subscriptionID,
		Type:      "subscribe_events",
		EventType: eventType,
	})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to subscribe")
	}

	logrus.WithFields(logrus.Fields{
		"url":       l.url,
		"eventType": eventType,
	}).Info("subscribed to home assistant events")

	for {
		var msg message
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			return pkgerrors.Wrap(err, "failed to read message")
		}

		switch msg.Type {
		case "result":
			if msg.ID == subscriptionID && msg.Success != nil && !*msg.Success {
				reason := "unknown error"
				if msg.Error != nil {
					reason = msg.Error.Message
				}
				return fmt.Errorf("subscription rejected: %s", reason)
			}
		case "event":
			if msg.Event == nil || msg.ID != subscriptionID {
				continue
			}
			logrus.WithField("eventType", msg.Event.EventType).Debug("received event")
			handle(*msg.Event)
		default:
			logrus.WithField("type", msg.Type).Trace("ignoring message")
		}
	}
}

func (l *Listener) authenticate(ctx context.Context, c *websocket.Conn) error {
	var msg message
	if err := wsjson.Read(ctx, c, &msg); err != nil {
		return pkgerrors.Wrap(err, "failed to read auth request")
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("unexpected message %q, expected auth_required", msg.Type)
	}

	if err := wsjson.Write(ctx, c, message{Type: "auth", AccessToken: l.token}); err != nil {
		return pkgerrors.Wrap(err, "failed to send auth")
	}

	msg = message{}
	if err := wsjson.Read(ctx, c, &msg); err != nil {
		return pkgerrors.Wrap(err, "failed to read auth result")
	}

	switch msg.Type {
	case "auth_ok":
		logrus.WithField("version", msg.HAVersion).Debug("authenticated to home assistant")
		return nil
	case "auth_invalid":
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg.Message)
	default:
		return fmt.Errorf("unexpected message %q during auth", msg.Type)
	}
}
