package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/events"
)

// Events subscribes to the daemon's event stream. The returned channel is
// closed when ctx is done or the daemon closes the stream. The subscription
// is active once Events returns.
func (c *Client) Events(ctx context.Context) (<-chan events.Event, error) {
	resp, err := c.do(ctx, http.MethodGet, "/events", "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("got %d from event stream", resp.StatusCode)
	}

	ch := make(chan events.Event)
	go func() {
		defer close(ch)
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logrus.Debugf("failed to close event stream: %v", err)
			}
		}()

		var name string
		var data []string
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if len(data) == 0 {
					continue
				}
				ev := events.Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}
				name, data = "", nil
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logrus.Debugf("event stream ended: %v", err)
		}
	}()

	return ch, nil
}
