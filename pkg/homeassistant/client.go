package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client reads entity states through the Home Assistant REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client for the instance at baseURL, e.g.
// http://homeassistant.local:8123.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// State fetches the full state object of an entity.
func (c *Client) State(ctx context.Context, entityID string) (*State, error) {
	u := c.baseURL + "/api/states/" + url.PathEscape(entityID)

	logrus.WithFields(logrus.Fields{
		"entity": entityID,
		"url":    u,
	}).Trace("fetching state")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create request for %s", entityID)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to fetch state of %s", entityID)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close response body: %v", err)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read state of %s", entityID)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", entityID, ErrEntityNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("got %d: %s", resp.StatusCode, string(b))
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	// Keep numeric attributes exactly as Home Assistant sent them.
	dec.UseNumber()

	var st State
	if err := dec.Decode(&st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal state of %s", entityID)
	}

	return &st, nil
}

// GetState returns the state of an entity, or one of its attributes when
// attribute is not empty, rendered as a string.
func (c *Client) GetState(ctx context.Context, entityID, attribute string) (string, error) {
	st, err := c.State(ctx, entityID)
	if err != nil {
		return "", err
	}

	if attribute == "" {
		return st.State, nil
	}

	v, ok := st.Attributes[attribute]
	if !ok || v == nil {
		return "", fmt.Errorf("%s[%s]: %w", entityID, attribute, ErrAttributeNotFound)
	}

	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", pkgerrors.Wrapf(err, "failed to render attribute %s of %s", attribute, entityID)
		}
		return string(b), nil
	}
}
