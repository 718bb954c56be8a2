package client

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/recal/pkg/config"
	"github.com/charlie0129/recal/pkg/recalibration"
)

// Recalibrate asks the daemon to queue a run and returns its ID.
func (c *Client) Recalibrate(req recalibration.Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	ret, err := c.Post("/recalibrate", string(payload))
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to request recalibration")
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(ret), &resp); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal recalibration response")
	}
	return resp.ID, nil
}

func (c *Client) GetStatus() (*recalibration.Run, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get status")
	}

	var run recalibration.Run
	if err := json.Unmarshal([]byte(ret), &run); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal status")
	}

	return &run, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}
