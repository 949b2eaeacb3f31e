// Package brain talks to the inference service that gives each plant its voice.
package brain

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/itsatony/talkingplants/internal/config"
	"github.com/itsatony/talkingplants/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

const offlineMessage = "brain offline"

// Request is what the inference service needs to answer as a plant
type Request struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	PlantID  int64  `json:"plant_id"`
	Text     string `json:"text"`
}

type reply struct {
	Reply *string `json:"reply"`
}

// Client calls the inference endpoint once per question. It never retries;
// the caller decides whether to ask again.
type Client struct {
	http *resty.Client
	url  string
}

func New(cfg config.BrainConfig) *Client {
	http := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)
	if cfg.APIKey != "" {
		http.SetHeader("x-api-key", cfg.APIKey)
	}
	return &Client{http: http, url: cfg.URL}
}

// Ask forwards the question and returns the plant's reply. Every failure is
// reported as an Unavailable APIError.
func (c *Client) Ask(ctx context.Context, req Request) (string, error) {
	if c.url == "" {
		return "", errors.NewUnavailableError(offlineMessage, fmt.Errorf("brain url not configured"))
	}

	var out reply
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		ForceContentType("application/json").
		Post(c.url)
	if err != nil {
		nuts.L.Warnf("[Brain] Request for device %s failed: %v", req.DeviceID, err)
		return "", errors.NewUnavailableError(offlineMessage, err)
	}
	if resp.IsError() {
		nuts.L.Warnf("[Brain] Device %s got status %d", req.DeviceID, resp.StatusCode())
		return "", errors.NewUnavailableError(offlineMessage, fmt.Errorf("brain returned status %d", resp.StatusCode()))
	}

	if out.Reply == nil {
		nuts.L.Warnf("[Brain] Device %s got a reply without text", req.DeviceID)
		return "", errors.NewUnavailableError(offlineMessage, fmt.Errorf("brain reply has no reply field"))
	}
	return *out.Reply, nil
}
