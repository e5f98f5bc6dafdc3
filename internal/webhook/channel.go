package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Channel owns the single live message on a webhook sink. The first
// publish creates the message and records its id; every later publish
// edits that message in place. The tracked id only ever changes after a
// successful create, so a failed call never corrupts the next one.
//
// Channel is not safe for concurrent publishes; events are expected to
// arrive serially.
type Channel struct {
	url        string
	httpClient *http.Client
	messageID  string
}

// NewChannel creates a channel against the given sink URL. A nil
// httpClient falls back to http.DefaultClient.
func NewChannel(url string, httpClient *http.Client) *Channel {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Channel{url: url, httpClient: httpClient}
}

// Publish sends one message document to the sink, creating the live
// message if none is tracked yet and editing it otherwise. Errors
// propagate to the caller; no retry or re-create is attempted.
func (c *Channel) Publish(ctx context.Context, msg *Message) error {
	if c.messageID == "" {
		return c.create(ctx, msg)
	}
	return c.edit(ctx, msg)
}

func (c *Channel) create(ctx context.Context, msg *Message) error {
	resp, err := c.send(ctx, http.MethodPost, c.url+"?wait=true", msg)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook create: unexpected status %s", resp.Status)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return fmt.Errorf("webhook create: decoding response: %w", err)
	}
	if created.ID == "" {
		return fmt.Errorf("webhook create: response carries no message id")
	}

	c.messageID = created.ID
	logrus.WithField("message_id", c.messageID).Debug("webhook message created")
	return nil
}

func (c *Channel) edit(ctx context.Context, msg *Message) error {
	resp, err := c.send(ctx, http.MethodPatch, c.url+"/messages/"+c.messageID, msg)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook edit of message %s: unexpected status %s", c.messageID, resp.Status)
	}
	return nil
}

func (c *Channel) send(ctx context.Context, method, url string, msg *Message) (*http.Response, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logrus.WithError(err).Warn("failed to close webhook response body")
	}
}
