// Package listener maintains the real-time dealer connection that
// pushes player-state events for the account.
package listener

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/justfoolingaround/spotify-webhooks/internal/notify"
	"github.com/justfoolingaround/spotify-webhooks/internal/spotify"
)

const (
	dealerURL       = "wss://dealer.spotify.com/"
	deviceBaseURL   = "https://spclient.wg.spotify.com/connect-state/v1/devices/"
	clusterURIStart = "hm://connect-state/v1/cluster"

	// DeviceID is the fixed identity this listener registers under.
	DeviceID   = "f3b9c2a07d6e41c59f19f52b7a30e8d4dd1c6b02"
	deviceName = "spotify-webhooks"

	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// TokenSource supplies a currently valid bearer token on demand.
type TokenSource interface {
	AccessToken() (string, error)
}

// Handler receives one cluster event at a time, paired with connection
// diagnostics captured when it arrived. A returned error is logged and
// the next event is processed regardless.
type Handler func(ctx context.Context, cluster *spotify.Cluster, diag notify.Diagnostics) error

// Listener connects to the dealer endpoint, keeps the connection alive
// and delivers cluster events serially to its handler.
type Listener struct {
	tokens     TokenSource
	httpClient *http.Client
	invisible  bool
	handler    Handler

	dealer   string
	registry string

	mu            sync.Mutex
	latency       time.Duration
	lastPing      time.Time
	lastEventType string
}

// New creates a listener. httpClient must carry authentication for the
// device registration call; with invisible set, the registered device
// asks to be withheld from the account's visible device list.
func New(tokens TokenSource, httpClient *http.Client, invisible bool, handler Handler) *Listener {
	return &Listener{
		tokens:     tokens,
		httpClient: httpClient,
		invisible:  invisible,
		handler:    handler,
		dealer:     dealerURL,
		registry:   deviceBaseURL,
	}
}

// dealerMessage is the envelope of every frame the dealer sends.
type dealerMessage struct {
	Type     string            `json:"type,omitempty"`
	URI      string            `json:"uri,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Payloads []json.RawMessage `json:"payloads,omitempty"`
}

// clusterUpdate is the payload of a connect-state cluster frame.
type clusterUpdate struct {
	Cluster      *spotify.Cluster `json:"cluster,omitempty"`
	UpdateReason string           `json:"update_reason,omitempty"`
}

// Run connects and consumes dealer frames until the context is
// cancelled or the connection drops. Reconnection is the caller's
// decision.
func (l *Listener) Run(ctx context.Context) error {
	token, err := l.tokens.AccessToken()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(
		ctx, l.dealer+"?access_token="+url.QueryEscape(token), nil,
	)
	if err != nil {
		return fmt.Errorf("dialing dealer: %w", err)
	}
	logrus.Info("dealer connection established")

	// Closing the connection is the only way to interrupt the blocked
	// read below.
	go func() {
		<-ctx.Done()
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Debug("error closing dealer connection")
		}
	}()

	pingCtx, stopPings := context.WithCancel(ctx)
	defer stopPings()
	go l.pingLoop(pingCtx, conn)

	for {
		var msg dealerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("dealer connection lost: %w", err)
		}
		l.dispatch(ctx, &msg)
	}
}

// Latency reports the most recently measured keepalive round trip.
func (l *Listener) Latency() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latency
}

func (l *Listener) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	ping := func() {
		l.mu.Lock()
		l.lastPing = time.Now()
		l.mu.Unlock()

		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			logrus.WithError(err).Warn("failed to set dealer write deadline")
			return
		}
		if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
			logrus.WithError(err).Warn("dealer ping failed")
		}
	}

	ping()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ping()
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, msg *dealerMessage) {
	if msg.Type == "pong" {
		l.mu.Lock()
		if !l.lastPing.IsZero() {
			l.latency = time.Since(l.lastPing)
		}
		l.mu.Unlock()
		return
	}

	if connectionID := msg.Headers["Spotify-Connection-Id"]; connectionID != "" {
		if err := l.registerDevice(ctx, connectionID); err != nil {
			logrus.WithError(err).Error("device registration failed")
		}
		return
	}

	if msg.Type != "message" || len(msg.Payloads) == 0 {
		return
	}
	if !strings.HasPrefix(msg.URI, clusterURIStart) {
		return
	}

	var update clusterUpdate
	if err := json.Unmarshal(msg.Payloads[0], &update); err != nil {
		logrus.WithError(err).Warn("discarding undecodable cluster payload")
		return
	}
	if update.Cluster == nil {
		return
	}

	l.mu.Lock()
	l.lastEventType = update.UpdateReason
	diag := notify.Diagnostics{
		Latency:       l.latency,
		LastEventType: l.lastEventType,
		DeviceID:      DeviceID,
	}
	l.mu.Unlock()

	logrus.WithField("reason", update.UpdateReason).Debug("cluster event received")
	if err := l.handler(ctx, update.Cluster, diag); err != nil {
		logrus.WithError(err).Error("failed to handle cluster event")
	}
}

// registerDevice announces this listener as a connect device, tying it
// to the dealer connection. Invisible devices report no visible
// capabilities, keeping them out of the account's device pickers.
func (l *Listener) registerDevice(ctx context.Context, connectionID string) error {
	body, err := json.Marshal(map[string]interface{}{
		"member_type": "CONNECT_STATE",
		"device": map[string]interface{}{
			"device_id":   DeviceID,
			"device_type": "computer",
			"name":        deviceName,
			"capabilities": map[string]interface{}{
				"can_be_player": false,
				"hidden":        l.invisible,
			},
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, l.registry+"hobs_"+DeviceID, bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Spotify-Connection-Id", connectionID)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.WithError(err).Debug("failed to close registration response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("device registration: unexpected status %s", resp.Status)
	}

	logrus.WithField("invisible", l.invisible).Info("listener device registered")
	return nil
}
