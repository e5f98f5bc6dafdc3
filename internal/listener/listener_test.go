package listener

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/justfoolingaround/spotify-webhooks/internal/notify"
	"github.com/justfoolingaround/spotify-webhooks/internal/spotify"
)

type staticTokens struct{}

func (staticTokens) AccessToken() (string, error) { return "test-token", nil }

// dealerStub upgrades an HTTP connection and feeds scripted frames.
func dealerStub(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "test-token" {
			t.Errorf("dial carried token %q", r.URL.Query().Get("access_token"))
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		script(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/"
}

func TestRun_deliversClusterEvents(t *testing.T) {
	frame := map[string]interface{}{
		"type": "message",
		"uri":  "hm://connect-state/v1/cluster",
		"payloads": []interface{}{map[string]interface{}{
			"update_reason": "DEVICE_STATE_CHANGED",
			"cluster": map[string]interface{}{
				"player_state": map[string]interface{}{
					"track": map[string]interface{}{"uri": "spotify:track:abc"},
				},
			},
		}},
	}

	done := make(chan struct{})
	server := dealerStub(t, func(conn *websocket.Conn) {
		if err := conn.WriteJSON(frame); err != nil {
			t.Errorf("writing cluster frame: %v", err)
		}
		<-done
	})
	defer server.Close()

	events := make(chan *spotify.Cluster, 1)
	diags := make(chan notify.Diagnostics, 1)
	l := New(staticTokens{}, http.DefaultClient, false,
		func(_ context.Context, cluster *spotify.Cluster, diag notify.Diagnostics) error {
			events <- cluster
			diags <- diag
			return nil
		})
	l.dealer = wsURL(server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case cluster := <-events:
		if cluster.PlayerState == nil || cluster.PlayerState.Track.URI != "spotify:track:abc" {
			t.Errorf("handler got cluster %+v", cluster)
		}
		diag := <-diags
		if diag.LastEventType != "DEVICE_STATE_CHANGED" {
			t.Errorf("diagnostics event type = %q", diag.LastEventType)
		}
		if diag.DeviceID != DeviceID {
			t.Errorf("diagnostics device id = %q", diag.DeviceID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	if err := <-errc; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	close(done)
}

func TestRun_registersDeviceOnConnectionID(t *testing.T) {
	registered := make(chan *http.Request, 1)
	bodies := make(chan map[string]interface{}, 1)
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("registration body: %v", err)
		}
		registered <- r
		bodies <- body
	}))
	defer registry.Close()

	done := make(chan struct{})
	server := dealerStub(t, func(conn *websocket.Conn) {
		frame := map[string]interface{}{
			"headers": map[string]string{"Spotify-Connection-Id": "conn-42"},
		}
		if err := conn.WriteJSON(frame); err != nil {
			t.Errorf("writing connection-id frame: %v", err)
		}
		<-done
	})
	defer server.Close()

	l := New(staticTokens{}, http.DefaultClient, true, nil)
	l.dealer = wsURL(server)
	l.registry = registry.URL + "/"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	select {
	case req := <-registered:
		if req.Method != http.MethodPut {
			t.Errorf("registration method = %s", req.Method)
		}
		if req.Header.Get("X-Spotify-Connection-Id") != "conn-42" {
			t.Errorf("connection id header = %q", req.Header.Get("X-Spotify-Connection-Id"))
		}
		body := <-bodies
		device, _ := body["device"].(map[string]interface{})
		if device["device_id"] != DeviceID {
			t.Errorf("registered device id = %v", device["device_id"])
		}
		capabilities, _ := device["capabilities"].(map[string]interface{})
		if capabilities["hidden"] != true {
			t.Errorf("invisible listener registered with capabilities %v", capabilities)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no registration call")
	}
	close(done)
}

func TestRun_measuresLatencyFromPong(t *testing.T) {
	done := make(chan struct{})
	server := dealerStub(t, func(conn *websocket.Conn) {
		// Answer the listener's opening ping.
		var ping map[string]string
		if err := conn.ReadJSON(&ping); err != nil {
			t.Errorf("reading ping: %v", err)
			return
		}
		if ping["type"] != "ping" {
			t.Errorf("first frame = %v, want ping", ping)
		}
		if err := conn.WriteJSON(map[string]string{"type": "pong"}); err != nil {
			t.Errorf("writing pong: %v", err)
		}
		<-done
	})
	defer server.Close()

	l := New(staticTokens{}, http.DefaultClient, false, nil)
	l.dealer = wsURL(server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for l.Latency() == 0 {
		select {
		case <-deadline:
			t.Fatal("latency never measured")
		case <-time.After(10 * time.Millisecond):
		}
	}
	close(done)
}

func TestRun_connectionLossReturnsError(t *testing.T) {
	server := dealerStub(t, func(conn *websocket.Conn) {
		// Hang up immediately.
	})
	defer server.Close()

	l := New(staticTokens{}, http.DefaultClient, false, nil)
	l.dealer = wsURL(server)

	err := l.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "dealer connection lost") {
		t.Errorf("Run returned %v, want connection-lost error", err)
	}
}
