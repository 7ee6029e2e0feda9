package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitClients polls until the hub reports n clients.
func waitClients(t *testing.T, h Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcast(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	waitClients(t, h, 2)

	want := FrameStats{Frame: 7, FPS: 60, NumLights: 150, Clusters: 2 * 2 * 16, ClustersX: 2, ClustersY: 2, ClustersZ: 16, MaxOccupancy: 3}
	h.Broadcast(want)

	for i, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got FrameStats
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		if got != want {
			t.Errorf("client %d got %+v, want %+v", i, got, want)
		}
	}
}

func TestControlMessages(t *testing.T) {
	got := make(chan ControlMessage, 2)
	h := NewHub(WithControlHandler(func(msg ControlMessage) { got <- msg }))
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"numLights": 42}`)); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-got:
		if msg.NumLights == nil || *msg.NumLights != 42 {
			t.Errorf("first message = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no control message")
	}
	select {
	case msg := <-got:
		if msg.NumLights != nil {
			t.Errorf("empty message decoded numLights %d", *msg.NumLights)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no second control message")
	}
}

func TestClientsDropped(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, h, 1)
	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	waitClients(t, h, 0)

	dial(t, srv)
	waitClients(t, h, 1)
	h.Close()
	if h.Clients() != 0 {
		t.Errorf("Close left %d clients", h.Clients())
	}

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("closed hub answered %d", resp.StatusCode)
	}
}

func TestOriginCheck(t *testing.T) {
	for _, tc := range []struct {
		name    string
		opts    []HubBuilderOption
		origin  func(srv *httptest.Server) string
		allowed bool
	}{
		{"no origin header", nil, func(*httptest.Server) string { return "" }, true},
		{"same origin", nil, func(srv *httptest.Server) string { return srv.URL }, true},
		{"cross origin", nil, func(*httptest.Server) string { return "http://dashboard.example" }, false},
		{
			"cross origin allowed by option",
			[]HubBuilderOption{WithCheckOrigin(func(*http.Request) bool { return true })},
			func(*httptest.Server) string { return "http://dashboard.example" },
			true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHub(tc.opts...)
			srv := httptest.NewServer(h)
			t.Cleanup(srv.Close)
			t.Cleanup(h.Close)

			header := http.Header{}
			if o := tc.origin(srv); o != "" {
				header.Set("Origin", o)
			}
			url := "ws" + strings.TrimPrefix(srv.URL, "http")
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if conn != nil {
				t.Cleanup(func() { conn.Close() })
			}
			if got := err == nil; got != tc.allowed {
				t.Fatalf("dial err = %v, allowed = %v, want %v", err, got, tc.allowed)
			}
			if !tc.allowed && (resp == nil || resp.StatusCode != http.StatusForbidden) {
				t.Errorf("rejected dial response = %v, want 403", resp)
			}
		})
	}
}
