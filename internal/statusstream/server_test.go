package statusstream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeSource struct {
	recent []Event
	subs   []chan Event
}

func (f *fakeSource) Recent() []Event { return f.recent }

func (f *fakeSource) Subscribe(ch chan Event) func() {
	f.subs = append(f.subs, ch)
	return func() {}
}

func (f *fakeSource) publish(ev Event) {
	for _, ch := range f.subs {
		ch <- ev
	}
}

func TestServeHTTPSendsRecentThenLiveEvents(t *testing.T) {
	src := &fakeSource{recent: []Event{{ID: "01", Kind: "assembled", Status: "ok"}}}
	s := NewServer(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.ServeHTTP(w, r, src)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read recent event failed: %v", err)
	}
	var got Event
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "01" {
		t.Fatalf("got event %+v, want recent event 01", got)
	}

	time.Sleep(50 * time.Millisecond)
	src.publish(Event{ID: "02", Kind: "degraded", Device: 1, Status: "degraded"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read live event failed: %v", err)
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "02" || got.Device != 1 {
		t.Fatalf("got event %+v, want live event 02 device 1", got)
	}

	if s.ConnectionCount() != 1 {
		t.Fatalf("ConnectionCount() = %d, want 1", s.ConnectionCount())
	}
}
