package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	return store
}

func testClient(t *testing.T, server *httptest.Server, store *SessionStore) *Client {
	t.Helper()
	client := New(server.URL, store, zerolog.Nop())
	client.http = server.Client()
	return client
}

// fakeClock drives tickers and Now by hand.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	tick chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, tick: make(chan time.Time)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fakeClock) NewTicker(time.Duration) Ticker { return fakeTicker{f.tick} }

// Tick advances time and fires one ticker beat.
func (f *fakeClock) Tick(d time.Duration) {
	f.Advance(d)
	f.tick <- f.Now()
}

type fakeTicker struct{ c chan time.Time }

func (ft fakeTicker) C() <-chan time.Time { return ft.c }
func (ft fakeTicker) Stop()               {}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	store := testStore(t)
	client := testClient(t, server, store)

	var out map[string]bool
	if err := client.Get(context.Background(), "/ping", &out); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("logged-out request must carry no bearer token, got %q", gotAuth)
	}

	if err := store.Replace(Session{AccessToken: "tok123"}); err != nil {
		t.Fatal(err)
	}
	if err := client.Get(context.Background(), "/ping", &out); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"already exists"}`))
	}))
	defer server.Close()

	client := testClient(t, server, testStore(t))
	err := client.Post(context.Background(), "/things", map[string]string{}, nil)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "already exists" {
		t.Errorf("unexpected error contents: %+v", apiErr)
	}
}
