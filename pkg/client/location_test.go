package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeGeo struct {
	mu    sync.Mutex
	fails bool
	fixes int
}

func (g *fakeGeo) Fix(ctx context.Context) (Fix, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fails {
		return Fix{}, errors.New("no gps signal")
	}
	g.fixes++
	return Fix{Latitude: 52.1, Longitude: 4.3, Accuracy: 5}, nil
}

func (g *fakeGeo) setFails(v bool) {
	g.mu.Lock()
	g.fails = v
	g.mu.Unlock()
}

type locationServer struct {
	mu       sync.Mutex
	started  int
	stopped  int
	samples  int
	rejectOn bool
}

func (s *locationServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/location/sessions", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.started++
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sessionId": "sess-1",
			"startTime": time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		})
	})
	mux.HandleFunc("/api/location/sessions/sess-1/samples", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.rejectOn {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"session ended"}`))
			return
		}
		s.samples++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/location/sessions/sess-1/stop", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.rejectOn {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"stop failed"}`))
			return
		}
		s.stopped++
		w.Write([]byte(`{}`))
	})
	return mux
}

func (s *locationServer) counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, s.samples, s.stopped
}

func trackerFixture(t *testing.T) (*Tracker, *fakeGeo, *locationServer, *fakeClock, *SessionStore) {
	t.Helper()
	fakeSrv := &locationServer{}
	server := httptest.NewServer(fakeSrv.handler())
	t.Cleanup(server.Close)

	store := testStore(t)
	geo := &fakeGeo{}
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	tracker := NewTracker(testClient(t, server, store), store, geo, 10*time.Second, zerolog.Nop()).WithClock(clock)
	return tracker, geo, fakeSrv, clock, store
}

func waitForSamples(t *testing.T, server *locationServer, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, samples, _ := server.counts(); samples >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	_, samples, _ := server.counts()
	t.Fatalf("expected %d samples, got %d", want, samples)
}

func TestTrackerProbeFailureCreatesNothing(t *testing.T) {
	tracker, geo, server, _, store := trackerFixture(t)
	geo.setFails(true)

	if err := tracker.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail without an initial fix")
	}
	if started, _, _ := server.counts(); started != 0 {
		t.Error("failed probe must not open a server session")
	}
	if session := store.Current(); session != nil && session.ActiveLocation != nil {
		t.Error("failed probe must not persist an active-session marker")
	}
}

func TestTrackerSamplesAndSkipsFailedTicks(t *testing.T) {
	tracker, geo, server, clock, store := trackerFixture(t)

	if err := tracker.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	session := store.Current()
	if session == nil || session.ActiveLocation == nil || session.ActiveLocation.SessionID != "sess-1" {
		t.Fatal("start must persist the active-session marker")
	}

	clock.Tick(10 * time.Second)
	waitForSamples(t, server, 1)

	// A dead GPS on one tick is skipped silently; the session keeps going.
	geo.setFails(true)
	clock.Tick(10 * time.Second)
	geo.setFails(false)
	clock.Tick(10 * time.Second)
	waitForSamples(t, server, 2)

	if dropped := tracker.Dropped(); dropped != 1 {
		t.Errorf("expected 1 dropped tick, got %d", dropped)
	}

	if err := tracker.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, _, stopped := server.counts(); stopped != 1 {
		t.Errorf("expected one stop call, got %d", stopped)
	}
}

func TestTrackerElapsedFromWallClock(t *testing.T) {
	tracker, _, _, clock, _ := trackerFixture(t)

	if err := tracker.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer tracker.Stop(context.Background())

	clock.Advance(90 * time.Second)
	if got := tracker.Elapsed(); got != 90*time.Second {
		t.Errorf("expected 90s elapsed, got %v", got)
	}
}

func TestTrackerStopIsUnconditional(t *testing.T) {
	tracker, _, server, _, store := trackerFixture(t)

	if err := tracker.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Make the server refuse everything; local teardown must still happen.
	server.mu.Lock()
	server.rejectOn = true
	server.mu.Unlock()

	_ = tracker.Stop(context.Background())

	if session := store.Current(); session != nil && session.ActiveLocation != nil {
		t.Error("stop must clear the persisted marker even when the server call fails")
	}
	if tracker.Elapsed() != 0 {
		t.Error("stopped tracker must report zero elapsed")
	}

	// A second stop is a no-op, not an error.
	if err := tracker.Stop(context.Background()); err != nil {
		t.Errorf("repeated stop must be idempotent: %v", err)
	}
}
