package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fix is one geolocation reading.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// Geolocator produces location fixes. Real implementations talk to the
// platform's location service; tests supply a fake.
type Geolocator interface {
	Fix(ctx context.Context) (Fix, error)
}

// Clock abstracts time so the tracker's cadence and elapsed display can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (rt realTicker) C() <-chan time.Time { return rt.t.C }
func (rt realTicker) Stop()               { rt.t.Stop() }

// Tracker runs one location-tracking session: an initial probe fix, the
// server-side session, and fixed-cadence sampling until stopped.
type Tracker struct {
	client   *Client
	sessions *SessionStore
	geo      Geolocator
	clock    Clock
	interval time.Duration
	log      zerolog.Logger

	mu        sync.Mutex
	sessionID string
	startTime time.Time
	dropped   int
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewTracker(client *Client, sessions *SessionStore, geo Geolocator, interval time.Duration, log zerolog.Logger) *Tracker {
	return &Tracker{
		client:   client,
		sessions: sessions,
		geo:      geo,
		clock:    realClock{},
		interval: interval,
		log:      log.With().Str("component", "tracker").Logger(),
	}
}

// WithClock swaps the time source. Call before Start.
func (t *Tracker) WithClock(clock Clock) *Tracker {
	t.clock = clock
	return t
}

// Start takes a one-shot probe fix, opens a server session, persists the
// active-session marker, and begins sampling. A failed probe fails the
// whole start; nothing is created server-side.
func (t *Tracker) Start(ctx context.Context) error {
	fix, err := t.geo.Fix(ctx)
	if err != nil {
		return err
	}

	var resp struct {
		SessionID string    `json:"sessionId"`
		StartTime time.Time `json:"startTime"`
	}
	if err := t.client.Post(ctx, "/api/location/sessions", fix, &resp); err != nil {
		return err
	}

	t.mu.Lock()
	t.sessionID = resp.SessionID
	t.startTime = resp.StartTime
	t.dropped = 0
	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.mu.Unlock()

	_ = t.sessions.Update(func(s *Session) {
		s.ActiveLocation = &ActiveLocation{SessionID: resp.SessionID, StartTime: resp.StartTime}
	})

	go t.run(runCtx, resp.SessionID)
	return nil
}

// run samples on a fixed cadence. A failed fix on any tick is logged,
// counted, and skipped; the session keeps going.
func (t *Tracker) run(ctx context.Context, sessionID string) {
	defer close(t.done)
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			fix, err := t.geo.Fix(ctx)
			if err != nil {
				t.mu.Lock()
				t.dropped++
				t.mu.Unlock()
				t.log.Debug().Err(err).Msg("location fix dropped")
				continue
			}
			err = t.client.Post(ctx, "/api/location/sessions/"+sessionID+"/samples", fix, nil)
			if err != nil {
				t.mu.Lock()
				t.dropped++
				t.mu.Unlock()
				t.log.Debug().Err(err).Msg("location sample not delivered")
			}
		}
	}
}

// Elapsed derives the running duration from wall clock against the server
// start time. It is display-only and never feeds back into sampling.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startTime.IsZero() {
		return 0
	}
	elapsed := t.clock.Now().Sub(t.startTime)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Dropped reports how many ticks failed to produce or deliver a sample.
func (t *Tracker) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Stop ends the session. Local teardown is unconditional: the sampling
// loop stops and the persisted marker is cleared even when the server call
// fails, so a dead session can never pin the client in a tracking state.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	sessionID := t.sessionID
	cancel := t.cancel
	done := t.done
	t.sessionID = ""
	t.startTime = time.Time{}
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	_ = t.sessions.Update(func(s *Session) {
		s.ActiveLocation = nil
	})

	if sessionID == "" {
		return nil
	}
	return t.client.Post(ctx, "/api/location/sessions/"+sessionID+"/stop", nil, nil)
}
