package client

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type payrollServer struct {
	mu    sync.Mutex
	feed  payrollFeed
	fails bool
}

func (s *payrollServer) set(feed payrollFeed) {
	s.mu.Lock()
	s.feed = feed
	s.mu.Unlock()
}

func (s *payrollServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.fails {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error":"upstream down"}`))
			return
		}
		json.NewEncoder(w).Encode(s.feed)
	})
}

func earningsFixture(t *testing.T) (*EarningsReconciler, *payrollServer, *fakeClock) {
	t.Helper()
	fake := &payrollServer{}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)
	clock := newFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	reconciler := NewEarningsReconciler(testClient(t, server, testStore(t)), zerolog.Nop()).WithClock(clock)
	return reconciler, fake, clock
}

func openRow(employeeID string, earnings, rate float64, checkIn time.Time) PayrollRow {
	return PayrollRow{
		EmployeeID:    employeeID,
		Status:        "present",
		PerMinuteRate: rate,
		CheckIn:       &checkIn,
		Earnings:      earnings,
	}
}

func TestEarningsExtrapolationIsMonotonic(t *testing.T) {
	reconciler, server, clock := earningsFixture(t)
	checkIn := clock.Now().Add(-time.Hour)
	server.set(payrollFeed{Records: []PayrollRow{openRow("e1", 60, 1.0, checkIn)}})

	if err := reconciler.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}

	previous := -1.0
	for i := 0; i < 10; i++ {
		value, ok := reconciler.Display("e1")
		if !ok {
			t.Fatal("expected a display value")
		}
		if value < previous {
			t.Fatalf("display went backwards: %v after %v", value, previous)
		}
		previous = value
		clock.Advance(time.Second)
	}

	// 10 seconds at 1/min = 1/6 extra on top of the base 60.
	want := 60 + 10.0/60
	if math.Abs(previous-want) > 1e-9 {
		t.Errorf("expected %v after 10s, got %v", want, previous)
	}
}

func TestEarningsSnapOnReconcile(t *testing.T) {
	reconciler, server, clock := earningsFixture(t)
	checkIn := clock.Now().Add(-time.Hour)
	server.set(payrollFeed{Records: []PayrollRow{openRow("e1", 60, 1.0, checkIn)}})

	if err := reconciler.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock.Advance(30 * time.Second)

	// The authoritative figure came back lower than the extrapolation.
	server.set(payrollFeed{Records: []PayrollRow{openRow("e1", 60.2, 1.0, checkIn)}})
	if err := reconciler.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}

	value, _ := reconciler.Display("e1")
	if math.Abs(value-60.2) > 1e-9 {
		t.Errorf("reconcile must snap to the fetched value, got %v", value)
	}
}

func TestEarningsFetchFailureKeepsStaleBase(t *testing.T) {
	reconciler, server, clock := earningsFixture(t)
	checkIn := clock.Now().Add(-time.Hour)
	server.set(payrollFeed{Records: []PayrollRow{openRow("e1", 60, 1.0, checkIn)}})

	if err := reconciler.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}

	server.fails = true
	if err := reconciler.Reconcile(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}

	clock.Advance(60 * time.Second)
	value, ok := reconciler.Display("e1")
	if !ok {
		t.Fatal("stale base must keep serving display values")
	}
	if math.Abs(value-61) > 1e-9 {
		t.Errorf("expected extrapolation from the stale base (61), got %v", value)
	}
}

func TestEarningsClosedAndRatelessRecordsPassThrough(t *testing.T) {
	reconciler, server, clock := earningsFixture(t)
	checkIn := clock.Now().Add(-time.Hour)
	checkOut := clock.Now().Add(-10 * time.Minute)

	closed := openRow("closed", 50, 1.0, checkIn)
	closed.CheckOut = &checkOut
	rateless := openRow("rateless", 10, 0, checkIn)
	neverIn := PayrollRow{EmployeeID: "absent", Status: "absent", Earnings: 0}

	server.set(payrollFeed{Records: []PayrollRow{closed, rateless, neverIn}})
	if err := reconciler.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}

	clock.Advance(5 * time.Minute)
	for id, want := range map[string]float64{"closed": 50, "rateless": 10, "absent": 0} {
		got, ok := reconciler.Display(id)
		if !ok {
			t.Fatalf("missing display for %s", id)
		}
		if got != want {
			t.Errorf("%s must pass through untouched: want %v, got %v", id, want, got)
		}
	}
}

func TestDashboardTotalFlatIncrementAndOverwrite(t *testing.T) {
	fake := &payrollServer{}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)
	clock := newFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	total := NewDashboardTotal(testClient(t, server, testStore(t))).WithClock(clock)

	checkIn := clock.Now().Add(-time.Hour)
	fake.set(payrollFeed{Records: []PayrollRow{
		openRow("e1", 60, 1.0, checkIn),
		openRow("e2", 120, 2.0, checkIn),
	}})
	if err := total.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := total.Value(); math.Abs(got-180) > 1e-9 {
		t.Fatalf("expected 180 right after refresh, got %v", got)
	}

	// Two open records at 1+2 per minute tick the total up by 3/60 per second.
	clock.Advance(20 * time.Second)
	if got, want := total.Value(), 180+20*3.0/60; math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v after 20s, got %v", want, got)
	}

	// The next fetch overwrites wholesale, no blending.
	fake.set(payrollFeed{Records: []PayrollRow{openRow("e1", 61, 1.0, checkIn)}})
	if err := total.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := total.Value(); math.Abs(got-61) > 1e-9 {
		t.Errorf("expected overwrite to 61, got %v", got)
	}
}
