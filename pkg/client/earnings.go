package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PayrollRow is one employee's attendance row from the live-payroll feed.
type PayrollRow struct {
	EmployeeID    string     `json:"employeeId"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	PerMinuteRate float64    `json:"perMinuteRate"`
	CheckIn       *time.Time `json:"checkIn,omitempty"`
	CheckOut      *time.Time `json:"checkOut,omitempty"`
	Earnings      float64    `json:"earnings"`
}

type payrollFeed struct {
	AsOf    time.Time    `json:"asOf"`
	Records []PayrollRow `json:"records"`
}

// earningsBase is the authoritative value and the moment it was fetched.
// Display values extrapolate forward from here between reconciliations.
type earningsBase struct {
	row   PayrollRow
	value float64
	epoch time.Time
}

// EarningsReconciler keeps a live earnings figure per in-progress
// attendance record. A slow fetch loop pulls authoritative values; a fast
// display tick extrapolates between fetches using the per-minute rate.
// Each fetch snaps the base outright, no blending toward it.
type EarningsReconciler struct {
	client *Client
	clock  Clock
	log    zerolog.Logger

	mu    sync.RWMutex
	bases map[string]earningsBase
	order []string
}

func NewEarningsReconciler(client *Client, log zerolog.Logger) *EarningsReconciler {
	return &EarningsReconciler{
		client: client,
		clock:  realClock{},
		log:    log.With().Str("component", "earnings").Logger(),
		bases:  map[string]earningsBase{},
	}
}

func (r *EarningsReconciler) WithClock(clock Clock) *EarningsReconciler {
	r.clock = clock
	return r
}

// Reconcile fetches the authoritative feed and replaces every base. On
// fetch failure the existing bases stay; displays keep extrapolating from
// the stale snapshot rather than freezing or zeroing.
func (r *EarningsReconciler) Reconcile(ctx context.Context) error {
	var feed payrollFeed
	if err := r.client.Get(ctx, "/api/dashboard/live-payroll", &feed); err != nil {
		r.log.Debug().Err(err).Msg("earnings reconcile failed, keeping stale base")
		return err
	}

	epoch := r.clock.Now()
	bases := make(map[string]earningsBase, len(feed.Records))
	order := make([]string, 0, len(feed.Records))
	for _, row := range feed.Records {
		bases[row.EmployeeID] = earningsBase{row: row, value: row.Earnings, epoch: epoch}
		order = append(order, row.EmployeeID)
	}

	r.mu.Lock()
	r.bases = bases
	r.order = order
	r.mu.Unlock()
	return nil
}

// Display returns the current figure for one employee. Records that are
// completed, have no rate, or never checked in pass through untouched;
// only open records extrapolate.
func (r *EarningsReconciler) Display(employeeID string) (float64, bool) {
	r.mu.RLock()
	base, ok := r.bases[employeeID]
	r.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return r.displayValue(base), true
}

// Rows returns every employee's display row in feed order, with
// extrapolated earnings substituted for open records.
func (r *EarningsReconciler) Rows() []PayrollRow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]PayrollRow, 0, len(r.order))
	for _, employeeID := range r.order {
		base := r.bases[employeeID]
		row := base.row
		row.Earnings = r.displayValue(base)
		rows = append(rows, row)
	}
	return rows
}

// Total sums the display values across all records.
func (r *EarningsReconciler) Total() float64 {
	var total float64
	for _, row := range r.Rows() {
		total += row.Earnings
	}
	return total
}

func (r *EarningsReconciler) displayValue(base earningsBase) float64 {
	if base.row.CheckIn == nil || base.row.CheckOut != nil || base.row.PerMinuteRate <= 0 {
		return base.value
	}
	elapsed := r.clock.Now().Sub(base.epoch).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return base.value + elapsed*base.row.PerMinuteRate/60
}

// Run drives the 5s reconcile loop until the context ends. The caller owns
// the display cadence; this loop only refreshes bases.
func (r *EarningsReconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			_ = r.Reconcile(ctx)
		}
	}
}

// DashboardTotal is the company-total variant: one flat figure that ticks
// up by the summed per-minute rate of open records and is overwritten
// wholesale by every authoritative fetch.
type DashboardTotal struct {
	client *Client
	clock  Clock

	mu         sync.Mutex
	total      float64
	ratePerSec float64
	epoch      time.Time
}

func NewDashboardTotal(client *Client) *DashboardTotal {
	return &DashboardTotal{client: client, clock: realClock{}}
}

func (d *DashboardTotal) WithClock(clock Clock) *DashboardTotal {
	d.clock = clock
	return d
}

// Refresh replaces the total and the aggregate tick rate from the feed.
func (d *DashboardTotal) Refresh(ctx context.Context) error {
	var feed payrollFeed
	if err := d.client.Get(ctx, "/api/dashboard/live-payroll", &feed); err != nil {
		return err
	}

	var total, ratePerSec float64
	for _, row := range feed.Records {
		total += row.Earnings
		if row.CheckIn != nil && row.CheckOut == nil && row.PerMinuteRate > 0 {
			ratePerSec += row.PerMinuteRate / 60
		}
	}

	d.mu.Lock()
	d.total = total
	d.ratePerSec = ratePerSec
	d.epoch = d.clock.Now()
	d.mu.Unlock()
	return nil
}

// Value is the flat-increment display figure.
func (d *DashboardTotal) Value() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.epoch.IsZero() {
		return d.total
	}
	elapsed := d.clock.Now().Sub(d.epoch).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return d.total + elapsed*d.ratePerSec
}
