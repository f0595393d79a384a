// Package pipeline owns the browse-side donation view: it polls the record
// store, normalizes and annotates each batch, applies the active filters and
// sort, and exposes the result plus an optimistic status-update operation.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mealbridge/internal/geo"
	"mealbridge/pkg/types"

	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 10 * time.Second

// Store is the slice of the record store the pipeline needs.
type Store interface {
	List(ctx context.Context) ([]*types.DonationRecord, error)
	UpdateStatus(ctx context.Context, id string, status types.DonationStatus) (*types.DonationRecord, error)
}

// Locator asynchronously acquires the consumer's reference location.
type Locator interface {
	Locate(ctx context.Context) (*types.Coordinates, error)
}

type LocatorFunc func(ctx context.Context) (*types.Coordinates, error)

func (f LocatorFunc) Locate(ctx context.Context) (*types.Coordinates, error) {
	return f(ctx)
}

// Donation is one annotated view row. The derived fields are recomputed on
// every poll cycle and never persisted.
type Donation struct {
	types.DonationRecord

	TimeToExpiryMs float64
	DistanceKm     float64
}

type Pipeline struct {
	store    Store
	locator  Locator
	logger   *logrus.Logger
	interval time.Duration

	mu      sync.Mutex
	alive   bool
	started bool
	records []*types.DonationRecord
	filters types.FilterConfig
	ref     *types.Coordinates
	view    []Donation

	onChange func([]Donation)

	stop chan struct{}
	done chan struct{}
}

// New builds a stopped pipeline. locator may be nil when no location
// capability is available.
func New(store Store, locator Locator, logger *logrus.Logger, interval time.Duration) *Pipeline {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Pipeline{
		store:    store,
		locator:  locator,
		logger:   logger,
		interval: interval,
		filters:  types.DefaultFilters(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// OnChange registers the view consumer. Must be called before Start; the
// callback runs outside the pipeline lock with a private copy of the view.
func (p *Pipeline) OnChange(fn func([]Donation)) {
	p.onChange = fn
}

// Start kicks off the immediate first fetch, the poll loop, and the
// asynchronous location acquisition.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.alive = true
	p.mu.Unlock()

	go p.run(ctx)

	if p.locator != nil {
		go p.acquireLocation(ctx)
	}
}

// Stop tears the pipeline down. After Stop returns, no in-flight fetch or
// location callback will mutate state.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started || !p.alive {
		p.mu.Unlock()
		return
	}
	p.alive = false
	p.mu.Unlock()

	close(p.stop)
	<-p.done
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)

	p.fetch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx)
		}
	}
}

// fetch replaces the record set wholesale after normalization. Failures are
// logged and leave the previous records in place.
func (p *Pipeline) fetch(ctx context.Context) {
	records, err := p.store.List(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("donation fetch failed, keeping previous records")
		return
	}

	for _, record := range records {
		Normalize(record)
	}

	p.mu.Lock()
	if !p.alive {
		p.mu.Unlock()
		return
	}
	p.records = records
	view := p.recomputeLocked()
	p.mu.Unlock()

	p.publish(view)
}

func (p *Pipeline) acquireLocation(ctx context.Context) {
	coords, err := p.locator.Locate(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("could not determine reference location")
		return
	}

	p.mu.Lock()
	if !p.alive {
		p.mu.Unlock()
		return
	}
	p.ref = coords
	view := p.recomputeLocked()
	p.mu.Unlock()

	p.publish(view)
}

// Normalize derives a record's coordinates from the explicit field or from
// an address of the form "lat, lon".
func Normalize(record *types.DonationRecord) {
	record.SyncCoordinates()
	if record.Coordinates == nil {
		record.Coordinates = geo.ParseCoordinates(record.Address)
	}
}

// SetFilters replaces the filter configuration and recomputes the view.
func (p *Pipeline) SetFilters(filters types.FilterConfig) {
	if !filters.SortBy.Valid() {
		filters.SortBy = types.SortByTime
	}

	p.mu.Lock()
	p.filters = filters
	view := p.recomputeLocked()
	p.mu.Unlock()

	p.publish(view)
}

func (p *Pipeline) Filters() types.FilterConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filters
}

// SetReferenceLocation sets the point distances are measured from.
func (p *Pipeline) SetReferenceLocation(coords *types.Coordinates) {
	p.mu.Lock()
	p.ref = coords
	view := p.recomputeLocked()
	p.mu.Unlock()

	p.publish(view)
}

func (p *Pipeline) ReferenceLocation() *types.Coordinates {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ref
}

// Snapshot returns a copy of the current annotated, filtered, sorted view.
func (p *Pipeline) Snapshot() []Donation {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Donation, len(p.view))
	copy(out, p.view)
	return out
}

// Accept marks a donation as being picked up.
func (p *Pipeline) Accept(ctx context.Context, id string) error {
	return p.SetStatus(ctx, id, types.DonationStatusPickingUp)
}

// Complete marks a pickup as done.
func (p *Pipeline) Complete(ctx context.Context, id string) error {
	return p.SetStatus(ctx, id, types.DonationStatusCompleted)
}

// SetStatus applies the new status locally before the store confirms it, so
// the view reflects the action immediately. When the store rejects the
// update, the record reverts to its last confirmed status and the error is
// returned to the caller.
func (p *Pipeline) SetStatus(ctx context.Context, id string, status types.DonationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}

	p.mu.Lock()
	record := p.findLocked(id)
	if record == nil {
		p.mu.Unlock()
		return types.ErrDonationNotFound
	}
	previous := record.Status
	record.Status = status
	view := p.recomputeLocked()
	p.mu.Unlock()

	p.publish(view)

	if _, err := p.store.UpdateStatus(ctx, id, status); err != nil {
		p.mu.Lock()
		if p.alive {
			if record := p.findLocked(id); record != nil && record.Status == status {
				record.Status = previous
			}
			view = p.recomputeLocked()
			p.mu.Unlock()
			p.publish(view)
		} else {
			p.mu.Unlock()
		}
		return fmt.Errorf("update donation status: %w", err)
	}

	return nil
}

func (p *Pipeline) findLocked(id string) *types.DonationRecord {
	for _, record := range p.records {
		if record.ID == id {
			return record
		}
	}
	return nil
}

// recomputeLocked rebuilds the view from the committed records, filters, and
// reference location. Callers must hold p.mu.
func (p *Pipeline) recomputeLocked() []Donation {
	p.view = ComputeView(p.records, p.filters, p.ref, time.Now())
	return p.view
}

// ComputeView annotates a record batch with time-to-expiry and distance,
// applies the filters, and sorts by the selected key. Distances fall back to
// the placeholder when the reference location or record coordinates are
// unknown.
func ComputeView(records []*types.DonationRecord, filters types.FilterConfig, ref *types.Coordinates, now time.Time) []Donation {
	out := make([]Donation, 0, len(records))
	for _, record := range records {
		d := Donation{
			DonationRecord: *record,
			TimeToExpiryMs: geo.TimeToExpiryMs(record.ExpiryOn, now),
		}
		if ref != nil {
			d.DistanceKm = geo.DistanceKm(ref, record.Coordinates)
		} else {
			d.DistanceKm = geo.PlaceholderDistanceKm()
		}
		out = append(out, d)
	}

	out = applyFilters(out, filters)
	sortDonations(out, filters.SortBy)

	return out
}

// applyFilters is conjunctive: a row must pass every active filter.
func applyFilters(in []Donation, filters types.FilterConfig) []Donation {
	out := in[:0]
	query := strings.ToLower(strings.TrimSpace(filters.Query))

	for _, d := range in {
		if filters.VegOnly && !d.Veg {
			continue
		}
		if filters.MinMeals > 0 && d.Meals < filters.MinMeals {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(d.ItemName), query) &&
			!strings.Contains(strings.ToLower(d.ContactName), query) {
			continue
		}
		out = append(out, d)
	}

	return out
}

// sortDonations is stable so equal keys keep their input order.
func sortDonations(donations []Donation, key types.SortKey) {
	switch key {
	case types.SortByMeals:
		sort.SliceStable(donations, func(i, j int) bool {
			return donations[i].Meals > donations[j].Meals
		})
	case types.SortByDistance:
		sort.SliceStable(donations, func(i, j int) bool {
			return donations[i].DistanceKm < donations[j].DistanceKm
		})
	default:
		sort.SliceStable(donations, func(i, j int) bool {
			return donations[i].TimeToExpiryMs < donations[j].TimeToExpiryMs
		})
	}
}

func (p *Pipeline) publish(view []Donation) {
	if p.onChange == nil {
		return
	}

	out := make([]Donation, len(view))
	copy(out, view)
	p.onChange(out)
}
