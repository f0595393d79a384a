package pipeline

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"mealbridge/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	records  []*types.DonationRecord
	listErr  error
	updateFn func(ctx context.Context, id string, status types.DonationStatus) (*types.DonationRecord, error)
}

func (f *fakeStore) List(ctx context.Context) ([]*types.DonationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	out := make([]*types.DonationRecord, 0, len(f.records))
	for _, record := range f.records {
		clone := *record
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status types.DonationStatus) (*types.DonationRecord, error) {
	f.mu.Lock()
	fn := f.updateFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, id, status)
	}
	return &types.DonationRecord{ID: id, Status: status}, nil
}

func (f *fakeStore) set(records ...*types.DonationRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newRunningPipeline builds a pipeline primed to accept commits without the
// poll loop running, so tests can drive fetch directly.
func newRunningPipeline(store Store) *Pipeline {
	p := New(store, nil, testLogger(), time.Hour)
	p.alive = true
	return p
}

func record(id string, opts ...func(*types.DonationRecord)) *types.DonationRecord {
	r := &types.DonationRecord{
		ID:       id,
		ItemName: "Rice",
		Meals:    10,
		Status:   types.DonationStatusNotAccepted,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func withExpiry(at time.Time) func(*types.DonationRecord) {
	return func(r *types.DonationRecord) { r.ExpiryOn = &at }
}

func ids(view []Donation) []string {
	out := make([]string, 0, len(view))
	for _, d := range view {
		out = append(out, d.ID)
	}
	return out
}

func TestComputeViewSortsByTimeToExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	records := []*types.DonationRecord{
		record("a", withExpiry(now.Add(4*time.Hour))),
		record("b", withExpiry(now.Add(1*time.Hour))),
	}

	view := ComputeView(records, types.DefaultFilters(), nil, now)

	assert.Equal(t, []string{"b", "a"}, ids(view))
}

func TestComputeViewNoExpirySortsLast(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	records := []*types.DonationRecord{
		record("no-expiry"),
		record("soon", withExpiry(now.Add(time.Hour))),
	}

	view := ComputeView(records, types.DefaultFilters(), nil, now)

	require.Equal(t, []string{"soon", "no-expiry"}, ids(view))
	assert.True(t, math.IsInf(view[1].TimeToExpiryMs, 1))
}

func TestComputeViewVegOnly(t *testing.T) {
	records := []*types.DonationRecord{
		record("a", func(r *types.DonationRecord) { r.Veg = true }),
		record("b"),
	}

	filters := types.DefaultFilters()
	filters.VegOnly = true

	view := ComputeView(records, filters, nil, time.Now())

	assert.Equal(t, []string{"a"}, ids(view))
}

func TestComputeViewFiltersAreConjunctive(t *testing.T) {
	records := []*types.DonationRecord{
		record("pass", func(r *types.DonationRecord) {
			r.Veg = true
			r.Meals = 20
			r.ItemName = "Veg Biryani"
		}),
		record("too-few", func(r *types.DonationRecord) {
			r.Veg = true
			r.Meals = 5
			r.ItemName = "Veg Biryani"
		}),
		record("not-veg", func(r *types.DonationRecord) {
			r.Meals = 20
			r.ItemName = "Chicken Biryani"
		}),
		record("no-match", func(r *types.DonationRecord) {
			r.Veg = true
			r.Meals = 20
			r.ItemName = "Idli"
		}),
	}

	filters := types.FilterConfig{
		SortBy:   types.SortByTime,
		VegOnly:  true,
		MinMeals: 10,
		Query:    "biryani",
	}

	view := ComputeView(records, filters, nil, time.Now())

	assert.Equal(t, []string{"pass"}, ids(view))
}

func TestComputeViewQueryMatchesContactName(t *testing.T) {
	records := []*types.DonationRecord{
		record("a", func(r *types.DonationRecord) { r.ContactName = "Priya Sharma" }),
		record("b", func(r *types.DonationRecord) { r.ContactName = "Ravi Kumar" }),
	}

	filters := types.DefaultFilters()
	filters.Query = "PRIYA"

	view := ComputeView(records, filters, nil, time.Now())

	assert.Equal(t, []string{"a"}, ids(view))
}

func TestComputeViewSortByMealsDescending(t *testing.T) {
	records := []*types.DonationRecord{
		record("small", func(r *types.DonationRecord) { r.Meals = 5 }),
		record("big", func(r *types.DonationRecord) { r.Meals = 50 }),
		record("mid", func(r *types.DonationRecord) { r.Meals = 20 }),
	}

	filters := types.DefaultFilters()
	filters.SortBy = types.SortByMeals

	view := ComputeView(records, filters, nil, time.Now())

	assert.Equal(t, []string{"big", "mid", "small"}, ids(view))
}

func TestComputeViewSortByDistance(t *testing.T) {
	near := &types.Coordinates{Lat: 1, Lon: 0}
	far := &types.Coordinates{Lat: 2, Lon: 0}
	records := []*types.DonationRecord{
		record("far", func(r *types.DonationRecord) { r.Coordinates = far }),
		record("near", func(r *types.DonationRecord) { r.Coordinates = near }),
	}

	filters := types.DefaultFilters()
	filters.SortBy = types.SortByDistance
	ref := &types.Coordinates{Lat: 0, Lon: 0}

	view := ComputeView(records, filters, ref, time.Now())

	require.Equal(t, []string{"near", "far"}, ids(view))
	assert.InDelta(t, 111.2, view[0].DistanceKm, 0.1)
	assert.InDelta(t, 222.4, view[1].DistanceKm, 0.1)
}

func TestComputeViewStableSort(t *testing.T) {
	records := []*types.DonationRecord{
		record("first", func(r *types.DonationRecord) { r.Meals = 10 }),
		record("second", func(r *types.DonationRecord) { r.Meals = 10 }),
		record("third", func(r *types.DonationRecord) { r.Meals = 10 }),
	}

	filters := types.DefaultFilters()
	filters.SortBy = types.SortByMeals

	view := ComputeView(records, filters, nil, time.Now())

	assert.Equal(t, []string{"first", "second", "third"}, ids(view))
}

func TestNormalizeParsesCoordinateAddress(t *testing.T) {
	r := record("a", func(r *types.DonationRecord) { r.Address = "12.9716, 77.5946" })

	Normalize(r)

	require.NotNil(t, r.Coordinates)
	assert.Equal(t, 12.9716, r.Coordinates.Lat)
	assert.Equal(t, 77.5946, r.Coordinates.Lon)
}

func TestFetchReplacesRecordsWholesale(t *testing.T) {
	store := &fakeStore{}
	store.set(record("a"), record("b"))

	p := newRunningPipeline(store)
	p.fetch(context.Background())
	require.Len(t, p.Snapshot(), 2)

	store.set(record("c"))
	p.fetch(context.Background())

	assert.Equal(t, []string{"c"}, ids(p.Snapshot()))
}

func TestFetchFailureKeepsPreviousRecords(t *testing.T) {
	store := &fakeStore{}
	store.set(record("a"))

	p := newRunningPipeline(store)
	p.fetch(context.Background())
	require.Len(t, p.Snapshot(), 1)

	store.mu.Lock()
	store.listErr = errors.New("connection refused")
	store.mu.Unlock()

	p.fetch(context.Background())

	assert.Equal(t, []string{"a"}, ids(p.Snapshot()))
}

func TestFetchAfterStopDoesNotCommit(t *testing.T) {
	store := &fakeStore{}
	store.set(record("a"))

	p := newRunningPipeline(store)
	p.alive = false

	p.fetch(context.Background())

	assert.Empty(t, p.Snapshot())
}

func TestSetStatusOptimisticallyUpdatesView(t *testing.T) {
	store := &fakeStore{}
	store.set(record("a"))

	p := newRunningPipeline(store)
	p.fetch(context.Background())

	var seen types.DonationStatus
	store.updateFn = func(ctx context.Context, id string, status types.DonationStatus) (*types.DonationRecord, error) {
		// The view must already reflect the new status before the store
		// confirms it.
		seen = p.Snapshot()[0].Status
		return &types.DonationRecord{ID: id, Status: status}, nil
	}

	require.NoError(t, p.Accept(context.Background(), "a"))
	assert.Equal(t, types.DonationStatusPickingUp, seen)
	assert.Equal(t, types.DonationStatusPickingUp, p.Snapshot()[0].Status)
}

func TestSetStatusRollsBackOnStoreFailure(t *testing.T) {
	store := &fakeStore{}
	store.set(record("a"))

	p := newRunningPipeline(store)
	p.fetch(context.Background())

	store.updateFn = func(ctx context.Context, id string, status types.DonationStatus) (*types.DonationRecord, error) {
		return nil, errors.New("constraint violation")
	}

	err := p.Complete(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, types.DonationStatusNotAccepted, p.Snapshot()[0].Status)
}

func TestSetStatusUnknownDonation(t *testing.T) {
	store := &fakeStore{}
	p := newRunningPipeline(store)

	err := p.Accept(context.Background(), "missing")

	assert.ErrorIs(t, err, types.ErrDonationNotFound)
}

func TestSetStatusRejectsInvalidStatus(t *testing.T) {
	store := &fakeStore{}
	p := newRunningPipeline(store)

	err := p.SetStatus(context.Background(), "a", types.DonationStatus("teleporting"))

	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestSetFiltersNormalizesSortKey(t *testing.T) {
	p := newRunningPipeline(&fakeStore{})

	p.SetFilters(types.FilterConfig{SortBy: types.SortKey("bogus")})

	assert.Equal(t, types.SortByTime, p.Filters().SortBy)
}

func TestOnChangePublishesOnFilterChange(t *testing.T) {
	store := &fakeStore{}
	store.set(record("a", func(r *types.DonationRecord) { r.Veg = true }), record("b"))

	p := newRunningPipeline(store)

	var (
		mu   sync.Mutex
		last []Donation
	)
	p.OnChange(func(view []Donation) {
		mu.Lock()
		last = view
		mu.Unlock()
	})

	p.fetch(context.Background())

	filters := types.DefaultFilters()
	filters.VegOnly = true
	p.SetFilters(filters)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a"}, ids(last))
}

func TestStartStopLifecycle(t *testing.T) {
	store := &fakeStore{}
	store.set(record("a"))

	located := &types.Coordinates{Lat: 12.97, Lon: 77.59}
	locator := LocatorFunc(func(ctx context.Context) (*types.Coordinates, error) {
		return located, nil
	})

	p := New(store, locator, testLogger(), time.Hour)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		return len(p.Snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return p.ReferenceLocation() == located
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	p := New(&fakeStore{}, nil, testLogger(), time.Hour)
	p.Start(context.Background())

	p.Stop()
	p.Stop()
}
