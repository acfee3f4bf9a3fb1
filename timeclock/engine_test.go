package timeclock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/store/memstore"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/utils"
)

var (
	base  = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	alice = timeclock.Scope{CompanyID: "co-1", EmployeeID: "emp-alice"}
	bob   = timeclock.Scope{CompanyID: "co-1", EmployeeID: "emp-bob"}
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newEngine(t *testing.T) (*timeclock.Engine, *memstore.Store, *clock) {
	t.Helper()
	store := memstore.New()
	c := &clock{now: base}
	return timeclock.NewEngine(store).WithClock(c.Now), store, c
}

func closedEntry(id string, scope timeclock.Scope, clockIn time.Time, minutes int) model.TimeEntry {
	return model.TimeEntry{
		ID:         id,
		EmployeeID: scope.EmployeeID,
		CompanyID:  scope.CompanyID,
		ClockIn:    clockIn,
		ClockOut:   utils.Ptr(clockIn.Add(time.Duration(minutes) * time.Minute)),
		Duration:   utils.Ptr(minutes),
	}
}

func openEntry(id string, scope timeclock.Scope, clockIn time.Time) model.TimeEntry {
	return model.TimeEntry{
		ID:             id,
		EmployeeID:     scope.EmployeeID,
		CompanyID:      scope.CompanyID,
		ClockIn:        clockIn,
		OpenEmployeeID: utils.Ptr(scope.EmployeeID),
		Open:           true,
	}
}

func TestClockIn(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()
	loc := &model.Location{Latitude: 41.88, Longitude: -87.63, Accuracy: 12}

	entry, err := engine.ClockIn(ctx, alice, loc)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, base, entry.ClockIn)
	assert.Equal(t, loc, entry.ClockInLocation)
	assert.Nil(t, entry.ClockOut)
	assert.Nil(t, entry.Duration)
	assert.Equal(t, 1, store.OpenEntries(alice.EmployeeID))
}

func TestClockInWithoutLocation(t *testing.T) {
	engine, _, _ := newEngine(t)

	entry, err := engine.ClockIn(context.Background(), alice, nil)
	require.NoError(t, err)
	assert.Nil(t, entry.ClockInLocation)
}

func TestClockInRejectedWhenOpen(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()

	first, err := engine.ClockIn(ctx, alice, nil)
	require.NoError(t, err)

	second, err := engine.ClockIn(ctx, alice, nil)
	assert.ErrorIs(t, err, timeclock.ErrAlreadyClockedIn)
	assert.Nil(t, second)

	status, err := engine.GetCurrentStatus(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, status.CurrentEntry.ID)
	assert.Equal(t, 1, store.OpenEntries(alice.EmployeeID))
}

func TestConcurrentClockInKeepsOneOpenEntry(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.ClockIn(ctx, alice, nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, timeclock.ErrAlreadyClockedIn) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
	assert.Equal(t, 1, store.OpenEntries(alice.EmployeeID))
}

func TestClockOutDuration(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		expected int
	}{
		{name: "30m31s rounds up", elapsed: 30*time.Minute + 31*time.Second, expected: 31},
		{name: "30m20s rounds down", elapsed: 30*time.Minute + 20*time.Second, expected: 30},
		{name: "30m30s half rounds up", elapsed: 30*time.Minute + 30*time.Second, expected: 31},
		{name: "29s rounds to zero", elapsed: 29 * time.Second, expected: 0},
		{name: "8h", elapsed: 8 * time.Hour, expected: 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store, c := newEngine(t)
			ctx := context.Background()

			_, err := engine.ClockIn(ctx, alice, nil)
			require.NoError(t, err)

			c.Set(base.Add(tt.elapsed))
			out := &model.Location{Latitude: 1, Longitude: 2, Accuracy: 3}
			result, err := engine.ClockOut(ctx, alice, out)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Duration)
			assert.Equal(t, base.Add(tt.elapsed), result.ClockOut)

			entries, err := engine.ListEntries(ctx, alice, timeclock.ListOptions{})
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.expected, *entries[0].Duration)
			assert.Equal(t, out, entries[0].ClockOutLocation)
			assert.True(t, entries[0].ClockOut.After(entries[0].ClockIn))
			assert.Equal(t, 0, store.OpenEntries(alice.EmployeeID))
		})
	}
}

func TestClockOutKeepsClockOutAfterClockIn(t *testing.T) {
	engine, _, c := newEngine(t)
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, alice, nil)
	require.NoError(t, err)

	c.Set(base.Add(-time.Minute))
	result, err := engine.ClockOut(ctx, alice, nil)
	require.NoError(t, err)
	assert.True(t, result.ClockOut.After(base))
	assert.Equal(t, 0, result.Duration)
}

func TestClockOutRejectedWhenNotClockedIn(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Insert(closedEntry("done", alice, base.Add(-2*time.Hour), 60)))

	result, err := engine.ClockOut(ctx, alice, nil)
	assert.ErrorIs(t, err, timeclock.ErrNotClockedIn)
	assert.Nil(t, result)

	entries, err := engine.ListEntries(ctx, alice, timeclock.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 60, *entries[0].Duration)
}

func TestClockOutTwice(t *testing.T) {
	engine, _, c := newEngine(t)
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, alice, nil)
	require.NoError(t, err)
	c.Set(base.Add(time.Hour))

	_, err = engine.ClockOut(ctx, alice, nil)
	require.NoError(t, err)
	_, err = engine.ClockOut(ctx, alice, nil)
	assert.ErrorIs(t, err, timeclock.ErrNotClockedIn)
}

func TestGetCurrentStatus(t *testing.T) {
	engine, _, c := newEngine(t)
	ctx := context.Background()

	status, err := engine.GetCurrentStatus(ctx, alice)
	require.NoError(t, err)
	assert.False(t, status.IsClockedIn)
	assert.Nil(t, status.CurrentEntry)
	assert.Nil(t, status.CurrentDuration)

	entry, err := engine.ClockIn(ctx, alice, nil)
	require.NoError(t, err)

	c.Set(base.Add(45*time.Minute + 10*time.Second))
	first, err := engine.GetCurrentStatus(ctx, alice)
	require.NoError(t, err)
	assert.True(t, first.IsClockedIn)
	assert.Equal(t, entry.ID, first.CurrentEntry.ID)
	assert.Equal(t, 45, first.CurrentDuration.Minutes)

	c.Set(base.Add(47 * time.Minute))
	second, err := engine.GetCurrentStatus(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, first.IsClockedIn, second.IsClockedIn)
	assert.Equal(t, first.CurrentEntry.ID, second.CurrentEntry.ID)
	assert.Equal(t, 47, second.CurrentDuration.Minutes)
}

func TestListEntries(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()

	for i, id := range []string{"a1", "a2", "a3"} {
		require.NoError(t, store.Insert(closedEntry(id, alice, base.Add(-time.Duration(3-i)*24*time.Hour), 60)))
	}
	require.NoError(t, store.Insert(closedEntry("b1", bob, base.Add(-time.Hour), 30)))
	require.NoError(t, store.Insert(closedEntry("x1", timeclock.Scope{CompanyID: "co-2", EmployeeID: alice.EmployeeID}, base.Add(-time.Hour), 30)))

	t.Run("Most recent first", func(t *testing.T) {
		entries, err := engine.ListEntries(ctx, alice, timeclock.ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a3", "a2", "a1"}, ids(entries))
	})

	t.Run("Limit", func(t *testing.T) {
		entries, err := engine.ListEntries(ctx, alice, timeclock.ListOptions{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"a3", "a2"}, ids(entries))
	})

	t.Run("Date range", func(t *testing.T) {
		from := base.Add(-50 * time.Hour)
		to := base.Add(-30 * time.Hour)
		entries, err := engine.ListEntries(ctx, alice, timeclock.ListOptions{From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, []string{"a2"}, ids(entries))
	})

	t.Run("Tenant isolation", func(t *testing.T) {
		entries, err := engine.ListEntries(ctx, alice, timeclock.ListOptions{})
		require.NoError(t, err)
		for _, e := range entries {
			assert.Equal(t, alice.CompanyID, e.CompanyID)
			assert.Equal(t, alice.EmployeeID, e.EmployeeID)
		}

		none, err := engine.ListEntries(ctx, timeclock.Scope{CompanyID: "co-3", EmployeeID: alice.EmployeeID}, timeclock.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, none)
		assert.NotNil(t, none)
	})
}

func TestOpenEntryOfOtherCompanyNotVisible(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Insert(openEntry("x1", timeclock.Scope{CompanyID: "co-2", EmployeeID: alice.EmployeeID}, base.Add(-time.Hour))))

	status, err := engine.GetCurrentStatus(ctx, alice)
	require.NoError(t, err)
	assert.False(t, status.IsClockedIn)

	_, err = engine.ClockOut(ctx, alice, nil)
	assert.ErrorIs(t, err, timeclock.ErrNotClockedIn)
}

func TestValidationBeforeStore(t *testing.T) {
	store := &failingStore{err: errors.New("connection refused")}
	engine := timeclock.NewEngine(store)
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{name: "Latitude", field: "latitude", call: func() error {
			_, err := engine.ClockIn(ctx, alice, &model.Location{Latitude: 91})
			return err
		}},
		{name: "Longitude", field: "longitude", call: func() error {
			_, err := engine.ClockOut(ctx, alice, &model.Location{Longitude: -181})
			return err
		}},
		{name: "Accuracy", field: "accuracy", call: func() error {
			_, err := engine.ClockIn(ctx, alice, &model.Location{Accuracy: -1})
			return err
		}},
		{name: "Limit", field: "limit", call: func() error {
			_, err := engine.ListEntries(ctx, alice, timeclock.ListOptions{Limit: 501})
			return err
		}},
		{name: "Range", field: "startDate", call: func() error {
			from, to := base, base.Add(-time.Hour)
			_, err := engine.ListEntries(ctx, alice, timeclock.ListOptions{From: &from, To: &to})
			return err
		}},
		{name: "Window", field: "windowDays", call: func() error {
			_, err := engine.GetSummary(ctx, alice, timeclock.SummaryOptions{WindowDays: -1})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var ve *timeclock.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.Zero(t, store.calls)
}

func TestUnauthorizedScope(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	missing := timeclock.Scope{EmployeeID: alice.EmployeeID}

	_, err := engine.ClockIn(ctx, missing, nil)
	assert.ErrorIs(t, err, timeclock.ErrUnauthorized)
	_, err = engine.ClockOut(ctx, missing, nil)
	assert.ErrorIs(t, err, timeclock.ErrUnauthorized)
	_, err = engine.GetCurrentStatus(ctx, timeclock.Scope{})
	assert.ErrorIs(t, err, timeclock.ErrUnauthorized)
	_, err = engine.ListEntries(ctx, missing, timeclock.ListOptions{})
	assert.ErrorIs(t, err, timeclock.ErrUnauthorized)
	_, err = engine.GetSummary(ctx, missing, timeclock.SummaryOptions{})
	assert.ErrorIs(t, err, timeclock.ErrUnauthorized)
}

func TestStoreFailure(t *testing.T) {
	cause := errors.New("i/o timeout")
	store := &failingStore{err: cause}
	engine := timeclock.NewEngine(store)
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, alice, nil)
	assert.ErrorIs(t, err, timeclock.ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)

	_, err = engine.ClockOut(ctx, alice, nil)
	assert.ErrorIs(t, err, timeclock.ErrStoreUnavailable)

	_, err = engine.GetCurrentStatus(ctx, alice)
	assert.ErrorIs(t, err, timeclock.ErrStoreUnavailable)

	_, err = engine.ListEntries(ctx, alice, timeclock.ListOptions{})
	assert.ErrorIs(t, err, timeclock.ErrStoreUnavailable)

	_, err = engine.GetSummary(ctx, alice, timeclock.SummaryOptions{})
	assert.ErrorIs(t, err, timeclock.ErrStoreUnavailable)

	// one attempt per call, no retries
	assert.Equal(t, 5, store.calls)
}

type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) InsertOpen(ctx context.Context, entry *model.TimeEntry) error {
	s.calls++
	return s.err
}

func (s *failingStore) FindOpen(ctx context.Context, scope timeclock.Scope) (*model.TimeEntry, error) {
	s.calls++
	return nil, s.err
}

func (s *failingStore) CloseEntry(ctx context.Context, scope timeclock.Scope, entryID string, closing timeclock.Closing) error {
	s.calls++
	return s.err
}

func (s *failingStore) List(ctx context.Context, scope timeclock.Scope, opts timeclock.ListOptions) ([]model.TimeEntry, error) {
	s.calls++
	return nil, s.err
}

func ids(entries []model.TimeEntry) []string {
	return utils.Map(entries, func(e model.TimeEntry) string { return e.ID })
}
