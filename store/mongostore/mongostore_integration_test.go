//go:build integration

package mongostore_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/store/mongostore"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/utils"
)

var store *mongostore.Store

func TestMain(m *testing.M) {
	uri := os.Getenv("SITEPUNCH_TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx := context.Background()
	var err error
	store, err = mongostore.Open(ctx, uri, "sitepunch_test")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to test database: %v\n", err)
		os.Exit(1)
	}
	if err := store.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	store.Close(ctx)
	os.Exit(code)
}

func newScope() timeclock.Scope {
	return timeclock.Scope{CompanyID: uuid.New().String(), EmployeeID: uuid.New().String()}
}

func TestPartialIndexAllowsOneOpenEntry(t *testing.T) {
	ctx := context.Background()
	scope := newScope()
	engine := timeclock.NewEngine(store)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.ClockIn(ctx, scope, nil); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, timeclock.ErrAlreadyClockedIn)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), succeeded.Load())
}

func TestClosedEntriesDoNotBlockClockIn(t *testing.T) {
	ctx := context.Background()
	scope := newScope()
	engine := timeclock.NewEngine(store)

	for i := 0; i < 3; i++ {
		entry, err := engine.ClockIn(ctx, scope, nil)
		require.NoError(t, err)
		_, err = engine.WithClock(func() time.Time { return entry.ClockIn.Add(10 * time.Minute) }).ClockOut(ctx, scope, nil)
		require.NoError(t, err)
	}

	entries, err := engine.ListEntries(ctx, scope, timeclock.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.False(t, e.IsOpen())
		assert.Equal(t, 10, *e.Duration)
	}

	open, err := store.FindOpen(ctx, scope)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestDirectoryAndSettings(t *testing.T) {
	ctx := context.Background()
	company := &model.Company{ID: uuid.New().String(), Code: "co-" + uuid.New().String()[:8], Name: "Acme"}
	require.NoError(t, store.CreateCompany(ctx, company))
	assert.ErrorIs(t, store.CreateCompany(ctx, &model.Company{ID: uuid.New().String(), Code: company.Code}), model.ErrDuplicate)

	found, err := store.FindCompanyByCode(ctx, company.Code)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Acme", found.Name)

	require.NoError(t, store.UpdateCompany(ctx, company.ID, model.SettingsPatch{Timezone: utils.Ptr("America/Denver")}))
	got, err := store.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "America/Denver", got.Settings.Timezone)
	assert.ErrorIs(t, store.UpdateCompany(ctx, uuid.New().String(), model.SettingsPatch{Name: utils.Ptr("x")}), model.ErrNotFound)

	emp := &model.Employee{ID: uuid.New().String(), CompanyID: company.ID, EmployeeNumber: "7", FirstName: "Lee", LastName: "Park", Role: model.RoleEmployee, PinHash: "x", Active: true}
	require.NoError(t, store.CreateEmployee(ctx, emp))

	scope := timeclock.Scope{CompanyID: company.ID, EmployeeID: emp.ID}
	_, err = timeclock.NewEngine(store).ClockIn(ctx, scope, &model.Location{Latitude: 1, Longitude: 2})
	require.NoError(t, err)

	n, err := store.CountOpenEntries(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := store.ListCompanyEntries(ctx, company.ID, admin.EntryFilter{Limit: 5})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, emp.ID, entries[0].EmployeeID)
}
