//go:build integration

package mysqlstore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/core"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/store/mysqlstore"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/utils"
)

var store *mysqlstore.Store

func TestMain(m *testing.M) {
	dsn := os.Getenv("SITEPUNCH_TEST_MYSQL_DSN")
	if dsn == "" {
		dsn = "root:development@tcp(localhost:3306)/sitepunch_test?parseTime=true&loc=UTC"
	}

	var err error
	store, err = mysqlstore.Open(dsn, 5, core.LogLevelSilent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to test database: %v\n", err)
		os.Exit(1)
	}
	if err := store.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	store.Close(context.Background())
	os.Exit(code)
}

func newScope() timeclock.Scope {
	return timeclock.Scope{CompanyID: uuid.New().String(), EmployeeID: uuid.New().String()}
}

func TestOpenEntryUniqueness(t *testing.T) {
	ctx := context.Background()
	scope := newScope()
	engine := timeclock.NewEngine(store)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.ClockIn(ctx, scope, nil)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, timeclock.ErrAlreadyClockedIn), "unexpected error: %v", err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)

	open, err := store.CountOpenEntries(ctx, scope.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), open)
}

func TestClockLifecycle(t *testing.T) {
	ctx := context.Background()
	scope := newScope()
	engine := timeclock.NewEngine(store)
	loc := &model.Location{Latitude: 41.8781, Longitude: -87.6298, Accuracy: 8}

	entry, err := engine.ClockIn(ctx, scope, loc)
	require.NoError(t, err)

	status, err := engine.GetCurrentStatus(ctx, scope)
	require.NoError(t, err)
	require.True(t, status.IsClockedIn)
	assert.Equal(t, entry.ID, status.CurrentEntry.ID)
	assert.Equal(t, loc, status.CurrentEntry.ClockInLocation)

	result, err := engine.WithClock(func() time.Time { return entry.ClockIn.Add(61 * time.Minute) }).ClockOut(ctx, scope, loc)
	require.NoError(t, err)
	assert.Equal(t, 61, result.Duration)

	// entry is closed, a new clock-in is allowed
	_, err = engine.ClockIn(ctx, scope, nil)
	require.NoError(t, err)

	entries, err := engine.ListEntries(ctx, scope, timeclock.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entry.ID, entries[1].ID)
	assert.Equal(t, 61, *entries[1].Duration)
	assert.Equal(t, loc, entries[1].ClockOutLocation)
	assert.Nil(t, entries[1].OpenEmployeeID)

	err = store.CloseEntry(ctx, scope, entry.ID, timeclock.Closing{ClockOut: time.Now(), Duration: 1})
	assert.ErrorIs(t, err, timeclock.ErrNotClockedIn)
}

func TestCompanyScopedQueries(t *testing.T) {
	ctx := context.Background()
	company := &model.Company{ID: uuid.New().String(), Code: "co-" + uuid.New().String()[:8], Name: "Acme", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.CreateCompany(ctx, company))
	assert.ErrorIs(t, store.CreateCompany(ctx, &model.Company{ID: uuid.New().String(), Code: company.Code, Name: "Dup"}), model.ErrDuplicate)

	emp := &model.Employee{ID: uuid.New().String(), CompanyID: company.ID, EmployeeNumber: "1001", FirstName: "Ana", LastName: "Diaz", Role: model.RoleEmployee, PinHash: "x", Active: true, CreatedAt: time.Now()}
	require.NoError(t, store.CreateEmployee(ctx, emp))
	assert.ErrorIs(t, store.CreateEmployee(ctx, &model.Employee{ID: uuid.New().String(), CompanyID: company.ID, EmployeeNumber: "1001", PinHash: "x"}), model.ErrDuplicate)

	found, err := store.FindEmployeeByNumber(ctx, company.ID, "1001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, emp.ID, found.ID)

	missing, err := store.FindEmployeeByNumber(ctx, uuid.New().String(), "1001")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.UpdateEmployee(ctx, company.ID, emp.ID, model.EmployeePatch{Active: utils.Ptr(false)}))
	assert.ErrorIs(t, store.UpdateEmployee(ctx, uuid.New().String(), emp.ID, model.EmployeePatch{Active: utils.Ptr(false)}), model.ErrNotFound)

	require.NoError(t, store.UpdateCompany(ctx, company.ID, model.SettingsPatch{OvertimeThreshold: utils.Ptr(38.5)}))
	got, err := store.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 38.5, got.Settings.OvertimeThreshold)

	scope := timeclock.Scope{CompanyID: company.ID, EmployeeID: emp.ID}
	_, err = timeclock.NewEngine(store).ClockIn(ctx, scope, nil)
	require.NoError(t, err)

	entries, err := store.ListCompanyEntries(ctx, company.ID, admin.EntryFilter{EmployeeID: emp.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Open)
}
