package timeclock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/utils"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithClock returns a copy of the engine reading time from now.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	return &Engine{store: e.store, now: now}
}

type ClockOutResult struct {
	ClockOut time.Time `json:"clockOut"`
	Duration int       `json:"duration"`
}

type CurrentDuration struct {
	Minutes int `json:"minutes"`
}

type Status struct {
	IsClockedIn     bool             `json:"isClockedIn"`
	CurrentEntry    *model.TimeEntry `json:"currentEntry"`
	CurrentDuration *CurrentDuration `json:"currentDuration"`
}

// ClockIn opens a new entry for the employee. The store's open-entry
// constraint decides between concurrent attempts.
func (e *Engine) ClockIn(ctx context.Context, scope Scope, location *model.Location) (*model.TimeEntry, error) {
	if !scope.valid() {
		return nil, ErrUnauthorized
	}
	if err := ValidateLocation(location); err != nil {
		return nil, err
	}

	now := e.now()
	entry := &model.TimeEntry{
		ID:              uuid.New().String(),
		EmployeeID:      scope.EmployeeID,
		CompanyID:       scope.CompanyID,
		ClockIn:         now,
		ClockInLocation: location,
		OpenEmployeeID:  utils.Ptr(scope.EmployeeID),
		Open:            true,
		CreatedAt:       now,
	}
	if err := e.store.InsertOpen(ctx, entry); err != nil {
		return nil, storeError("clock in", err)
	}
	return entry, nil
}

// ClockOut closes the employee's open entry and persists its duration.
func (e *Engine) ClockOut(ctx context.Context, scope Scope, location *model.Location) (*ClockOutResult, error) {
	if !scope.valid() {
		return nil, ErrUnauthorized
	}
	if err := ValidateLocation(location); err != nil {
		return nil, err
	}

	open, err := e.store.FindOpen(ctx, scope)
	if err != nil {
		return nil, storeError("clock out", err)
	}
	if open == nil {
		return nil, ErrNotClockedIn
	}

	clockOut := e.now()
	if !clockOut.After(open.ClockIn) {
		// keeps clockOut strictly after clockIn when the host clock stepped back
		clockOut = open.ClockIn.Add(time.Second)
	}
	closing := Closing{
		ClockOut: clockOut,
		Location: location,
		Duration: RoundMinutes(clockOut.Sub(open.ClockIn)),
	}
	if err := e.store.CloseEntry(ctx, scope, open.ID, closing); err != nil {
		return nil, storeError("clock out", err)
	}
	return &ClockOutResult{ClockOut: closing.ClockOut, Duration: closing.Duration}, nil
}

// GetCurrentStatus reports the open entry, if any, with its live duration.
func (e *Engine) GetCurrentStatus(ctx context.Context, scope Scope) (*Status, error) {
	if !scope.valid() {
		return nil, ErrUnauthorized
	}
	open, err := e.store.FindOpen(ctx, scope)
	if err != nil {
		return nil, storeError("current status", err)
	}
	if open == nil {
		return &Status{IsClockedIn: false}, nil
	}
	return &Status{
		IsClockedIn:     true,
		CurrentEntry:    open,
		CurrentDuration: &CurrentDuration{Minutes: RoundMinutes(e.now().Sub(open.ClockIn))},
	}, nil
}

// ListEntries returns the employee's entries, most recent clock-in first.
// A zero limit means DefaultListLimit.
func (e *Engine) ListEntries(ctx context.Context, scope Scope, opts ListOptions) ([]model.TimeEntry, error) {
	if !scope.valid() {
		return nil, ErrUnauthorized
	}
	if opts.Limit < 0 || opts.Limit > MaxListLimit {
		return nil, invalid("limit", "must be between 0 and 500")
	}
	if opts.From != nil && opts.To != nil && opts.From.After(*opts.To) {
		return nil, invalid("startDate", "must not be after endDate")
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultListLimit
	}

	entries, err := e.store.List(ctx, scope, opts)
	if err != nil {
		return nil, storeError("list entries", err)
	}
	if entries == nil {
		entries = []model.TimeEntry{}
	}
	return entries, nil
}

// ValidateLocation accepts a nil location; GPS is optional.
func ValidateLocation(loc *model.Location) error {
	if loc == nil {
		return nil
	}
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return invalid("latitude", "must be between -90 and 90")
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return invalid("longitude", "must be between -180 and 180")
	}
	if loc.Accuracy < 0 {
		return invalid("accuracy", "must not be negative")
	}
	return nil
}
