package timeclock

import (
	"context"
	"time"

	"sitepunch.app/sitepunch/model"
)

// Scope restricts a store access to one employee of one company. Every store
// method receives it; implementations must filter on both ids.
type Scope struct {
	CompanyID  string
	EmployeeID string
}

func (s Scope) valid() bool {
	return s.CompanyID != "" && s.EmployeeID != ""
}

type ListOptions struct {
	From  *time.Time // inclusive, on clockIn
	To    *time.Time // inclusive, on clockIn
	Limit int        // 0 means no limit
}

// Closing carries the fields written when an open entry is closed.
type Closing struct {
	ClockOut time.Time
	Location *model.Location
	Duration int
}

// Store persists time entries.
//
// InsertOpen must reject a second open entry for the same employee with
// ErrAlreadyClockedIn as a single store operation (unique constraint), not a
// read followed by a write. CloseEntry must only update an entry that is still open
// and return ErrNotClockedIn when no row matched.
type Store interface {
	InsertOpen(ctx context.Context, entry *model.TimeEntry) error
	FindOpen(ctx context.Context, scope Scope) (*model.TimeEntry, error)
	CloseEntry(ctx context.Context, scope Scope, entryID string, closing Closing) error
	List(ctx context.Context, scope Scope, opts ListOptions) ([]model.TimeEntry, error)
}
