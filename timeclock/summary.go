package timeclock

import (
	"context"
	"time"
)

const (
	DefaultWindowDays        = 14
	DefaultOvertimeThreshold = 40
	// OvertimeWarningMargin is how many hours below the threshold the warning starts.
	OvertimeWarningMargin = 5
)

type SummaryOptions struct {
	WindowDays             int
	OvertimeThresholdHours float64
}

type Summary struct {
	TotalHours          float64 `json:"totalHours"`
	TotalMinutes        int     `json:"totalMinutes"`
	OvertimeThreshold   float64 `json:"overtimeThreshold"`
	ApproachingOvertime bool    `json:"approachingOvertime"`
}

// GetSummary totals worked minutes over the trailing window ending now. Open
// entries count with their elapsed time at call time.
func (e *Engine) GetSummary(ctx context.Context, scope Scope, opts SummaryOptions) (*Summary, error) {
	if !scope.valid() {
		return nil, ErrUnauthorized
	}
	if opts.WindowDays < 0 {
		return nil, invalid("windowDays", "must not be negative")
	}
	if opts.OvertimeThresholdHours < 0 {
		return nil, invalid("overtimeThreshold", "must not be negative")
	}
	if opts.WindowDays == 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.OvertimeThresholdHours == 0 {
		opts.OvertimeThresholdHours = DefaultOvertimeThreshold
	}

	now := e.now()
	from := now.Add(-time.Duration(opts.WindowDays) * 24 * time.Hour)
	entries, err := e.store.List(ctx, scope, ListOptions{From: &from, To: &now})
	if err != nil {
		return nil, storeError("summary", err)
	}

	total := 0
	for _, entry := range entries {
		switch {
		case entry.Duration != nil:
			total += *entry.Duration
		case entry.IsOpen():
			total += RoundMinutes(now.Sub(entry.ClockIn))
		}
	}

	return &Summary{
		TotalHours:          roundHours(total),
		TotalMinutes:        total,
		OvertimeThreshold:   opts.OvertimeThresholdHours,
		ApproachingOvertime: float64(total)/60 >= opts.OvertimeThresholdHours-OvertimeWarningMargin,
	}, nil
}
