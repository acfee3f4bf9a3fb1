package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"sitepunch.app/sitepunch/timeclock"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{timeclock.ErrAlreadyClockedIn, "already_clocked_in"},
		{timeclock.ErrNotClockedIn, "not_clocked_in"},
		{timeclock.ErrUnauthorized, "unauthorized"},
		{&timeclock.ValidationError{Field: "limit", Message: "must be between 0 and 500"}, "invalid"},
		{fmt.Errorf("insert: %w: %w", timeclock.ErrStoreUnavailable, fmt.Errorf("dial tcp")), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestObserveClock(t *testing.T) {
	before := testutil.ToFloat64(ClockOperations.WithLabelValues("clock_in", "already_clocked_in"))
	ObserveClock("clock_in", timeclock.ErrAlreadyClockedIn)
	after := testutil.ToFloat64(ClockOperations.WithLabelValues("clock_in", "already_clocked_in"))
	assert.Equal(t, before+1, after)
}
