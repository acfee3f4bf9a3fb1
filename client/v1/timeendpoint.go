package v1

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/timeclock"
)

type TimeEndpoint struct {
	transport *Transport
}

type ClockInResult struct {
	EntryID string    `json:"entryId"`
	ClockIn time.Time `json:"clockIn"`
}

// EntryQuery filters Entries; zero values are not sent.
type EntryQuery struct {
	StartDate string
	EndDate   string
	Limit     int
}

func (ep *TimeEndpoint) ClockIn(ctx context.Context, location *model.Location) (*ClockInResult, error) {
	var result ClockInResult
	if err := ep.transport.Post(ctx, "/time/clock-in", locationBody(location), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (ep *TimeEndpoint) ClockOut(ctx context.Context, location *model.Location) (*timeclock.ClockOutResult, error) {
	var result timeclock.ClockOutResult
	if err := ep.transport.Post(ctx, "/time/clock-out", locationBody(location), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (ep *TimeEndpoint) Status(ctx context.Context) (*timeclock.Status, error) {
	var status timeclock.Status
	if err := ep.transport.Get(ctx, "/time/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (ep *TimeEndpoint) Entries(ctx context.Context, q EntryQuery) ([]model.TimeEntry, error) {
	query := url.Values{}
	if q.StartDate != "" {
		query.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		query.Set("endDate", q.EndDate)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	var result struct {
		Entries []model.TimeEntry `json:"entries"`
	}
	if err := ep.transport.Get(ctx, "/time/entries", query, &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}

func (ep *TimeEndpoint) Summary(ctx context.Context) (*timeclock.Summary, error) {
	var summary timeclock.Summary
	if err := ep.transport.Get(ctx, "/time/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

type clockRequest struct {
	Location *model.Location `json:"location,omitempty"`
}

func locationBody(location *model.Location) clockRequest {
	return clockRequest{Location: location}
}
