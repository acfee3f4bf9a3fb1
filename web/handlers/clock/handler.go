// Package clock serves the employee time-tracking API.
package clock

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sitepunch.app/sitepunch/infrastructure/metrics"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/security"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/utils"
	"sitepunch.app/sitepunch/web/common"
	"sitepunch.app/sitepunch/web/middlewares"
)

// ThresholdSource supplies a company's overtime threshold in hours. Zero
// means not configured.
type ThresholdSource interface {
	OvertimeThreshold(ctx context.Context, companyID string) (float64, error)
}

type Options struct {
	WindowDays        int
	OvertimeThreshold float64
}

// ActiveChecker rejects callers whose account was deactivated after their
// token was issued.
type ActiveChecker interface {
	EnsureActive(ctx context.Context, identity security.Identity) error
}

type Endpoint struct {
	engine     *timeclock.Engine
	thresholds ThresholdSource
	accounts   ActiveChecker
	options    Options
}

func Register(r *gin.RouterGroup, engine *timeclock.Engine, thresholds ThresholdSource, accounts ActiveChecker, options Options) {
	ep := &Endpoint{engine: engine, thresholds: thresholds, accounts: accounts, options: options}
	r.POST("/time/clock-in", ep.requireActive, ep.ClockIn)
	r.POST("/time/clock-out", ep.requireActive, ep.ClockOut)
	r.GET("/time/status", ep.Status)
	r.GET("/time/entries", ep.Entries)
	r.GET("/time/summary", ep.Summary)
}

type clockRequest struct {
	Location *locationRequest `json:"location"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Accuracy  *float64 `json:"accuracy"`
}

func (l *locationRequest) toModel() *model.Location {
	if l == nil {
		return nil
	}
	loc := &model.Location{Latitude: *l.Latitude, Longitude: *l.Longitude}
	if l.Accuracy != nil {
		loc.Accuracy = *l.Accuracy
	}
	return loc
}

type clockInResponse struct {
	EntryID string    `json:"entryId"`
	ClockIn time.Time `json:"clockIn"`
}

type entriesResponse struct {
	Entries []model.TimeEntry `json:"entries"`
}

func scope(c *gin.Context) timeclock.Scope {
	identity, ok := middlewares.CurrentIdentity(c)
	if !ok {
		return timeclock.Scope{}
	}
	return timeclock.Scope{CompanyID: identity.CompanyID, EmployeeID: identity.EmployeeID}
}

func (ep *Endpoint) requireActive(c *gin.Context) {
	identity, ok := middlewares.CurrentIdentity(c)
	if !ok {
		common.WriteError(c, timeclock.ErrUnauthorized)
		c.Abort()
		return
	}
	if ep.accounts != nil {
		if err := ep.accounts.EnsureActive(c.Request.Context(), *identity); err != nil {
			common.WriteError(c, err)
			c.Abort()
			return
		}
	}
	c.Next()
}

// bindLocation reads the optional request body. An empty body means no
// location; a location must carry both coordinates.
func bindLocation(c *gin.Context) (*model.Location, error) {
	var req clockRequest
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return req.Location.toModel(), nil
}

func (ep *Endpoint) ClockIn(c *gin.Context) {
	location, err := bindLocation(c)
	if err != nil {
		common.WriteBindingError(c, err)
		return
	}

	entry, err := ep.engine.ClockIn(c.Request.Context(), scope(c), location)
	metrics.ObserveClock("clock_in", err)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(clockInResponse{EntryID: entry.ID, ClockIn: entry.ClockIn}))
}

func (ep *Endpoint) ClockOut(c *gin.Context) {
	location, err := bindLocation(c)
	if err != nil {
		common.WriteBindingError(c, err)
		return
	}

	result, err := ep.engine.ClockOut(c.Request.Context(), scope(c), location)
	metrics.ObserveClock("clock_out", err)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(result))
}

func (ep *Endpoint) Status(c *gin.Context) {
	status, err := ep.engine.GetCurrentStatus(c.Request.Context(), scope(c))
	metrics.ObserveClock("status", err)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(status))
}

func (ep *Endpoint) Entries(c *gin.Context) {
	opts, err := listOptions(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	entries, err := ep.engine.ListEntries(c.Request.Context(), scope(c), opts)
	metrics.ObserveClock("list_entries", err)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(entriesResponse{Entries: entries}))
}

func (ep *Endpoint) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	s := scope(c)

	threshold := ep.options.OvertimeThreshold
	if ep.thresholds != nil && s.CompanyID != "" {
		configured, err := ep.thresholds.OvertimeThreshold(ctx, s.CompanyID)
		if err != nil {
			common.WriteError(c, err)
			return
		}
		if configured > 0 {
			threshold = configured
		}
	}

	summary, err := ep.engine.GetSummary(ctx, s, timeclock.SummaryOptions{
		WindowDays:             ep.options.WindowDays,
		OvertimeThresholdHours: threshold,
	})
	metrics.ObserveClock("summary", err)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(summary))
}

// listOptions reads startDate, endDate and limit. A date-only endDate covers
// that whole day.
func listOptions(c *gin.Context) (timeclock.ListOptions, error) {
	var opts timeclock.ListOptions

	if s := c.Query("startDate"); s != "" {
		from, err := utils.ParseISOTime(s)
		if err != nil {
			return opts, &timeclock.ValidationError{Field: "startDate", Message: "must be an ISO 8601 date"}
		}
		opts.From = from
	}
	if s := c.Query("endDate"); s != "" {
		to, err := utils.ParseISOTime(s)
		if err != nil {
			return opts, &timeclock.ValidationError{Field: "endDate", Message: "must be an ISO 8601 date"}
		}
		if len(s) == len(utils.DateLayout) {
			to = utils.Ptr(utils.EndOfDay(*to))
		}
		opts.To = to
	}
	if s := c.Query("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return opts, &timeclock.ValidationError{Field: "limit", Message: "must be an integer"}
		}
		opts.Limit = limit
	}
	return opts, nil
}
