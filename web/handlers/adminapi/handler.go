// Package adminapi serves the company administration console.
package adminapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitepunch.app/sitepunch/account"
	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/export"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/utils"
	"sitepunch.app/sitepunch/web/common"
	"sitepunch.app/sitepunch/web/middlewares"
)

type Endpoint struct {
	accounts *account.Service
	admin    *admin.Service
}

// Register mounts the admin login on public and the console routes on
// protected, which must already run the Authentication middleware.
func Register(public, protected *gin.RouterGroup, accounts *account.Service, service *admin.Service) {
	ep := &Endpoint{accounts: accounts, admin: service}
	public.POST("/admin/login", ep.Login)

	r := protected.Group("/admin", middlewares.RequireRole(model.RoleAdmin))
	r.GET("/time-entries", ep.TimeEntries)
	r.GET("/time-entries/export", ep.Export)
	r.GET("/dashboard", ep.Dashboard)
	r.GET("/settings", ep.Settings)
	r.PUT("/settings", ep.UpdateSettings)
	r.GET("/employees", ep.ListEmployees)
	r.POST("/employees", ep.CreateEmployee)
	r.PUT("/employees", ep.UpdateEmployee)
	r.DELETE("/employees", ep.DeleteEmployee)
}

func companyID(c *gin.Context) string {
	identity, _ := middlewares.CurrentIdentity(c)
	return identity.CompanyID
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ep *Endpoint) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteBindingError(c, err)
		return
	}
	session, err := ep.accounts.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(session))
}

func (ep *Endpoint) TimeEntries(c *gin.Context) {
	ctx := c.Request.Context()
	q := admin.EntryQuery{EmployeeID: c.Query("employeeId")}
	if s := c.Query("date"); s != "" {
		date, err := utils.ParseDate(s, nil)
		if err != nil {
			common.WriteError(c, &timeclock.ValidationError{Field: "date", Message: "must be yyyy-MM-dd"})
			return
		}
		q.Date = &date
	}

	entries, err := ep.admin.ListTimeEntries(ctx, companyID(c), q)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"entries": entries}))
}

// Export streams the entries between startDate and endDate, both inclusive
// calendar days in the company timezone, as an xlsx workbook.
func (ep *Endpoint) Export(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := ep.admin.Settings(ctx, companyID(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	loc, err := timezone(settings.Timezone)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	from, err := utils.ParseDate(c.Query("startDate"), loc)
	if err != nil {
		common.WriteError(c, &timeclock.ValidationError{Field: "startDate", Message: "must be yyyy-MM-dd"})
		return
	}
	to, err := utils.ParseDate(c.Query("endDate"), loc)
	if err != nil {
		common.WriteError(c, &timeclock.ValidationError{Field: "endDate", Message: "must be yyyy-MM-dd"})
		return
	}

	result, err := ep.admin.ExportEntries(ctx, companyID(c), from, utils.EndOfDay(to))
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, export.ContentType, result.Content)
}

func (ep *Endpoint) Dashboard(c *gin.Context) {
	dashboard, err := ep.admin.Dashboard(c.Request.Context(), companyID(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(dashboard))
}

func (ep *Endpoint) Settings(c *gin.Context) {
	settings, err := ep.admin.Settings(c.Request.Context(), companyID(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(settings))
}

type settingsRequest struct {
	Name              *string  `json:"name"`
	Timezone          *string  `json:"timezone"`
	OvertimeThreshold *float64 `json:"overtimeThreshold"`
	PayPeriodType     *string  `json:"payPeriodType"`
}

func (ep *Endpoint) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteBindingError(c, err)
		return
	}
	settings, err := ep.admin.UpdateSettings(c.Request.Context(), companyID(c), model.SettingsPatch{
		Name:              req.Name,
		Timezone:          req.Timezone,
		OvertimeThreshold: req.OvertimeThreshold,
		PayPeriodType:     req.PayPeriodType,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(settings))
}

func timezone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load company timezone %q: %w", name, err)
	}
	return loc, nil
}
