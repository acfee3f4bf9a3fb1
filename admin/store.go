package admin

import (
	"context"
	"time"

	"sitepunch.app/sitepunch/model"
)

// EntryFilter narrows company-wide entry queries. Zero values do not filter.
type EntryFilter struct {
	From       *time.Time
	To         *time.Time
	EmployeeID string
	Limit      int
}

// Store is the company-scoped data the admin console works with. Every method
// takes the company id of the calling admin.
type Store interface {
	ListCompanyEntries(ctx context.Context, companyID string, filter EntryFilter) ([]model.TimeEntry, error)
	CountOpenEntries(ctx context.Context, companyID string) (int64, error)
	ListEmployees(ctx context.Context, companyID string) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, employee *model.Employee) error
	UpdateEmployee(ctx context.Context, companyID, id string, patch model.EmployeePatch) error
	GetCompany(ctx context.Context, companyID string) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	UpdateCompany(ctx context.Context, companyID string, patch model.SettingsPatch) error
	ListAdmins(ctx context.Context, companyID string) ([]model.Admin, error)
}
