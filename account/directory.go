package account

import (
	"context"
	"time"

	"sitepunch.app/sitepunch/model"
)

// Directory looks up tenants and the people who sign in to them. Finders
// return (nil, nil) when nothing matches; creators return model.ErrDuplicate
// when a unique key is taken.
type Directory interface {
	FindCompanyByCode(ctx context.Context, code string) (*model.Company, error)
	FindEmployeeByNumber(ctx context.Context, companyID, number string) (*model.Employee, error)
	FindEmployee(ctx context.Context, companyID, id string) (*model.Employee, error)
	FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindAdmin(ctx context.Context, companyID, id string) (*model.Admin, error)
	RecordEmployeeLogin(ctx context.Context, id string, at time.Time) error
	RecordAdminLogin(ctx context.Context, id string, at time.Time) error
	CreateCompany(ctx context.Context, company *model.Company) error
	CreateAdmin(ctx context.Context, admin *model.Admin) error
}
