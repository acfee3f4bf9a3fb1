// Package mysqlstore persists SitePunch data in MySQL through gorm.
//
// The one-open-entry rule is held by the unique index on
// time_entries.open_employee_id: the column carries the employee id while an
// entry is open and is NULL once closed, and MySQL allows any number of NULLs
// in a unique index.
package mysqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/core"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/timeclock"
)

type Store struct {
	dm *core.DatabaseManager
}

func New(dm *core.DatabaseManager) *Store {
	return &Store{dm: dm}
}

func Open(dsn string, maxConnection int, level core.LogLevel) (*Store, error) {
	dm, err := core.New(dsn, maxConnection, level)
	if err != nil {
		return nil, err
	}
	return New(dm), nil
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.dm.Migrate(ctx, model.Models()...)
}

func (s *Store) Close(ctx context.Context) error {
	return s.dm.Close()
}

func scoped(db *gorm.DB, scope timeclock.Scope) *gorm.DB {
	return db.Where("company_id = ? AND employee_id = ?", scope.CompanyID, scope.EmployeeID)
}

func between(db *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		db = db.Where("clock_in >= ?", *from)
	}
	if to != nil {
		db = db.Where("clock_in <= ?", *to)
	}
	return db
}

func (s *Store) InsertOpen(ctx context.Context, entry *model.TimeEntry) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		err := db.Create(entry).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return timeclock.ErrAlreadyClockedIn
		}
		return err
	})
}

func (s *Store) FindOpen(ctx context.Context, scope timeclock.Scope) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return scoped(db, scope).Where("clock_out IS NULL").Order("clock_in desc").First(&entry).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.Open = true
	return &entry, nil
}

func (s *Store) CloseEntry(ctx context.Context, scope timeclock.Scope, entryID string, closing timeclock.Closing) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		res := scoped(db.Model(&model.TimeEntry{}), scope).
			Where("id = ? AND clock_out IS NULL", entryID).
			Select("clock_out", "clock_out_location", "duration", "open_employee_id").
			Updates(&model.TimeEntry{
				ClockOut:         &closing.ClockOut,
				ClockOutLocation: closing.Location,
				Duration:         &closing.Duration,
				OpenEmployeeID:   nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return timeclock.ErrNotClockedIn
		}
		return nil
	})
}

func (s *Store) List(ctx context.Context, scope timeclock.Scope, opts timeclock.ListOptions) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		q := between(scoped(db, scope), opts.From, opts.To).Order("clock_in desc")
		if opts.Limit > 0 {
			q = q.Limit(opts.Limit)
		}
		return q.Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}
	return markOpen(entries), nil
}

func (s *Store) ListCompanyEntries(ctx context.Context, companyID string, filter admin.EntryFilter) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		q := between(db.Where("company_id = ?", companyID), filter.From, filter.To)
		if filter.EmployeeID != "" {
			q = q.Where("employee_id = ?", filter.EmployeeID)
		}
		q = q.Order("clock_in desc")
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q.Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}
	return markOpen(entries), nil
}

func (s *Store) CountOpenEntries(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Model(&model.TimeEntry{}).Where("company_id = ? AND clock_out IS NULL", companyID).Count(&n).Error
	})
	return n, err
}

func markOpen(entries []model.TimeEntry) []model.TimeEntry {
	for i := range entries {
		entries[i].Open = entries[i].IsOpen()
	}
	return entries
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]model.Employee, error) {
	var employees []model.Employee
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where("company_id = ?", companyID).Order("last_name, first_name").Find(&employees).Error
	})
	return employees, err
}

func (s *Store) CreateEmployee(ctx context.Context, employee *model.Employee) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return translate(db.Create(employee).Error)
	})
}

func (s *Store) UpdateEmployee(ctx context.Context, companyID, id string, patch model.EmployeePatch) error {
	updates := map[string]interface{}{}
	if patch.FirstName != nil {
		updates["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		updates["last_name"] = *patch.LastName
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.Department != nil {
		updates["department"] = *patch.Department
	}
	if patch.PinHash != nil {
		updates["pin_hash"] = *patch.PinHash
	}
	if patch.Active != nil {
		updates["active"] = *patch.Active
	}
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return updateExisting(db.Model(&model.Employee{}).Where("id = ? AND company_id = ?", id, companyID), updates)
	})
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (*model.Company, error) {
	return first[model.Company](ctx, s.dm, "id = ?", companyID)
}

func (s *Store) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Order("code").Find(&companies).Error
	})
	return companies, err
}

func (s *Store) UpdateCompany(ctx context.Context, companyID string, patch model.SettingsPatch) error {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Timezone != nil {
		updates["settings_timezone"] = *patch.Timezone
	}
	if patch.OvertimeThreshold != nil {
		updates["settings_overtime_threshold"] = *patch.OvertimeThreshold
	}
	if patch.PayPeriodType != nil {
		updates["settings_pay_period_type"] = *patch.PayPeriodType
	}
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return updateExisting(db.Model(&model.Company{}).Where("id = ?", companyID), updates)
	})
}

func (s *Store) ListAdmins(ctx context.Context, companyID string) ([]model.Admin, error) {
	var admins []model.Admin
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where("company_id = ? AND active = ?", companyID, true).Order("email").Find(&admins).Error
	})
	return admins, err
}

func (s *Store) FindCompanyByCode(ctx context.Context, code string) (*model.Company, error) {
	return first[model.Company](ctx, s.dm, "code = ?", code)
}

func (s *Store) FindEmployeeByNumber(ctx context.Context, companyID, number string) (*model.Employee, error) {
	return first[model.Employee](ctx, s.dm, "company_id = ? AND employee_number = ?", companyID, number)
}

func (s *Store) FindEmployee(ctx context.Context, companyID, id string) (*model.Employee, error) {
	return first[model.Employee](ctx, s.dm, "id = ? AND company_id = ?", id, companyID)
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return first[model.Admin](ctx, s.dm, "email = ?", email)
}

func (s *Store) FindAdmin(ctx context.Context, companyID, id string) (*model.Admin, error) {
	return first[model.Admin](ctx, s.dm, "id = ? AND company_id = ?", id, companyID)
}

func (s *Store) RecordEmployeeLogin(ctx context.Context, id string, at time.Time) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Model(&model.Employee{}).Where("id = ?", id).Update("last_login", at).Error
	})
}

func (s *Store) RecordAdminLogin(ctx context.Context, id string, at time.Time) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Model(&model.Admin{}).Where("id = ?", id).Update("last_login", at).Error
	})
}

func (s *Store) CreateCompany(ctx context.Context, company *model.Company) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return translate(db.Create(company).Error)
	})
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return translate(db.Create(a).Error)
	})
}

// first returns (nil, nil) when no row matches.
func first[T any](ctx context.Context, dm *core.DatabaseManager, query string, args ...interface{}) (*T, error) {
	var out T
	err := dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where(query, args...).Take(&out).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// updateExisting applies updates to the rows matched by q and reports
// model.ErrNotFound when there are none. MySQL counts only changed rows, so
// existence is checked separately.
func updateExisting(q *gorm.DB, updates map[string]interface{}) error {
	var n int64
	if err := q.Session(&gorm.Session{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	if len(updates) == 0 {
		return nil
	}
	if err := q.Updates(updates).Error; err != nil {
		return fmt.Errorf("update: %w", translate(err))
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.ErrDuplicate
	}
	return err
}
