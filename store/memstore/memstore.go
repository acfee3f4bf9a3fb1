// Package memstore keeps everything in process memory. It backs local runs
// and tests; data is lost on exit.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/timeclock"
)

type Store struct {
	mu        sync.Mutex
	entries   map[string]model.TimeEntry
	open      map[string]string // employeeID -> entryID
	companies map[string]model.Company
	employees map[string]model.Employee
	admins    map[string]model.Admin
}

func New() *Store {
	return &Store{
		entries:   map[string]model.TimeEntry{},
		open:      map[string]string{},
		companies: map[string]model.Company{},
		employees: map[string]model.Employee{},
		admins:    map[string]model.Admin{},
	}
}

func (s *Store) Migrate(ctx context.Context) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

// Insert adds an entry as is, open or closed. Used to seed fixtures.
func (s *Store) Insert(entry model.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.IsOpen() {
		if _, ok := s.open[entry.EmployeeID]; ok {
			return timeclock.ErrAlreadyClockedIn
		}
		s.open[entry.EmployeeID] = entry.ID
	}
	s.entries[entry.ID] = entry
	return nil
}

// OpenEntries counts open entries for an employee across all companies.
func (s *Store) OpenEntries(employeeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.EmployeeID == employeeID && e.IsOpen() {
			n++
		}
	}
	return n
}

// timeclock.Store

func (s *Store) InsertOpen(ctx context.Context, entry *model.TimeEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Insert(*entry)
}

func (s *Store) FindOpen(ctx context.Context, scope timeclock.Scope) (*model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.open[scope.EmployeeID]
	if !ok {
		return nil, nil
	}
	entry := s.entries[id]
	if entry.CompanyID != scope.CompanyID {
		return nil, nil
	}
	return &entry, nil
}

func (s *Store) CloseEntry(ctx context.Context, scope timeclock.Scope, entryID string, closing timeclock.Closing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok || !entry.IsOpen() || entry.EmployeeID != scope.EmployeeID || entry.CompanyID != scope.CompanyID {
		return timeclock.ErrNotClockedIn
	}
	clockOut := closing.ClockOut
	duration := closing.Duration
	entry.ClockOut = &clockOut
	entry.ClockOutLocation = closing.Location
	entry.Duration = &duration
	entry.OpenEmployeeID = nil
	entry.Open = false
	s.entries[entryID] = entry
	delete(s.open, entry.EmployeeID)
	return nil
}

func (s *Store) List(ctx context.Context, scope timeclock.Scope, opts timeclock.ListOptions) ([]model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.list(func(e model.TimeEntry) bool {
		return e.CompanyID == scope.CompanyID && e.EmployeeID == scope.EmployeeID && within(e.ClockIn, opts.From, opts.To)
	}, opts.Limit), nil
}

// admin.Store

func (s *Store) ListCompanyEntries(ctx context.Context, companyID string, filter admin.EntryFilter) ([]model.TimeEntry, error) {
	return s.list(func(e model.TimeEntry) bool {
		return e.CompanyID == companyID &&
			(filter.EmployeeID == "" || e.EmployeeID == filter.EmployeeID) &&
			within(e.ClockIn, filter.From, filter.To)
	}, filter.Limit), nil
}

func (s *Store) CountOpenEntries(ctx context.Context, companyID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range s.open {
		if s.entries[id].CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Employee{}
	for _, e := range s.employees {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee *model.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.CompanyID == employee.CompanyID && e.EmployeeNumber == employee.EmployeeNumber {
			return model.ErrDuplicate
		}
	}
	s.employees[employee.ID] = *employee
	return nil
}

func (s *Store) UpdateEmployee(ctx context.Context, companyID, id string, patch model.EmployeePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok || e.CompanyID != companyID {
		return model.ErrNotFound
	}
	if patch.FirstName != nil {
		e.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		e.LastName = *patch.LastName
	}
	if patch.Email != nil {
		e.Email = patch.Email
	}
	if patch.Phone != nil {
		e.Phone = patch.Phone
	}
	if patch.Department != nil {
		e.Department = patch.Department
	}
	if patch.PinHash != nil {
		e.PinHash = *patch.PinHash
	}
	if patch.Active != nil {
		e.Active = *patch.Active
	}
	s.employees[id] = e
	return nil
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[companyID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) UpdateCompany(ctx context.Context, companyID string, patch model.SettingsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[companyID]
	if !ok {
		return model.ErrNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Timezone != nil {
		c.Settings.Timezone = *patch.Timezone
	}
	if patch.OvertimeThreshold != nil {
		c.Settings.OvertimeThreshold = *patch.OvertimeThreshold
	}
	if patch.PayPeriodType != nil {
		c.Settings.PayPeriodType = *patch.PayPeriodType
	}
	c.UpdatedAt = time.Now()
	s.companies[companyID] = c
	return nil
}

func (s *Store) ListAdmins(ctx context.Context, companyID string) ([]model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Admin{}
	for _, a := range s.admins {
		if a.CompanyID == companyID && a.Active {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// account.Directory

func (s *Store) FindCompanyByCode(ctx context.Context, code string) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) FindEmployeeByNumber(ctx context.Context, companyID, number string) (*model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.CompanyID == companyID && e.EmployeeNumber == number {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) FindEmployee(ctx context.Context, companyID, id string) (*model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok || e.CompanyID != companyID {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *Store) FindAdmin(ctx context.Context, companyID, id string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok || a.CompanyID != companyID {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) RecordEmployeeLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return model.ErrNotFound
	}
	e.LastLogin = &at
	s.employees[id] = e
	return nil
}

func (s *Store) RecordAdminLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return model.ErrNotFound
	}
	a.LastLogin = &at
	s.admins[id] = a
	return nil
}

func (s *Store) CreateCompany(ctx context.Context, company *model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Code == company.Code {
			return model.ErrDuplicate
		}
	}
	s.companies[company.ID] = *company
	return nil
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if strings.EqualFold(existing.Email, a.Email) {
			return model.ErrDuplicate
		}
	}
	s.admins[a.ID] = *a
	return nil
}

func (s *Store) list(match func(model.TimeEntry) bool, limit int) []model.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.TimeEntry{}
	for _, e := range s.entries {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.After(out[j].ClockIn) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func within(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
