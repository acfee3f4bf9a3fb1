package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitepunch.app/sitepunch/export"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/security"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/utils"
)

const (
	EntryListLimit      = 100
	RecentActivityLimit = 10
	UnknownEmployee     = "Unknown"
	DefaultDepartment   = "Field"
)

var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmployeeExists   = errors.New("employee id already exists")
)

var payPeriodTypes = []string{"weekly", "biweekly", "semimonthly", "monthly"}

type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// Entry is a time entry decorated for the admin console.
type Entry struct {
	model.TimeEntry
	EmployeeName string   `json:"employeeName"`
	TotalHours   *float64 `json:"totalHours"`
}

type EntryQuery struct {
	Date       *time.Time // calendar day in the company timezone
	EmployeeID string
}

// ListTimeEntries returns the company's most recent entries, optionally for one
// day and one employee.
func (s *Service) ListTimeEntries(ctx context.Context, companyID string, q EntryQuery) ([]Entry, error) {
	filter := EntryFilter{EmployeeID: q.EmployeeID, Limit: EntryListLimit}
	if q.Date != nil {
		company, err := s.company(ctx, companyID)
		if err != nil {
			return nil, err
		}
		from, to := dayBounds(*q.Date, companyLocation(company))
		filter.From, filter.To = &from, &to
	}

	entries, err := s.store.ListCompanyEntries(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("list company entries: %w", err)
	}
	names, err := s.employeeNames(ctx, companyID)
	if err != nil {
		return nil, err
	}

	return utils.Map(entries, func(e model.TimeEntry) Entry {
		return enrich(e, names)
	}), nil
}

type Stats struct {
	TotalEmployees int   `json:"totalEmployees"`
	ClockedIn      int64 `json:"clockedIn"`
}

type Activity struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type Dashboard struct {
	Stats          Stats      `json:"stats"`
	RecentActivity []Activity `json:"recentActivity"`
}

func (s *Service) Dashboard(ctx context.Context, companyID string) (*Dashboard, error) {
	employees, err := s.store.ListEmployees(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	clockedIn, err := s.store.CountOpenEntries(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("count open entries: %w", err)
	}
	recent, err := s.store.ListCompanyEntries(ctx, companyID, EntryFilter{Limit: RecentActivityLimit})
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}

	names := nameIndex(employees)
	activity := utils.Map(recent, func(e model.TimeEntry) Activity {
		name := nameOf(names, e.EmployeeID)
		if e.ClockOut != nil {
			return Activity{Type: "clock-out", Description: name + " clocked out", Timestamp: *e.ClockOut}
		}
		return Activity{Type: "clock-in", Description: name + " clocked in", Timestamp: e.ClockIn}
	})

	return &Dashboard{
		Stats: Stats{
			TotalEmployees: len(utils.Filter(employees, func(e model.Employee) bool { return e.Active })),
			ClockedIn:      clockedIn,
		},
		RecentActivity: activity,
	}, nil
}

type Settings struct {
	Name              string  `json:"name"`
	Timezone          string  `json:"timezone"`
	OvertimeThreshold float64 `json:"overtimeThreshold"`
	PayPeriodType     string  `json:"payPeriodType"`
}

func (s *Service) Settings(ctx context.Context, companyID string) (*Settings, error) {
	company, err := s.company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	settings := company.Settings.WithDefaults()
	return &Settings{
		Name:              company.Name,
		Timezone:          settings.Timezone,
		OvertimeThreshold: settings.OvertimeThreshold,
		PayPeriodType:     settings.PayPeriodType,
	}, nil
}

// UpdateSettings applies a partial update and returns the resulting settings.
func (s *Service) UpdateSettings(ctx context.Context, companyID string, patch model.SettingsPatch) (*Settings, error) {
	if err := validateSettings(patch); err != nil {
		return nil, err
	}
	if !patch.IsEmpty() {
		if err := s.store.UpdateCompany(ctx, companyID, patch); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, ErrCompanyNotFound
			}
			return nil, fmt.Errorf("update company: %w", err)
		}
		s.logger.Info("company settings updated", zap.String("companyId", companyID))
	}
	return s.Settings(ctx, companyID)
}

func validateSettings(p model.SettingsPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &timeclock.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if p.Timezone != nil {
		if _, err := time.LoadLocation(*p.Timezone); err != nil || *p.Timezone == "" {
			return &timeclock.ValidationError{Field: "timezone", Message: "must be an IANA time zone"}
		}
	}
	if p.OvertimeThreshold != nil && (*p.OvertimeThreshold <= 0 || *p.OvertimeThreshold > 168) {
		return &timeclock.ValidationError{Field: "overtimeThreshold", Message: "must be between 0 and 168 hours"}
	}
	if p.PayPeriodType != nil && utils.Find(payPeriodTypes, func(t string) bool { return t == *p.PayPeriodType }) == nil {
		return &timeclock.ValidationError{Field: "payPeriodType", Message: "must be one of " + strings.Join(payPeriodTypes, ", ")}
	}
	return nil
}

// OvertimeThreshold is the company's configured threshold, or zero when the
// company is unknown so callers fall back to the default.
func (s *Service) OvertimeThreshold(ctx context.Context, companyID string) (float64, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return 0, nil
	}
	return company.Settings.WithDefaults().OvertimeThreshold, nil
}

func (s *Service) ListEmployees(ctx context.Context, companyID string) ([]model.Employee, error) {
	employees, err := s.store.ListEmployees(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	return employees, nil
}

type NewEmployee struct {
	EmployeeNumber string
	PIN            string
	FirstName      string
	LastName       string
	Email          *string
	Phone          *string
	Department     *string
}

func (s *Service) CreateEmployee(ctx context.Context, companyID string, in NewEmployee) (*model.Employee, error) {
	if in.EmployeeNumber == "" || in.PIN == "" || in.FirstName == "" || in.LastName == "" {
		return nil, &timeclock.ValidationError{Field: "employee", Message: "firstName, lastName, employeeId and pin are required"}
	}
	hash, err := security.HashSecret(in.PIN)
	if err != nil {
		return nil, err
	}
	department := in.Department
	if department == nil || *department == "" {
		department = utils.Ptr(DefaultDepartment)
	}

	employee := &model.Employee{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		EmployeeNumber: in.EmployeeNumber,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Role:           model.RoleEmployee,
		Department:     department,
		PinHash:        hash,
		Active:         true,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateEmployee(ctx, employee); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, ErrEmployeeExists
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return employee, nil
}

type EmployeeUpdate struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Department *string
	PIN        *string
	Active     *bool
}

func (s *Service) UpdateEmployee(ctx context.Context, companyID, id string, in EmployeeUpdate) error {
	patch := model.EmployeePatch{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Phone:      in.Phone,
		Department: in.Department,
		Active:     in.Active,
	}
	if in.PIN != nil && *in.PIN != "" {
		hash, err := security.HashSecret(*in.PIN)
		if err != nil {
			return err
		}
		patch.PinHash = &hash
	}
	if err := s.store.UpdateEmployee(ctx, companyID, id, patch); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}

// DeactivateEmployee blocks sign-in; entries are kept.
func (s *Service) DeactivateEmployee(ctx context.Context, companyID, id string) error {
	return s.UpdateEmployee(ctx, companyID, id, EmployeeUpdate{Active: utils.Ptr(false)})
}

type ExportResult struct {
	Filename string
	Content  []byte
	Entries  int
}

// ExportEntries renders the company's entries with clockIn in [from, to] as a
// workbook.
func (s *Service) ExportEntries(ctx context.Context, companyID string, from, to time.Time) (*ExportResult, error) {
	if from.After(to) {
		return nil, &timeclock.ValidationError{Field: "startDate", Message: "must not be after endDate"}
	}
	company, err := s.company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListCompanyEntries(ctx, companyID, EntryFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("list company entries: %w", err)
	}
	employees, err := s.store.ListEmployees(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	byID := make(map[string]model.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	settings := company.Settings.WithDefaults()
	loc := companyLocation(company)
	rows := utils.Map(entries, func(e model.TimeEntry) export.Row {
		row := export.Row{
			EmployeeName: UnknownEmployee,
			ClockIn:      e.ClockIn,
			ClockOut:     e.ClockOut,
			Minutes:      e.Duration,
			Notes:        utils.Format(e.AdminNotes),
		}
		if emp, ok := byID[e.EmployeeID]; ok {
			row.EmployeeName = emp.FullName()
			row.EmployeeNumber = emp.EmployeeNumber
		}
		return row
	})

	period := fmt.Sprintf("%s_%s", from.In(loc).Format("2006-01-02"), to.In(loc).Format("2006-01-02"))
	buf, err := export.Workbook(rows, export.Options{
		Title:             fmt.Sprintf("%s time entries %s", company.Name, strings.ReplaceAll(period, "_", " to ")),
		Location:          loc,
		OvertimeThreshold: settings.OvertimeThreshold,
	})
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Filename: fmt.Sprintf("%s_%s.xlsx", company.Code, period),
		Content:  buf.Bytes(),
		Entries:  len(rows),
	}, nil
}

func (s *Service) company(ctx context.Context, companyID string) (*model.Company, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	return company, nil
}

func (s *Service) employeeNames(ctx context.Context, companyID string) (map[string]string, error) {
	employees, err := s.store.ListEmployees(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return nameIndex(employees), nil
}

func nameIndex(employees []model.Employee) map[string]string {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.FullName()
	}
	return names
}

func nameOf(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return UnknownEmployee
}

func enrich(e model.TimeEntry, names map[string]string) Entry {
	out := Entry{TimeEntry: e, EmployeeName: nameOf(names, e.EmployeeID)}
	if e.ClockOut != nil {
		out.TotalHours = utils.Ptr(e.ClockOut.Sub(e.ClockIn).Hours())
	}
	return out
}

func companyLocation(c *model.Company) *time.Location {
	loc, err := time.LoadLocation(c.Settings.WithDefaults().Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// dayBounds returns the first and last instant of the calendar day of d in loc.
func dayBounds(d time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, day := d.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Millisecond)
}
