package helper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/export"
	"sitepunch.app/sitepunch/infrastructure/communication"
	"sitepunch.app/sitepunch/infrastructure/metrics"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/timeclock"
	"sitepunch.app/sitepunch/utils"
)

// ExportEvent is the scheduler payload. An empty company list exports every
// company.
type ExportEvent struct {
	Companies []string `json:"companies"`
	// Date is the last day of the period, yyyy-MM-dd. Defaults to yesterday in
	// each company's timezone.
	Date   string `json:"date"`
	DryRun bool   `json:"dryRun"`
}

type Companies interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	ListAdmins(ctx context.Context, companyID string) ([]model.Admin, error)
}

type Exporter interface {
	ExportEntries(ctx context.Context, companyID string, from, to time.Time) (*admin.ExportResult, error)
}

type FileWriter interface {
	WriteFile(ctx context.Context, key, contentType string, content []byte) error
}

type Sender interface {
	Send(ctx context.Context, email *communication.Email) (string, error)
}

type Job struct {
	Companies  Companies
	Exports    Exporter
	Files      FileWriter
	Mail       Sender
	Notify     communication.Notifier
	Logger     *zap.Logger
	EmailFrom  string
	WindowDays int
	Now        func() time.Time
}

type Result struct {
	Company    string `json:"company"`
	Key        string `json:"key,omitempty"`
	Entries    int    `json:"entries"`
	Recipients int    `json:"recipients"`
	Error      string `json:"error,omitempty"`
}

// Period returns the export range ending on the calendar day of end in loc:
// midnight windowDays-1 days earlier through the last instant of that day.
func Period(end time.Time, windowDays int, loc *time.Location) (time.Time, time.Time) {
	if windowDays <= 0 {
		windowDays = timeclock.DefaultWindowDays
	}
	y, m, d := end.In(loc).Date()
	last := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return last.AddDate(0, 0, -(windowDays - 1)), utils.EndOfDay(last)
}

func ObjectKey(companyCode string, end time.Time) string {
	return fmt.Sprintf("exports/%s/%s.xlsx", companyCode, end.Format(utils.DateLayout))
}

// Run exports each selected company. A failing company does not stop the
// others; the combined error lists every failure.
func (j *Job) Run(ctx context.Context, event ExportEvent) ([]Result, error) {
	companies, err := j.Companies.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	if len(event.Companies) > 0 {
		wanted := map[string]bool{}
		for _, code := range event.Companies {
			wanted[strings.ToLower(strings.TrimSpace(code))] = true
		}
		companies = utils.Filter(companies, func(c model.Company) bool { return wanted[c.Code] })
	}

	var failures []error
	results := make([]Result, 0, len(companies))
	for _, company := range companies {
		result, err := j.exportCompany(ctx, company, event)
		if err != nil {
			result.Error = err.Error()
			failures = append(failures, fmt.Errorf("%s: %w", company.Code, err))
			j.Logger.Error("pay-period export failed", zap.String("company", company.Code), zap.Error(err))
			metrics.ExportRuns.WithLabelValues("error").Inc()
		} else {
			j.Logger.Info("pay-period export done",
				zap.String("company", company.Code),
				zap.String("key", result.Key),
				zap.Int("entries", result.Entries),
				zap.Int("recipients", result.Recipients))
			metrics.ExportRuns.WithLabelValues("ok").Inc()
		}
		results = append(results, result)
	}

	if len(failures) > 0 {
		err := errors.Join(failures...)
		if nerr := j.Notify.Error(fmt.Sprintf("Pay-period export failed for %d of %d companies: %v", len(failures), len(companies), err)); nerr != nil {
			j.Logger.Warn("slack notification", zap.Error(nerr))
		}
		return results, err
	}
	if nerr := j.Notify.Info(fmt.Sprintf("Pay-period export finished for %d companies", len(companies))); nerr != nil {
		j.Logger.Warn("slack notification", zap.Error(nerr))
	}
	return results, nil
}

func (j *Job) exportCompany(ctx context.Context, company model.Company, event ExportEvent) (Result, error) {
	result := Result{Company: company.Code}

	loc, err := time.LoadLocation(company.Settings.WithDefaults().Timezone)
	if err != nil {
		loc = time.UTC
	}
	end := j.Now().In(loc).AddDate(0, 0, -1)
	if event.Date != "" {
		if end, err = utils.ParseDate(event.Date, loc); err != nil {
			return result, err
		}
	}
	from, to := Period(end, j.WindowDays, loc)

	out, err := j.Exports.ExportEntries(ctx, company.ID, from, to)
	if err != nil {
		return result, fmt.Errorf("export entries: %w", err)
	}
	result.Entries = out.Entries
	result.Key = ObjectKey(company.Code, to)

	admins, err := j.Companies.ListAdmins(ctx, company.ID)
	if err != nil {
		return result, fmt.Errorf("list admins: %w", err)
	}
	recipients := utils.Map(utils.Filter(admins, func(a model.Admin) bool { return a.Active }), func(a model.Admin) string { return a.Email })
	result.Recipients = len(recipients)

	if event.DryRun {
		return result, nil
	}
	if err := j.Files.WriteFile(ctx, result.Key, export.ContentType, out.Content); err != nil {
		return result, err
	}
	if len(recipients) == 0 {
		return result, nil
	}

	period := fmt.Sprintf("%s to %s", from.Format(utils.DateLayout), to.Format(utils.DateLayout))
	_, err = j.Mail.Send(ctx, &communication.Email{
		From:    j.EmailFrom,
		To:      recipients,
		Subject: fmt.Sprintf("%s time entries %s", company.Name, period),
		Text:    fmt.Sprintf("The time entry export for %s (%s) is attached. %d entries.", company.Name, period, out.Entries),
		Attachments: []communication.Attachment{{
			Filename:    out.Filename,
			ContentType: export.ContentType,
			Content:     out.Content,
		}},
	})
	if err != nil {
		return result, fmt.Errorf("email admins: %w", err)
	}
	return result, nil
}
