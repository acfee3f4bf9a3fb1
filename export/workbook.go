package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"sitepunch.app/sitepunch/utils"
)

const (
	EntriesSheet = "Time Entries"
	SummarySheet = "Summary"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timeLayout = "2006-01-02 15:04"
)

// Row is one time entry as it appears in the workbook.
type Row struct {
	EmployeeName   string
	EmployeeNumber string
	ClockIn        time.Time
	ClockOut       *time.Time
	Minutes        *int
	Notes          string
}

type Options struct {
	Title             string
	Location          *time.Location
	OvertimeThreshold float64
}

// Workbook renders rows into an .xlsx document with an entries sheet and a
// per-employee summary sheet.
func Workbook(rows []Row, opts Options) (*bytes.Buffer, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(EntriesSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	// entries
	f.SetCellValue(EntriesSheet, "A1", opts.Title)
	f.MergeCell(EntriesSheet, "A1", "G1")
	f.SetCellStyle(EntriesSheet, "A1", "A1", headerStyle)

	headers := []string{"Employee", "Employee ID", "Clock In", "Clock Out", "Minutes", "Hours", "Notes"}
	for i, h := range headers {
		f.SetCellValue(EntriesSheet, cell(i+1, 2), h)
	}
	f.SetCellStyle(EntriesSheet, "A2", "G2", headerStyle)
	f.SetColWidth(EntriesSheet, "A", "A", 24)
	f.SetColWidth(EntriesSheet, "B", "B", 14)
	f.SetColWidth(EntriesSheet, "C", "D", 18)
	f.SetColWidth(EntriesSheet, "G", "G", 40)

	type total struct {
		name    string
		number  string
		minutes int
		open    int
	}
	totals := map[string]*total{}

	for i, r := range rows {
		row := i + 3
		f.SetCellValue(EntriesSheet, cell(1, row), r.EmployeeName)
		f.SetCellValue(EntriesSheet, cell(2, row), r.EmployeeNumber)
		f.SetCellValue(EntriesSheet, cell(3, row), r.ClockIn.In(loc).Format(timeLayout))
		if r.ClockOut != nil {
			f.SetCellValue(EntriesSheet, cell(4, row), r.ClockOut.In(loc).Format(timeLayout))
		} else {
			f.SetCellValue(EntriesSheet, cell(4, row), "open")
		}
		if r.Minutes != nil {
			f.SetCellValue(EntriesSheet, cell(5, row), *r.Minutes)
			f.SetCellValue(EntriesSheet, cell(6, row), hours(*r.Minutes))
		}
		f.SetCellValue(EntriesSheet, cell(7, row), r.Notes)

		key := r.EmployeeNumber + "|" + r.EmployeeName
		t, ok := totals[key]
		if !ok {
			t = &total{name: r.EmployeeName, number: r.EmployeeNumber}
			totals[key] = t
		}
		if r.Minutes != nil {
			t.minutes += *r.Minutes
		} else {
			t.open++
		}
	}

	// summary
	summaryHeaders := []string{"Employee", "Employee ID", "Minutes", "Hours", "Open Entries", "Over Threshold"}
	for i, h := range summaryHeaders {
		f.SetCellValue(SummarySheet, cell(i+1, 1), h)
	}
	f.SetCellStyle(SummarySheet, "A1", "F1", headerStyle)
	f.SetColWidth(SummarySheet, "A", "A", 24)

	list := make([]*total, 0, len(totals))
	for _, t := range totals {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].name != list[j].name {
			return list[i].name < list[j].name
		}
		return list[i].number < list[j].number
	})
	for i, t := range list {
		row := i + 2
		h := hours(t.minutes)
		f.SetCellValue(SummarySheet, cell(1, row), t.name)
		f.SetCellValue(SummarySheet, cell(2, row), t.number)
		f.SetCellValue(SummarySheet, cell(3, row), t.minutes)
		f.SetCellValue(SummarySheet, cell(4, row), h)
		f.SetCellValue(SummarySheet, cell(5, row), t.open)
		over := opts.OvertimeThreshold > 0 && h > opts.OvertimeThreshold
		f.SetCellValue(SummarySheet, cell(6, row), utils.FormatBoolean(over, "yes", "no"))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func hours(minutes int) float64 {
	return float64(int(float64(minutes)/60*100+0.5)) / 100
}
