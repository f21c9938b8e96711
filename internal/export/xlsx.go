// Package export renders the outward-facing artifacts: the monthly
// statistics workbook, the abnormal-event Word report and the event-folder
// ZIP download.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// StatsInput is everything the statistics workbook needs.
type StatsInput struct {
	// Month is the YYYY-MM selector the stats were computed for.
	Month string
	// Workdays are the filtered YYYY-MM-DD dates of the month.
	Workdays []string
	// Buildings is the roster, in display order.
	Buildings []string
	// Uploaded reports whether a building has an upload folder for a date.
	Uploaded func(building, date string) bool
	// Holidays is the normalized holiday set that was excluded.
	Holidays []string
}

// Cell marks for the per-day matrix.
const (
	markUploaded = "✅"
	markMissing  = "⛔"
)

// StatsWorkbook builds the monthly upload-compliance workbook: a per-building
// summary sheet, a building-by-workday matrix and a parameters sheet.
func StatsWorkbook(in StatsInput) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(
		&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{
				Type:    "pattern",
				Color:   []string{"#E6F3FF"},
				Pattern: 1,
			},
		},
	)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to create header style")
	}

	if err = writeSummarySheet(f, in, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err = writeDailySheet(f, in, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err = writeParamsSheet(f, in); err != nil {
		f.Close()
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeSummarySheet(f *excelize.File, in StatsInput, headerStyle int) error {
	const sheet = "摘要"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return errors.Wrap(err, "failed to create summary sheet")
	}
	f.SetActiveSheet(index)

	headers := []string{"大樓", "已上傳天數", "應上班天數", "上傳率(%)"}
	if err = writeHeaderRow(f, sheet, headers, headerStyle); err != nil {
		return err
	}
	if err = f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return errors.Wrap(err, "failed to set column width")
	}
	if err = f.SetColWidth(sheet, "B", "C", 16); err != nil {
		return errors.Wrap(err, "failed to set column width")
	}

	denom := len(in.Workdays)
	for row, b := range in.Buildings {
		uploaded := 0
		for _, d := range in.Workdays {
			if in.Uploaded(b, d) {
				uploaded++
			}
		}
		rate := 0.0
		if denom > 0 {
			// one decimal place, like the report this replaces
			rate = float64(int(float64(uploaded)/float64(denom)*1000+0.5)) / 10
		}
		values := []any{b, uploaded, denom, rate}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return errors.Wrap(err, "failed to convert coordinates")
			}
			if err = f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "failed to set cell %s", cell)
			}
		}
	}
	return nil
}

func writeDailySheet(f *excelize.File, in StatsInput, headerStyle int) error {
	const sheet = "逐日進度"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrap(err, "failed to create daily sheet")
	}

	headers := append([]string{"大樓"}, in.Workdays...)
	if err := writeHeaderRow(f, sheet, headers, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return errors.Wrap(err, "failed to set column width")
	}

	for row, b := range in.Buildings {
		values := make([]any, 0, len(in.Workdays)+1)
		values = append(values, b)
		for _, d := range in.Workdays {
			mark := markMissing
			if in.Uploaded(b, d) {
				mark = markUploaded
			}
			values = append(values, mark)
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return errors.Wrap(err, "failed to convert coordinates")
			}
			if err = f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "failed to set cell %s", cell)
			}
		}
	}
	return nil
}

func writeParamsSheet(f *excelize.File, in StatsInput) error {
	const sheet = "參數"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrap(err, "failed to create params sheet")
	}
	excluded := strings.Join(in.Holidays, ",")
	if excluded == "" {
		excluded = "無"
	}
	rows := [][]any{
		{"month", in.Month},
		{"generatedAt", time.Now().UTC().Format(time.RFC3339)},
		{"excludedHolidays", excluded},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return errors.Wrap(err, "failed to convert coordinates")
			}
			if err = f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "failed to set cell %s", cell)
			}
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "failed to convert coordinates")
		}
		if err = f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrapf(err, "failed to set header cell %s", cell)
		}
		if err = f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return errors.Wrapf(err, "failed to set header style on %s", cell)
		}
	}
	return nil
}

// StatsFilename is the download name for the workbook of the given month.
func StatsFilename(month string) string {
	return fmt.Sprintf("上傳統計_%s.xlsx", month)
}
