// Package export writes dashboard aggregates and the raw preview in
// downloadable formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/pm10dash/internal/analysis"
	"github.com/chrissnell/pm10dash/pkg/aqi"
)

const (
	HourlySheet = "Hourly"
	InfoSheet   = "About"
)

// MonthlySheet names the sheet holding monthly means for year
func MonthlySheet(year int) string {
	return fmt.Sprintf("Monthly %d", year)
}

// Workbook is the content of an aggregates export
type Workbook struct {
	Station string
	Period  string
	Year    int
	Hourly  []analysis.HourlyMean
	Monthly []analysis.MonthlyMean
}

// WriteWorkbook renders wb as an XLSX file. Groups without valid readings
// are written as empty cells.
func WriteWorkbook(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), HourlySheet); err != nil {
		return fmt.Errorf("error naming hourly sheet: %w", err)
	}
	if err := f.SetSheetRow(HourlySheet, "A1", &[]interface{}{"Hour", "Mean PM10 (µg/m³)", "Readings", "AQI", "Category"}); err != nil {
		return fmt.Errorf("error writing hourly header: %w", err)
	}
	for i, h := range wb.Hourly {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := append([]interface{}{h.Hour}, meanCells(h.Mean, h.Count)...)
		if err := f.SetSheetRow(HourlySheet, cell, &row); err != nil {
			return fmt.Errorf("error writing hour %d: %w", h.Hour, err)
		}
	}

	monthly := MonthlySheet(wb.Year)
	if _, err := f.NewSheet(monthly); err != nil {
		return fmt.Errorf("error creating monthly sheet: %w", err)
	}
	if err := f.SetSheetRow(monthly, "A1", &[]interface{}{"Month", "Mean PM10 (µg/m³)", "Readings", "AQI", "Category"}); err != nil {
		return fmt.Errorf("error writing monthly header: %w", err)
	}
	for i, m := range wb.Monthly {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := append([]interface{}{m.Month}, meanCells(m.Mean, m.Count)...)
		if err := f.SetSheetRow(monthly, cell, &row); err != nil {
			return fmt.Errorf("error writing month %d: %w", m.Month, err)
		}
	}

	if _, err := f.NewSheet(InfoSheet); err != nil {
		return fmt.Errorf("error creating info sheet: %w", err)
	}
	info := [][]interface{}{
		{"Station", wb.Station},
		{"Period", wb.Period},
		{"Year", wb.Year},
	}
	for i, row := range info {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(InfoSheet, cell, &row); err != nil {
			return fmt.Errorf("error writing info sheet: %w", err)
		}
	}

	return f.Write(w)
}

func meanCells(mean float64, count int) []interface{} {
	if count == 0 || math.IsNaN(mean) {
		return []interface{}{nil, 0, nil, nil}
	}
	idx := aqi.ForPM10(mean)
	return []interface{}{math.Round(mean*100) / 100, count, idx.Value, idx.Category}
}

// WritePreviewCSV writes the preview header and rows as CSV
func WritePreviewCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
