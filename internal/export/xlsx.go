// Package export writes item snapshots to spreadsheet files.
package export

import (
	"fmt"
	"time"

	"github.com/natefinch/atomic"
	"github.com/xuri/excelize/v2"

	"github.com/fentz26/radar/internal/models"
)

const (
	ItemsSheet   = "Items"
	SummarySheet = "Summary"
)

var itemHeaders = []any{"ID", "Name", "Category", "Status", "Essential", "RFID Tag", "Location", "Last Seen", "Description"}

// WriteXLSX writes items and their summary to a workbook at path. The file
// is replaced atomically so readers never see a partial workbook.
func WriteXLSX(path string, items []models.Item, stats models.Stats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ItemsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeItems(f, items); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, stats); err != nil {
		return err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	if err := atomic.WriteFile(path, buf); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeItems(f *excelize.File, items []models.Item) error {
	if err := setRow(f, ItemsSheet, 1, itemHeaders); err != nil {
		return err
	}
	for i, it := range items {
		seen := ""
		if !it.LastSeen.IsZero() {
			seen = it.LastSeen.UTC().Format(time.RFC3339)
		}
		row := []any{it.ID, it.Name, it.Category, string(it.Status), yesNo(it.IsEssential), it.RFID, it.Location, seen, it.Description}
		if err := setRow(f, ItemsSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := boldHeader(f, ItemsSheet, len(itemHeaders)); err != nil {
		return err
	}
	if err := f.SetColWidth(ItemsSheet, "B", "C", 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, st models.Stats) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Total", st.Total},
		{"Detected", st.Detected},
		{"Missing", st.Missing},
		{"Essential", st.Essential},
		{"Essential missing", st.EssentialMissing},
		{"Completion %", st.CompletionPercent},
		{},
		{"Category", "Count", "Percentage"},
	}
	for _, c := range st.Categories {
		rows = append(rows, []any{c.Category, c.Count, c.Percentage})
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	if err := boldHeader(f, SummarySheet, 2); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func boldHeader(f *excelize.File, sheet string, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
