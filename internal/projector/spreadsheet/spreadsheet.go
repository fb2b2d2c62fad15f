// Package spreadsheet fills the company expense-report template with the
// entries of the weekly ledger.
package spreadsheet

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"notaspese/internal/core"
)

// Template layout.
const (
	DefaultTemplatePath = "modello_spese.xlsx"

	WeekMarker    = "SETTIMANA"
	labelRow      = 1
	labelFirstCol = "C"
	labelLastCol  = "J"
	fallbackCell  = "C1"

	firstDataRow  = 4
	insertAtRow   = 14
	insertedRows  = 3
	lastDataRow   = 16
	totalCell     = "J17"
	dateColumn    = "A"
	descColumn    = "B"
	rowTotalCol   = "J"
	borderFromCol = "A"
	borderToCol   = "J"

	// MaxEntries is the number of data rows available once the blank rows
	// are inserted.
	MaxEntries = lastDataRow - firstDataRow + 1
)

// Source is the ledger view the projector reads.
type Source interface {
	Entries() []core.Entry
	Total() core.Money
}

type Projector struct {
	templatePath string
}

func New(templatePath string) *Projector {
	if templatePath == "" {
		templatePath = DefaultTemplatePath
	}
	return &Projector{templatePath: templatePath}
}

// WeekLabel is the header written over the week marker.
func WeekLabel(week, year int) string {
	return fmt.Sprintf("NOTA SPESE - SETTIMANA %d / %d", week, year)
}

// Filename is the download name for the week of first.
func Filename(first core.Entry) string {
	week, year := first.Date.Week()
	return fmt.Sprintf("nota_spese_%d_settimana_%02d.xlsx", year, week)
}

// Render fills a fresh copy of the template and returns the workbook bytes.
// Nothing is written to disk.
func (p *Projector) Render(src Source) ([]byte, error) {
	entries := src.Entries()
	if len(entries) == 0 {
		return nil, core.ErrEmptyLedger
	}
	if len(entries) > MaxEntries {
		return nil, fmt.Errorf("%w: %d entries, %d rows available", core.ErrTooManyEntries, len(entries), MaxEntries)
	}

	f, err := p.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	w := &writer{f: f, sheet: sheet}

	if err := f.InsertRows(sheet, insertAtRow, insertedRows); err != nil {
		return nil, fmt.Errorf("insert rows: %w", err)
	}

	// The first inserted entry names the week, even when later entries are
	// older.
	week, year := entries[0].Date.Week()
	labelCell, err := w.findMarker()
	if err != nil {
		return nil, err
	}
	if err := w.setBold(labelCell, WeekLabel(week, year), true); err != nil {
		return nil, err
	}

	for i, e := range entries {
		if err := w.writeEntry(firstDataRow+i, e); err != nil {
			return nil, fmt.Errorf("write entry %d: %w", i, err)
		}
	}

	if err := w.borders(); err != nil {
		return nil, err
	}

	if err := w.setBold(totalCell, src.Total().Euros(), true); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	slog.Info("Spreadsheet rendered",
		"entries", len(entries),
		"week", week,
		"year", year,
		"label_cell", labelCell,
		"bytes", buf.Len())
	return buf.Bytes(), nil
}

func (p *Projector) open() (*excelize.File, error) {
	if _, err := os.Stat(p.templatePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &core.TemplateNotFoundError{Path: p.templatePath, Err: err}
		}
		return nil, fmt.Errorf("stat template: %w", err)
	}
	f, err := excelize.OpenFile(p.templatePath)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", p.templatePath, err)
	}
	return f, nil
}

type writer struct {
	f     *excelize.File
	sheet string
}

// findMarker returns the first header cell containing the week marker, or
// the fallback cell.
func (w *writer) findMarker() (string, error) {
	from, _ := excelize.ColumnNameToNumber(labelFirstCol)
	to, _ := excelize.ColumnNameToNumber(labelLastCol)
	for col := from; col <= to; col++ {
		cell, err := excelize.CoordinatesToCellName(col, labelRow)
		if err != nil {
			return "", err
		}
		v, err := w.f.GetCellValue(w.sheet, cell)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", cell, err)
		}
		if strings.Contains(strings.ToUpper(v), WeekMarker) {
			return cell, nil
		}
	}
	slog.Warn("Week marker not found in template header, using fallback cell",
		"marker", WeekMarker, "cell", fallbackCell)
	return fallbackCell, nil
}

func (w *writer) writeEntry(row int, e core.Entry) error {
	amount := e.Amount.Euros()
	cells := []struct {
		col   string
		value any
	}{
		{dateColumn, e.Date.Display()},
		{descColumn, e.Description},
		{e.Category.Column(), amount},
		{rowTotalCol, amount},
	}
	for _, c := range cells {
		if err := w.setBold(fmt.Sprintf("%s%d", c.col, row), c.value, false); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) borders() error {
	from, _ := excelize.ColumnNameToNumber(borderFromCol)
	to, _ := excelize.ColumnNameToNumber(borderToCol)
	for row := firstDataRow; row <= lastDataRow; row++ {
		for col := from; col <= to; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return err
			}
			if err := w.restyle(cell, func(s *excelize.Style) { s.Border = thinBorder() }); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) setBold(cell string, value any, bold bool) error {
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return w.restyle(cell, func(s *excelize.Style) {
		if s.Font == nil {
			s.Font = &excelize.Font{}
		}
		s.Font.Bold = bold
	})
}

// restyle applies change on top of the cell's current template style.
func (w *writer) restyle(cell string, change func(*excelize.Style)) error {
	id, err := w.f.GetCellStyle(w.sheet, cell)
	if err != nil {
		return fmt.Errorf("get style %s: %w", cell, err)
	}
	style, err := w.f.GetStyle(id)
	if err != nil {
		return fmt.Errorf("read style %d: %w", id, err)
	}
	if style == nil {
		style = &excelize.Style{}
	}
	change(style)
	next, err := w.f.NewStyle(style)
	if err != nil {
		return fmt.Errorf("new style for %s: %w", cell, err)
	}
	return w.f.SetCellStyle(w.sheet, cell, cell, next)
}

func thinBorder() []excelize.Border {
	sides := []string{"left", "top", "right", "bottom"}
	out := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		out = append(out, excelize.Border{Type: side, Color: "000000", Style: 1})
	}
	return out
}
