// Package excel reads the reference directory workbook and writes ticket
// exports with excelize.
package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/ports"
)

// Positional header labels of the directory workbook.
const (
	LabelRegional = "8"
	LabelStore    = "1"
	LabelLeader   = "12"
	LabelDate     = "4"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"01-02-06",
	time.RFC3339,
}

// Feed loads directory entries from the first sheet of an .xlsx workbook.
type Feed struct {
	path      string
	headerRow int
	logger    *zap.Logger
}

var _ ports.DirectoryFeed = (*Feed)(nil)

// NewFeed creates a feed reader. headerRow is the zero-based index of the
// row holding the column labels.
func NewFeed(path string, headerRow int, logger *zap.Logger) *Feed {
	return &Feed{path: path, headerRow: headerRow, logger: logger.Named("directory_feed")}
}

// Load reads the whole workbook. Rows with an unreadable date are skipped.
func (f *Feed) Load(ctx context.Context) ([]domain.DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := excelize.OpenFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			f.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", f.path)
	}

	rows, err := file.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) <= f.headerRow {
		return nil, fmt.Errorf("%s: header row %d not found", f.path, f.headerRow+1)
	}

	cols, err := resolveColumns(rows[f.headerRow])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}

	entries := make([]domain.DirectoryEntry, 0, len(rows)-f.headerRow-1)
	skipped := 0
	for _, row := range rows[f.headerRow+1:] {
		date, ok := parseDate(cell(row, cols.date))
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, domain.DirectoryEntry{
			Regional:  cell(row, cols.regional),
			Store:     cell(row, cols.store),
			Leader:    cell(row, cols.leader),
			ValidDate: date,
		})
	}

	if skipped > 0 {
		f.logger.Debug("skipped rows without a valid date", zap.Int("rows", skipped))
	}
	return entries, nil
}

type columns struct {
	regional, store, leader, date int
}

func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, label := range header {
		key := strings.ToUpper(strings.TrimSpace(label))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	var missing []string
	lookup := func(label string) int {
		i, ok := index[label]
		if !ok {
			missing = append(missing, label)
		}
		return i
	}

	cols := columns{
		regional: lookup(LabelRegional),
		store:    lookup(LabelStore),
		leader:   lookup(LabelLeader),
		date:     lookup(LabelDate),
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("missing columns %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// cell returns the value at i, or "" for short rows.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// parseDate accepts Excel serial numbers and the common text layouts.
func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return domain.DateOf(t), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return domain.DateOf(t), true
		}
	}
	return time.Time{}, false
}
