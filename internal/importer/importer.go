// Package importer turns raw bank spreadsheet exports into normalized
// statement rows. Parsing is a pure function of the input bytes: the same
// file always yields the same rows and the same errors, and a bad row is
// reported rather than aborting the file.
package importer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

// variant describes one bank export layout: the header columns that must
// be present (normalized form) and the decoder for a data row.
type variant struct {
	required []string
	decode   func(cells map[string]string) (model.StatementRow, error)
}

// Parse converts spreadsheet bytes into statement rows plus row-level
// errors. Only .xlsx input is accepted; anything else yields zero rows and
// a single file-level error at row 0. The bank format is dispatched
// exhaustively so adding a format without a decoder fails loudly.
func Parse(data []byte, filename string, format model.BankFormat) ([]model.StatementRow, []model.RowError) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".xlsx" {
		return nil, []model.RowError{{RowNumber: 0, Message: fmt.Sprintf("unsupported file type %q: only .xlsx exports are supported", ext)}}
	}

	var v variant
	switch format {
	case model.BankFormatSwedbank:
		v = swedbankVariant()
	case model.BankFormatSEB:
		v = sebVariant()
	case model.BankFormatCircleK:
		v = circleKVariant()
	default:
		return nil, []model.RowError{{RowNumber: 0, Message: fmt.Sprintf("unknown bank format %q", format)}}
	}

	grid, err := readSheet(data)
	if err != nil {
		return nil, []model.RowError{{RowNumber: 0, Message: fmt.Sprintf("reading spreadsheet: %v", err)}}
	}
	return parseGrid(grid, v)
}

// readSheet loads the first worksheet as a cell grid.
func readSheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheet)
}

func parseGrid(grid [][]string, v variant) ([]model.StatementRow, []model.RowError) {
	headerIdx, cols := findHeader(grid, v.required)
	if headerIdx < 0 {
		msg := fmt.Sprintf("expected header not found (need columns: %s)", strings.Join(v.required, ", "))
		return nil, []model.RowError{{RowNumber: 0, Message: msg}}
	}

	var rows []model.StatementRow
	var errs []model.RowError
	for i := headerIdx + 1; i < len(grid); i++ {
		raw := grid[i]
		if isSummaryRow(raw) {
			continue
		}

		cells := make(map[string]string, len(cols))
		empty := true
		for name, col := range cols {
			val := ""
			if col < len(raw) {
				val = strings.TrimSpace(raw[col])
			}
			cells[name] = val
			if val != "" {
				empty = false
			}
		}
		if empty {
			continue
		}

		row, err := v.decode(cells)
		if err != nil {
			errs = append(errs, model.RowError{RowNumber: i + 1, Message: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	return rows, errs
}

// findHeader scans for the first row containing every required column name
// (normalized). Returns the row index and a mapping of the required names
// to their columns, or -1 when no row fingerprints as the header.
func findHeader(grid [][]string, required []string) (int, map[string]int) {
	for i, raw := range grid {
		all := make(map[string]int)
		for col, cell := range raw {
			n := normalizeCell(cell)
			if n == "" {
				continue
			}
			if _, seen := all[n]; !seen {
				all[n] = col
			}
		}

		cols := make(map[string]int, len(required))
		for _, name := range required {
			col, ok := all[name]
			if !ok {
				cols = nil
				break
			}
			cols[name] = col
		}
		if cols != nil {
			return i, cols
		}
	}
	return -1, nil
}
