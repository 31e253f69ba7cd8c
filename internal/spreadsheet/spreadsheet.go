// Package spreadsheet turns item and sales spreadsheets into import rows.
// A sheet starts with a header row naming the columns "Kode Barang",
// "Nama Barang" and "Jumlah"; column order does not matter.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
)

const (
	HeaderCode     = "Kode Barang"
	HeaderName     = "Nama Barang"
	HeaderQuantity = "Jumlah"
)

var (
	ErrEmptySpreadsheet = errors.New("spreadsheet is empty")
	ErrMissingColumn    = errors.New("required column missing")
	ErrInvalidRow       = errors.New("invalid spreadsheet row")
)

// Kind selects which columns are required.
type Kind int

const (
	// KindItems needs code, name and quantity (initial stock).
	KindItems Kind = iota
	// KindSales needs code and quantity; the name column is optional.
	KindSales
)

// ParseXLSX reads the first sheet of an .xlsx workbook.
func ParseXLSX(r io.Reader, kind Kind) ([]models.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySpreadsheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return ParseRows(rows, kind)
}

// ParseValues converts a Google Sheets value range.
func ParseValues(values [][]interface{}, kind Kind) ([]models.ImportRow, error) {
	rows := make([][]string, 0, len(values))
	for _, raw := range values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			if cell != nil {
				row[i] = fmt.Sprint(cell)
			}
		}
		rows = append(rows, row)
	}
	return ParseRows(rows, kind)
}

// ParseRows maps a header row plus data rows to import rows. Blank rows are
// skipped; a sheet without data rows is ErrEmptySpreadsheet.
func ParseRows(rows [][]string, kind Kind) ([]models.ImportRow, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySpreadsheet
	}

	cols, err := locateColumns(rows[0], kind)
	if err != nil {
		return nil, err
	}

	out := make([]models.ImportRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2

		parsed := models.ImportRow{
			Code: cell(row, cols.code),
			Name: cell(row, cols.name),
		}
		if parsed.Code == "" {
			return nil, fmt.Errorf("%w: row %d: empty %s", ErrInvalidRow, line, HeaderCode)
		}
		if kind == KindItems && parsed.Name == "" {
			return nil, fmt.Errorf("%w: row %d: empty %s", ErrInvalidRow, line, HeaderName)
		}

		qty, err := parseQuantity(cell(row, cols.quantity))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %s: %v", ErrInvalidRow, line, HeaderQuantity, err)
		}
		parsed.Quantity = qty

		out = append(out, parsed)
	}

	if len(out) == 0 {
		return nil, ErrEmptySpreadsheet
	}
	return out, nil
}

type columns struct {
	code, name, quantity int
}

func locateColumns(header []string, kind Kind) (columns, error) {
	cols := columns{code: -1, name: -1, quantity: -1}
	for i, h := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), HeaderCode):
			cols.code = i
		case strings.EqualFold(strings.TrimSpace(h), HeaderName):
			cols.name = i
		case strings.EqualFold(strings.TrimSpace(h), HeaderQuantity):
			cols.quantity = i
		}
	}

	if cols.code < 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, HeaderCode)
	}
	if cols.quantity < 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, HeaderQuantity)
	}
	if kind == KindItems && cols.name < 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, HeaderName)
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseQuantity accepts integers, including whole floats such as "12.0" that
// spreadsheet exports produce. An empty cell is zero.
func parseQuantity(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", raw)
	}
	return int(f), nil
}
