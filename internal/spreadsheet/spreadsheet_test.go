package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, ref, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseXLSXItems(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"Kode Barang", "Nama Barang", "Jumlah"},
		[]interface{}{"A1", "Gula", 10},
		[]interface{}{"", "", ""},
		[]interface{}{"B2", "Kopi", 3},
	)

	rows, err := ParseXLSX(buf, KindItems)
	require.NoError(t, err)
	assert.Equal(t, []models.ImportRow{
		{Code: "A1", Name: "Gula", Quantity: 10},
		{Code: "B2", Name: "Kopi", Quantity: 3},
	}, rows)
}

func TestParseXLSXHeaderOnlyIsEmpty(t *testing.T) {
	buf := workbook(t, []interface{}{"Kode Barang", "Nama Barang", "Jumlah"})

	_, err := ParseXLSX(buf, KindItems)
	assert.ErrorIs(t, err, ErrEmptySpreadsheet)
}

func TestParseRowsSalesAllowsMissingName(t *testing.T) {
	rows, err := ParseRows([][]string{
		{"Jumlah", "Kode Barang"},
		{"2", "A1"},
		{"4.0", " B2 "},
	}, KindSales)
	require.NoError(t, err)
	assert.Equal(t, []models.ImportRow{
		{Code: "A1", Quantity: 2},
		{Code: "B2", Quantity: 4},
	}, rows)
}

func TestParseRowsErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		kind Kind
		want error
	}{
		{"no rows", nil, KindSales, ErrEmptySpreadsheet},
		{"missing code column", [][]string{{"Nama Barang", "Jumlah"}, {"x", "1"}}, KindSales, ErrMissingColumn},
		{"missing name column for items", [][]string{{"Kode Barang", "Jumlah"}, {"x", "1"}}, KindItems, ErrMissingColumn},
		{"fractional quantity", [][]string{{"Kode Barang", "Jumlah"}, {"x", "1.5"}}, KindSales, ErrInvalidRow},
		{"text quantity", [][]string{{"Kode Barang", "Jumlah"}, {"x", "lima"}}, KindSales, ErrInvalidRow},
		{"empty code", [][]string{{"Kode Barang", "Jumlah"}, {"", "1"}}, KindSales, ErrInvalidRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRows(tt.rows, tt.kind)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseValuesFromSheets(t *testing.T) {
	rows, err := ParseValues([][]interface{}{
		{"Kode Barang", "Nama Barang", "Jumlah"},
		{"A1", "Gula", "7"},
		{"B2", "Kopi", float64(2)},
	}, KindItems)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 7, rows[0].Quantity)
	assert.Equal(t, 2, rows[1].Quantity)
}
