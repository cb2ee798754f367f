package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
	"github.com/arnavshah/callup-allocator-go/pkg/roster"
)

// DefaultSheet is the sheet the signup form exports its exact answers to
const DefaultSheet = "Formulärsvar 1 (exakt)"

// ReadTable loads one sheet from an .xlsx workbook or a .csv file.
// Any failure is returned as a *models.InputReadError.
func ReadTable(path, sheet string) (*roster.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.InputReadError{Path: path, Sheet: sheet, Err: err}
	}
	defer f.Close()

	t, err := ReadTableFrom(f, filepath.Ext(path), sheet)
	if err != nil {
		var readErr *models.InputReadError
		if errors.As(err, &readErr) {
			readErr.Path = path
			return nil, readErr
		}
		return nil, &models.InputReadError{Path: path, Sheet: sheet, Err: err}
	}
	return t, nil
}

// ReadTableFrom reads a table from a stream; ext selects the format
func ReadTableFrom(r io.Reader, ext, sheet string) (*roster.Table, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return readCSV(r, sheet)
	case ".xlsx", ".xlsm":
		return readXLSX(r, sheet)
	default:
		return nil, &models.InputReadError{Sheet: sheet, Err: fmt.Errorf("unsupported file type %q", ext)}
	}
}

func readXLSX(r io.Reader, sheet string) (*roster.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &models.InputReadError{Sheet: sheet, Err: err}
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &models.InputReadError{Sheet: sheet, Err: fmt.Errorf("sheet not found (have %s)", strings.Join(f.GetSheetList(), ", "))}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &models.InputReadError{Sheet: sheet, Err: err}
	}
	return toTable(sheet, rows)
}

func readCSV(r io.Reader, sheet string) (*roster.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &models.InputReadError{Sheet: sheet, Err: err}
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	return toTable(sheet, rows)
}

func toTable(sheet string, rows [][]string) (*roster.Table, error) {
	if len(rows) == 0 {
		return nil, &models.InputReadError{Sheet: sheet, Err: errors.New("sheet is empty")}
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// Spreadsheet rows drop trailing empty cells.
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		body = append(body, row)
	}

	return &roster.Table{Sheet: sheet, Header: header, Rows: body}, nil
}
