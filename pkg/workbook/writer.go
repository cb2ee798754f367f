package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
	"github.com/arnavshah/callup-allocator-go/pkg/roster"
)

// Write saves the allocation workbook to path
func Write(path string, r *roster.Roster, res *models.AllocationResult, cfg models.AllocationConfig) (err error) {
	f, err := Build(r, res, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteTo streams the allocation workbook, e.g. as an HTTP download
func WriteTo(w io.Writer, r *roster.Roster, res *models.AllocationResult, cfg models.AllocationConfig) (err error) {
	f, err := Build(r, res, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build creates the in-memory workbook: the annotated roster followed by one
// sheet per match. The caller owns the returned file and must close it.
func Build(r *roster.Roster, res *models.AllocationResult, cfg models.AllocationConfig) (*excelize.File, error) {
	f := excelize.NewFile()

	mainName := r.Table.Sheet
	if mainName == "" {
		mainName = DefaultSheet
	}
	mainName = SanitizeSheetName(mainName)

	if err := fill(f, mainName, r, res, cfg); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, mainName string, r *roster.Roster, res *models.AllocationResult, cfg models.AllocationConfig) error {
	if err := f.SetSheetName(f.GetSheetName(0), mainName); err != nil {
		return fmt.Errorf("name main sheet: %w", err)
	}

	header, rows := MainSheet(r, res)
	if err := setRow(f, mainName, 1, toAny(header)); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, mainName, i+2, row); err != nil {
			return err
		}
	}

	namer := NewSheetNamer(mainName)
	for _, asgn := range res.Matches {
		name := namer.Name(asgn.Match.Label)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		for i, row := range MatchSheet(asgn, cfg) {
			if err := setRow(f, name, i+1, toAny(row)); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
