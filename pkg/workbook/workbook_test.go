package workbook

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/callup-allocator-go/pkg/allocator"
	"github.com/arnavshah/callup-allocator-go/pkg/models"
	"github.com/arnavshah/callup-allocator-go/pkg/roster"
)

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "Lag A- (Hemma) 12-10", SanitizeSheetName("Lag A: (Hemma) 12/10"))
	assert.Equal(t, "a-b-c-d-e-f", SanitizeSheetName(`a\b?c*d[e]f`))

	long := strings.Repeat("x", 40) + " (Home)"
	assert.Equal(t, strings.Repeat("x", 28)+"...", SanitizeSheetName(long))

	// Runes, not bytes, are counted.
	assert.Equal(t, strings.Repeat("å", 28)+"...", SanitizeSheetName(strings.Repeat("å", 32)))
	assert.Equal(t, strings.Repeat("å", 31), SanitizeSheetName(strings.Repeat("å", 31)))
}

func TestSheetNamer(t *testing.T) {
	n := NewSheetNamer("Main")

	assert.Equal(t, "main-2", n.Name("main"))
	assert.Equal(t, "Game (Home)", n.Name("Game (Home)"))
	assert.Equal(t, "Game (Home)-2", n.Name("Game (Home)"))

	first := n.Name(strings.Repeat("a", 40) + " (Home)")
	second := n.Name(strings.Repeat("a", 40) + " (Away)")
	third := n.Name(strings.Repeat("a", 40) + " (Home) 2")
	assert.Equal(t, strings.Repeat("a", 28)+"...", first)
	assert.Equal(t, strings.Repeat("a", 27)+"-2", second)
	assert.Equal(t, strings.Repeat("a", 27)+"-3", third)
}

func TestMatchSheet(t *testing.T) {
	asgn := models.MatchAssignment{
		Goalkeepers:      []string{"A", "B"},
		Line1:            []string{"C", "D", "E", "F"},
		Line2:            []string{"G"},
		PossibleReserves: []string{"H"},
	}

	rows := MatchSheet(asgn, models.DefaultAllocationConfig())
	assert.Equal(t, [][]string{
		{"GOALKEEPERS (max 1)", "A", "B", "", ""},
		{"LINE 1 (FIELD)", "C", "D", "E", "F"},
		{"LINE 2 (FIELD)", "G", "", "", ""},
		{"POSSIBLE RESERVES", "H", "", "", ""},
	}, rows)

	asgn.ReserveLine = []string{"I", "J", "K", "L"}
	rows = MatchSheet(asgn, models.AllocationConfig{GKCap: 2})
	require.Len(t, rows, 5)
	assert.Equal(t, "GOALKEEPERS (max 2)", rows[0][0])
	assert.Equal(t, []string{RowReserveLine, "I", "J", "K", "L"}, rows[3])
}

func signupRoster(t *testing.T) *roster.Roster {
	t.Helper()
	tbl := &roster.Table{
		Sheet:  DefaultSheet,
		Header: []string{"Spelare", "Barnets namn", "Målvakt", "Reserv", "Kommentar", "Match 1 (Hemma)", "Match 2 (Borta)"},
		Rows: [][]string{
			{"1", "Alva", "Ja", "nej", "", "Ja", "Ja"},
			{"2", "Bo", "nej", "nej", "sjuk?", "Ja", "Nej"},
			{"3", "Cleo", "nej", "ja", "", "Ja", "Ja"},
		},
	}
	r, err := roster.Parse(tbl, roster.DefaultColumns())
	require.NoError(t, err)
	return r
}

func TestMainSheet(t *testing.T) {
	r := signupRoster(t)
	res, err := allocator.Allocate(r.Players, r.Matches, models.DefaultAllocationConfig())
	require.NoError(t, err)

	header, rows := MainSheet(r, res)
	assert.Equal(t, []string{
		"Spelare", "Barnets namn", "Målvakt", "Reserv",
		ColHomeCallUps, ColAwayCallUps, ColTotalCallUps, ColReserveCallUps, ColGoalkeeper,
		ColAllHome, ColAllAway,
		"Match 1 (Hemma)", "Match 2 (Borta)",
	}, header)

	require.Len(t, rows, 3)
	assert.Equal(t, []any{1, "Alva", "Ja", "nej", 1, 1, 2, 0, 2, 1, 1, "Ja", "Ja"}, rows[0])
	assert.Equal(t, []any{2, "Bo", "nej", "nej", 1, 0, 1, 0, 0, 1, 0, "Ja", "Nej"}, rows[1])

	require.Len(t, res.Violations, 2)
	assert.Equal(t, "Alva", res.Violations[0].PlayerName)
	assert.Equal(t, "Cleo", res.Violations[1].PlayerName)
}

func TestWriteTo_RoundTrip(t *testing.T) {
	r := signupRoster(t)
	cfg := models.DefaultAllocationConfig()
	res, err := allocator.Allocate(r.Players, r.Matches, cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, r, res, cfg))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheet, "Match 1 (Hemma)", "Match 2 (Borta)"}, f.GetSheetList())

	mainRows, err := f.GetRows(DefaultSheet)
	require.NoError(t, err)
	require.Len(t, mainRows, 4)
	assert.Equal(t, "Home call-ups", mainRows[0][4])
	assert.Equal(t, []string{"3", "Cleo", "nej", "ja", "1", "1", "2", "0", "2", "1", "1", "Ja", "Ja"}, mainRows[3])

	matchRows, err := f.GetRows("Match 1 (Hemma)")
	require.NoError(t, err)
	require.Len(t, matchRows, 4)
	assert.Equal(t, []string{"GOALKEEPERS (max 1)", "Alva", "Cleo"}, matchRows[0])
	assert.Equal(t, "LINE 1 (FIELD)", matchRows[1][0])
	assert.Equal(t, "Bo", matchRows[1][1])
	assert.Equal(t, RowPossibleReserves, matchRows[3][0])
}

func TestWrite_File(t *testing.T) {
	r := signupRoster(t)
	cfg := models.DefaultAllocationConfig()
	res, err := allocator.Allocate(r.Players, r.Matches, cfg)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Write(out, r, res, cfg))

	tbl, err := ReadTable(out, DefaultSheet)
	require.NoError(t, err)
	assert.Equal(t, "Barnets namn", tbl.Header[1])
	assert.Len(t, tbl.Rows, 3)
}

func TestReadTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	content := "\ufeffName,GK,Reserve,Game 1 (Home)\nAda,yes,no,yes\nBen,no\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := ReadTable(path, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSheet, tbl.Sheet)
	assert.Equal(t, []string{"Name", "GK", "Reserve", "Game 1 (Home)"}, tbl.Header)
	assert.Equal(t, [][]string{{"Ada", "yes", "no", "yes"}, {"Ben", "no", "", ""}}, tbl.Rows)
}

func TestReadTable_XLSXSheetSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Svar"))
	require.NoError(t, f.SetSheetRow("Svar", "A1", &[]any{"Name", "GK", "Reserve", "G (Away)"}))
	require.NoError(t, f.SetSheetRow("Svar", "A2", &[]any{"Ada", "Ja"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := ReadTable(path, "Svar")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ada", "Ja", "", ""}}, tbl.Rows)

	_, err = ReadTable(path, "Missing")
	var readErr *models.InputReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, path, readErr.Path)
	assert.Contains(t, readErr.Error(), "sheet not found")
}

func TestReadTable_Errors(t *testing.T) {
	var readErr *models.InputReadError

	_, err := ReadTable(filepath.Join(t.TempDir(), "nope.xlsx"), DefaultSheet)
	require.ErrorAs(t, err, &readErr)

	path := filepath.Join(t.TempDir(), "roster.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err = ReadTable(path, "")
	require.ErrorAs(t, err, &readErr)
	assert.Contains(t, err.Error(), "unsupported file type")

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadTable(empty, "")
	require.ErrorAs(t, err, &readErr)
}
