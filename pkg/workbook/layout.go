package workbook

import (
	"fmt"
	"strconv"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
	"github.com/arnavshah/callup-allocator-go/pkg/roster"
)

// Overview and reference column headers on the main sheet
const (
	ColHomeCallUps    = "Home call-ups"
	ColAwayCallUps    = "Away call-ups"
	ColTotalCallUps   = "Total call-ups"
	ColReserveCallUps = "Reserve call-ups"
	ColGoalkeeper     = "Goalkeeper games"
	ColAllHome        = "All home matches"
	ColAllAway        = "All away matches"
)

// Row labels on the per-match sheets
const (
	RowLine1            = "LINE 1 (FIELD)"
	RowLine2            = "LINE 2 (FIELD)"
	RowReserveLine      = "LINE 3 (RESERVE)"
	RowPossibleReserves = "POSSIBLE RESERVES"
)

// GoalkeeperRowLabel names the goalkeeper row with the configured cap
func GoalkeeperRowLabel(cfg models.AllocationConfig) string {
	return fmt.Sprintf("GOALKEEPERS (max %d)", cfg.GKCap)
}

// MainSheet lays out the annotated roster: source identity and flag columns,
// computed overview columns, reference totals, then the match columns.
func MainSheet(r *roster.Roster, res *models.AllocationResult) (header []string, rows [][]any) {
	var sourceCols []int
	for _, col := range []int{r.IDColumn, r.NameColumn, r.GoalkeeperColumn, r.ReserveColumn} {
		if col >= 0 {
			sourceCols = append(sourceCols, col)
		}
	}

	for _, col := range sourceCols {
		header = append(header, r.Table.Header[col])
	}
	header = append(header,
		ColHomeCallUps, ColAwayCallUps, ColTotalCallUps, ColReserveCallUps, ColGoalkeeper,
		ColAllHome, ColAllAway,
	)
	for _, col := range r.MatchColumns {
		header = append(header, r.Table.Header[col])
	}

	stats := make(map[int]models.Counters, len(res.Stats))
	for _, s := range res.Stats {
		stats[s.PlayerID] = s.Counters
	}

	for _, p := range r.Players {
		c := stats[p.ID]
		row := make([]any, 0, len(header))
		for _, col := range sourceCols {
			row = append(row, cellValue(r.Table.Cell(p.Row, col)))
		}
		row = append(row,
			c.BaseHome, c.BaseAway, c.BaseHome+c.BaseAway, c.ReserveCalls, c.GKAssignments,
			c.HomeTotal, c.AwayTotal,
		)
		for _, col := range r.MatchColumns {
			row = append(row, r.Table.Cell(p.Row, col))
		}
		rows = append(rows, row)
	}
	return header, rows
}

type labelledRow struct {
	label string
	names []string
}

// MatchSheet lays out one match as labelled rows padded to a common width.
// The reserve line row appears only when that line was called up.
func MatchSheet(asgn models.MatchAssignment, cfg models.AllocationConfig) [][]string {
	groups := []labelledRow{
		{GoalkeeperRowLabel(cfg), asgn.Goalkeepers},
		{RowLine1, asgn.Line1},
		{RowLine2, asgn.Line2},
	}
	if len(asgn.ReserveLine) > 0 {
		groups = append(groups, labelledRow{RowReserveLine, asgn.ReserveLine})
	}
	groups = append(groups, labelledRow{RowPossibleReserves, asgn.PossibleReserves})

	width := 0
	for _, g := range groups {
		width = max(width, len(g.names))
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := make([]string, 1+width)
		row[0] = g.label
		copy(row[1:], g.names)
		rows = append(rows, row)
	}
	return rows
}

func cellValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
