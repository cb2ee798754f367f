package roster

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

// Columns lists the accepted header names for each roster column
type Columns struct {
	ID            []string
	Name          []string
	Goalkeeper    []string
	Reserve       []string
	AwayResponses []string
	HomeMarkers   []string
	AwayMarkers   []string
}

// DefaultColumns matches the signup form export, in Swedish and English
func DefaultColumns() Columns {
	return Columns{
		ID:            []string{"Spelare", "Player", "ID"},
		Name:          []string{"Barnets namn", "Name", "Player name"},
		Goalkeeper:    []string{"Målvakt", "Goalkeeper", "GK"},
		Reserve:       []string{"Reserv", "Reserve"},
		AwayResponses: []string{"#Borta svar", "#Away responses"},
		HomeMarkers:   []string{"Hemma", "Home"},
		AwayMarkers:   []string{"Borta", "Away"},
	}
}

// Roster is a parsed table: players, matches, and where they came from
type Roster struct {
	Table   *Table
	Players []*models.Player
	Matches []models.Match

	IDColumn         int
	NameColumn       int
	GoalkeeperColumn int
	ReserveColumn    int
	MatchColumns     []int
}

// Stats summarizes a roster for validation responses
type Stats struct {
	Players              int `json:"player_count"`
	Matches              int `json:"match_count"`
	HomeMatches          int `json:"home_matches"`
	AwayMatches          int `json:"away_matches"`
	GoalkeeperVolunteers int `json:"goalkeeper_volunteers"`
	ReserveVolunteers    int `json:"reserve_volunteers"`
	WantsAway            int `json:"wants_away"`
}

// Parse reads players and matches out of a table
func Parse(t *Table, cols Columns) (*Roster, error) {
	r := &Roster{
		Table:            t,
		IDColumn:         t.ColumnIndex(cols.ID...),
		NameColumn:       t.ColumnIndex(cols.Name...),
		GoalkeeperColumn: t.ColumnIndex(cols.Goalkeeper...),
		ReserveColumn:    t.ColumnIndex(cols.Reserve...),
	}

	var missing []string
	if r.NameColumn < 0 {
		missing = append(missing, describe("name", cols.Name))
	}
	if r.GoalkeeperColumn < 0 {
		missing = append(missing, describe("goalkeeper", cols.Goalkeeper))
	}
	if r.ReserveColumn < 0 {
		missing = append(missing, describe("reserve", cols.Reserve))
	}
	if len(missing) > 0 {
		return nil, models.NewValidationError("columns", "sheet %q is missing %s", t.Sheet, strings.Join(missing, ", "))
	}

	for i, label := range t.Header {
		venue, ok := MatchVenue(label, cols)
		if !ok {
			continue
		}
		r.MatchColumns = append(r.MatchColumns, i)
		r.Matches = append(r.Matches, models.Match{
			Index: len(r.Matches),
			Label: strings.TrimSpace(label),
			Venue: venue,
		})
	}
	if len(r.Matches) == 0 {
		return nil, models.NewValidationError("matches", "no match columns found; headers must contain %q or %q in parentheses",
			strings.Join(cols.HomeMarkers, "/"), strings.Join(cols.AwayMarkers, "/"))
	}

	awayCol := t.ColumnIndex(cols.AwayResponses...)
	seen := make(map[int]int)

	for row := range t.Rows {
		if r.unnamed(row) {
			continue
		}

		id := row + 1
		if r.IDColumn >= 0 {
			parsed, err := parseID(t.Cell(row, r.IDColumn))
			if err != nil {
				return nil, models.NewValidationError("id", "row %d: %v", row+2, err)
			}
			id = parsed
		}
		if prev, dup := seen[id]; dup {
			return nil, models.NewValidationError("id", "rows %d and %d share player id %d", prev+2, row+2, id)
		}
		seen[id] = row

		name := t.Cell(row, r.NameColumn)
		if name == "" {
			name = fmt.Sprintf("Player %d", id)
		}

		p := &models.Player{
			ID:                    id,
			Name:                  name,
			Row:                   row,
			IsGoalkeeperVolunteer: ParseBool(t.Cell(row, r.GoalkeeperColumn)),
			IsReserveVolunteer:    ParseBool(t.Cell(row, r.ReserveColumn)),
			Available:             make([]bool, len(r.Matches)),
		}
		for i, col := range r.MatchColumns {
			p.Available[i] = ParseBool(t.Cell(row, col))
		}
		p.WantsAway = r.wantsAway(p, awayCol)

		r.Players = append(r.Players, p)
	}

	return r, nil
}

// MatchVenue identifies a match column: a venue marker must appear inside
// a parenthesized part of the label. Home markers are checked first.
func MatchVenue(label string, cols Columns) (models.Venue, bool) {
	groups := parenthesized(label)
	if len(groups) == 0 {
		return "", false
	}
	folded := fold(strings.Join(groups, " "))
	for _, m := range cols.HomeMarkers {
		if strings.Contains(folded, fold(m)) {
			return models.Home, true
		}
	}
	for _, m := range cols.AwayMarkers {
		if strings.Contains(folded, fold(m)) {
			return models.Away, true
		}
	}
	return "", false
}

// parenthesized returns the text of each closed (...) group in s
func parenthesized(s string) []string {
	var groups []string
	for {
		open := strings.Index(s, "(")
		if open < 0 {
			return groups
		}
		end := strings.Index(s[open+1:], ")")
		if end < 0 {
			return groups
		}
		groups = append(groups, s[open+1:open+1+end])
		s = s[open+end+2:]
	}
}

// Stats counts players and matches by kind
func (r *Roster) Stats() Stats {
	s := Stats{Players: len(r.Players), Matches: len(r.Matches)}
	for _, m := range r.Matches {
		if m.Venue == models.Home {
			s.HomeMatches++
		} else {
			s.AwayMatches++
		}
	}
	for _, p := range r.Players {
		if p.IsGoalkeeperVolunteer {
			s.GoalkeeperVolunteers++
		}
		if p.IsReserveVolunteer {
			s.ReserveVolunteers++
		}
		if p.WantsAway {
			s.WantsAway++
		}
	}
	return s
}

// unnamed reports rows with neither an id nor a name; they are skipped
// whatever else they contain.
func (r *Roster) unnamed(row int) bool {
	if r.IDColumn >= 0 && r.Table.Cell(row, r.IDColumn) != "" {
		return false
	}
	return r.Table.Cell(row, r.NameColumn) == ""
}

// wantsAway prefers the explicit away-response counter; without it any
// "yes" in an away column counts.
func (r *Roster) wantsAway(p *models.Player, awayCol int) bool {
	if awayCol >= 0 {
		raw := r.Table.Cell(p.Row, awayCol)
		if n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
			return n > 0
		}
		return ParseBool(raw)
	}
	for i, m := range r.Matches {
		if m.Venue == models.Away && p.Available[i] {
			return true
		}
	}
	return false
}

func parseID(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing player id")
	}
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("player id %q is not a whole number", raw)
	}
	return int(f), nil
}

func describe(what string, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return fmt.Sprintf("%s column (one of %s)", what, strings.Join(quoted, ", "))
}
