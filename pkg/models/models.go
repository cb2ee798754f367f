package models

// Venue is where a match is played
type Venue string

const (
	Home Venue = "Home"
	Away Venue = "Away"
)

// Player represents one row of the roster
type Player struct {
	ID                    int    `json:"id" yaml:"id"`
	Name                  string `json:"name" yaml:"name"`
	Row                   int    `json:"-" yaml:"-"`
	IsGoalkeeperVolunteer bool   `json:"goalkeeper_volunteer" yaml:"goalkeeper_volunteer"`
	IsReserveVolunteer    bool   `json:"reserve_volunteer" yaml:"reserve_volunteer"`
	WantsAway             bool   `json:"wants_away" yaml:"wants_away"`
	Available             []bool `json:"available" yaml:"available"` // one entry per match, in match order
}

// IsAvailable reports whether the player can play the match at index i
func (p *Player) IsAvailable(i int) bool {
	return i >= 0 && i < len(p.Available) && p.Available[i]
}

// Match represents one availability column
type Match struct {
	Index int    `json:"index" yaml:"index"`
	Label string `json:"label" yaml:"label"`
	Venue Venue  `json:"venue" yaml:"venue"`
}

// Counters are the running call-up statistics for one player
type Counters struct {
	BaseHome      int `json:"base_home" yaml:"base_home"`
	BaseAway      int `json:"base_away" yaml:"base_away"`
	BaseTotal     int `json:"base_total" yaml:"base_total"`
	HomeTotal     int `json:"home_total" yaml:"home_total"`
	AwayTotal     int `json:"away_total" yaml:"away_total"`
	ReserveCalls  int `json:"reserve_calls" yaml:"reserve_calls"`
	GKAssignments int `json:"gk_assignments" yaml:"gk_assignments"`
}

// Appearances is the number of call-ups of any kind
func (c Counters) Appearances() int {
	return c.HomeTotal + c.AwayTotal
}

// AllocationConfig holds the caps and preferences of one allocation run
type AllocationConfig struct {
	MaxHomeBase             int  `json:"max_home_base" yaml:"max_home_base"`
	MaxAwayBase             int  `json:"max_away_base" yaml:"max_away_base"`
	GKCap                   int  `json:"gk_cap" yaml:"gk_cap"`
	RequireExactReserveFour bool `json:"require_exact_reserve_four" yaml:"require_exact_reserve_four"`
	PreferGKVolunteers      bool `json:"prefer_gk_volunteers" yaml:"prefer_gk_volunteers"`
}

// DefaultAllocationConfig returns the standard season caps
func DefaultAllocationConfig() AllocationConfig {
	return AllocationConfig{
		MaxHomeBase:             2,
		MaxAwayBase:             2,
		GKCap:                   1,
		RequireExactReserveFour: true,
		PreferGKVolunteers:      true,
	}
}

// VenueCap returns the standard call-up cap for a venue
func (c AllocationConfig) VenueCap(v Venue) int {
	if v == Home {
		return c.MaxHomeBase
	}
	return c.MaxAwayBase
}

// MaxBaseTotal is the season-wide standard call-up cap
func (c AllocationConfig) MaxBaseTotal() int {
	return c.MaxHomeBase + c.MaxAwayBase
}

// MatchAssignment is the outcome of one match
type MatchAssignment struct {
	Match            Match    `json:"match" yaml:"match"`
	Goalkeepers      []string `json:"goalkeepers" yaml:"goalkeepers"`
	Line1            []string `json:"line1" yaml:"line1"`
	Line2            []string `json:"line2" yaml:"line2"`
	ReserveLine      []string `json:"reserve_line" yaml:"reserve_line"`
	PossibleReserves []string `json:"possible_reserves" yaml:"possible_reserves"`
}

// CapViolation records a goalkeeper pick beyond the configured cap
type CapViolation struct {
	Match      string `json:"match" yaml:"match"`
	PlayerID   int    `json:"player_id" yaml:"player_id"`
	PlayerName string `json:"player_name" yaml:"player_name"`
}

// PlayerStats pairs a player with their final counters
type PlayerStats struct {
	PlayerID int    `json:"player_id" yaml:"player_id"`
	Name     string `json:"name" yaml:"name"`
	Counters `yaml:",inline"`
}

// AllocationResult is the full outcome of an allocation run
type AllocationResult struct {
	Stats         []PlayerStats     `json:"players" yaml:"players"`
	Matches       []MatchAssignment `json:"matches" yaml:"matches"`
	Violations    []CapViolation    `json:"cap_violations" yaml:"cap_violations"`
	FairnessScore float64           `json:"fairness_score" yaml:"fairness_score"`
}

// AllocateInput is the JSON payload for the allocation endpoint
type AllocateInput struct {
	Players []Player          `json:"players" yaml:"players"`
	Matches []Match           `json:"matches" yaml:"matches"`
	Config  *AllocationConfig `json:"config,omitempty" yaml:"config,omitempty"`
}
