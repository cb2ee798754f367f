package allocator

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

const (
	goalkeepersPerMatch = 2
	lineSize            = 4
	fieldSlots          = 2 * lineSize
	reserveLineSize     = 4
)

// Allocator assigns players to match roles, one match at a time
type Allocator struct {
	Players    []*models.Player
	Matches    []models.Match
	Config     models.AllocationConfig
	Violations []models.CapViolation

	counters    map[int]*models.Counters
	assignments []models.MatchAssignment
	next        int
	log         *logrus.Entry
}

// NewAllocator creates an allocator with zeroed counters for every player
func NewAllocator(players []*models.Player, matches []models.Match, cfg models.AllocationConfig) (*Allocator, error) {
	if err := validate(players, matches, cfg); err != nil {
		return nil, err
	}

	ordered := make([]models.Match, len(matches))
	for i, m := range matches {
		m.Index = i
		ordered[i] = m
	}

	counters := make(map[int]*models.Counters, len(players))
	for _, p := range players {
		counters[p.ID] = &models.Counters{}
	}

	return &Allocator{
		Players:  players,
		Matches:  ordered,
		Config:   cfg,
		counters: counters,
		log:      discardLogger(),
	}, nil
}

// WithLogger attaches a logger for per-match decisions
func (a *Allocator) WithLogger(entry *logrus.Entry) *Allocator {
	if entry != nil {
		a.log = entry
	}
	return a
}

// Allocate runs the whole season in match order and returns the outcome
func Allocate(players []*models.Player, matches []models.Match, cfg models.AllocationConfig) (*models.AllocationResult, error) {
	a, err := NewAllocator(players, matches, cfg)
	if err != nil {
		return nil, err
	}
	return a.Run(), nil
}

// Run allocates every remaining match and returns the result
func (a *Allocator) Run() *models.AllocationResult {
	for !a.Done() {
		a.Step()
	}
	return a.Result()
}

// Done reports whether every match has been allocated
func (a *Allocator) Done() bool {
	return a.next >= len(a.Matches)
}

// Step allocates the next match. It returns false once all matches are done.
func (a *Allocator) Step() (models.MatchAssignment, bool) {
	if a.Done() {
		return models.MatchAssignment{}, false
	}
	m := a.Matches[a.next]
	a.next++

	asgn := a.allocateMatch(m)
	a.assignments = append(a.assignments, asgn)
	return asgn, true
}

// Counters returns a snapshot of a player's counters
func (a *Allocator) Counters(playerID int) models.Counters {
	if c, ok := a.counters[playerID]; ok {
		return *c
	}
	return models.Counters{}
}

// HasBaseCapacity checks if a player can still take a standard call-up at a venue
func (a *Allocator) HasBaseCapacity(p *models.Player, v models.Venue) bool {
	c := a.counters[p.ID]
	venueCount := c.BaseAway
	if v == models.Home {
		venueCount = c.BaseHome
	}
	return venueCount < a.Config.VenueCap(v) && c.BaseTotal < a.Config.MaxBaseTotal()
}

// Result returns the statistics and assignments accumulated so far
func (a *Allocator) Result() *models.AllocationResult {
	stats := make([]models.PlayerStats, 0, len(a.Players))
	for _, p := range a.Players {
		stats = append(stats, models.PlayerStats{
			PlayerID: p.ID,
			Name:     p.Name,
			Counters: *a.counters[p.ID],
		})
	}

	return &models.AllocationResult{
		Stats:         stats,
		Matches:       append([]models.MatchAssignment(nil), a.assignments...),
		Violations:    append([]models.CapViolation(nil), a.Violations...),
		FairnessScore: CalculateFairnessScore(stats),
	}
}

func (a *Allocator) allocateMatch(m models.Match) models.MatchAssignment {
	avail := a.availablePool(m.Index)
	taken := make(map[int]bool)

	gks := a.selectGoalkeepers(m, avail, taken)
	field := a.selectField(m, avail, taken)
	reserve := a.selectReserveLine(avail, taken)

	var possible []*models.Player
	for _, p := range avail {
		if !taken[p.ID] {
			possible = append(possible, p)
		}
	}
	possible = rank(possible, func(p *models.Player) RankKey { return RankKey{p.ID} })

	a.log.WithFields(logrus.Fields{
		"match":        m.Label,
		"venue":        m.Venue,
		"available":    len(avail),
		"goalkeepers":  len(gks),
		"field":        len(field),
		"reserve_line": len(reserve),
	}).Debug("match allocated")

	// Counters move only after every role of the match is settled.
	for _, p := range gks {
		a.counters[p.ID].GKAssignments++
		a.recordCall(p, m.Venue)
	}
	for _, p := range field {
		a.recordCall(p, m.Venue)
	}
	for _, p := range reserve {
		a.recordReserveCall(p, m.Venue)
	}

	line1, line2 := field, []*models.Player(nil)
	if len(field) > lineSize {
		line1, line2 = field[:lineSize], field[lineSize:]
	}

	return models.MatchAssignment{
		Match:            m,
		Goalkeepers:      names(gks),
		Line1:            names(line1),
		Line2:            names(line2),
		ReserveLine:      names(reserve),
		PossibleReserves: names(possible),
	}
}

func (a *Allocator) availablePool(matchIndex int) []*models.Player {
	var avail []*models.Player
	for _, p := range a.Players {
		if p.IsAvailable(matchIndex) {
			avail = append(avail, p)
		}
	}
	return avail
}

// recordCall books a goalkeeper or field call-up as standard when capacity
// remains at this moment, otherwise as a reserve call-up.
func (a *Allocator) recordCall(p *models.Player, v models.Venue) {
	isBase := a.HasBaseCapacity(p, v)
	c := a.counters[p.ID]
	if v == models.Home {
		c.HomeTotal++
		if isBase {
			c.BaseHome++
		}
	} else {
		c.AwayTotal++
		if isBase {
			c.BaseAway++
		}
	}
	if isBase {
		c.BaseTotal++
	} else {
		c.ReserveCalls++
	}
}

func (a *Allocator) recordReserveCall(p *models.Player, v models.Venue) {
	c := a.counters[p.ID]
	if v == models.Home {
		c.HomeTotal++
	} else {
		c.AwayTotal++
	}
	c.ReserveCalls++
}

func validate(players []*models.Player, matches []models.Match, cfg models.AllocationConfig) error {
	if cfg.MaxHomeBase < 0 {
		return models.NewValidationError("max_home_base", "must not be negative, got %d", cfg.MaxHomeBase)
	}
	if cfg.MaxAwayBase < 0 {
		return models.NewValidationError("max_away_base", "must not be negative, got %d", cfg.MaxAwayBase)
	}
	if cfg.GKCap < 0 {
		return models.NewValidationError("gk_cap", "must not be negative, got %d", cfg.GKCap)
	}
	if len(matches) == 0 {
		return models.NewValidationError("matches", "no matches to allocate")
	}
	for _, m := range matches {
		if m.Venue != models.Home && m.Venue != models.Away {
			return models.NewValidationError("matches", "match %q has unknown venue %q", m.Label, m.Venue)
		}
	}

	seen := make(map[int]bool, len(players))
	for _, p := range players {
		if p == nil {
			return models.NewValidationError("players", "nil player")
		}
		if seen[p.ID] {
			return models.NewValidationError("players", "duplicate player id %d", p.ID)
		}
		seen[p.ID] = true
		if len(p.Available) > len(matches) {
			return models.NewValidationError("players", "player %d has %d availability entries for %d matches", p.ID, len(p.Available), len(matches))
		}
	}
	return nil
}

func names(players []*models.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.Name)
	}
	return out
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
