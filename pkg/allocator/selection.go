package allocator

import (
	"github.com/sirupsen/logrus"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

// eligibility is one goalkeeper tier. Tiers are tried in order until both
// goalkeeper slots are filled; a relaxed tier may exceed the goalkeeper cap.
type eligibility struct {
	name    string
	relaxed bool
	allows  func(p *models.Player) bool
}

func (a *Allocator) goalkeeperTiers(v models.Venue) []eligibility {
	underCap := func(p *models.Player) bool {
		return a.counters[p.ID].GKAssignments < a.Config.GKCap
	}
	return []eligibility{
		{
			name: "under cap with base capacity",
			allows: func(p *models.Player) bool {
				return underCap(p) && a.HasBaseCapacity(p, v)
			},
		},
		{
			name:   "under cap",
			allows: underCap,
		},
		{
			name:    "over cap",
			relaxed: true,
			allows:  func(*models.Player) bool { return true },
		},
	}
}

func (a *Allocator) selectGoalkeepers(m models.Match, avail []*models.Player, taken map[int]bool) []*models.Player {
	var chosen []*models.Player

	for _, tier := range a.goalkeeperTiers(m.Venue) {
		if len(chosen) >= goalkeepersPerMatch {
			break
		}

		var pool []*models.Player
		for _, p := range avail {
			if !taken[p.ID] && tier.allows(p) {
				pool = append(pool, p)
			}
		}

		for _, p := range rank(pool, a.gkKey) {
			if len(chosen) >= goalkeepersPerMatch {
				break
			}
			if tier.relaxed && a.counters[p.ID].GKAssignments >= a.Config.GKCap {
				a.Violations = append(a.Violations, models.CapViolation{
					Match:      m.Label,
					PlayerID:   p.ID,
					PlayerName: p.Name,
				})
				a.log.WithFields(logrus.Fields{
					"match":  m.Label,
					"player": p.Name,
					"tier":   tier.name,
				}).Warn("goalkeeper cap exceeded")
			}
			chosen = append(chosen, p)
			taken[p.ID] = true
		}
	}
	return chosen
}

func (a *Allocator) selectField(m models.Match, avail []*models.Player, taken map[int]bool) []*models.Player {
	var pool []*models.Player
	for _, p := range avail {
		if !taken[p.ID] && a.HasBaseCapacity(p, m.Venue) {
			pool = append(pool, p)
		}
	}

	field := rank(pool, a.fairnessKey)
	if len(field) > fieldSlots {
		field = field[:fieldSlots]
	}
	markTaken(taken, field)

	if short := fieldSlots - len(field); short > 0 {
		extra := rank(reserveVolunteers(avail, taken), a.reserveKey)
		if len(extra) > short {
			extra = extra[:short]
		}
		markTaken(taken, extra)
		field = append(field, extra...)
	}
	return field
}

// selectReserveLine builds the third line from reserve volunteers left over.
// With RequireExactReserveFour the line exists only when four candidates do;
// otherwise a partial line of the remaining candidates is called up.
func (a *Allocator) selectReserveLine(avail []*models.Player, taken map[int]bool) []*models.Player {
	candidates := rank(reserveVolunteers(avail, taken), a.reserveKey)

	var line []*models.Player
	switch {
	case len(candidates) >= reserveLineSize:
		line = candidates[:reserveLineSize]
	case !a.Config.RequireExactReserveFour:
		line = candidates
	}
	markTaken(taken, line)
	return line
}

func reserveVolunteers(avail []*models.Player, taken map[int]bool) []*models.Player {
	var pool []*models.Player
	for _, p := range avail {
		if !taken[p.ID] && p.IsReserveVolunteer {
			pool = append(pool, p)
		}
	}
	return pool
}

func markTaken(taken map[int]bool, players []*models.Player) {
	for _, p := range players {
		taken[p.ID] = true
	}
}
