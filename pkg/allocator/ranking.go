package allocator

import (
	"slices"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

// RankKey orders candidates ascending, compared element by element.
// Every key ends with the stable player id, so no two players tie.
type RankKey []int

// Compare returns -1, 0 or +1 like cmp.Compare
func (k RankKey) Compare(other RankKey) int {
	return slices.Compare(k, other)
}

// GKPreferenceKey ranks goalkeeper candidates: volunteers first (when
// preferred), then fewest standard call-ups, fewest reserve call-ups,
// away-willing players, and finally the stable id.
func GKPreferenceKey(p *models.Player, c models.Counters, preferVolunteers bool) RankKey {
	volunteer := 1
	if preferVolunteers && p.IsGoalkeeperVolunteer {
		volunteer = 0
	}
	return RankKey{volunteer, c.BaseTotal, c.ReserveCalls, awayNudge(p), p.ID}
}

// FairnessKey ranks field candidates by fewest standard call-ups, with
// away-willing players nudged forward and total workload as tiebreak.
func FairnessKey(p *models.Player, c models.Counters) RankKey {
	return RankKey{c.BaseTotal, awayNudge(p), c.BaseTotal + c.ReserveCalls, p.ID}
}

// ReserveKey ranks reserve volunteers by fewest reserve call-ups first
func ReserveKey(p *models.Player, c models.Counters) RankKey {
	return RankKey{c.ReserveCalls, c.BaseTotal + c.ReserveCalls, awayNudge(p), p.ID}
}

func awayNudge(p *models.Player) int {
	if p.WantsAway {
		return -1
	}
	return 0
}

// rank returns a new slice sorted by key, keeping input order among equal keys
func rank(pool []*models.Player, key func(*models.Player) RankKey) []*models.Player {
	type ranked struct {
		player *models.Player
		key    RankKey
	}

	rs := make([]ranked, len(pool))
	for i, p := range pool {
		rs[i] = ranked{player: p, key: key(p)}
	}
	slices.SortStableFunc(rs, func(x, y ranked) int {
		return x.key.Compare(y.key)
	})

	out := make([]*models.Player, len(rs))
	for i, r := range rs {
		out[i] = r.player
	}
	return out
}

func (a *Allocator) gkKey(p *models.Player) RankKey {
	return GKPreferenceKey(p, *a.counters[p.ID], a.Config.PreferGKVolunteers)
}

func (a *Allocator) fairnessKey(p *models.Player) RankKey {
	return FairnessKey(p, *a.counters[p.ID])
}

func (a *Allocator) reserveKey(p *models.Player) RankKey {
	return ReserveKey(p, *a.counters[p.ID])
}
