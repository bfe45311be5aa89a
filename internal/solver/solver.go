// Package solver implements the constrained two-team partition used by
// DivideTeams: split a member set so that every same_team label stays on one
// side, while minimizing a weighted imbalance score over even labels and
// team size. It has no ambient dependency of its own — see DESIGN.md for
// why a pure in-memory combinatorial routine has no third-party home.
package solver

import (
	"math/rand"

	"roomsplit/internal/domain"
)

// specialNameA and specialNameB are the two literal names the hidden
// pairing rule keys on.
const (
	specialNameA = "葳蕤"
	specialNameB = "兔子"
)

// specialPairProbability is the chance, when both special names are
// present, that they land on the same (randomly chosen) team.
const specialPairProbability = 0.9

const exactSolverMaxN = 12

const twoOptMaxSweeps = 100

const (
	evenWeight = 5
	sizeWeight = 3
)

// Member is one input to the solver: enough of a membership to score and
// place, plus the exact display name the hidden pairing rule matches on.
type Member struct {
	ID     string
	Name   string
	Labels []domain.Label
}

func (m Member) hasLabel(l domain.Label) bool {
	for _, have := range m.Labels {
		if have == l {
			return true
		}
	}
	return false
}

// Options configures a single Solve call.
type Options struct {
	Debug bool
	// EnableHiddenPairing gates the hidden special-name pairing rule; see
	// RoomServiceOptions.EnableHiddenPairing.
	EnableHiddenPairing bool
}

// Result is the solver's output: the two teams, in input order, the
// imbalance score achieved, and (if Options.Debug) a human-readable trace.
type Result struct {
	TeamA []Member
	TeamB []Member
	Score int
	Trace []string
}

type side bool

const (
	sideA side = false
	sideB side = true
)

// Solve partitions members into two teams under rules, using rng for every
// random decision (the hidden pairing coin flip and the same_team side
// choice) and nothing else — every other tie-break is deterministic by
// iteration order. The same rng state always yields the same teams.
func Solve(rng *rand.Rand, members []Member, rules domain.LabelRules, opts Options) Result {
	trace := newTracer(opts.Debug)

	if len(members) == 0 {
		return Result{Trace: trace.lines}
	}
	if len(members) == 1 {
		return Result{TeamA: members, Trace: trace.lines}
	}

	evenLabels := rules.EvenLabels()
	sameTeamLabel, hasSameTeam := rules.SameTeamLabel()

	assigned := make(map[string]side, len(members))
	fixed := make(map[string]bool, len(members))

	if opts.EnableHiddenPairing {
		applyHiddenPairing(rng, members, assigned, fixed, trace)
	}

	free := freeMembers(members, assigned)

	// Whether the exact search is affordable is decided on the free set
	// before any same_team pre-fixing: same_team holders stay in free and
	// let solveExact's own constraint filter decide their side as part of
	// the 2^n enumeration, so they're searched rather than coin-flipped.
	// Only once n is too large for that search does same_team fall back to
	// pre-fixing, shrinking free for the greedy solver.
	var result map[string]side
	if len(free) <= exactSolverMaxN {
		result = solveExact(members, free, assigned, sameTeamLabel, hasSameTeam, evenLabels, trace)
	} else {
		if hasSameTeam {
			applySameTeamFixing(rng, members, sameTeamLabel, assigned, fixed, trace)
			free = freeMembers(members, assigned)
		}
		result = solveGreedyTwoOpt(members, free, assigned, evenLabels, trace)
	}

	teamA, teamB := membersOnSide(members, result)
	score := scoreTeams(teamA, teamB, evenLabels)
	trace.logf("final score=%d |A|=%d |B|=%d", score, len(teamA), len(teamB))
	return Result{TeamA: teamA, TeamB: teamB, Score: score, Trace: trace.lines}
}

// applyHiddenPairing implements the user-invisible pairing rule: if both
// special names are present, with probability 0.9 they are placed on the
// same, randomly chosen, team before anything else runs.
func applyHiddenPairing(rng *rand.Rand, members []Member, assigned map[string]side, fixed map[string]bool, trace *tracer) {
	var a, b *Member
	for i := range members {
		switch members[i].Name {
		case specialNameA:
			a = &members[i]
		case specialNameB:
			b = &members[i]
		}
	}
	if a == nil || b == nil {
		return
	}
	if rng.Float64() >= specialPairProbability {
		trace.logf("hidden pairing: both special names present, coin flip missed")
		return
	}
	chosen := sideA
	if rng.Intn(2) == 1 {
		chosen = sideB
	}
	assigned[a.ID] = chosen
	assigned[b.ID] = chosen
	fixed[a.ID] = true
	fixed[b.ID] = true
	trace.logf("hidden pairing: placed both special names on side %v", chosen)
}

func freeMembers(members []Member, assigned map[string]side) []Member {
	var free []Member
	for _, m := range members {
		if _, ok := assigned[m.ID]; !ok {
			free = append(free, m)
		}
	}
	return free
}

// applySameTeamFixing places every holder of the same_team label on one
// side: the side a hidden-pairing pre-assignment already put one of them
// on, else a uniformly random side. They become fixed (non-swappable).
// Only used ahead of the greedy fallback, where n is too large for
// solveExact to search the group's side as part of its enumeration.
func applySameTeamFixing(rng *rand.Rand, members []Member, label domain.Label, assigned map[string]side, fixed map[string]bool, trace *tracer) {
	var holders []Member
	for _, m := range members {
		if m.hasLabel(label) {
			holders = append(holders, m)
		}
	}
	if len(holders) == 0 {
		return
	}

	chosen, ok := sideA, false
	for _, h := range holders {
		if s, has := assigned[h.ID]; has {
			chosen, ok = s, true
			break
		}
	}
	if !ok {
		chosen = sideA
		if rng.Intn(2) == 1 {
			chosen = sideB
		}
	}
	for _, h := range holders {
		assigned[h.ID] = chosen
		fixed[h.ID] = true
	}
	trace.logf("same_team label %s: %d holder(s) fixed on side %v", label, len(holders), chosen)
}

func scoreTeams(teamA, teamB []Member, evenLabels []domain.Label) int {
	score := 0
	for _, label := range evenLabels {
		score += evenWeight * absInt(countLabel(teamA, label)-countLabel(teamB, label))
	}
	score += sizeWeight * absInt(len(teamA)-len(teamB))
	return score
}

func countLabel(members []Member, label domain.Label) int {
	n := 0
	for _, m := range members {
		if m.hasLabel(label) {
			n++
		}
	}
	return n
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
