package solver

import "roomsplit/internal/domain"

// solveGreedyTwoOpt handles n > exactSolverMaxN: place free members one at a
// time onto the side that minimizes the running score over the full member
// set (ties to side A), processing members with the most even-rule labels
// first so the biggest imbalance risks are resolved while both sides are
// still flexible. Then run up to twoOptMaxSweeps sweeps of pairwise swaps
// among the free members, committing the first strictly improving swap
// found in each sweep and stopping once a full sweep finds none. Members
// outside free (fixed by the hidden pairing rule or a same_team label)
// never move, but still count toward every score computed here.
func solveGreedyTwoOpt(allMembers, free []Member, preassigned map[string]side, evenLabels []domain.Label, trace *tracer) map[string]side {
	assignment := cloneAssignment(preassigned)

	ordered := make([]Member, len(free))
	copy(ordered, free)
	sortByEvenLabelCount(ordered, evenLabels)

	for _, m := range ordered {
		assignment[m.ID] = sideA
		teamA, teamB := membersOnSide(allMembers, assignment)
		scoreWithA := scoreTeams(teamA, teamB, evenLabels)

		assignment[m.ID] = sideB
		teamA, teamB = membersOnSide(allMembers, assignment)
		scoreWithB := scoreTeams(teamA, teamB, evenLabels)

		if scoreWithA <= scoreWithB {
			assignment[m.ID] = sideA
		} else {
			assignment[m.ID] = sideB
		}
	}
	trace.logf("greedy placement done: n=%d", len(free))

	for sweep := 0; sweep < twoOptMaxSweeps; sweep++ {
		improved := trySwapSweep(allMembers, free, assignment, evenLabels)
		if !improved {
			trace.logf("2-opt converged after %d sweep(s)", sweep)
			break
		}
	}
	return assignment
}

func sortByEvenLabelCount(members []Member, evenLabels []domain.Label) {
	count := func(m Member) int {
		n := 0
		for _, l := range evenLabels {
			if m.hasLabel(l) {
				n++
			}
		}
		return n
	}
	for i := 1; i < len(members); i++ {
		for j := i; j > 0 && count(members[j-1]) < count(members[j]); j-- {
			members[j-1], members[j] = members[j], members[j-1]
		}
	}
}

// trySwapSweep scans every (a in A, b in B) pair drawn from swappable, in
// order, and commits the first pair whose swap strictly reduces the score
// computed over allMembers. It reports whether it committed a swap.
func trySwapSweep(allMembers, swappable []Member, assignment map[string]side, evenLabels []domain.Label) bool {
	var onA, onB []Member
	for _, m := range swappable {
		if assignment[m.ID] == sideA {
			onA = append(onA, m)
		} else {
			onB = append(onB, m)
		}
	}

	teamA, teamB := membersOnSide(allMembers, assignment)
	baseScore := scoreTeams(teamA, teamB, evenLabels)

	for _, a := range onA {
		for _, b := range onB {
			assignment[a.ID], assignment[b.ID] = sideB, sideA
			teamA, teamB = membersOnSide(allMembers, assignment)
			score := scoreTeams(teamA, teamB, evenLabels)
			if score < baseScore {
				return true
			}
			assignment[a.ID], assignment[b.ID] = sideA, sideB
		}
	}
	return false
}
