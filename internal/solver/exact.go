package solver

import "roomsplit/internal/domain"

// solveExact enumerates every 2^len(free) placement of the free members
// (those not already fixed by the hidden pairing rule; same_team holders
// stay free here), keeping the lowest-scoring placement that respects the
// same_team constraint. allMembers is the full member set, needed because
// fixed members still count toward the score. Ties keep the first (lowest
// bitmask) placement found, since later candidates only replace the best
// on a strict improvement.
func solveExact(allMembers, free []Member, preassigned map[string]side, sameTeamLabel domain.Label, hasSameTeam bool, evenLabels []domain.Label, trace *tracer) map[string]side {
	n := len(free)
	best := cloneAssignment(preassigned)
	bestScore := -1

	total := 1 << n
	for mask := 0; mask < total; mask++ {
		candidate := cloneAssignment(preassigned)
		for i, m := range free {
			s := sideA
			if mask&(1<<i) != 0 {
				s = sideB
			}
			candidate[m.ID] = s
		}
		if hasSameTeam && !sameTeamSatisfied(allMembers, candidate, sameTeamLabel) {
			continue
		}
		teamA, teamB := membersOnSide(allMembers, candidate)
		score := scoreTeams(teamA, teamB, evenLabels)
		if bestScore == -1 || score < bestScore {
			bestScore = score
			best = candidate
		}
	}
	trace.logf("exact solver: n=%d masks_tried=%d best_score=%d", n, total, bestScore)
	return best
}

func cloneAssignment(src map[string]side) map[string]side {
	dst := make(map[string]side, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func sameTeamSatisfied(members []Member, assignment map[string]side, label domain.Label) bool {
	var want *side
	for _, m := range members {
		if !m.hasLabel(label) {
			continue
		}
		s, ok := assignment[m.ID]
		if !ok {
			continue
		}
		if want == nil {
			want = &s
		} else if *want != s {
			return false
		}
	}
	return true
}

func membersOnSide(members []Member, assignment map[string]side) (teamA, teamB []Member) {
	for _, m := range members {
		if assignment[m.ID] == sideB {
			teamB = append(teamB, m)
		} else {
			teamA = append(teamA, m)
		}
	}
	return teamA, teamB
}
