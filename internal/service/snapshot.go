package service

import (
	"roomsplit/internal/domain"
	"roomsplit/internal/repository"
	"roomsplit/internal/solver"
)

// buildSnapshot projects a RoomAggregate into the read model the API
// surface returns.
func buildSnapshot(agg repository.RoomAggregate) domain.RoomSnapshot {
	members := make([]domain.MemberView, 0, len(agg.Members))
	for _, m := range agg.Members {
		members = append(members, domain.MemberView{
			ID:        m.Membership.UserID,
			Nickname:  m.User.Nickname,
			AvatarURL: m.User.AvatarURL,
			Team:      m.Membership.Team,
			Labels:    m.Membership.Labels,
			JoinedAt:  m.Membership.JoinedAt,
		})
	}
	return domain.RoomSnapshot{
		ID:         agg.Room.ID,
		RoomCode:   agg.Room.Code,
		GameName:   agg.Room.GameName,
		Status:     agg.Room.Status,
		MaxMembers: agg.Room.MaxMembers,
		OwnerID:    agg.Room.OwnerID,
		LabelRules: agg.Room.LabelRules,
		Owner: &domain.OwnerView{
			ID:        agg.Owner.ID,
			Nickname:  agg.Owner.Nickname,
			AvatarURL: agg.Owner.AvatarURL,
		},
		Members:     members,
		MemberCount: agg.MemberCount(),
		CreatedAt:   agg.Room.CreatedAt,
	}
}

// removeMemberFromAggregate drops userID's entry from agg.Members so the
// in-memory aggregate matches what was just persisted, without a reload.
func removeMemberFromAggregate(agg *repository.RoomAggregate, userID string) {
	for i, m := range agg.Members {
		if m.Membership.UserID == userID {
			agg.Members = append(agg.Members[:i], agg.Members[i+1:]...)
			return
		}
	}
}

func setMemberLabelsInAggregate(agg *repository.RoomAggregate, userID string, labels []domain.Label) {
	for i := range agg.Members {
		if agg.Members[i].Membership.UserID == userID {
			agg.Members[i].Membership.Labels = labels
			return
		}
	}
}

// toDivisionResult builds a DivisionResult from the solver's output,
// resolving each member's nickname/avatar from the aggregate.
func toDivisionResult(agg *repository.RoomAggregate, solved solver.Result) domain.DivisionResult {
	return domain.DivisionResult{
		TeamA: projectMembers(agg, solved.TeamA),
		TeamB: projectMembers(agg, solved.TeamB),
	}
}

func projectMembers(agg *repository.RoomAggregate, members []solver.Member) []domain.MemberProjection {
	out := make([]domain.MemberProjection, 0, len(members))
	for _, m := range members {
		mw, ok := agg.FindMember(m.ID)
		if !ok {
			continue
		}
		out = append(out, domain.MemberProjection{
			ID:        mw.Membership.UserID,
			Nickname:  mw.User.Nickname,
			AvatarURL: mw.User.AvatarURL,
			Labels:    mw.Membership.Labels,
		})
	}
	return out
}

// reconstructDivisionResult rebuilds a DivisionResult from the team field
// on each membership, for any room with no cached Division. Members whose
// team is none appear in neither team.
func reconstructDivisionResult(agg repository.RoomAggregate) domain.DivisionResult {
	var result domain.DivisionResult
	for _, m := range agg.Members {
		proj := domain.MemberProjection{
			ID:        m.Membership.UserID,
			Nickname:  m.User.Nickname,
			AvatarURL: m.User.AvatarURL,
			Labels:    m.Membership.Labels,
		}
		switch m.Membership.Team {
		case domain.TeamA:
			result.TeamA = append(result.TeamA, proj)
		case domain.TeamB:
			result.TeamB = append(result.TeamB, proj)
		}
	}
	return result
}
