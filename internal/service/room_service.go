package service

import (
	"context"
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"roomsplit/internal/domain"
	"roomsplit/internal/publisher"
	"roomsplit/internal/repository"
	"roomsplit/internal/solver"
)

const (
	roomCodeLength      = 6
	roomCodeMaxAttempts = 10
)

// RoomServiceOptions configures behavior that is a deliberate design
// decision rather than a hardcoded constant.
type RoomServiceOptions struct {
	// EnableHiddenPairing gates the solver's special-name pairing rule.
	// The zero value leaves it off; bootstrap.NewApp turns it on.
	EnableHiddenPairing bool
	// SolverDebug asks the solver to record a human-readable trace,
	// surfaced only through logging, never to callers.
	SolverDebug bool
}

// RoomService is the state machine: it is the only thing that mutates a
// room or membership, and the only thing that publishes room events.
type RoomService struct {
	rooms repository.RoomRepository
	users repository.UserRepository
	pub   publisher.Publisher
	opts  RoomServiceOptions

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRoomService creates a RoomService. rng is the single source of
// randomness for room-code generation and the solver's random decisions;
// tests inject a seeded one for reproducibility.
func NewRoomService(rooms repository.RoomRepository, users repository.UserRepository, pub publisher.Publisher, rng *rand.Rand, opts RoomServiceOptions) *RoomService {
	if rooms == nil || users == nil || pub == nil {
		panic("RoomRepository, UserRepository, and Publisher must be non-nil for RoomService")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RoomService{rooms: rooms, users: users, pub: pub, opts: opts, rng: rng}
}

func (s *RoomService) nextInt(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// CreateRoom creates a new waiting room owned by userID, with owner as its
// first member.
func (s *RoomService) CreateRoom(ctx context.Context, userID, gameName string, maxMembers int) (domain.RoomSnapshot, error) {
	logCtx := logrus.WithField("owner_id", userID)

	if maxMembers == 0 {
		maxMembers = domain.DefaultMaxMembers
	}
	if maxMembers < domain.MinMaxMembers || maxMembers > domain.MaxMaxMembers {
		return domain.RoomSnapshot{}, newError(KindInvalidRule, "maxMembers must be between %d and %d", domain.MinMaxMembers, domain.MaxMaxMembers)
	}
	if n := utf8.RuneCountInString(gameName); n == 0 || n > domain.MaxGameName {
		return domain.RoomSnapshot{}, newError(KindInvalidRule, "gameName must be 1-%d characters", domain.MaxGameName)
	}

	existing, err := s.rooms.FindOwnedWaitingRoom(ctx, userID)
	if err != nil {
		logCtx.WithError(err).Error("create room: checking for existing owned room failed")
		return domain.RoomSnapshot{}, newError(KindInternal, "internal error")
	}
	if existing != nil {
		return domain.RoomSnapshot{}, newError(KindHasActiveRoom, "you already own a waiting room")
	}

	owner, err := s.ownerOrPlaceholder(ctx, userID)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	now := time.Now().UTC()
	var agg repository.RoomAggregate
	for attempt := 0; attempt < roomCodeMaxAttempts; attempt++ {
		code := s.generateRoomCode()
		room := domain.Room{
			ID:           newID(),
			Code:         code,
			GameName:     gameName,
			OwnerID:      userID,
			Status:       domain.StatusWaiting,
			MaxMembers:   maxMembers,
			LabelRules:   domain.LabelRules{},
			CreatedAt:    now,
			UpdatedAt:    now,
			LastActiveAt: now,
		}
		agg, err = s.rooms.CreateRoom(ctx, room, owner)
		if err == nil {
			return buildSnapshot(agg), nil
		}
		if err == repository.ErrRoomCodeConflict {
			logCtx.WithField("code", code).Warn("create room: code collided, retrying")
			continue
		}
		logCtx.WithError(err).Error("create room: repository error")
		return domain.RoomSnapshot{}, newError(KindInternal, "internal error")
	}
	return domain.RoomSnapshot{}, newError(KindCodeExhausted, "could not generate a unique room code after %d attempts", roomCodeMaxAttempts)
}

// ownerOrPlaceholder resolves userID to a User, falling back to a bare
// placeholder if the profile sink has never pushed a nickname/avatar yet —
// the core never blocks a room operation on profile data being present.
func (s *RoomService) ownerOrPlaceholder(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("resolve user: repository error")
		return domain.User{}, newError(KindInternal, "internal error")
	}
	if user != nil {
		return *user, nil
	}
	return domain.User{ID: userID}, nil
}

func (s *RoomService) generateRoomCode() string {
	digits := make([]byte, roomCodeLength)
	digits[0] = byte('1' + s.nextInt(9))
	for i := 1; i < roomCodeLength; i++ {
		digits[i] = byte('0' + s.nextInt(10))
	}
	return string(digits)
}

// GetRoom returns the full snapshot for code.
func (s *RoomService) GetRoom(ctx context.Context, code string) (domain.RoomSnapshot, error) {
	agg, err := s.rooms.GetRoomByCode(ctx, code)
	if err != nil {
		return domain.RoomSnapshot{}, s.mapLookupError(err, "get room")
	}
	return buildSnapshot(agg), nil
}

// JoinRoom adds userID to the room at code, or returns the current
// snapshot idempotently if userID is already a member.
func (s *RoomService) JoinRoom(ctx context.Context, userID, code string) (domain.RoomSnapshot, error) {
	var snapshot domain.RoomSnapshot
	var shouldPublish bool
	var channel string

	err := s.rooms.WithRoomLock(ctx, code, func(agg *repository.RoomAggregate, w repository.RoomWriter) error {
		if agg.Room.Status != domain.StatusWaiting {
			return newError(KindRoomNotJoinable, "room is not accepting members")
		}
		if _, ok := agg.FindMember(userID); ok {
			snapshot = buildSnapshot(*agg)
			return nil
		}
		if agg.MemberCount() >= agg.Room.MaxMembers {
			return newError(KindRoomFull, "room is full")
		}

		owner, err := s.ownerOrPlaceholder(ctx, userID)
		if err != nil {
			return err
		}
		membership, err := w.AddMember(ctx, agg.Room.ID, owner)
		if err != nil {
			return s.mapWriteError(err)
		}
		agg.Members = append(agg.Members, repository.MemberWithUser{Membership: membership, User: owner})
		touchActivity(agg)
		if err := w.UpdateRoom(ctx, agg.Room); err != nil {
			return s.mapWriteError(err)
		}

		snapshot = buildSnapshot(*agg)
		shouldPublish = true
		channel = agg.Room.Channel()
		return nil
	})
	if err != nil {
		return domain.RoomSnapshot{}, s.mapLookupError(err, "join room")
	}
	if shouldPublish {
		s.pub.Publish(ctx, channel, publisher.EventMemberJoined, snapshot)
	}
	return snapshot, nil
}

// LeaveRoom removes userID from the room at code. If userID is the owner,
// this closes the room instead.
func (s *RoomService) LeaveRoom(ctx context.Context, userID, code string) error {
	agg, err := s.rooms.GetRoomByCode(ctx, code)
	if err != nil {
		return s.mapLookupError(err, "leave room")
	}
	if agg.Room.OwnerID == userID {
		return s.closeRoom(ctx, agg)
	}

	var shouldPublish bool
	var snapshot domain.RoomSnapshot
	var channel string
	err = s.rooms.WithRoomLock(ctx, code, func(agg *repository.RoomAggregate, w repository.RoomWriter) error {
		if _, ok := agg.FindMember(userID); !ok {
			return nil
		}
		if err := w.RemoveMember(ctx, agg.Room.ID, userID); err != nil {
			return s.mapWriteError(err)
		}
		removeMemberFromAggregate(agg, userID)
		touchActivity(agg)
		if err := w.UpdateRoom(ctx, agg.Room); err != nil {
			return s.mapWriteError(err)
		}

		snapshot = buildSnapshot(*agg)
		shouldPublish = true
		channel = agg.Room.Channel()
		return nil
	})
	if err != nil {
		return s.mapLookupError(err, "leave room")
	}
	if shouldPublish {
		s.pub.Publish(ctx, channel, publisher.EventMemberLeft, snapshot)
	}
	return nil
}

// RemoveMember lets the owner kick memberUserID from the room.
func (s *RoomService) RemoveMember(ctx context.Context, ownerID, code, memberUserID string) error {
	var snapshot domain.RoomSnapshot
	var channel string

	err := s.rooms.WithRoomLock(ctx, code, func(agg *repository.RoomAggregate, w repository.RoomWriter) error {
		if agg.Room.OwnerID != ownerID {
			return newError(KindNotOwner, "only the owner may remove members")
		}
		if memberUserID == ownerID {
			return newError(KindCannotRemoveOwner, "owner cannot remove themselves; use leave or close")
		}
		if _, ok := agg.FindMember(memberUserID); !ok {
			return newError(KindMemberNotFound, "member not found")
		}
		if err := w.RemoveMember(ctx, agg.Room.ID, memberUserID); err != nil {
			return s.mapWriteError(err)
		}
		removeMemberFromAggregate(agg, memberUserID)
		touchActivity(agg)
		if err := w.UpdateRoom(ctx, agg.Room); err != nil {
			return s.mapWriteError(err)
		}

		snapshot = buildSnapshot(*agg)
		channel = agg.Room.Channel()
		return nil
	})
	if err != nil {
		return s.mapLookupError(err, "remove member")
	}
	s.pub.Publish(ctx, channel, publisher.EventMemberLeft, snapshot)
	return nil
}

// CloseRoom deletes the room at code. Requires ownerID to be the owner.
// Emits room-closed before the delete so subscribers never race the
// deletion against the notification.
func (s *RoomService) CloseRoom(ctx context.Context, ownerID, code string) error {
	agg, err := s.rooms.GetRoomByCode(ctx, code)
	if err != nil {
		return s.mapLookupError(err, "close room")
	}
	if agg.Room.OwnerID != ownerID {
		return newError(KindNotOwner, "only the owner may close the room")
	}
	return s.closeRoom(ctx, agg)
}

// CloseStaleRoom closes a waiting room that has sat idle past the Stale
// Room Reaper's threshold. Unlike CloseRoom it is not owner-gated: the
// reaper runs with no acting user, only a room code it already confirmed
// is stale.
func (s *RoomService) CloseStaleRoom(ctx context.Context, code string) error {
	agg, err := s.rooms.GetRoomByCode(ctx, code)
	if err != nil {
		return s.mapLookupError(err, "close stale room")
	}
	if agg.Room.Status != domain.StatusWaiting {
		return nil
	}
	return s.closeRoom(ctx, agg)
}

// closeRoom publishes room-closed and deletes the room, reusing an
// aggregate the caller already loaded and authorized instead of querying
// it again.
func (s *RoomService) closeRoom(ctx context.Context, agg repository.RoomAggregate) error {
	s.pub.Publish(ctx, agg.Room.Channel(), publisher.EventRoomClosed, buildSnapshot(agg))

	if err := s.rooms.DeleteRoom(ctx, agg.Room.ID); err != nil {
		logrus.WithError(err).WithField("room_id", agg.Room.ID).Error("close room: delete failed after closed event was already published")
		return newError(KindInternal, "internal error")
	}
	return nil
}

// SetMemberLabels replaces memberUserID's labels. Owner-only.
func (s *RoomService) SetMemberLabels(ctx context.Context, ownerID, code, memberUserID string, labels []domain.Label) error {
	for _, l := range labels {
		if !l.Valid() {
			return newError(KindInvalidLabel, "unknown label %q", l)
		}
	}

	var snapshot domain.RoomSnapshot
	var channel string
	err := s.rooms.WithRoomLock(ctx, code, func(agg *repository.RoomAggregate, w repository.RoomWriter) error {
		if agg.Room.OwnerID != ownerID {
			return newError(KindNotOwner, "only the owner may set member labels")
		}
		member, ok := agg.FindMember(memberUserID)
		if !ok {
			return newError(KindMemberNotFound, "member not found")
		}
		if err := w.UpdateMemberLabels(ctx, member.Membership.ID, labels); err != nil {
			return s.mapWriteError(err)
		}
		setMemberLabelsInAggregate(agg, memberUserID, labels)
		touchActivity(agg)
		if err := w.UpdateRoom(ctx, agg.Room); err != nil {
			return s.mapWriteError(err)
		}

		snapshot = buildSnapshot(*agg)
		channel = agg.Room.Channel()
		return nil
	})
	if err != nil {
		return s.mapLookupError(err, "set member labels")
	}
	s.pub.Publish(ctx, channel, publisher.EventRoomUpdated, snapshot)
	return nil
}

// SetLabelRules replaces the room's label rules. Owner-only.
func (s *RoomService) SetLabelRules(ctx context.Context, ownerID, code string, rules domain.LabelRules) error {
	sameTeamCount := 0
	for label, rule := range rules {
		if !label.Valid() {
			return newError(KindInvalidLabel, "unknown label %q", label)
		}
		if !rule.Valid() {
			return newError(KindInvalidRule, "unknown rule %q for label %q", rule, label)
		}
		if rule == domain.RuleSameTeam {
			sameTeamCount++
		}
	}
	if sameTeamCount > 1 {
		return newError(KindConflictingRules, "at most one label may have rule same_team, found %d", sameTeamCount)
	}

	var snapshot domain.RoomSnapshot
	var channel string
	err := s.rooms.WithRoomLock(ctx, code, func(agg *repository.RoomAggregate, w repository.RoomWriter) error {
		if agg.Room.OwnerID != ownerID {
			return newError(KindNotOwner, "only the owner may set label rules")
		}
		agg.Room.LabelRules = rules
		touchActivity(agg)
		if err := w.UpdateRoom(ctx, agg.Room); err != nil {
			return s.mapWriteError(err)
		}

		snapshot = buildSnapshot(*agg)
		channel = agg.Room.Channel()
		return nil
	})
	if err != nil {
		return s.mapLookupError(err, "set label rules")
	}
	s.pub.Publish(ctx, channel, publisher.EventRoomUpdated, snapshot)
	return nil
}

// DivideTeams runs the solver over the room's current members and persists
// the assignment. Owner-only, requires status=waiting and at least 2
// members.
func (s *RoomService) DivideTeams(ctx context.Context, ownerID, code string) (domain.DivisionResult, error) {
	var result domain.DivisionResult
	var channel string

	err := s.rooms.WithRoomLock(ctx, code, func(agg *repository.RoomAggregate, w repository.RoomWriter) error {
		if agg.Room.OwnerID != ownerID {
			return newError(KindNotOwner, "only the owner may divide teams")
		}
		if agg.Room.Status != domain.StatusWaiting {
			return newError(KindWrongStatus, "room is not waiting")
		}
		if agg.MemberCount() < 2 {
			return newError(KindTooFewMembers, "need at least 2 members to divide teams")
		}

		members := make([]solver.Member, 0, len(agg.Members))
		for _, m := range agg.Members {
			members = append(members, solver.Member{ID: m.Membership.UserID, Name: m.User.Nickname, Labels: m.Membership.Labels})
		}

		s.rngMu.Lock()
		solved := solver.Solve(s.rng, members, agg.Room.LabelRules, solver.Options{Debug: s.opts.SolverDebug, EnableHiddenPairing: s.opts.EnableHiddenPairing})
		s.rngMu.Unlock()
		if s.opts.SolverDebug {
			logrus.WithField("room_id", agg.Room.ID).Debug(solved.Trace)
		}

		teamOf := make(map[string]domain.Team, len(members))
		for _, m := range solved.TeamA {
			teamOf[m.ID] = domain.TeamA
		}
		for _, m := range solved.TeamB {
			teamOf[m.ID] = domain.TeamB
		}
		for i := range agg.Members {
			mw := &agg.Members[i]
			team := teamOf[mw.Membership.UserID]
			if err := w.UpdateMemberTeam(ctx, mw.Membership.ID, team); err != nil {
				return s.mapWriteError(err)
			}
			mw.Membership.Team = team
		}

		result = toDivisionResult(agg, solved)
		agg.Room.Status = domain.StatusDivided
		agg.Room.Division = &result
		touchActivity(agg)
		if err := w.UpdateRoom(ctx, agg.Room); err != nil {
			return s.mapWriteError(err)
		}
		channel = agg.Room.Channel()
		return nil
	})
	if err != nil {
		return domain.DivisionResult{}, s.mapLookupError(err, "divide teams")
	}
	s.pub.Publish(ctx, channel, publisher.EventTeamsDivided, result)
	return result, nil
}

// RedivideTeams resets every membership's team and status to waiting, then
// runs DivideTeams again.
func (s *RoomService) RedivideTeams(ctx context.Context, ownerID, code string) (domain.DivisionResult, error) {
	err := s.rooms.WithRoomLock(ctx, code, func(agg *repository.RoomAggregate, w repository.RoomWriter) error {
		if agg.Room.OwnerID != ownerID {
			return newError(KindNotOwner, "only the owner may redivide teams")
		}
		for i := range agg.Members {
			mw := &agg.Members[i]
			if err := w.UpdateMemberTeam(ctx, mw.Membership.ID, domain.TeamNone); err != nil {
				return s.mapWriteError(err)
			}
			mw.Membership.Team = domain.TeamNone
		}
		agg.Room.Status = domain.StatusWaiting
		agg.Room.Division = nil
		touchActivity(agg)
		if err := w.UpdateRoom(ctx, agg.Room); err != nil {
			return s.mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return domain.DivisionResult{}, s.mapLookupError(err, "redivide teams")
	}
	return s.DivideTeams(ctx, ownerID, code)
}

// GetDivisionResult returns the room's cached division, or, when no cache
// is stored, one reconstructed from membership team fields (both teams
// empty for a room that has not been divided).
func (s *RoomService) GetDivisionResult(ctx context.Context, code string) (domain.DivisionResult, error) {
	agg, err := s.rooms.GetRoomByCode(ctx, code)
	if err != nil {
		return domain.DivisionResult{}, s.mapLookupError(err, "get division result")
	}
	if agg.Room.Division != nil {
		return *agg.Room.Division, nil
	}
	return reconstructDivisionResult(agg), nil
}

// GetMyOwnedRoom returns the room userID owns in waiting state, or a zero
// RoomSnapshot with found=false.
func (s *RoomService) GetMyOwnedRoom(ctx context.Context, userID string) (domain.RoomSnapshot, bool, error) {
	agg, err := s.rooms.FindOwnedWaitingRoom(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("get my owned room: repository error")
		return domain.RoomSnapshot{}, false, newError(KindInternal, "internal error")
	}
	if agg == nil {
		return domain.RoomSnapshot{}, false, nil
	}
	return buildSnapshot(*agg), true, nil
}

// GetMyJoinedRoom returns the first non-closed, non-owned room userID
// belongs to, or a zero RoomSnapshot with found=false.
func (s *RoomService) GetMyJoinedRoom(ctx context.Context, userID string) (domain.RoomSnapshot, bool, error) {
	agg, err := s.rooms.FindJoinedRoom(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("get my joined room: repository error")
		return domain.RoomSnapshot{}, false, newError(KindInternal, "internal error")
	}
	if agg == nil {
		return domain.RoomSnapshot{}, false, nil
	}
	return buildSnapshot(*agg), true, nil
}

// touchActivity bumps LastActiveAt on the in-memory aggregate's Room. The
// caller is responsible for the single UpdateRoom call that persists it,
// so a mutation that also changes other Room fields issues one write, not
// two. This is what lets the Stale Room Reaper's query find the room.
func touchActivity(agg *repository.RoomAggregate) {
	agg.Room.LastActiveAt = time.Now().UTC()
}

func (s *RoomService) mapLookupError(err error, op string) error {
	if svcErr, ok := err.(*Error); ok {
		return svcErr
	}
	if err == repository.ErrNotFound {
		return newError(KindNotFound, "room not found")
	}
	logrus.WithError(err).Errorf("%s: repository error", op)
	return newError(KindInternal, "internal error")
}

func (s *RoomService) mapWriteError(err error) error {
	if err == repository.ErrAlreadyMember {
		return newError(KindRoomFull, "user is already a member")
	}
	if err == repository.ErrDuplicateEntry {
		return newError(KindInternal, "internal error")
	}
	logrus.WithError(err).Error("room write: repository error")
	return newError(KindInternal, "internal error")
}

func newID() string {
	return uuid.NewString()
}
