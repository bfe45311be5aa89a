package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roomsplit/internal/domain"
	"roomsplit/internal/repository"
)

// GormRoomRepository is the RoomRepository interface's GORM implementation.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a GormRoomRepository instance.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) CreateRoom(ctx context.Context, room domain.Room, owner domain.User) (repository.RoomAggregate, error) {
	var agg repository.RoomAggregate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", owner.ID).FirstOrCreate(&owner).Error; err != nil {
			return fmt.Errorf("gorm: upsert owner %s: %w", owner.ID, err)
		}
		if err := tx.Create(&room).Error; err != nil {
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
				return repository.ErrRoomCodeConflict
			}
			return fmt.Errorf("gorm: create room (code: %s): %w", room.Code, err)
		}
		membership := domain.Membership{
			ID:       newMembershipID(),
			RoomID:   room.ID,
			UserID:   owner.ID,
			Team:     domain.TeamNone,
			JoinedAt: room.CreatedAt,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("gorm: create owner membership for room %s: %w", room.ID, err)
		}
		agg = repository.RoomAggregate{
			Room:  room,
			Owner: owner,
			Members: []repository.MemberWithUser{
				{Membership: membership, User: owner},
			},
		}
		return nil
	})
	if err != nil {
		return repository.RoomAggregate{}, err
	}
	return agg, nil
}

func (r *GormRoomRepository) GetRoomByCode(ctx context.Context, code string) (repository.RoomAggregate, error) {
	return r.loadAggregate(r.db.WithContext(ctx), code)
}

func (r *GormRoomRepository) FindOwnedWaitingRoom(ctx context.Context, userID string) (*repository.RoomAggregate, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", userID, domain.StatusWaiting).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("gorm: find owned waiting room for user %s: %w", userID, err)
	}
	agg, err := r.loadAggregate(r.db.WithContext(ctx), room.Code)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *GormRoomRepository) FindJoinedRoom(ctx context.Context, userID string) (*repository.RoomAggregate, error) {
	var membership domain.Membership
	err := r.db.WithContext(ctx).
		Joins("JOIN rooms ON rooms.id = memberships.room_id").
		Where("memberships.user_id = ? AND rooms.owner_id <> ? AND rooms.status <> ?", userID, userID, domain.StatusClosed).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("gorm: find joined membership for user %s: %w", userID, err)
	}
	var room domain.Room
	if err := r.db.WithContext(ctx).Where("id = ? AND status <> ?", membership.RoomID, domain.StatusClosed).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("gorm: load room %s for membership: %w", membership.RoomID, err)
	}
	if room.OwnerID == userID {
		return nil, nil
	}
	agg, err := r.loadAggregate(r.db.WithContext(ctx), room.Code)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *GormRoomRepository) FindStaleWaitingRoomCodes(ctx context.Context, before time.Time) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("status = ? AND last_active_at < ?", domain.StatusWaiting, before).
		Pluck("code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find stale waiting rooms before %s: %w", before, err)
	}
	return codes, nil
}

func (r *GormRoomRepository) DeleteRoom(ctx context.Context, roomID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&domain.Membership{}).Error; err != nil {
			return fmt.Errorf("gorm: delete memberships for room %s: %w", roomID, err)
		}
		if err := tx.Where("id = ?", roomID).Delete(&domain.Room{}).Error; err != nil {
			return fmt.Errorf("gorm: delete room %s: %w", roomID, err)
		}
		return nil
	})
}

// WithRoomLock loads the room under SELECT ... FOR UPDATE and keeps the
// lock for the lifetime of fn, serializing every mutation against the same
// code across concurrent callers.
func (r *GormRoomRepository) WithRoomLock(ctx context.Context, code string, fn func(agg *repository.RoomAggregate, w repository.RoomWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room domain.Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ? AND status <> ?", code, domain.StatusClosed).
			First(&room).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("gorm: lock room %s: %w", code, err)
		}

		agg, err := r.loadAggregate(tx, code)
		if err != nil {
			return err
		}

		writer := &txRoomWriter{tx: tx}
		return fn(&agg, writer)
	})
}

func (r *GormRoomRepository) loadAggregate(db *gorm.DB, code string) (repository.RoomAggregate, error) {
	var room domain.Room
	if err := db.Where("code = ? AND status <> ?", code, domain.StatusClosed).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.RoomAggregate{}, repository.ErrNotFound
		}
		return repository.RoomAggregate{}, fmt.Errorf("gorm: load room %s: %w", code, err)
	}

	var owner domain.User
	if err := db.Where("id = ?", room.OwnerID).First(&owner).Error; err != nil {
		return repository.RoomAggregate{}, fmt.Errorf("gorm: load owner %s: %w", room.OwnerID, err)
	}

	var memberships []domain.Membership
	if err := db.Where("room_id = ?", room.ID).Order("joined_at").Find(&memberships).Error; err != nil {
		return repository.RoomAggregate{}, fmt.Errorf("gorm: load memberships for room %s: %w", room.ID, err)
	}

	members := make([]repository.MemberWithUser, 0, len(memberships))
	for _, m := range memberships {
		var u domain.User
		if m.UserID == owner.ID {
			u = owner
		} else if err := db.Where("id = ?", m.UserID).First(&u).Error; err != nil {
			return repository.RoomAggregate{}, fmt.Errorf("gorm: load member user %s: %w", m.UserID, err)
		}
		members = append(members, repository.MemberWithUser{Membership: m, User: u})
	}

	return repository.RoomAggregate{Room: room, Owner: owner, Members: members}, nil
}

// txRoomWriter is the RoomWriter bound to the transaction WithRoomLock
// opened; every method runs against the same locked row.
type txRoomWriter struct {
	tx *gorm.DB
}

func (w *txRoomWriter) AddMember(ctx context.Context, roomID string, user domain.User) (domain.Membership, error) {
	if err := w.tx.WithContext(ctx).Where("id = ?", user.ID).FirstOrCreate(&user).Error; err != nil {
		return domain.Membership{}, fmt.Errorf("gorm: upsert member user %s: %w", user.ID, err)
	}
	membership := domain.Membership{
		ID:     newMembershipID(),
		RoomID: roomID,
		UserID: user.ID,
		Team:   domain.TeamNone,
	}
	if err := w.tx.WithContext(ctx).Create(&membership).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return domain.Membership{}, repository.ErrAlreadyMember
		}
		return domain.Membership{}, fmt.Errorf("gorm: create membership (room %s, user %s): %w", roomID, user.ID, err)
	}
	return membership, nil
}

func (w *txRoomWriter) RemoveMember(ctx context.Context, roomID, userID string) error {
	err := w.tx.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.Membership{}).Error
	if err != nil {
		return fmt.Errorf("gorm: remove member (room %s, user %s): %w", roomID, userID, err)
	}
	return nil
}

func (w *txRoomWriter) UpdateMemberTeam(ctx context.Context, membershipID string, team domain.Team) error {
	err := w.tx.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("id = ?", membershipID).
		Update("team", team).Error
	if err != nil {
		return fmt.Errorf("gorm: update member %s team: %w", membershipID, err)
	}
	return nil
}

func (w *txRoomWriter) UpdateMemberLabels(ctx context.Context, membershipID string, labels []domain.Label) error {
	err := w.tx.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("id = ?", membershipID).
		Update("labels", labels).Error
	if err != nil {
		return fmt.Errorf("gorm: update member %s labels: %w", membershipID, err)
	}
	return nil
}

func (w *txRoomWriter) UpdateRoom(ctx context.Context, room domain.Room) error {
	if err := w.tx.WithContext(ctx).Save(&room).Error; err != nil {
		return fmt.Errorf("gorm: save room %s: %w", room.ID, err)
	}
	return nil
}
