package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

type UserRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetPlayerProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PlayerProfile, error)
	GetScoutProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ScoutProfile, error)
	ListPlayers(ctx context.Context, tx *gorm.DB, sports []string, counties []string) ([]*types.PlayerProfile, error)
	UpdatePlayerAIScore(ctx context.Context, tx *gorm.DB, userID uuid.UUID, score float64) error
	ListTopPlayersByAIScore(ctx context.Context, tx *gorm.DB, limit int) ([]*types.PlayerProfile, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	var user types.User
	err := ur.conn(tx).WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := ur.conn(tx).WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetPlayerProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PlayerProfile, error) {
	var profile types.PlayerProfile
	err := ur.conn(tx).WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (ur *userRepo) GetScoutProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ScoutProfile, error) {
	var profile types.ScoutProfile
	err := ur.conn(tx).WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListPlayers returns active player profiles, optionally narrowed to the
// given sports and counties. Empty slices mean no filter on that axis.
func (ur *userRepo) ListPlayers(ctx context.Context, tx *gorm.DB, sports []string, counties []string) ([]*types.PlayerProfile, error) {
	q := ur.conn(tx).WithContext(ctx).
		Model(&types.PlayerProfile{}).
		Preload("User").
		Joins(`JOIN "user" ON "user".id = player_profile.user_id`).
		Where(`"user".role = ?`, types.RolePlayer).
		Where(`"user".is_active = ?`, true)
	if len(sports) > 0 {
		q = q.Where("player_profile.sport IN ?", sports)
	}
	if len(counties) > 0 {
		q = q.Where(`"user".county IN ?`, counties)
	}

	var results []*types.PlayerProfile
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) UpdatePlayerAIScore(ctx context.Context, tx *gorm.DB, userID uuid.UUID, score float64) error {
	return ur.conn(tx).WithContext(ctx).
		Model(&types.PlayerProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"ai_score":   score,
			"updated_at": time.Now(),
		}).Error
}

func (ur *userRepo) ListTopPlayersByAIScore(ctx context.Context, tx *gorm.DB, limit int) ([]*types.PlayerProfile, error) {
	var results []*types.PlayerProfile
	if limit <= 0 {
		return results, nil
	}
	err := ur.conn(tx).WithContext(ctx).
		Model(&types.PlayerProfile{}).
		Preload("User").
		Where("ai_score > 0").
		Order("ai_score DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
