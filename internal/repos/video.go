package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

type VideoRepo interface {
	Create(ctx context.Context, tx *gorm.DB, video *types.Video) (*types.Video, error)
	GetByID(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (*types.Video, error)
	GetLatestByPlayer(ctx context.Context, tx *gorm.DB, playerID uuid.UUID) (*types.Video, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, videoID uuid.UUID, fields map[string]interface{}) error
	IncrementViewCount(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) error
	ClaimNextPending(ctx context.Context, maxAttempts int, staleLock time.Duration) (*types.Video, error)
	FailExhausted(ctx context.Context, maxAttempts int, staleLock time.Duration) (int64, error)
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	repoLog := baseLog.With("repo", "VideoRepo")
	return &videoRepo{db: db, log: repoLog}
}

func (vr *videoRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return vr.db
}

func (vr *videoRepo) Create(ctx context.Context, tx *gorm.DB, video *types.Video) (*types.Video, error) {
	if err := vr.conn(tx).WithContext(ctx).Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

func (vr *videoRepo) GetByID(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (*types.Video, error) {
	var video types.Video
	err := vr.conn(tx).WithContext(ctx).
		Where("id = ?", videoID).
		First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// GetLatestByPlayer is the operative lookup for the read layer: the player's
// newest video by creation time, regardless of its processing status.
func (vr *videoRepo) GetLatestByPlayer(ctx context.Context, tx *gorm.DB, playerID uuid.UUID) (*types.Video, error) {
	var video types.Video
	err := vr.conn(tx).WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at DESC, id DESC").
		First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (vr *videoRepo) UpdateFields(ctx context.Context, tx *gorm.DB, videoID uuid.UUID, fields map[string]interface{}) error {
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	return vr.conn(tx).WithContext(ctx).
		Model(&types.Video{}).
		Where("id = ?", videoID).
		Updates(fields).Error
}

func (vr *videoRepo) IncrementViewCount(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) error {
	return vr.conn(tx).WithContext(ctx).
		Model(&types.Video{}).
		Where("id = ?", videoID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// ClaimNextPending atomically claims the oldest unclaimed processing video for
// the scoring worker. A row is claimable when its lock is empty or stale and
// it still has attempts left. Claiming bumps score_attempts and takes the
// lock, so two workers can never race-score the same video.
func (vr *videoRepo) ClaimNextPending(ctx context.Context, maxAttempts int, staleLock time.Duration) (*types.Video, error) {
	var claimed *types.Video
	err := vr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		staleCutoff := now.Add(-staleLock)

		var video types.Video
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", types.VideoStatusProcessing).
			Where("score_attempts < ?", maxAttempts).
			Where("locked_at IS NULL OR locked_at < ?", staleCutoff).
			Order("created_at ASC").
			First(&video).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&types.Video{}).
			Where("id = ?", video.ID).
			Updates(map[string]interface{}{
				"score_attempts": gorm.Expr("score_attempts + 1"),
				"locked_at":      now,
				"updated_at":     now,
			}).Error; err != nil {
			return err
		}

		video.ScoreAttempts++
		video.LockedAt = &now
		claimed = &video
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// FailExhausted moves processing videos whose attempts ran out and whose lock
// went stale into the failed terminal state, so the read layer stops seeing
// them as pending forever.
func (vr *videoRepo) FailExhausted(ctx context.Context, maxAttempts int, staleLock time.Duration) (int64, error) {
	now := time.Now()
	res := vr.db.WithContext(ctx).
		Model(&types.Video{}).
		Where("status = ?", types.VideoStatusProcessing).
		Where("score_attempts >= ?", maxAttempts).
		Where("locked_at IS NOT NULL AND locked_at < ?", now.Add(-staleLock)).
		Updates(map[string]interface{}{
			"status":     types.VideoStatusFailed,
			"locked_at":  nil,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
