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

type AnalysisRepo interface {
	Create(ctx context.Context, tx *gorm.DB, analysis *types.Analysis) (*types.Analysis, error)
	GetLatestByVideoID(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (*types.Analysis, error)
	ListByPlayerSince(ctx context.Context, tx *gorm.DB, playerID uuid.UUID, since time.Time) ([]*types.Analysis, error)
}

type analysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisRepo {
	repoLog := baseLog.With("repo", "AnalysisRepo")
	return &analysisRepo{db: db, log: repoLog}
}

func (ar *analysisRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

func (ar *analysisRepo) Create(ctx context.Context, tx *gorm.DB, analysis *types.Analysis) (*types.Analysis, error) {
	if err := ar.conn(tx).WithContext(ctx).Create(analysis).Error; err != nil {
		return nil, err
	}
	return analysis, nil
}

// GetLatestByVideoID resolves "the analysis for this video". Re-scores insert
// new rows, so the newest row by creation time wins.
func (ar *analysisRepo) GetLatestByVideoID(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (*types.Analysis, error) {
	var analysis types.Analysis
	err := ar.conn(tx).WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC, id DESC").
		First(&analysis).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ListByPlayerSince returns the player's analyses created at or after the
// cutoff, newest first. Used by the consistency-window aggregation.
func (ar *analysisRepo) ListByPlayerSince(ctx context.Context, tx *gorm.DB, playerID uuid.UUID, since time.Time) ([]*types.Analysis, error) {
	var results []*types.Analysis
	err := ar.conn(tx).WithContext(ctx).
		Where("player_id = ?", playerID).
		Where("created_at >= ?", since).
		Order("created_at DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
