package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/repos"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

// LatestAnalysis flattens the newest analysis with the video context it was
// scored in.
type LatestAnalysis struct {
	types.AnalysisResult

	AnalysisID uuid.UUID          `json:"analysis_id"`
	VideoID    uuid.UUID          `json:"video_id"`
	Video      LatestAnalysisClip `json:"video"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type LatestAnalysisClip struct {
	ID        uuid.UUID         `json:"id"`
	PlayerID  uuid.UUID         `json:"player_id"`
	Title     string            `json:"title"`
	Sport     string            `json:"sport"`
	Position  string            `json:"position"`
	Age       int               `json:"age"`
	Status    types.VideoStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

type AnalysisReadService interface {
	GetLatestAnalysis(ctx context.Context, playerID uuid.UUID) (*LatestAnalysis, error)
}

type analysisReadService struct {
	log          *logger.Logger
	videoRepo    repos.VideoRepo
	analysisRepo repos.AnalysisRepo
}

func NewAnalysisReadService(baseLog *logger.Logger, videoRepo repos.VideoRepo, analysisRepo repos.AnalysisRepo) AnalysisReadService {
	serviceLog := baseLog.With("service", "AnalysisReadService")
	return &analysisReadService{
		log:          serviceLog,
		videoRepo:    videoRepo,
		analysisRepo: analysisRepo,
	}
}

// GetLatestAnalysis resolves the player's newest video first and only then
// that video's analysis. When the newest video has no analysis yet the caller
// gets ErrAnalysisPending; it never silently falls back to an older video's
// analysis, even if newer videos are still processing.
func (as *analysisReadService) GetLatestAnalysis(ctx context.Context, playerID uuid.UUID) (*LatestAnalysis, error) {
	video, err := as.videoRepo.GetLatestByPlayer(ctx, nil, playerID)
	if err != nil {
		return nil, fmt.Errorf("load latest video: %w", err)
	}
	if video == nil {
		return nil, ErrNoVideos
	}

	analysis, err := as.analysisRepo.GetLatestByVideoID(ctx, nil, video.ID)
	if err != nil {
		return nil, fmt.Errorf("load analysis: %w", err)
	}
	if analysis == nil {
		return nil, ErrAnalysisPending
	}

	result, err := analysis.Result()
	if err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}

	return &LatestAnalysis{
		AnalysisResult: *result,
		AnalysisID:     analysis.ID,
		VideoID:        analysis.VideoID,
		Video: LatestAnalysisClip{
			ID:        video.ID,
			PlayerID:  video.PlayerID,
			Title:     video.Title,
			Sport:     video.Sport,
			Position:  video.Position,
			Age:       video.Age,
			Status:    video.Status,
			CreatedAt: video.CreatedAt,
		},
		CreatedAt: analysis.CreatedAt,
		UpdatedAt: analysis.UpdatedAt,
	}, nil
}
