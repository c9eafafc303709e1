package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/talentscoutke/talentscout-backend/internal/config"
	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/repos"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

type UploadMeta struct {
	Title       string
	Description string
	IsPublic    bool
}

type SubmitResult struct {
	Video    *types.Video
	Analysis *types.Analysis
	Result   *types.AnalysisResult
}

// VideoIntakeService is the single entry point that turns "a player has a
// video and wants it scored" into a consistent video+analysis record pair.
//
// SubmitVideo runs the whole pipeline before returning. SubmitVideoAsync
// creates the record and returns immediately; the claim worker started by
// StartWorker performs the scoring and the caller polls the status field.
// Either way, the write order is fixed: video record, then scoring call, then
// analysis record and terminal status.
type VideoIntakeService interface {
	SubmitVideo(ctx context.Context, requesterID uuid.UUID, data []byte, meta UploadMeta) (*SubmitResult, error)
	SubmitVideoAsync(ctx context.Context, requesterID uuid.UUID, data []byte, meta UploadMeta) (*types.Video, error)
	ScoreExistingVideo(ctx context.Context, requesterID, videoID uuid.UUID) (*SubmitResult, error)
	StartWorker(ctx context.Context)
}

type videoIntakeService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	videoRepo    repos.VideoRepo
	analysisRepo repos.AnalysisRepo
	bucket       BucketService
	media        MediaToolsService
	scorer       ScoringClient
	leaderboard  LeaderboardService
	scoring      config.ScoringPolicy
}

func NewVideoIntakeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	videoRepo repos.VideoRepo,
	analysisRepo repos.AnalysisRepo,
	bucket BucketService,
	media MediaToolsService,
	scorer ScoringClient,
	leaderboard LeaderboardService,
	scoring config.ScoringPolicy,
) VideoIntakeService {
	serviceLog := baseLog.With("service", "VideoIntakeService")
	return &videoIntakeService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		videoRepo:    videoRepo,
		analysisRepo: analysisRepo,
		bucket:       bucket,
		media:        media,
		scorer:       scorer,
		leaderboard:  leaderboard,
		scoring:      scoring,
	}
}

func (vs *videoIntakeService) SubmitVideo(ctx context.Context, requesterID uuid.UUID, data []byte, meta UploadMeta) (*SubmitResult, error) {
	video, err := vs.intake(ctx, requesterID, data, meta, true)
	if err != nil {
		return nil, err
	}
	analysis, result, err := vs.runScoring(ctx, video)
	if err != nil {
		// The video record and blob stay; only the terminal status changed.
		return &SubmitResult{Video: video}, err
	}
	return &SubmitResult{Video: video, Analysis: analysis, Result: result}, nil
}

func (vs *videoIntakeService) SubmitVideoAsync(ctx context.Context, requesterID uuid.UUID, data []byte, meta UploadMeta) (*types.Video, error) {
	return vs.intake(ctx, requesterID, data, meta, false)
}

// intake performs the upload-side half of the pipeline: profile validation
// before any blob I/O, blob upload, then the video record with a snapshot of
// sport/position/age taken at this instant. claimed marks the record as
// already locked so the background worker cannot race the synchronous caller.
func (vs *videoIntakeService) intake(ctx context.Context, requesterID uuid.UUID, data []byte, meta UploadMeta, claimed bool) (*types.Video, error) {
	profile, err := vs.userRepo.GetPlayerProfile(ctx, nil, requesterID)
	if err != nil {
		return nil, fmt.Errorf("load player profile: %w", err)
	}
	if profile == nil || profile.User == nil || !profile.User.IsActive {
		return nil, &NotFoundError{Msg: "player profile not found"}
	}
	if profile.Sport == "" {
		return nil, &ValidationError{Msg: "player profile missing required 'sport' field"}
	}
	if len(data) == 0 {
		return nil, &ValidationError{Msg: "no video file provided"}
	}

	durationSeconds := 0
	if d, err := vs.media.ProbeDurationSeconds(ctx, data); err != nil {
		vs.log.Warn("Duration probe failed, storing zero duration", "error", err)
	} else {
		durationSeconds = d
	}

	videoID := uuid.New()
	key := fmt.Sprintf("videos/%s/%s", requesterID, videoID)
	if err := vs.bucket.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, &UploadError{Err: err}
	}

	title := meta.Title
	if title == "" {
		title = "Untitled Video"
	}

	video := &types.Video{
		ID:              videoID,
		PlayerID:        requesterID,
		Title:           title,
		Description:     meta.Description,
		VideoURL:        vs.bucket.GetPublicURL(key),
		StorageKey:      key,
		DurationSeconds: durationSeconds,
		FileSizeMB:      math.Round(float64(len(data))/(1024*1024)*100) / 100,
		Status:          types.VideoStatusProcessing,
		IsPublic:        meta.IsPublic,
		Sport:           profile.Sport,
		Position:        profile.Position,
		Age:             calculateAge(profile.User.DateOfBirth, time.Now()),
	}
	if claimed {
		now := time.Now()
		video.LockedAt = &now
		video.ScoreAttempts = 1
	}

	if _, err := vs.videoRepo.Create(ctx, nil, video); err != nil {
		return nil, fmt.Errorf("create video record: %w", err)
	}

	vs.log.Info("Video record created",
		"video_id", video.ID,
		"player_id", requesterID,
		"sport", video.Sport,
		"claimed", claimed,
	)
	return video, nil
}

// ScoreExistingVideo re-runs scoring for a video the requester owns. A retry
// always produces a brand-new analysis row; prior rows are never mutated.
func (vs *videoIntakeService) ScoreExistingVideo(ctx context.Context, requesterID, videoID uuid.UUID) (*SubmitResult, error) {
	video, err := vs.videoRepo.GetByID(ctx, nil, videoID)
	if err != nil {
		return nil, fmt.Errorf("load video: %w", err)
	}
	if video == nil || video.PlayerID != requesterID {
		return nil, &NotFoundError{Msg: "video not found or access denied"}
	}

	staleLock := time.Duration(vs.scoring.StaleLockSeconds) * time.Second
	if video.Status == types.VideoStatusProcessing && video.LockedAt != nil && time.Since(*video.LockedAt) < staleLock {
		return nil, &ValidationError{Msg: "analysis already in progress for this video"}
	}

	now := time.Now()
	if err := vs.videoRepo.UpdateFields(ctx, nil, video.ID, map[string]interface{}{
		"status":         types.VideoStatusProcessing,
		"locked_at":      now,
		"score_attempts": gorm.Expr("score_attempts + 1"),
	}); err != nil {
		return nil, fmt.Errorf("mark video processing: %w", err)
	}
	video.Status = types.VideoStatusProcessing
	video.LockedAt = &now

	analysis, result, err := vs.runScoring(ctx, video)
	if err != nil {
		return &SubmitResult{Video: video}, err
	}
	return &SubmitResult{Video: video, Analysis: analysis, Result: result}, nil
}

// runScoring drives the back half of the pipeline for a claimed video:
// scoring call, analysis insert, terminal status. On any failure the video is
// marked failed and the cause surfaces as an AnalysisError; the record and
// the uploaded blob are deliberately kept for inspection and retry.
func (vs *videoIntakeService) runScoring(ctx context.Context, video *types.Video) (*types.Analysis, *types.AnalysisResult, error) {
	result, err := vs.scorer.ScoreVideo(ctx, video.VideoURL, video.Sport, video.Position, video.Age)
	if err != nil {
		stage := scoringStage(err)
		vs.markFailed(ctx, video.ID, stage, err)
		return nil, nil, &AnalysisError{Stage: stage, Err: err}
	}

	row, err := types.NewAnalysisFromResult(video.ID, video.PlayerID, result)
	if err != nil {
		vs.markFailed(ctx, video.ID, "persist", err)
		return nil, nil, &AnalysisError{Stage: "persist", Err: err}
	}
	if _, err := vs.analysisRepo.Create(ctx, nil, row); err != nil {
		vs.markFailed(ctx, video.ID, "persist", err)
		return nil, nil, &AnalysisError{Stage: "persist", Err: err}
	}

	if err := vs.videoRepo.UpdateFields(ctx, nil, video.ID, map[string]interface{}{
		"status":    types.VideoStatusCompleted,
		"locked_at": nil,
	}); err != nil {
		// The analysis row exists, so completed is the truthful state; the
		// claim worker will not rescore a terminal record.
		vs.log.Error("Failed to mark video completed", "video_id", video.ID, "error", err)
		return nil, nil, &AnalysisError{Stage: "persist", Err: err}
	}
	video.Status = types.VideoStatusCompleted

	if err := vs.userRepo.UpdatePlayerAIScore(ctx, nil, video.PlayerID, result.OverallScore); err != nil {
		vs.log.Warn("Failed to update denormalized player aiScore", "player_id", video.PlayerID, "error", err)
	}
	if vs.leaderboard != nil {
		vs.leaderboard.RecordScore(ctx, video.PlayerID, result.OverallScore)
	}

	vs.log.Info("Video scored",
		"video_id", video.ID,
		"player_id", video.PlayerID,
		"overall_score", result.OverallScore,
	)
	return row, result, nil
}

func (vs *videoIntakeService) markFailed(ctx context.Context, videoID uuid.UUID, stage string, cause error) {
	vs.log.Error("Scoring failed, marking video failed",
		"video_id", videoID,
		"stage", stage,
		"error", cause,
	)
	if err := vs.videoRepo.UpdateFields(ctx, nil, videoID, map[string]interface{}{
		"status":    types.VideoStatusFailed,
		"locked_at": nil,
	}); err != nil {
		vs.log.Error("Failed to mark video failed", "video_id", videoID, "error", err)
	}
}

func scoringStage(err error) string {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return "fetch"
	}
	var malformedErr *MalformedResponseError
	if errors.As(err, &malformedErr) {
		return "parse"
	}
	return "model"
}

// StartWorker runs the background half of the async entry point: a claim
// loop that picks up unclaimed processing videos and scores them with
// bounded concurrency. A stale lock (worker crash) makes the video
// claimable again up to MaxAttempts, after which it is failed out.
func (vs *videoIntakeService) StartWorker(ctx context.Context) {
	staleLock := time.Duration(vs.scoring.StaleLockSeconds) * time.Second

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		sweep := time.NewTicker(1 * time.Minute)
		defer sweep.Stop()

		g := new(errgroup.Group)
		g.SetLimit(vs.scoring.WorkerConcurrency)

		for {
			select {
			case <-ctx.Done():
				_ = g.Wait()
				return
			case <-sweep.C:
				if n, err := vs.videoRepo.FailExhausted(ctx, vs.scoring.MaxAttempts, staleLock); err != nil {
					vs.log.Warn("FailExhausted sweep failed", "error", err)
				} else if n > 0 {
					vs.log.Warn("Failed out videos with exhausted scoring attempts", "count", n)
				}
			case <-ticker.C:
				video, err := vs.videoRepo.ClaimNextPending(ctx, vs.scoring.MaxAttempts, staleLock)
				if err != nil {
					vs.log.Warn("ClaimNextPending failed", "error", err)
					continue
				}
				if video == nil {
					continue
				}
				g.Go(func() error {
					scoreCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
					defer cancel()
					_, _, err := vs.runScoring(scoreCtx, video)
					if err != nil {
						vs.log.Warn("Background scoring failed", "video_id", video.ID, "error", err)
					}
					return nil
				})
			}
		}
	}()
}

// calculateAge derives a whole-year age at the reference time. The value is
// snapshotted onto the video record; it is never recomputed later.
func calculateAge(dateOfBirth, at time.Time) int {
	if dateOfBirth.IsZero() {
		return 0
	}
	age := at.Year() - dateOfBirth.Year()
	anniversary := time.Date(at.Year(), dateOfBirth.Month(), dateOfBirth.Day(), 0, 0, 0, 0, at.Location())
	if at.Before(anniversary) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
