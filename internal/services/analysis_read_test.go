package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/talentscoutke/talentscout-backend/internal/types"
)

type readFixture struct {
	videos   *fakeVideoRepo
	analyses *fakeAnalysisRepo
	svc      AnalysisReadService
}

func newReadFixture(t *testing.T) *readFixture {
	t.Helper()
	f := &readFixture{
		videos:   newFakeVideoRepo(),
		analyses: newFakeAnalysisRepo(),
	}
	f.svc = NewAnalysisReadService(newTestLogger(t), f.videos, f.analyses)
	return f
}

func (f *readFixture) addVideo(t *testing.T, playerID uuid.UUID, createdAt time.Time, status types.VideoStatus) *types.Video {
	t.Helper()
	video := &types.Video{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Title:     "Clip",
		Sport:     "Football",
		Position:  "Midfielder",
		Age:       17,
		Status:    status,
		CreatedAt: createdAt,
	}
	if _, err := f.videos.Create(context.Background(), nil, video); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return video
}

func (f *readFixture) addAnalysis(t *testing.T, videoID, playerID uuid.UUID, createdAt time.Time, overall float64) *types.Analysis {
	t.Helper()
	res := sampleResult()
	res.OverallScore = overall
	row, err := types.NewAnalysisFromResult(videoID, playerID, res)
	if err != nil {
		t.Fatalf("build analysis: %v", err)
	}
	row.CreatedAt = createdAt
	row.UpdatedAt = createdAt
	if _, err := f.analyses.Create(context.Background(), nil, row); err != nil {
		t.Fatalf("seed analysis: %v", err)
	}
	return row
}

func TestGetLatestAnalysisNoVideos(t *testing.T) {
	f := newReadFixture(t)

	_, err := f.svc.GetLatestAnalysis(context.Background(), uuid.New())
	if !errors.Is(err, ErrNoVideos) {
		t.Fatalf("expected ErrNoVideos, got %v", err)
	}
}

func TestGetLatestAnalysisPending(t *testing.T) {
	f := newReadFixture(t)
	playerID := uuid.New()
	f.addVideo(t, playerID, time.Now(), types.VideoStatusProcessing)

	_, err := f.svc.GetLatestAnalysis(context.Background(), playerID)
	if !errors.Is(err, ErrAnalysisPending) {
		t.Fatalf("expected ErrAnalysisPending, got %v", err)
	}
}

// The newest video is authoritative: a processing upload must not be skipped
// in favor of an older, already-scored one.
func TestGetLatestAnalysisDoesNotFallBackToOlderVideo(t *testing.T) {
	f := newReadFixture(t)
	playerID := uuid.New()
	now := time.Now()

	old := f.addVideo(t, playerID, now.Add(-48*time.Hour), types.VideoStatusCompleted)
	f.addAnalysis(t, old.ID, playerID, now.Add(-47*time.Hour), 88)
	f.addVideo(t, playerID, now, types.VideoStatusProcessing)

	_, err := f.svc.GetLatestAnalysis(context.Background(), playerID)
	if !errors.Is(err, ErrAnalysisPending) {
		t.Fatalf("expected ErrAnalysisPending for the newest video, got %v", err)
	}
}

func TestGetLatestAnalysisRoundTrip(t *testing.T) {
	f := newReadFixture(t)
	playerID := uuid.New()
	now := time.Now()

	video := f.addVideo(t, playerID, now.Add(-time.Hour), types.VideoStatusCompleted)
	row := f.addAnalysis(t, video.ID, playerID, now, 82)

	latest, err := f.svc.GetLatestAnalysis(context.Background(), playerID)
	if err != nil {
		t.Fatalf("GetLatestAnalysis: %v", err)
	}
	if latest.AnalysisID != row.ID || latest.VideoID != video.ID {
		t.Fatalf("identifiers wrong: %+v", latest)
	}
	if latest.OverallScore != 82 || latest.TechnicalSkills != 85 {
		t.Fatalf("scores not flattened: %+v", latest.AnalysisResult)
	}
	if len(latest.Strengths) != 2 || latest.Strengths[0] != "first touch" {
		t.Fatalf("strengths order lost: %v", latest.Strengths)
	}
	if latest.Video.Sport != "Football" || latest.Video.Position != "Midfielder" || latest.Video.Age != 17 {
		t.Fatalf("video snapshot fields missing: %+v", latest.Video)
	}
	if latest.Video.Status != types.VideoStatusCompleted {
		t.Fatalf("video status = %s", latest.Video.Status)
	}
}

// Re-scores append rows; the read side must surface the newest one.
func TestGetLatestAnalysisPrefersNewestRow(t *testing.T) {
	f := newReadFixture(t)
	playerID := uuid.New()
	now := time.Now()

	video := f.addVideo(t, playerID, now.Add(-time.Hour), types.VideoStatusCompleted)
	f.addAnalysis(t, video.ID, playerID, now.Add(-30*time.Minute), 70)
	f.addAnalysis(t, video.ID, playerID, now, 91)

	latest, err := f.svc.GetLatestAnalysis(context.Background(), playerID)
	if err != nil {
		t.Fatalf("GetLatestAnalysis: %v", err)
	}
	if latest.OverallScore != 91 {
		t.Fatalf("overallScore = %v, want the re-scored 91", latest.OverallScore)
	}
}
