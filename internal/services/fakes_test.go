package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// ---- Fake repos ----
//
// In-memory stand-ins for the gorm repos. The tx argument is ignored the same
// way a nil tx falls through to the pooled connection in the real ones.

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*types.User
	players  map[uuid.UUID]*types.PlayerProfile
	scouts   map[uuid.UUID]*types.ScoutProfile
	aiScores map[uuid.UUID]float64

	aiScoreErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    map[uuid.UUID]*types.User{},
		players:  map[uuid.UUID]*types.PlayerProfile{},
		scouts:   map[uuid.UUID]*types.ScoutProfile{},
		aiScores: map[uuid.UUID]float64{},
	}
}

func (f *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID], nil
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.User
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetPlayerProfile(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.PlayerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.players[userID], nil
}

func (f *fakeUserRepo) GetScoutProfile(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.ScoutProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scouts[userID], nil
}

func (f *fakeUserRepo) ListPlayers(_ context.Context, _ *gorm.DB, sports []string, counties []string) ([]*types.PlayerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.PlayerProfile
	for _, p := range f.players {
		if p.User == nil || p.User.Role != types.RolePlayer || !p.User.IsActive {
			continue
		}
		if len(sports) > 0 && !containsString(sports, p.Sport) {
			continue
		}
		if len(counties) > 0 && !containsString(counties, p.User.County) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

func (f *fakeUserRepo) UpdatePlayerAIScore(_ context.Context, _ *gorm.DB, userID uuid.UUID, score float64) error {
	if f.aiScoreErr != nil {
		return f.aiScoreErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aiScores[userID] = score
	return nil
}

func (f *fakeUserRepo) ListTopPlayersByAIScore(_ context.Context, _ *gorm.DB, limit int) ([]*types.PlayerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.PlayerProfile
	for _, p := range f.players {
		if p.AIScore > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AIScore > out[j].AIScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

type fakeVideoRepo struct {
	mu     sync.Mutex
	videos map[uuid.UUID]*types.Video

	createErr error
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: map[uuid.UUID]*types.Video{}}
}

func (f *fakeVideoRepo) Create(_ context.Context, _ *gorm.DB, video *types.Video) (*types.Video, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now()
	}
	cp := *video
	f.videos[video.ID] = &cp
	return video, nil
}

func (f *fakeVideoRepo) GetByID(_ context.Context, _ *gorm.DB, videoID uuid.UUID) (*types.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVideoRepo) GetLatestByPlayer(_ context.Context, _ *gorm.DB, playerID uuid.UUID) (*types.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *types.Video
	for _, v := range f.videos {
		if v.PlayerID != playerID {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeVideoRepo) UpdateFields(_ context.Context, _ *gorm.DB, videoID uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return fmt.Errorf("video %s not found", videoID)
	}
	for key, val := range fields {
		switch key {
		case "status":
			v.Status = val.(types.VideoStatus)
		case "locked_at":
			switch t := val.(type) {
			case time.Time:
				v.LockedAt = &t
			case *time.Time:
				v.LockedAt = t
			case nil:
				v.LockedAt = nil
			}
		case "score_attempts":
			// gorm.Expr("score_attempts + 1") in the real repo.
			v.ScoreAttempts++
		}
	}
	return nil
}

func (f *fakeVideoRepo) IncrementViewCount(_ context.Context, _ *gorm.DB, videoID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.videos[videoID]; ok {
		v.ViewCount++
	}
	return nil
}

func (f *fakeVideoRepo) ClaimNextPending(_ context.Context, maxAttempts int, staleLock time.Duration) (*types.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var oldest *types.Video
	for _, v := range f.videos {
		if v.Status != types.VideoStatusProcessing || v.ScoreAttempts >= maxAttempts {
			continue
		}
		if v.LockedAt != nil && now.Sub(*v.LockedAt) < staleLock {
			continue
		}
		if oldest == nil || v.CreatedAt.Before(oldest.CreatedAt) {
			oldest = v
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.ScoreAttempts++
	oldest.LockedAt = &now
	cp := *oldest
	return &cp, nil
}

func (f *fakeVideoRepo) FailExhausted(_ context.Context, maxAttempts int, staleLock time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var n int64
	for _, v := range f.videos {
		if v.Status == types.VideoStatusProcessing && v.ScoreAttempts >= maxAttempts &&
			v.LockedAt != nil && now.Sub(*v.LockedAt) >= staleLock {
			v.Status = types.VideoStatusFailed
			v.LockedAt = nil
			n++
		}
	}
	return n, nil
}

type fakeAnalysisRepo struct {
	mu       sync.Mutex
	analyses []*types.Analysis

	createErr error
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{}
}

func (f *fakeAnalysisRepo) Create(_ context.Context, _ *gorm.DB, analysis *types.Analysis) (*types.Analysis, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now()
	}
	cp := *analysis
	f.analyses = append(f.analyses, &cp)
	return analysis, nil
}

func (f *fakeAnalysisRepo) GetLatestByVideoID(_ context.Context, _ *gorm.DB, videoID uuid.UUID) (*types.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *types.Analysis
	for _, a := range f.analyses {
		if a.VideoID != videoID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeAnalysisRepo) ListByPlayerSince(_ context.Context, _ *gorm.DB, playerID uuid.UUID, since time.Time) ([]*types.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Analysis
	for _, a := range f.analyses {
		if a.PlayerID == playerID && !a.CreatedAt.Before(since) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- Fake blob store, probe, scorer, leaderboard ----

type fakeBucket struct {
	mu      sync.Mutex
	uploads []string

	uploadErr error
}

func (f *fakeBucket) UploadFile(_ context.Context, key string, file io.Reader) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeBucket) DeleteFile(_ context.Context, key string) error { return nil }

func (f *fakeBucket) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeBucket) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fakeMediaTools struct {
	duration int
	err      error
}

func (f *fakeMediaTools) ProbeDurationSeconds(_ context.Context, _ []byte) (int, error) {
	return f.duration, f.err
}

type fakeScorer struct {
	mu     sync.Mutex
	calls  int
	result *types.AnalysisResult
	err    error
}

func (f *fakeScorer) ScoreVideo(_ context.Context, videoURL, sport, position string, age int) (*types.AnalysisResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.result
	return &cp, nil
}

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLeaderboard struct {
	mu     sync.Mutex
	scores map[uuid.UUID]float64
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: map[uuid.UUID]float64{}}
}

func (f *fakeLeaderboard) RecordScore(_ context.Context, playerID uuid.UUID, score float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[playerID] = score
}

func (f *fakeLeaderboard) TopPlayers(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	return nil, nil
}
