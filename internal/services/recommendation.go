package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/talentscoutke/talentscout-backend/internal/config"
	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/repos"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

// RecommendedPlayer is one ranked entry on a scout's dashboard.
type RecommendedPlayer struct {
	PlayerID         uuid.UUID `json:"player_id"`
	Name             string    `json:"name"`
	Sport            string    `json:"sport"`
	Position         string    `json:"position"`
	County           string    `json:"county"`
	Age              int       `json:"age"`
	ConsistencyScore float64   `json:"consistency_score"`
	LatestScore      float64   `json:"latest_score"`
	AnalysisCount    int       `json:"analysis_count"`
	Avatar           string    `json:"avatar"`
}

// RecommendationService ranks players for a scout by consistency: the mean
// overallScore across analyses inside a trailing window, gated by a minimum
// number of analyses. Sustained recent performance beats a single high
// outlier score.
type RecommendationService interface {
	GetRecommendations(ctx context.Context, scoutID uuid.UUID) ([]RecommendedPlayer, error)
}

type recommendationService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	analysisRepo repos.AnalysisRepo
	policy       config.ScoutingPolicy
}

func NewRecommendationService(baseLog *logger.Logger, userRepo repos.UserRepo, analysisRepo repos.AnalysisRepo, policy config.ScoutingPolicy) RecommendationService {
	serviceLog := baseLog.With("service", "RecommendationService")
	return &recommendationService{
		log:          serviceLog,
		userRepo:     userRepo,
		analysisRepo: analysisRepo,
		policy:       policy,
	}
}

func (rs *recommendationService) GetRecommendations(ctx context.Context, scoutID uuid.UUID) ([]RecommendedPlayer, error) {
	scout, err := rs.userRepo.GetScoutProfile(ctx, nil, scoutID)
	if err != nil {
		return nil, fmt.Errorf("load scout profile: %w", err)
	}
	if scout == nil {
		return nil, &NotFoundError{Msg: "scout profile not found"}
	}

	sports := decodeStringList(scout.PreferredSports)
	counties := decodeStringList(scout.PreferredCounties)

	players, err := rs.userRepo.ListPlayers(ctx, nil, sports, counties)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	if len(players) == 0 {
		return []RecommendedPlayer{}, nil
	}

	now := time.Now()
	windowStart := now.AddDate(0, 0, -rs.policy.WindowDays)

	var mu sync.Mutex
	ranked := make([]RecommendedPlayer, 0, len(players))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rs.policy.AggregationConcurrency)
	for _, player := range players {
		g.Go(func() error {
			entry, err := rs.scorePlayer(gctx, player, windowStart)
			if err != nil {
				return err
			}
			if entry == nil {
				return nil
			}
			mu.Lock()
			ranked = append(ranked, *entry)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].ConsistencyScore != ranked[j].ConsistencyScore {
			return ranked[i].ConsistencyScore > ranked[j].ConsistencyScore
		}
		if ranked[i].LatestScore != ranked[j].LatestScore {
			return ranked[i].LatestScore > ranked[j].LatestScore
		}
		return ranked[i].PlayerID.String() < ranked[j].PlayerID.String()
	})

	if len(ranked) > rs.policy.MaxResults {
		ranked = ranked[:rs.policy.MaxResults]
	}
	return ranked, nil
}

// scorePlayer computes the consistency score for one player. Players with too
// few analyses inside the window are excluded, not scored as zero; players
// below the threshold are excluded too.
func (rs *recommendationService) scorePlayer(ctx context.Context, player *types.PlayerProfile, windowStart time.Time) (*RecommendedPlayer, error) {
	analyses, err := rs.analysisRepo.ListByPlayerSince(ctx, nil, player.UserID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("list analyses for player %s: %w", player.UserID, err)
	}
	if len(analyses) < rs.policy.MinAnalyses {
		return nil, nil
	}

	var sum float64
	for _, a := range analyses {
		sum += a.OverallScore
	}
	mean := sum / float64(len(analyses))
	if mean < rs.policy.MinConsistencyScore {
		return nil, nil
	}

	// ListByPlayerSince orders newest first.
	latest := analyses[0].OverallScore

	entry := &RecommendedPlayer{
		PlayerID:         player.UserID,
		Sport:            player.Sport,
		Position:         player.Position,
		ConsistencyScore: mean,
		LatestScore:      latest,
		AnalysisCount:    len(analyses),
		Avatar:           "/placeholder.svg",
	}
	if player.User != nil {
		entry.Name = player.User.FullName()
		entry.County = player.User.County
		entry.Age = calculateAge(player.User.DateOfBirth, time.Now())
		if player.User.ProfileImageURL != "" {
			entry.Avatar = player.User.ProfileImageURL
		}
	}
	return entry, nil
}

func decodeStringList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
