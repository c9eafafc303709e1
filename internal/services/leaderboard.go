package services

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/repos"
)

const leaderboardKey = "leaderboard:ai_score"

type LeaderboardEntry struct {
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name"`
	Sport    string    `json:"sport"`
	Position string    `json:"position"`
	County   string    `json:"county"`
	AIScore  float64   `json:"ai_score"`
}

// LeaderboardService keeps a redis sorted set of player aiScores in step with
// completed analyses. Reads fall back to the database when redis is absent or
// unreachable, so the public leaderboard never depends on the cache.
type LeaderboardService interface {
	RecordScore(ctx context.Context, playerID uuid.UUID, score float64)
	TopPlayers(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type leaderboardService struct {
	log      *logger.Logger
	rdb      *goredis.Client
	userRepo repos.UserRepo
}

func NewLeaderboardService(log *logger.Logger, userRepo repos.UserRepo) LeaderboardService {
	serviceLog := log.With("service", "LeaderboardService")

	var rdb *goredis.Client
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		serviceLog.Warn("REDIS_ADDR not set, leaderboard serves from database only")
	} else {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			serviceLog.Warn("Redis unreachable at startup, leaderboard serves from database only", "error", err)
			rdb = nil
		}
	}

	return &leaderboardService{
		log:      serviceLog,
		rdb:      rdb,
		userRepo: userRepo,
	}
}

// RecordScore is fire-and-forget: a cache write failure must never fail the
// scoring pipeline that triggered it.
func (ls *leaderboardService) RecordScore(ctx context.Context, playerID uuid.UUID, score float64) {
	if ls.rdb == nil {
		return
	}
	err := ls.rdb.ZAdd(ctx, leaderboardKey, goredis.Z{
		Score:  score,
		Member: playerID.String(),
	}).Err()
	if err != nil {
		ls.log.Warn("Failed to record score in leaderboard", "player_id", playerID, "error", err)
	}
}

func (ls *leaderboardService) TopPlayers(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	if ls.rdb != nil {
		entries, err := ls.topFromRedis(ctx, limit)
		if err == nil {
			return entries, nil
		}
		ls.log.Warn("Leaderboard read from redis failed, falling back to database", "error", err)
	}
	return ls.topFromDB(ctx, limit)
}

func (ls *leaderboardService) topFromRedis(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	zs, err := ls.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(zs))
	scores := make(map[uuid.UUID]float64, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		scores[id] = z.Score
	}

	entries := make([]LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		profile, err := ls.userRepo.GetPlayerProfile(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		if profile == nil || profile.User == nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			PlayerID: id,
			Name:     profile.User.FullName(),
			Sport:    profile.Sport,
			Position: profile.Position,
			County:   profile.User.County,
			AIScore:  scores[id],
		})
	}
	return entries, nil
}

func (ls *leaderboardService) topFromDB(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	profiles, err := ls.userRepo.ListTopPlayersByAIScore(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(profiles))
	for _, profile := range profiles {
		if profile.User == nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			PlayerID: profile.UserID,
			Name:     profile.User.FullName(),
			Sport:    profile.Sport,
			Position: profile.Position,
			County:   profile.User.County,
			AIScore:  profile.AIScore,
		})
	}
	return entries, nil
}
