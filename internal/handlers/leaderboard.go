package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/services"
)

const defaultLeaderboardLimit = 10

type LeaderboardHandler struct {
	log         *logger.Logger
	leaderboard services.LeaderboardService
}

func NewLeaderboardHandler(log *logger.Logger, leaderboard services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		log:         log.With("handler", "LeaderboardHandler"),
		leaderboard: leaderboard,
	}
}

// GET /leaderboard?limit=N
func (h *LeaderboardHandler) Top(c *gin.Context) {
	limit := defaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.TopPlayers(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Leaderboard lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if entries == nil {
		entries = []services.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "leaderboard": entries})
}
