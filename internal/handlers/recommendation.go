package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/requestdata"
	"github.com/talentscoutke/talentscout-backend/internal/services"
)

type RecommendationHandler struct {
	log             *logger.Logger
	recommendations services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recommendations services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log:             log.With("handler", "RecommendationHandler"),
		recommendations: recommendations,
	}
}

// GET /scouts/recommendations
// Scout dashboards treat this as best-effort: an internal failure degrades to
// an empty list rather than a broken page. Missing-profile errors still 404 so
// onboarding can redirect.
func (h *RecommendationHandler) Recommendations(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	players, err := h.recommendations.GetRecommendations(c.Request.Context(), rd.UserID)
	if err != nil {
		if isNotFound(err) {
			respondServiceError(c, err)
			return
		}
		h.log.Error("Recommendation aggregation failed", "scout_id", rd.UserID, "error", err)
		c.JSON(http.StatusOK, gin.H{"success": true, "recommendations": []services.RecommendedPlayer{}})
		return
	}
	if players == nil {
		players = []services.RecommendedPlayer{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "recommendations": players})
}
