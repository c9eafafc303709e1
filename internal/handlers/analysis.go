package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/requestdata"
	"github.com/talentscoutke/talentscout-backend/internal/services"
)

type AnalysisHandler struct {
	log    *logger.Logger
	intake services.VideoIntakeService
	reads  services.AnalysisReadService
}

func NewAnalysisHandler(log *logger.Logger, intake services.VideoIntakeService, reads services.AnalysisReadService) *AnalysisHandler {
	return &AnalysisHandler{
		log:    log.With("handler", "AnalysisHandler"),
		intake: intake,
		reads:  reads,
	}
}

// POST /analyses
// Re-runs scoring on a video the caller owns. Each run creates a new analysis
// row; the newest one wins on the read side.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		VideoID string `json:"videoId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing videoId"})
		return
	}
	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid videoId"})
		return
	}

	res, err := h.intake.ScoreExistingVideo(c.Request.Context(), rd.UserID, videoID)
	if err != nil {
		var analysisErr *services.AnalysisError
		if errors.As(err, &analysisErr) && res != nil && res.Video != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "analysis failed",
				"stage":   analysisErr.Stage,
				"videoId": res.Video.ID,
				"status":  res.Video.Status,
			})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"analysisId": res.Analysis.ID,
		"videoId":    res.Video.ID,
		"status":     res.Video.Status,
		"result":     res.Result,
	})
}

// GET /analyses/latest
// The latest analysis for the caller's newest video. The two 404 messages are
// distinct on purpose: "no videos" renders an upload prompt, "not completed
// yet" renders a processing state.
func (h *AnalysisHandler) Latest(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	latest, err := h.reads.GetLatestAnalysis(c.Request.Context(), rd.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}
