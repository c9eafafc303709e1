package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/repos"
	"github.com/talentscoutke/talentscout-backend/internal/requestdata"
	"github.com/talentscoutke/talentscout-backend/internal/services"
)

// Uploads are capped well below gin's default multipart memory ceiling.
const maxVideoBytes = 200 << 20

type VideoHandler struct {
	log       *logger.Logger
	intake    services.VideoIntakeService
	videoRepo repos.VideoRepo
}

func NewVideoHandler(log *logger.Logger, intake services.VideoIntakeService, videoRepo repos.VideoRepo) *VideoHandler {
	return &VideoHandler{
		log:       log.With("handler", "VideoHandler"),
		intake:    intake,
		videoRepo: videoRepo,
	}
}

// POST /videos
// Multipart: video, title, description, isPublic, mode. The default mode
// uploads and returns immediately with status "processing"; mode=sync awaits
// the full scoring pipeline and inlines the result.
func (h *VideoHandler) Upload(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no video file provided"})
		return
	}
	if fileHeader.Size > maxVideoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video file too large"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable video file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxVideoBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable video file"})
		return
	}
	if len(data) > maxVideoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video file too large"})
		return
	}

	meta := services.UploadMeta{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		IsPublic:    c.PostForm("isPublic") == "true",
	}

	if c.PostForm("mode") == "sync" {
		h.uploadSync(c, rd.UserID, data, meta)
		return
	}

	video, err := h.intake.SubmitVideoAsync(c.Request.Context(), rd.UserID, data, meta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Video uploaded successfully and analysis started",
		"videoId": video.ID,
		"url":     video.VideoURL,
		"title":   video.Title,
		"status":  video.Status,
	})
}

func (h *VideoHandler) uploadSync(c *gin.Context, userID uuid.UUID, data []byte, meta services.UploadMeta) {
	res, err := h.intake.SubmitVideo(c.Request.Context(), userID, data, meta)
	if err != nil {
		var analysisErr *services.AnalysisError
		if errors.As(err, &analysisErr) && res != nil && res.Video != nil {
			// Upload succeeded; only scoring failed. The caller re-triggers
			// scoring on the existing video instead of re-uploading.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "analysis failed",
				"stage":   analysisErr.Stage,
				"videoId": res.Video.ID,
				"url":     res.Video.VideoURL,
				"status":  res.Video.Status,
			})
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"videoId":  res.Video.ID,
		"url":      res.Video.VideoURL,
		"title":    res.Video.Title,
		"status":   res.Video.Status,
		"analysis": res.Result,
	})
}

// POST /videos/:id/view
func (h *VideoHandler) RecordView(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}
	video, err := h.videoRepo.GetByID(c.Request.Context(), nil, videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if video == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err := h.videoRepo.IncrementViewCount(c.Request.Context(), nil, videoID); err != nil {
		h.log.Warn("Failed to increment view count", "video_id", videoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
