package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentscoutke/talentscout-backend/internal/services"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// AnalysisError is deliberately not handled here: it needs the "upload
// succeeded, scoring failed" shape that only the triggering handler can
// build.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Msg})
		return
	}
	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Msg})
		return
	}
	var uploadErr *services.UploadError
	if errors.As(err, &uploadErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func isNotFound(err error) bool {
	var notFoundErr *services.NotFoundError
	return errors.As(err, &notFoundErr)
}
