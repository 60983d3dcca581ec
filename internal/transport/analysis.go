package transport

import (
	"net/http"

	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/internal/logger"
	"go-skin-inspector/internal/service"
	"go-skin-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (h *handler) analyzeSession(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.diagnosis.AnalyzeSession(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// analyzeImage runs a posted image through the upload path and the
// diagnosis in one request.
func (h *handler) analyzeImage(c *gin.Context) {
	fh, err := h.fileFromRequest(c)
	if err != nil {
		fail(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	img, err := service.LoadImage(ctx, fh, h.upload)
	if err != nil {
		fail(c, err)
		return
	}
	result, err := h.diagnosis.AnalyzeImage(ctx, img)
	if err != nil {
		fail(c, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"file":       fh.Name(),
		"condition":  result.Condition.ID,
		"confidence": result.Confidence,
	}).Info("Image analysis completed successfully")
	c.JSON(http.StatusOK, result)
}

func (h *handler) sendChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request format", err))
		return
	}
	c.JSON(http.StatusOK, h.chat.SendMessage(c.Request.Context(), req.Message))
}
