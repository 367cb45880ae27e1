package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shortlyapp/shortly/internal/middleware"
	"github.com/shortlyapp/shortly/internal/models"
	"github.com/shortlyapp/shortly/internal/service"
)

type LinkHandler struct {
	service service.LinkService
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		logger:  logger,
	}
}

// Shorten handles POST /urls/shorten.
func (h *LinkHandler) Shorten(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var input models.ShortenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"msg": err.Error()}}})
		return
	}

	link, err := h.service.Shorten(c.Request.Context(), userID, input.LongURL)
	if err != nil {
		h.logger.Error("failed to shorten url", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": link, "message": "URL shortened successfully"})
}

// Resolve handles GET /urls/:short_code. Public; each successful lookup
// counts as a click.
func (h *LinkHandler) Resolve(c *gin.Context) {
	code := c.Param("short_code")

	link, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "URL not found"})
			return
		}
		h.logger.Error("failed to resolve url", zap.String("short_code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": link, "message": "URL found successfully"})
}

// List handles GET /urls.
func (h *LinkHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	links, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list urls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": links, "message": "URLs fetched successfully"})
}

// Update handles PUT and PATCH /urls/:short_code. A link that exists but
// belongs to someone else reads the same as one that does not exist.
func (h *LinkHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var input models.UpdateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"msg": err.Error()}}})
		return
	}

	code := c.Param("short_code")
	link, err := h.service.Update(c.Request.Context(), code, userID, input.LongURL)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "URL not found"})
			return
		}
		h.logger.Error("failed to update url", zap.String("short_code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": link, "message": "URL updated successfully"})
}

// Delete handles DELETE /urls/:short_code.
func (h *LinkHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	code := c.Param("short_code")
	if err := h.service.Delete(c.Request.Context(), code, userID); err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "URL not found"})
			return
		}
		h.logger.Error("failed to delete url", zap.String("short_code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "URL deleted successfully"})
}

// Stats handles GET /urls/stats/:short_code. Owner-scoped, like the other
// authenticated link reads.
func (h *LinkHandler) Stats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	code := c.Param("short_code")
	stats, err := h.service.Stats(c.Request.Context(), code, userID)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "URL not found"})
			return
		}
		h.logger.Error("failed to get url stats", zap.String("short_code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats, "message": "URL stats fetched successfully"})
}
