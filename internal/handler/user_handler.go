package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shortlyapp/shortly/internal/models"
	"github.com/shortlyapp/shortly/internal/service"
)

type UserHandler struct {
	service service.UserService
	logger  *zap.Logger
}

func NewUserHandler(service service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// Register handles POST /auth/users.
func (h *UserHandler) Register(c *gin.Context) {
	var input models.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"msg": err.Error()}}})
		return
	}

	user, err := h.service.Register(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		h.logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": user, "message": "User created successfully"})
}

// Login handles POST /auth/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"msg": err.Error()}}})
		return
	}

	token, err := h.service.Login(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		h.logger.Error("failed to log user in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"token": token}, "message": "Login successful"})
}

// Logout handles GET /auth/users/logout. The bearer token stays valid until
// it expires; this only clears browser session state.
func (h *UserHandler) Logout(c *gin.Context) {
	c.SetCookie(csrfCookieNameForClear, "", -1, "/", "", false, false)
	c.Status(http.StatusNoContent)
}

// csrfCookieNameForClear mirrors the middleware cookie name; logout drops it
// so the next browser session starts clean.
const csrfCookieNameForClear = "csrf_token"

// GetAll handles GET /auth/users.
func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users, "message": "Users fetched successfully"})
}

// GetByID handles GET /auth/users/:id.
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.logger.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user, "message": "User fetched successfully"})
}

// Update handles PUT /auth/users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	var input models.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"msg": err.Error()}}})
		return
	}

	user, err := h.service.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrEmailExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		default:
			h.logger.Error("failed to update user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user, "message": "User updated successfully"})
}

// Delete handles DELETE /auth/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.logger.Error("failed to delete user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
