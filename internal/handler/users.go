package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/models"
	"github.com/hega4444/btcgame/internal/repository"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 20
)

type UserHandler struct {
	Users  repository.UserStore
	Logger *zap.Logger

	// Now is a test seam; nil means wall clock.
	Now func() time.Time
}

func (h *UserHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *UserHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.POST("/register-user", h.registerUser)
	group.GET("/user/:userId/stats", h.userStats)
	group.DELETE("/user/:userId", h.forgetUser)
}

type registerUserRequest struct {
	Username string `json:"username"`
	ClientID string `json:"clientId"`
}

type registerUserResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	ClientID string `json:"clientId"`
}

// @Summary Register a player or change their username
// @Tags users
// @Accept json
// @Param request body registerUserRequest true "username and client id"
// @Success 200 {object} registerUserResponse
// @Failure 409 {object} errorResponse
// @Router /api/register-user [post]
func (h *UserHandler) registerUser(c *gin.Context) {
	if h.Users == nil {
		Error(c, http.StatusInternalServerError, "store unavailable")
		return
	}
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Username and clientId are required")
		return
	}
	username := strings.TrimSpace(req.Username)
	clientID := strings.TrimSpace(req.ClientID)
	if username == "" || clientID == "" {
		Error(c, http.StatusBadRequest, "Username and clientId are required")
		return
	}
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		Error(c, http.StatusBadRequest, "Username must be between 3 and 20 characters")
		return
	}

	ctx := c.Request.Context()
	holder, err := h.Users.GetUserByUsername(ctx, username)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to register user")
		return
	}
	if holder != nil && holder.OwnerID != clientID {
		Error(c, http.StatusConflict, "Username already taken")
		return
	}

	existing, err := h.Users.GetUserByOwnerID(ctx, clientID)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to register user")
		return
	}
	if existing != nil {
		updated, err := h.Users.UpdateUsername(ctx, clientID, username, h.now())
		if err != nil || !updated {
			if h.Logger != nil {
				h.Logger.Warn("username update failed", zap.String("client_id", clientID), zap.Error(err))
			}
			Error(c, http.StatusInternalServerError, "Failed to register user")
			return
		}
		c.JSON(http.StatusOK, registerUserResponse{
			Message:  "Username updated successfully",
			Username: username,
			ClientID: clientID,
		})
		return
	}

	now := h.now()
	account := &models.UserAccount{
		OwnerID:     clientID,
		Username:    username,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := h.Users.InsertUser(ctx, account); err != nil {
		// A concurrent registration can take the name between the check
		// and the insert; the unique index is the arbiter.
		if h.Logger != nil {
			h.Logger.Warn("user insert failed", zap.String("client_id", clientID), zap.Error(err))
		}
		Error(c, http.StatusConflict, "Username already taken")
		return
	}
	c.JSON(http.StatusOK, registerUserResponse{
		Message:  "User registered successfully",
		Username: username,
		ClientID: clientID,
	})
}

// @Summary Player score and display name
// @Tags users
// @Param userId path string true "client id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} errorResponse
// @Router /api/user/{userId}/stats [get]
func (h *UserHandler) userStats(c *gin.Context) {
	if h.Users == nil {
		Error(c, http.StatusInternalServerError, "store unavailable")
		return
	}
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		Error(c, http.StatusBadRequest, "Missing clientId")
		return
	}
	account, err := h.Users.GetUserByOwnerID(c.Request.Context(), userID)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to get user stats")
		return
	}
	if account == nil {
		Error(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": account.Username,
		"score":    account.Score,
	})
}

// @Summary Erase a player and everything they created
// @Tags users
// @Param userId path string true "client id"
// @Success 200 {object} map[string]any
// @Router /api/user/{userId} [delete]
func (h *UserHandler) forgetUser(c *gin.Context) {
	if h.Users == nil {
		Error(c, http.StatusInternalServerError, "store unavailable")
		return
	}
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		Error(c, http.StatusBadRequest, "Missing userId")
		return
	}
	result, err := h.Users.EraseOwner(c.Request.Context(), userID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("user erasure failed", zap.String("client_id", userID), zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "Failed to delete user data")
		return
	}
	if h.Logger != nil {
		h.Logger.Info("user data erased",
			zap.String("client_id", userID),
			zap.Int64("users", result.Users),
			zap.Int64("bets", result.Wagers),
			zap.Int64("results", result.Records),
		)
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User data deleted successfully",
		"userId":  userID,
	})
}
