package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/repository"
)

const leaderboardSize = 10

type LeaderboardHandler struct {
	Users  repository.UserStore
	Logger *zap.Logger
}

func (h *LeaderboardHandler) Register(r *gin.Engine) {
	r.GET("/api/leaderboard", h.leaderboard)
}

type leaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type leaderboardResponse struct {
	Leaderboard  []leaderboardEntry `json:"leaderboard"`
	TotalPlayers int64              `json:"totalPlayers"`
	LastUpdated  time.Time          `json:"lastUpdated"`
}

// @Summary Top players by score
// @Tags users
// @Success 200 {object} leaderboardResponse
// @Router /api/leaderboard [get]
func (h *LeaderboardHandler) leaderboard(c *gin.Context) {
	if h.Users == nil {
		Error(c, http.StatusInternalServerError, "store unavailable")
		return
	}
	ctx := c.Request.Context()
	top, err := h.Users.ListTopUsers(ctx, leaderboardSize)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("leaderboard query failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "Failed to get leaderboard")
		return
	}
	total, err := h.Users.CountUsers(ctx)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to get leaderboard")
		return
	}

	entries := make([]leaderboardEntry, 0, len(top))
	for _, account := range top {
		entries = append(entries, leaderboardEntry{
			Username: account.Username,
			Score:    account.Score,
		})
	}
	c.JSON(http.StatusOK, leaderboardResponse{
		Leaderboard:  entries,
		TotalPlayers: total,
		LastUpdated:  time.Now().UTC(),
	})
}
