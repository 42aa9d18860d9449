package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/game"
	"github.com/hega4444/btcgame/internal/models"
)

type BetHandler struct {
	Resolver *game.Resolver
	Logger   *zap.Logger
}

func (h *BetHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.POST("/place-bet", h.placeBet)
	group.GET("/bet/:betId", h.betStatus)
}

type placeBetRequest struct {
	UserID   string `json:"userId"`
	Currency string `json:"currency"`
	BetType  string `json:"betType"`
}

type placeBetResponse struct {
	Message    string          `json:"message"`
	BetID      string          `json:"betId"`
	PriceAtBet decimal.Decimal `json:"priceAtBet"`
	Timestamp  time.Time       `json:"timestamp"`
}

type betView struct {
	BetID      string          `json:"betId"`
	UserID     string          `json:"userId"`
	Currency   string          `json:"currency"`
	BetType    string          `json:"betType"`
	PriceAtBet decimal.Decimal `json:"priceAtBet"`
	Timestamp  time.Time       `json:"timestamp"`
	Status     string          `json:"status"`
}

type betResultView struct {
	BetID        string          `json:"betId"`
	UserID       string          `json:"userId"`
	Won          bool            `json:"won"`
	Profit       int             `json:"profit"`
	InitialPrice decimal.Decimal `json:"initialPrice"`
	FinalPrice   decimal.Decimal `json:"finalPrice"`
	Timestamp    time.Time       `json:"timestamp"`
}

type betStatusResponse struct {
	Status string         `json:"status"`
	Bet    *betView       `json:"bet,omitempty"`
	Result *betResultView `json:"result,omitempty"`
}

// @Summary Place an up/down bet
// @Tags bets
// @Accept json
// @Param request body placeBetRequest true "bet parameters"
// @Success 200 {object} placeBetResponse
// @Failure 400 {object} errorResponse
// @Router /api/place-bet [post]
func (h *BetHandler) placeBet(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "resolver unavailable")
		return
	}
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Currency = strings.TrimSpace(req.Currency)
	req.BetType = strings.TrimSpace(req.BetType)
	if req.UserID == "" || req.Currency == "" || req.BetType == "" {
		Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	wager, err := h.Resolver.PlaceWager(c.Request.Context(), req.UserID, req.Currency, req.BetType)
	switch {
	case err == nil:
	case errors.Is(err, game.ErrActiveWagerExists):
		ErrorWithMessage(c, http.StatusBadRequest, "Active bet exists", "You still have active bets")
		return
	case errors.Is(err, game.ErrNoPriceAvailable):
		Error(c, http.StatusBadRequest, "No price data available")
		return
	case errors.Is(err, game.ErrInvalidDirection):
		Error(c, http.StatusBadRequest, "betType must be 'up' or 'down'")
		return
	default:
		if h.Logger != nil {
			h.Logger.Warn("place bet failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "Failed to place bet")
		return
	}

	c.JSON(http.StatusOK, placeBetResponse{
		Message:    "Bet placed successfully",
		BetID:      wager.ID,
		PriceAtBet: wager.PriceAtPlacement,
		Timestamp:  wager.PlacedAt,
	})
}

// @Summary Poll a bet until it settles
// @Tags bets
// @Param betId path string true "bet id"
// @Success 200 {object} betStatusResponse
// @Failure 404 {object} errorResponse
// @Router /api/bet/{betId} [get]
func (h *BetHandler) betStatus(c *gin.Context) {
	if h.Resolver == nil {
		Error(c, http.StatusInternalServerError, "resolver unavailable")
		return
	}
	betID := c.Param("betId")
	if !game.ValidWagerID(betID) {
		Error(c, http.StatusBadRequest, "Invalid betId")
		return
	}

	// Polling drives settlement: a ripe bet settles on the poll that
	// observes it, not on a later sweep tick.
	if _, err := h.Resolver.TrySettle(c.Request.Context(), betID); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("settle on poll failed", zap.String("bet_id", betID), zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "Failed to get bet status")
		return
	}

	status, err := h.Resolver.Status(c.Request.Context(), betID)
	if err != nil {
		Error(c, http.StatusInternalServerError, "Failed to get bet status")
		return
	}
	if status == nil {
		Error(c, http.StatusNotFound, "Bet not found")
		return
	}

	resp := betStatusResponse{Status: status.Status}
	if status.Status == models.WagerStatusCompleted && status.Result != nil {
		resp.Result = &betResultView{
			BetID:        status.Result.WagerID,
			UserID:       status.Result.OwnerID,
			Won:          status.Result.Won,
			Profit:       status.Result.ScoreDelta,
			InitialPrice: status.Result.InitialPrice,
			FinalPrice:   status.Result.FinalPrice,
			Timestamp:    status.Result.Timestamp,
		}
	} else if status.Wager != nil {
		resp.Bet = &betView{
			BetID:      status.Wager.ID,
			UserID:     status.Wager.OwnerID,
			Currency:   status.Wager.Currency,
			BetType:    status.Wager.Direction,
			PriceAtBet: status.Wager.PriceAtPlacement,
			Timestamp:  status.Wager.PlacedAt,
			Status:     status.Wager.Status,
		}
	}
	c.JSON(http.StatusOK, resp)
}
