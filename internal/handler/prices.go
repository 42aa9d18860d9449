package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/pricefeed"
)

type PriceHandler struct {
	History *pricefeed.History
	Logger  *zap.Logger
}

func (h *PriceHandler) Register(r *gin.Engine) {
	r.GET("/api/bitcoin/prices/:currency", h.priceWindow)
}

type pricePointView struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
}

type priceWindowResponse struct {
	Currency string           `json:"currency"`
	Prices   []pricePointView `json:"prices"`
}

// @Summary Recent BTC price window for the chart
// @Tags prices
// @Param currency path string true "fiat currency (usd|eur|gbp)"
// @Success 200 {object} priceWindowResponse
// @Router /api/bitcoin/prices/{currency} [get]
func (h *PriceHandler) priceWindow(c *gin.Context) {
	if h.History == nil {
		Error(c, http.StatusInternalServerError, "price history unavailable")
		return
	}
	currency := strings.ToLower(strings.TrimSpace(c.Param("currency")))
	if currency == "" {
		currency = "usd"
	}

	ticks, err := h.History.Window(c.Request.Context(), currency)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("price window failed", zap.String("currency", currency), zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "Failed to get prices")
		return
	}

	points := make([]pricePointView, 0, len(ticks))
	for _, tick := range ticks {
		points = append(points, pricePointView{
			Timestamp: tick.Timestamp,
			Price:     tick.Price,
			Currency:  tick.Currency,
		})
	}
	c.JSON(http.StatusOK, priceWindowResponse{Currency: currency, Prices: points})
}
