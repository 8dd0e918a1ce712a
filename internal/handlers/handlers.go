package handlers

import (
	"errors"
	"net/http"
	"time"

	"cointrack/internal/alerts"
	"cointrack/internal/database"
	"cointrack/internal/market"
	"cointrack/internal/models"
	"cointrack/internal/portfolio"
	"cointrack/internal/realtime"
	"cointrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	portfolio *portfolio.Engine
	alerts    *alerts.Engine
	prices    service.PriceProvider
	coins     service.MarketLister
	monitor   *service.Monitor
	repo      *database.Repo
	hub       *realtime.Hub
	upgrader  websocket.Upgrader
	log       *logrus.Logger
}

func NewHandler(p *portfolio.Engine, a *alerts.Engine, prices service.PriceProvider, coins service.MarketLister, m *service.Monitor, r *database.Repo, hub *realtime.Hub, log *logrus.Logger) *Handler {
	return &Handler{
		portfolio: p,
		alerts:    a,
		prices:    prices,
		coins:     coins,
		monitor:   m,
		repo:      r,
		hub:       hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type TransactionRequest struct {
	Type     string      `json:"type" binding:"required"`
	Quantity string      `json:"quantity" binding:"required"`
	Price    string      `json:"price" binding:"required"`
	Date     *time.Time  `json:"date"`
	Coin     models.Coin `json:"coin"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetPortfolio values the current holdings. Coins without a price are
// reported with hasPrice=false and contribute nothing to the value.
func (h *Handler) GetPortfolio(c *gin.Context) {
	holdings := h.portfolio.Holdings()
	prices := models.Prices{}
	if len(holdings) > 0 {
		p, err := h.prices.Prices(c.Request.Context(), h.portfolio.CoinIDs())
		if err != nil {
			h.logger(c).Warnf("pricing portfolio failed: %v", err)
		} else {
			prices = p
		}
	}
	c.JSON(http.StatusOK, portfolio.Summarize(holdings, prices))
}

func (h *Handler) PostTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger(c).Warnf("invalid transaction body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity format"})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price format"})
		return
	}

	in := portfolio.TransactionInput{Type: models.TransactionType(req.Type), Quantity: qty, Price: price}
	if req.Date != nil {
		in.Date = *req.Date
	}
	holding, err := h.portfolio.ApplyTransaction(c.Request.Context(), in, req.Coin)
	if err != nil {
		h.fail(c, err)
		return
	}
	if holding == nil {
		c.JSON(http.StatusOK, gin.H{"holding": nil, "status": "closed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"holding": holding})
}

func (h *Handler) DeleteHolding(c *gin.Context) {
	if err := h.portfolio.RemoveHolding(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *Handler) logger(c *gin.Context) *logrus.Entry {
	return requestLog(c, h.log)
}

// fail maps domain errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, portfolio.ErrInvalidTransaction), errors.Is(err, alerts.ErrInvalidAlert):
		status = http.StatusBadRequest
	case errors.Is(err, portfolio.ErrHoldingNotFound), errors.Is(err, alerts.ErrAlertNotFound):
		status = http.StatusNotFound
	case errors.Is(err, portfolio.ErrNoHolding), errors.Is(err, portfolio.ErrInsufficientQuantity):
		status = http.StatusConflict
	case errors.Is(err, market.ErrNoPrice):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		h.logger(c).Errorf("request failed: %v", err)
		c.JSON(status, gin.H{"error": "internal"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
