package handlers

import (
	"net/http"

	"cointrack/internal/alerts"
	"cointrack/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AlertRequest struct {
	Coin        models.Coin `json:"coin"`
	TargetPrice string      `json:"targetPrice" binding:"required"`
	AlertType   string      `json:"alertType" binding:"required"`
	IsActive    *bool       `json:"isActive"`
}

type AlertPatchRequest struct {
	TargetPrice *string `json:"targetPrice"`
	AlertType   *string `json:"alertType"`
	IsActive    *bool   `json:"isActive"`
	CoinName    *string `json:"coinName"`
	CoinSymbol  *string `json:"coinSymbol"`
}

func (h *Handler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, h.alerts.Alerts())
}

func (h *Handler) PostAlert(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger(c).Warnf("invalid alert body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := decimal.NewFromString(req.TargetPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid targetPrice format"})
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	a, err := h.alerts.Add(c.Request.Context(), alerts.NewAlert{
		Coin:        req.Coin,
		TargetPrice: target,
		AlertType:   models.AlertType(req.AlertType),
		IsActive:    active,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) PatchAlert(c *gin.Context) {
	var req AlertPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := alerts.Update{IsActive: req.IsActive, CoinName: req.CoinName, CoinSymbol: req.CoinSymbol}
	if req.TargetPrice != nil {
		target, err := decimal.NewFromString(*req.TargetPrice)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid targetPrice format"})
			return
		}
		u.TargetPrice = &target
	}
	if req.AlertType != nil {
		kind := models.AlertType(*req.AlertType)
		u.AlertType = &kind
	}

	a, err := h.alerts.Update(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAlert(c *gin.Context) {
	if err := h.alerts.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *Handler) ToggleAlert(c *gin.Context) {
	a, err := h.alerts.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// EvaluateAlerts runs one monitor pass immediately and reports what fired.
func (h *Handler) EvaluateAlerts(c *gin.Context) {
	fired, err := h.monitor.RunOnce(c.Request.Context())
	if err != nil {
		h.logger(c).Warnf("manual evaluation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "evaluation failed"})
		return
	}
	if fired == nil {
		fired = []alerts.Crossing{}
	}
	c.JSON(http.StatusOK, gin.H{"triggered": fired})
}
