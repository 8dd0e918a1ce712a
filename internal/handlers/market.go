package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"cointrack/internal/market"
	"cointrack/internal/portfolio"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListCoins returns the market-cap ranked listing used to pick coins.
func (h *Handler) ListCoins(c *gin.Context) {
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "100"))
	if err != nil || perPage <= 0 || perPage > market.MaxPerPage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "per_page must be between 1 and 250"})
		return
	}
	coins, err := h.coins.Markets(c.Request.Context(), perPage)
	if err != nil {
		h.logger(c).Warnf("coin listing failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "coin listing unavailable"})
		return
	}
	c.JSON(http.StatusOK, coins)
}

func (h *Handler) GetPrices(c *gin.Context) {
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}
	prices, err := h.prices.Prices(c.Request.Context(), ids)
	if err != nil {
		h.logger(c).Warnf("price lookup failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "price fetch failed"})
		return
	}
	c.JSON(http.StatusOK, prices)
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := h.repo.GetPriceHistory(c.Request.Context(), c.Param("coinId"), since)
	if err != nil {
		h.logger(c).Errorf("get price history failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	res := []map[string]string{}
	for _, r := range rows {
		res = append(res, map[string]string{
			"timestamp": r.Timestamp.UTC().Format(time.RFC3339),
			"usd_value": r.PriceUSD.String(),
		})
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetConvert(c *gin.Context) {
	from := strings.ToLower(strings.TrimSpace(c.Query("from")))
	to := strings.ToLower(strings.TrimSpace(c.Query("to")))
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}
	amount, err := decimal.NewFromString(c.DefaultQuery("amount", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount format"})
		return
	}

	var ids []string
	for _, id := range []string{from, to} {
		if id != market.USD {
			ids = append(ids, id)
		}
	}
	prices, err := h.prices.Prices(c.Request.Context(), ids)
	if err != nil {
		h.logger(c).Warnf("price lookup failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "price fetch failed"})
		return
	}
	result, err := market.Convert(amount, from, to, prices)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "amount": amount, "result": result})
}

// Stream upgrades to a websocket, sends the current portfolio summary and
// then relays hub events until the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger(c).Debugf("websocket upgrade failed: %v", err)
		return
	}
	h.hub.AddClient(conn)

	holdings := h.portfolio.Holdings()
	if prices, err := h.prices.Prices(c.Request.Context(), h.portfolio.CoinIDs()); err == nil {
		_ = h.hub.Send(conn, gin.H{"type": "snapshot", "summary": portfolio.Summarize(holdings, prices)})
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.hub.RemoveClient(conn)
			return
		}
	}
}
