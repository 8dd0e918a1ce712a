package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(h.log), requestLogger(h.log))

	r.GET("/health", h.Health)

	r.GET("/portfolio", h.GetPortfolio)
	r.POST("/portfolio/transactions", h.PostTransaction)
	r.DELETE("/portfolio/holdings/:id", h.DeleteHolding)

	r.GET("/alerts", h.ListAlerts)
	r.POST("/alerts", h.PostAlert)
	r.POST("/alerts/evaluate", h.EvaluateAlerts)
	r.PATCH("/alerts/:id", h.PatchAlert)
	r.DELETE("/alerts/:id", h.DeleteAlert)
	r.POST("/alerts/:id/toggle", h.ToggleAlert)

	r.GET("/coins", h.ListCoins)
	r.GET("/prices", h.GetPrices)
	r.GET("/prices/:coinId/history", h.GetPriceHistory)
	r.GET("/convert", h.GetConvert)

	r.GET("/ws", h.Stream)
	return r
}

func requestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(loggerKey, log.WithField("request_id", id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestLog(c, log).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

// requestLog returns the request-scoped entry set by requestID.
func requestLog(c *gin.Context, log *logrus.Logger) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(log)
}
