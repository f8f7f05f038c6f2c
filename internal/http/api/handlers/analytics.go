package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/promptline/smsrouter/internal/analytics"
	log "github.com/sirupsen/logrus"
)

// AnalyticsHandler serves per-user usage reports.
type AnalyticsHandler struct {
	service *analytics.Service
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// UserReport returns the usage summary for one sender.
func (h *AnalyticsHandler) UserReport(c *gin.Context) {
	phone := c.Param("phone")
	report, errReport := h.service.ReportFor(c.Request.Context(), phone)
	if errReport != nil {
		if errors.Is(errReport, analytics.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.WithError(errReport).Error("analytics: report failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "build report failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}
