package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"nick8/middlewares"
	"nick8/models"
	"nick8/services"
	"nick8/structs"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ProgressController serves the food log, streak and badge endpoints.
type ProgressController struct {
	service *services.ProgressService
	timeout time.Duration
}

func NewProgressController(service *services.ProgressService, timeout time.Duration) *ProgressController {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProgressController{service: service, timeout: timeout}
}

func (pc *ProgressController) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), pc.timeout)
}

// caller returns the authenticated identity or writes a 401.
func caller(c *gin.Context) (models.Identity, bool) {
	who, ok := middlewares.CurrentIdentity(c)
	if !ok {
		respondError(c, models.ErrUnauthorized, "User not authenticated")
	}
	return who, ok
}

// respondError maps service errors onto status codes.
func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrUnknownBadge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	case errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).Error(message)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": message})
	case errors.Is(err, models.ErrStoreUnavailable), errors.Is(err, models.ErrStreakUnavailable):
		log.WithError(err).Error(message)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": message})
	default:
		log.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func (pc *ProgressController) LogFood(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req structs.LogFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	in := services.LogFoodInput{
		FoodName:       req.FoodName,
		Ingredients:    req.Ingredients,
		NutritionFacts: req.NutritionFacts,
	}
	if req.DateTime != nil {
		in.DateTime = *req.DateTime
	}

	ctx, cancel := pc.requestContext(c)
	defer cancel()

	result, err := pc.service.LogFood(ctx, who, in)
	if err != nil {
		respondError(c, err, "Error logging food entry")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Food entry logged successfully",
		"entryId":   result.EntryID,
		"totalLogs": result.TotalLogs,
		"streak":    result.Streak,
		"newBadges": result.NewBadges,
		"warnings":  result.Warnings,
	})
}

func (pc *ProgressController) IncrementLogCount(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := pc.requestContext(c)
	defer cancel()

	total, err := pc.service.IncrementLogCount(ctx, who.Email)
	if err != nil {
		respondError(c, err, "Error incrementing log count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Log count incremented", "totalLogs": total})
}

func (pc *ProgressController) GetLogCount(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := pc.requestContext(c)
	defer cancel()

	total, err := pc.service.LogCount(ctx, who.Email)
	if err != nil {
		respondError(c, err, "Error fetching log count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalLogs": total})
}

func streakResponse(record models.StreakRecord) structs.StreakResponse {
	resp := structs.StreakResponse{Streak: record.Streak}
	if record.LastUpdated != "" {
		last := record.LastUpdated
		resp.LastUpdated = &last
	}
	return resp
}

func (pc *ProgressController) GetStreak(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := pc.requestContext(c)
	defer cancel()

	record, err := pc.service.Streak(ctx, who.Email)
	if err != nil {
		respondError(c, err, "Error getting user streak")
		return
	}
	c.JSON(http.StatusOK, streakResponse(record))
}

func (pc *ProgressController) UpdateStreak(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	// The body is optional and its streak value is not trusted.
	var req structs.UpdateStreakRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	ctx, cancel := pc.requestContext(c)
	defer cancel()

	record, err := pc.service.UpdateStreak(ctx, who.Email)
	if errors.Is(err, models.ErrAlreadyUpdatedToday) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Streak already updated today"})
		return
	}
	if err != nil {
		respondError(c, err, "Error updating streak")
		return
	}
	resp := streakResponse(record)
	c.JSON(http.StatusOK, gin.H{
		"message":     "Streak updated successfully",
		"streak":      resp.Streak,
		"lastUpdated": resp.LastUpdated,
	})
}

func (pc *ProgressController) AddBadge(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req structs.AddBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := pc.requestContext(c)
	defer cancel()

	badges, added, err := pc.service.AddBadge(ctx, who.Email, req.Badge)
	if err != nil {
		respondError(c, err, "Error adding badge")
		return
	}
	message := "Badge added successfully"
	if !added {
		message = "Badge already exists"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "badges": badges})
}

func (pc *ProgressController) GetBadges(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := pc.requestContext(c)
	defer cancel()

	badges, err := pc.service.Badges(ctx, who.Email)
	if err != nil {
		respondError(c, err, "Error getting user badges")
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// GetFoodEntries serves /food-entries/:timeframe for daily, weekly, monthly
// and monthly-weeks views.
func (pc *ProgressController) GetFoodEntries(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := pc.requestContext(c)
	defer cancel()

	var (
		data interface{}
		err  error
	)
	switch c.Param("timeframe") {
	case "daily":
		data, err = pc.service.DailyEntries(ctx, who.Email, c.Query("date"))
	case "weekly":
		weekStart, weekEnd := c.Query("weekStart"), c.Query("weekEnd")
		if weekStart == "" || weekEnd == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timeframe or missing weekStart/weekEnd"})
			return
		}
		data, err = pc.service.WeeklyAggregates(ctx, who.Email, weekStart, weekEnd)
	case "monthly", "monthly-weeks":
		offset, convErr := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
			return
		}
		if c.Param("timeframe") == "monthly" {
			data, err = pc.service.MonthlyAggregates(ctx, who.Email, offset)
		} else {
			data, err = pc.service.MonthlyWeeks(ctx, who.Email, offset)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timeframe or missing weekStart/weekEnd"})
		return
	}

	if err != nil {
		respondError(c, err, "Error fetching food entries")
		return
	}
	c.JSON(http.StatusOK, data)
}
