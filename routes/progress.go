package routes

import (
	"nick8/controllers"

	"github.com/gin-gonic/gin"
)

// SetupProgressRoutes registers the log-count, streak and badge endpoints.
// limit guards the write endpoints and may be nil.
func SetupProgressRoutes(router *gin.RouterGroup, pc *controllers.ProgressController, limit gin.HandlerFunc) {
	writes := []gin.HandlerFunc{}
	if limit != nil {
		writes = append(writes, limit)
	}

	router.POST("/log-food", append(writes, pc.LogFood)...)

	user := router.Group("/user")
	{
		user.POST("/increment-log-count", append(writes, pc.IncrementLogCount)...)
		user.GET("/log-count", pc.GetLogCount)
		user.GET("/streak", pc.GetStreak)
		user.POST("/update-streak", append(writes, pc.UpdateStreak)...)
		user.POST("/add-badge", append(writes, pc.AddBadge)...)
		user.GET("/badges", pc.GetBadges)
	}
}

// SetupFoodRoutes registers the food history views.
func SetupFoodRoutes(router *gin.RouterGroup, pc *controllers.ProgressController) {
	router.GET("/food-entries/:timeframe", pc.GetFoodEntries)
}
