package routes

import (
	"github.com/gin-gonic/gin"

	"pipeline_tracker/internal/controllers"
)

func ChainageRoutes(r *gin.Engine) {
	chainage := r.Group("/chainage")
	{
		chainage.GET("/format", controllers.FormatChainage)
		chainage.GET("/parse", controllers.ParseChainage)
	}
}
