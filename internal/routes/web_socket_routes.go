package routes

import (
	"github.com/gin-gonic/gin"

	"pipeline_tracker/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, fc *controllers.FixController) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/routes/:id/fixes", fc.HandleFixes)
	}
}
