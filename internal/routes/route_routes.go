package routes

import (
	"github.com/gin-gonic/gin"

	"pipeline_tracker/internal/controllers"
)

func RouteRoutes(r *gin.Engine, rc *controllers.RouteController) {
	routes := r.Group("/routes")
	{
		routes.POST("", rc.CreateRoute)
		routes.GET("", rc.ListRoutes)
		routes.GET("/:id", rc.GetRoute)
		routes.DELETE("/:id", rc.DeleteRoute)
		routes.POST("/:id/project", rc.ProjectPoint)
	}
}
