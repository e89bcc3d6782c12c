package routes

import (
	"github.com/gin-gonic/gin"

	"pipeline_tracker/internal/controllers"
)

func ReferenceRoutes(r *gin.Engine, sc *controllers.StringingController) {
	reference := r.Group("/reference")
	{
		reference.GET("/design-spec", sc.GetDesignSpec)
		reference.PUT("/design-spec", sc.PutDesignSpec)
		reference.GET("/pup-config", sc.GetPupConfig)
		reference.PUT("/pup-config", sc.PutPupConfig)
	}
}
