package routes

import (
	"github.com/gin-gonic/gin"

	"pipeline_tracker/internal/controllers"
)

func ReportRoutes(r *gin.Engine, sc *controllers.StringingController) {
	report := r.Group("/reports/:reportId")
	{
		report.GET("/joints", sc.ListJoints)
		report.POST("/joints", sc.AddJoint)
		report.DELETE("/joints/:jointId", sc.RemoveJoint)
		report.GET("/joints/:jointId/findings", sc.JointFindings)
		report.POST("/joints/:jointId/cut", sc.CutJoint)
		report.GET("/summary", sc.Summary)
	}
}
