package routes

import (
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"pipeline_tracker/internal/controllers"
	"pipeline_tracker/internal/logger"
)

// Handlers bundles the controllers the router dispatches to.
type Handlers struct {
	Routes    *controllers.RouteController
	Stringing *controllers.StringingController
	Fixes     *controllers.FixController
}

func SetupRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(ginlog.SetLogger(
		ginlog.WithSkipPath([]string{"/healthz"}),
		ginlog.WithWriter(logger.Writer()),
	))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ChainageRoutes(r)
	RouteRoutes(r, h.Routes)
	ReportRoutes(r, h.Stringing)
	ReferenceRoutes(r, h.Stringing)
	WebSocketRoutes(r, h.Fixes)

	return r
}
