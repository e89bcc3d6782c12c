package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"pipeline_tracker/internal/chainage"
	"pipeline_tracker/internal/models"
	"pipeline_tracker/internal/repository"
	"pipeline_tracker/internal/route"
)

// RouteStore persists routes and recorded fixes.
type RouteStore interface {
	CreateRoute(ctx context.Context, name, description string, waypoints []route.Waypoint) (models.Route, error)
	GetRoute(ctx context.Context, id uint) (models.Route, error)
	ListRoutes(ctx context.Context) ([]models.Route, error)
	DeleteRoute(ctx context.Context, id uint) error
	RecordFix(ctx context.Context, fix *models.LocationFix) error
}

type RouteController struct {
	store RouteStore
}

func NewRouteController(store RouteStore) *RouteController {
	return &RouteController{store: store}
}

// RouteResponse is the API shape of a route, with the centreline as GeoJSON.
type RouteResponse struct {
	ID            uint             `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Geometry      string           `json:"geometry"`
	StartChainage string           `json:"start_chainage"`
	EndChainage   string           `json:"end_chainage"`
	LengthMetres  float64          `json:"length_metres"`
	Waypoints     []route.Waypoint `json:"waypoints"`
}

// toRouteResponse converts a stored route and its projector to a RouteResponse
func toRouteResponse(rt models.Route, p *route.Projector) RouteResponse {
	geometry, err := gjson.Marshal(p.LineString())
	if err != nil {
		logrus.WithError(err).WithField("route_id", rt.ID).Warn("toRouteResponse: could not encode geometry")
	}
	return RouteResponse{
		ID:            rt.ID,
		CreatedAt:     rt.CreatedAt,
		UpdatedAt:     rt.UpdatedAt,
		Name:          rt.Name,
		Description:   rt.Description,
		Geometry:      string(geometry),
		StartChainage: chainage.Format(p.StartChainage()),
		EndChainage:   chainage.Format(p.EndChainage()),
		LengthMetres:  p.LengthMetres(),
		Waypoints:     p.Waypoints(),
	}
}

// CreateRoute stores a new route from an ordered waypoint list.
func (rc *RouteController) CreateRoute(c *gin.Context) {
	var input struct {
		Name        string           `json:"name" binding:"required"`
		Description string           `json:"description"`
		Waypoints   []route.Waypoint `json:"waypoints" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	rt, err := rc.store.CreateRoute(c.Request.Context(), input.Name, input.Description, input.Waypoints)
	switch {
	case errors.Is(err, route.ErrInvalidRoute):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("route %q already exists", input.Name)})
		return
	case err != nil:
		logrus.WithError(err).WithField("route", input.Name).Error("CreateRoute: failed to store route")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create route failed: " + err.Error()})
		return
	}

	p, err := repository.ProjectorFor(rt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logrus.WithFields(logrus.Fields{"route_id": rt.ID, "route": rt.Name, "waypoints": len(input.Waypoints)}).Info("Route created")
	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(rt, p)})
}

// ListRoutes returns every route with its waypoints.
func (rc *RouteController) ListRoutes(c *gin.Context) {
	routes, err := rc.store.ListRoutes(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("ListRoutes: database error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing routes"})
		return
	}

	responses := make([]RouteResponse, 0, len(routes))
	for _, rt := range routes {
		p, err := repository.ProjectorFor(rt)
		if err != nil {
			logrus.WithError(err).WithField("route_id", rt.ID).Warn("ListRoutes: skipping unusable route")
			continue
		}
		responses = append(responses, toRouteResponse(rt, p))
	}
	c.JSON(http.StatusOK, gin.H{"routes": responses})
}

// GetRoute returns a single route.
func (rc *RouteController) GetRoute(c *gin.Context) {
	rt, p, ok := rc.loadRoute(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(rt, p)})
}

// DeleteRoute removes a route and its waypoints.
func (rc *RouteController) DeleteRoute(c *gin.Context) {
	id, ok := routeID(c)
	if !ok {
		return
	}
	if err := rc.store.DeleteRoute(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		logrus.WithError(err).WithField("route_id", id).Error("DeleteRoute: failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully"})
}

// ProjectionResponse is what the inspector's screen shows for a fix.
type ProjectionResponse struct {
	RouteID        uint                 `json:"route_id"`
	ChainageMetres float64              `json:"chainage_metres"`
	Chainage       string               `json:"chainage"`
	OffRouteMetres float64              `json:"off_route_metres"`
	Confidence     route.ConfidenceBand `json:"confidence"`
	Warning        string               `json:"warning,omitempty"`
	Segment        route.Segment        `json:"segment"`
}

func toProjectionResponse(routeID uint, res route.ProjectionResult) ProjectionResponse {
	return ProjectionResponse{
		RouteID:        routeID,
		ChainageMetres: res.ChainageMetres,
		Chainage:       chainage.Format(res.ChainageMetres),
		OffRouteMetres: res.OffRouteDistanceMetres,
		Confidence:     res.Confidence,
		Warning:        projectionWarning(res),
		Segment:        res.Segment,
	}
}

func projectionWarning(res route.ProjectionResult) string {
	switch res.Confidence {
	case route.NearRoute:
		return fmt.Sprintf("Position is %.0f m from the centreline; confirm the chainage before saving.", res.OffRouteDistanceMetres)
	case route.OffRoute:
		return fmt.Sprintf("Position is %.1f km off the right-of-way; chainage is not reliable.", res.OffRouteDistanceMetres/1000)
	}
	return ""
}

// ProjectPoint converts a GPS fix into chainage along the route.
func (rc *RouteController) ProjectPoint(c *gin.Context) {
	var input struct {
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	rt, p, ok := rc.loadRoute(c)
	if !ok {
		return
	}

	res, err := p.Project(*input.Latitude, *input.Longitude)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logrus.WithFields(logrus.Fields{
		"route_id":   rt.ID,
		"latitude":   *input.Latitude,
		"longitude":  *input.Longitude,
		"chainage":   fmt.Sprintf("%.1f", res.ChainageMetres),
		"off_route":  fmt.Sprintf("%.1f", res.OffRouteDistanceMetres),
		"confidence": res.Confidence,
	}).Debug("Projected fix")
	c.JSON(http.StatusOK, toProjectionResponse(rt.ID, res))
}

// loadRoute fetches the :id route and builds its projector, writing the
// error response itself when it fails.
func (rc *RouteController) loadRoute(c *gin.Context) (models.Route, *route.Projector, bool) {
	id, ok := routeID(c)
	if !ok {
		return models.Route{}, nil, false
	}

	rt, err := rc.store.GetRoute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		} else {
			logrus.WithError(err).WithField("route_id", id).Error("loadRoute: database error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return models.Route{}, nil, false
	}

	p, err := repository.ProjectorFor(rt)
	if err != nil {
		logrus.WithError(err).WithField("route_id", id).Error("loadRoute: stored route is unusable")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return models.Route{}, nil, false
	}
	return rt, p, true
}

func routeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return 0, false
	}
	return uint(id), true
}

// FormatChainage renders ?metres= as km+metres.
func FormatChainage(c *gin.Context) {
	metres, err := strconv.ParseFloat(c.Query("metres"), 64)
	text := chainage.Format(metres)
	if err != nil || text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "metres must be a non-negative number"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metres": metres, "chainage": text})
}

// ParseChainage reads ?text=. Unreadable text is not an error; metres is null.
func ParseChainage(c *gin.Context) {
	text := c.Query("text")
	metres, ok := chainage.Parse(text)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"text": text, "metres": nil, "chainage": ""})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text, "metres": metres, "chainage": chainage.Format(metres)})
}
