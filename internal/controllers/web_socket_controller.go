package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"pipeline_tracker/internal/chainage"
	"pipeline_tracker/internal/models"
	"pipeline_tracker/internal/route"
)

const (
	minDistanceForSave   = 5.0
	periodicSaveInterval = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FixMessage is a GPS fix sent by a field device.
type FixMessage struct {
	DeviceID  string    `json:"device_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // GPS accuracy in meters
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts timestamps with or without a zone suffix; zoneless
// values are taken as UTC. A missing timestamp leaves the zero time.
func (m *FixMessage) UnmarshalJSON(data []byte) error {
	type alias FixMessage
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts := strings.TrimSpace(aux.Timestamp)
	if ts == "" {
		m.Timestamp = time.Time{}
		return nil
	}
	if !hasZone(ts) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", aux.Timestamp, err)
	}
	m.Timestamp = t
	return nil
}

func hasZone(ts string) bool {
	if strings.HasSuffix(ts, "Z") || strings.HasSuffix(ts, "z") {
		return true
	}
	if len(ts) < 6 {
		return false
	}
	return strings.ContainsAny(ts[len(ts)-6:], "+-")
}

// fixClient wraps a connection so the hub and the reader never write to it
// concurrently.
type fixClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (fc *fixClient) send(v any) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.conn.WriteJSON(v)
}

// FixHub tracks the live-feed subscribers of each route.
type FixHub struct {
	mu      sync.Mutex
	clients map[uint]map[*fixClient]struct{}
}

func NewFixHub() *FixHub {
	return &FixHub{clients: make(map[uint]map[*fixClient]struct{})}
}

func (h *FixHub) register(routeID uint, fc *fixClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[routeID]; !ok {
		h.clients[routeID] = make(map[*fixClient]struct{})
	}
	h.clients[routeID][fc] = struct{}{}
	logrus.WithFields(logrus.Fields{"route_id": routeID, "conn_ptr": fmt.Sprintf("%p", fc.conn)}).Info("Client subscribed to route feed")
}

func (h *FixHub) unregister(routeID uint, fc *fixClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[routeID]; ok {
		delete(clients, fc)
		if len(clients) == 0 {
			delete(h.clients, routeID)
		}
	}
	logrus.WithFields(logrus.Fields{"route_id": routeID, "conn_ptr": fmt.Sprintf("%p", fc.conn)}).Info("Client left route feed")
}

// Subscribers reports how many clients are watching a route.
func (h *FixHub) Subscribers(routeID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[routeID])
}

// broadcast sends msg to every subscriber of the route except the sender.
func (h *FixHub) broadcast(routeID uint, msg any, except *fixClient) {
	h.mu.Lock()
	targets := make([]*fixClient, 0, len(h.clients[routeID]))
	for fc := range h.clients[routeID] {
		if fc != except {
			targets = append(targets, fc)
		}
	}
	h.mu.Unlock()

	for _, fc := range targets {
		if err := fc.send(msg); err != nil {
			logrus.WithError(err).WithField("route_id", routeID).Warn("Failed to send fix to subscriber")
		}
	}
}

type lastFix struct {
	lat, lon float64
	at       time.Time
}

// FixController runs the live projection feed: devices send fixes and get
// the chainage back, and everyone else on the route sees the fix.
type FixController struct {
	routes *RouteController
	hub    *FixHub

	mu   sync.Mutex
	last map[string]lastFix
}

func NewFixController(routes *RouteController, hub *FixHub) *FixController {
	return &FixController{routes: routes, hub: hub, last: make(map[string]lastFix)}
}

// HandleFixes upgrades /ws/routes/:id/fixes to a websocket.
func (fc *FixController) HandleFixes(c *gin.Context) {
	rt, p, ok := fc.routes.loadRoute(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	client := &fixClient{conn: conn}
	fc.hub.register(rt.ID, client)
	defer fc.hub.unregister(rt.ID, client)

	if err := client.send(gin.H{
		"type":           "subscribed",
		"route_id":       rt.ID,
		"start_chainage": chainage.Format(p.StartChainage()),
		"end_chainage":   chainage.Format(p.EndChainage()),
	}); err != nil {
		return
	}

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithField("route_id", rt.ID).Info("Route feed closed")
			} else {
				logrus.WithError(err).WithField("route_id", rt.ID).Warn("Route feed read failed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := fc.processFix(client, rt.ID, p, payload); err != nil {
			logrus.WithError(err).WithField("route_id", rt.ID).Warn("Route feed write failed")
			return
		}
	}
}

// processFix answers one fix. The returned error is a failed write to the
// sender; bad fixes are answered with an error message instead.
func (fc *FixController) processFix(client *fixClient, routeID uint, p *route.Projector, payload []byte) error {
	var msg FixMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logrus.WithError(err).WithField("route_id", routeID).Warn("Invalid fix payload")
		return client.send(gin.H{"type": "error", "error": "Invalid fix: " + err.Error()})
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	res, err := p.Project(msg.Latitude, msg.Longitude)
	if err != nil {
		return client.send(gin.H{"type": "error", "error": err.Error()})
	}
	projection := toProjectionResponse(routeID, res)

	record, eventType := fc.shouldRecord(routeID, msg)
	if record {
		if err := fc.record(routeID, msg, projection, eventType); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"route_id": routeID, "device_id": msg.DeviceID}).Error("Failed to record fix")
			record = false
		}
	}

	if err := client.send(gin.H{
		"type":       "projection",
		"projection": projection,
		"recorded":   record,
		"event_type": eventType,
	}); err != nil {
		return err
	}
	fc.hub.broadcast(routeID, gin.H{
		"type":       "fix",
		"device_id":  msg.DeviceID,
		"latitude":   msg.Latitude,
		"longitude":  msg.Longitude,
		"timestamp":  msg.Timestamp.Format(time.RFC3339Nano),
		"projection": projection,
	}, client)

	logrus.WithFields(logrus.Fields{
		"route_id":   routeID,
		"device_id":  msg.DeviceID,
		"chainage":   projection.Chainage,
		"confidence": projection.Confidence,
		"event_type": eventType,
	}).Debug("Fix projected")
	return nil
}

// shouldRecord decides whether a fix is worth storing and remembers it if so.
func (fc *FixController) shouldRecord(routeID uint, msg FixMessage) (bool, string) {
	key := fmt.Sprintf("%d/%s", routeID, msg.DeviceID)

	fc.mu.Lock()
	defer fc.mu.Unlock()

	prev, seen := fc.last[key]
	ok, eventType := fixEvent(prev, seen, msg)
	if ok {
		fc.last[key] = lastFix{lat: msg.Latitude, lon: msg.Longitude, at: msg.Timestamp}
	}
	return ok, eventType
}

func fixEvent(prev lastFix, seen bool, msg FixMessage) (bool, string) {
	if !seen {
		return true, "initial"
	}
	if route.Haversine(prev.lat, prev.lon, msg.Latitude, msg.Longitude) >= minDistanceForSave {
		return true, "move"
	}
	if msg.Timestamp.Sub(prev.at) >= periodicSaveInterval {
		return true, "periodic"
	}
	return false, "insignificant"
}

func (fc *FixController) record(routeID uint, msg FixMessage, projection ProjectionResponse, eventType string) error {
	raw, err := json.Marshal(projection)
	if err != nil {
		return err
	}
	return fc.routes.store.RecordFix(context.Background(), &models.LocationFix{
		RouteID:        routeID,
		DeviceID:       msg.DeviceID,
		Latitude:       msg.Latitude,
		Longitude:      msg.Longitude,
		Accuracy:       msg.Accuracy,
		Chainage:       projection.ChainageMetres,
		OffRouteMetres: projection.OffRouteMetres,
		Confidence:     string(projection.Confidence),
		Projection:     datatypes.JSON(raw),
		EventType:      eventType,
		Timestamp:      msg.Timestamp,
	})
}
