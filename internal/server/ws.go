package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/metrics"
	"github.com/ayusman/garland/internal/scene"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// frames favour speed over float precision.
var frameJSON = jsoniter.ConfigFastest

const (
	// DefaultHubFPS caps how often frames are broadcast.
	DefaultHubFPS = 30
	clientBuffer  = 4
	writeTimeout  = 2 * time.Second
)

// InstanceStride is the number of values per instance in LayerMessage.Instances.
const InstanceStride = 7

// HelloLayer describes one particle layer to a new client.
type HelloLayer struct {
	Name     string         `json:"name"`
	Geometry scene.Geometry `json:"geometry"`
	// Colors holds one hex color per particle, in instance order.
	Colors []string `json:"colors"`
}

// Hello is the first message on every connection.
type Hello struct {
	Type    string       `json:"type"`
	Session string       `json:"session"`
	Client  string       `json:"client"`
	Layers  []HelloLayer `json:"layers"`
}

// LayerMessage carries one layer of a frame. Instances is flattened as
// x, y, z, rx, ry, rz, scale per particle.
type LayerMessage struct {
	Name      string     `json:"name"`
	Rotation  mgl64.Vec3 `json:"rotation"`
	Instances []float32  `json:"instances"`
}

// PoseMessage is a positioned, oriented object.
type PoseMessage struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Vec3 `json:"rotation"`
	Scale    mgl64.Vec3 `json:"scale"`
	Mode     string     `json:"mode,omitempty"`
	Mirror   float64    `json:"mirror,omitempty"`
}

// CursorMessage is the hand marker.
type CursorMessage struct {
	Position mgl64.Vec3 `json:"position"`
	Scale    float64    `json:"scale"`
	Color    string     `json:"color"`
}

// FrameMessage is one rendered frame.
type FrameMessage struct {
	Type      string          `json:"type"`
	Seq       uint64          `json:"seq"`
	Time      float64         `json:"time"`
	Gesture   gesture.Gesture `json:"gesture"`
	Strength  float64         `json:"strength"`
	Layers    []LayerMessage  `json:"layers"`
	Companion PoseMessage     `json:"companion"`
	Cursor    CursorMessage   `json:"cursor"`
}

// HubConfig configures a FrameHub.
type HubConfig struct {
	Session uuid.UUID
	Layers  []scene.LayerConfig
	// Colors maps a layer name to its particle colors.
	Colors  map[string][]colorful.Color
	MaxFPS  int
	Metrics *metrics.Manager
	Logger  logrus.FieldLogger
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// FrameHub is a scene.Renderer that broadcasts frames to websocket
// clients. Slow clients drop frames instead of stalling the render loop.
type FrameHub struct {
	hello   Hello
	limiter *rate.Limiter
	metrics *metrics.Manager
	log     logrus.FieldLogger

	mu      sync.RWMutex
	clients map[*client]struct{}

	// Render runs on one goroutine; msg is its reusable scratch.
	msg FrameMessage
}

// NewFrameHub creates a hub with no clients.
func NewFrameHub(config HubConfig) *FrameHub {
	if config.MaxFPS <= 0 {
		config.MaxFPS = DefaultHubFPS
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	h := &FrameHub{
		hello:   Hello{Type: "hello", Session: config.Session.String()},
		limiter: rate.NewLimiter(rate.Limit(config.MaxFPS), 1),
		metrics: config.Metrics,
		log:     logger.WithField("component", "frames"),
		clients: make(map[*client]struct{}),
		msg:     FrameMessage{Type: "frame"},
	}
	for _, l := range config.Layers {
		colors := config.Colors[l.Name]
		hex := make([]string, len(colors))
		for i, c := range colors {
			hex[i] = c.Hex()
		}
		h.hello.Layers = append(h.hello.Layers, HelloLayer{Name: l.Name, Geometry: l.Geometry, Colors: hex})
	}
	return h
}

// Clients is the number of connected clients.
func (h *FrameHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams frames until the client
// disconnects.
func (h *FrameHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, clientBuffer)}
	log := h.log.WithField("client", c.id.String())

	hello := h.hello
	hello.Client = c.id.String()
	data, err := frameJSON.Marshal(hello)
	if err != nil {
		log.WithError(err).Error("encoding hello")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ClientConnected(1)
	log.Info("frame client connected")

	done := make(chan struct{})
	go h.writePump(c, done)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
	<-done
	h.metrics.ClientConnected(-1)
	log.Info("frame client disconnected")
}

func (h *FrameHub) writePump(c *client, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err == nil {
			err = c.conn.WriteMessage(websocket.TextMessage, msg)
		}
		if err != nil {
			h.log.WithError(err).WithField("client", c.id.String()).Debug("frame write failed")
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Render implements scene.Renderer. Frames beyond the hub's rate and
// frames arriving while nobody listens are skipped.
func (h *FrameHub) Render(_ context.Context, f *scene.Frame) error {
	if h.Clients() == 0 || !h.limiter.Allow() {
		return nil
	}

	data, err := frameJSON.Marshal(h.encode(f))
	if err != nil {
		return err
	}

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
	h.mu.RUnlock()
	h.metrics.FrameBroadcast()
	return nil
}

func (h *FrameHub) encode(f *scene.Frame) *FrameMessage {
	m := &h.msg
	m.Seq = f.Seq
	m.Time = f.Time
	m.Gesture = f.State.Gesture
	m.Strength = f.State.Strength

	if cap(m.Layers) < len(f.Layers) {
		m.Layers = make([]LayerMessage, len(f.Layers))
	}
	m.Layers = m.Layers[:len(f.Layers)]
	for i, l := range f.Layers {
		lm := &m.Layers[i]
		lm.Name = l.Name
		lm.Rotation = l.Rotation
		lm.Instances = lm.Instances[:0]
		for _, inst := range l.Instances {
			lm.Instances = append(lm.Instances,
				float32(inst.Position[0]), float32(inst.Position[1]), float32(inst.Position[2]),
				float32(inst.Rotation[0]), float32(inst.Rotation[1]), float32(inst.Rotation[2]),
				float32(inst.Scale))
		}
	}

	m.Companion = PoseMessage{
		Position: f.Companion.Position,
		Rotation: f.Companion.Rotation,
		Scale:    f.Companion.Scale,
		Mode:     f.Companion.Mode.String(),
		Mirror:   f.Companion.Mirror,
	}
	m.Cursor = CursorMessage{
		Position: f.Cursor.Position,
		Scale:    f.Cursor.Scale,
		Color:    f.Cursor.Color.Hex(),
	}
	return m
}
