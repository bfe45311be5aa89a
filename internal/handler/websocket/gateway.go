// Package websocket is the realtime gateway: a thin transport adapter
// that turns a Publisher subscription into socket frames. It holds no
// room-state logic — subscribers authenticate to the transport
// independently and the gateway never gates subscription on room
// membership or ownership.
package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"roomsplit/internal/domain"
	"roomsplit/internal/publisher"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Gateway upgrades a request to a WebSocket and relays one room channel's
// Publisher events to it for the connection's lifetime.
type Gateway struct {
	pub      publisher.Publisher
	upgrader websocket.Upgrader
}

// NewGateway creates a Gateway over pub.
func NewGateway(pub publisher.Publisher) *Gateway {
	if pub == nil {
		panic("websocket: publisher cannot be nil for Gateway")
	}
	return &Gateway{
		pub: pub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection upgrades the request and streams room-<code>'s events
// to the socket until either side closes it.
func (g *Gateway) HandleConnection(c *gin.Context) {
	code := c.Param("code")
	channel := domain.Room{Code: code}.Channel()
	logCtx := logrus.WithField("channel", channel)

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logCtx.WithError(err).Warn("gateway: upgrade failed")
		return
	}

	events, unsubscribe := g.pub.Subscribe(c.Request.Context(), channel)
	defer unsubscribe()

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// drainReads discards anything the client sends; the gateway is
	// outbound-only but must keep reading to process pong frames and
	// notice a closed connection.
	closed := make(chan struct{})
	go g.drainReads(conn, closed, logCtx)

	g.writeLoop(conn, events, closed, logCtx)
	_ = conn.Close()
}

func (g *Gateway) drainReads(conn *websocket.Conn, closed chan struct{}, logCtx *logrus.Entry) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logCtx.WithError(err).Debug("gateway: read pump exiting")
			return
		}
	}
}

func (g *Gateway) writeLoop(conn *websocket.Conn, events <-chan publisher.Event, closed <-chan struct{}, logCtx *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			frame, err := json.Marshal(event)
			if err != nil {
				logCtx.WithError(err).Error("gateway: failed to marshal event")
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logCtx.WithError(err).Debug("gateway: write failed, closing")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Debug("gateway: ping failed, closing")
				return
			}
		}
	}
}
