package websocket_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	gatewaypkg "roomsplit/internal/handler/websocket"
	"roomsplit/internal/publisher"
)

func TestGateway_RelaysPublishedEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	broker := publisher.NewBroker()
	gw := gatewaypkg.NewGateway(broker)

	router := gin.New()
	gatewaypkg.RegisterRoute(router, gw)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/room/123456"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The server subscribes asynchronously after the upgrade; retry the
	// publish until a frame arrives rather than guessing a fixed delay.
	var msg []byte
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		broker.Publish(context.Background(), "room-123456", publisher.EventMemberJoined, map[string]string{"memberId": "m-1"})
		_ = conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		_, received, err := conn.ReadMessage()
		if err == nil {
			msg = received
			break
		}
	}
	require.Contains(t, string(msg), "member-joined")
}
