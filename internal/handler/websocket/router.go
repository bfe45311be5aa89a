package websocket

import "github.com/gin-gonic/gin"

// RegisterRoute attaches the realtime channel endpoint. It is deliberately
// outside the bearer-token Auth group: subscribers authenticate to the
// transport independently, and the gateway never gates subscription on
// room membership or ownership.
func RegisterRoute(router gin.IRouter, gw *Gateway) {
	router.GET("/ws/room/:code", gw.HandleConnection)
}
