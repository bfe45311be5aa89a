package http

import (
	"github.com/gin-gonic/gin"

	"roomsplit/internal/middleware"
	"roomsplit/internal/token"
)

// RegisterRoutes attaches the full /api/room/... surface to router, behind
// the bearer-token Auth middleware.
func RegisterRoutes(router gin.IRouter, rooms *RoomHandler, tokens *token.Service) {
	api := router.Group("/api")
	api.Use(middleware.Auth(tokens))

	room := api.Group("/room")
	room.POST("/create", rooms.CreateRoom)
	room.GET("/my-room", rooms.MyRoom)
	room.GET("/my-joined-room", rooms.MyJoinedRoom)
	room.GET("/:code", rooms.GetRoom)
	room.POST("/:code/join", rooms.JoinRoom)
	room.POST("/:code/leave", rooms.LeaveRoom)
	room.POST("/:code/remove/:memberId", rooms.RemoveMember)
	room.DELETE("/:code", rooms.CloseRoom)
	room.POST("/:code/divide", rooms.DivideTeams)
	room.POST("/:code/redivide", rooms.RedivideTeams)
	room.GET("/:code/result", rooms.GetDivisionResult)
	room.POST("/:code/member/:memberId/labels", rooms.SetMemberLabels)
	room.POST("/:code/label-rules", rooms.SetLabelRules)
}
