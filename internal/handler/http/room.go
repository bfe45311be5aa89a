package http

import (
	"github.com/gin-gonic/gin"

	"roomsplit/internal/domain"
	"roomsplit/internal/middleware"
	"roomsplit/internal/service"
)

// RoomHandler is the thin Gin layer over RoomService: it resolves the
// authenticated caller and the path/body parameters, dispatches to the
// service, and renders the result through the standard envelopes.
type RoomHandler struct {
	rooms *service.RoomService
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type createRoomRequest struct {
	GameName   string `json:"gameName" binding:"required"`
	MaxMembers int    `json:"maxMembers"`
}

// CreateRoom handles POST /room/create.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Failure(c, 400, "invalid request body")
		return
	}
	maxMembers := req.MaxMembers
	if maxMembers == 0 {
		maxMembers = domain.DefaultMaxMembers
	}

	snapshot, err := h.rooms.CreateRoom(c.Request.Context(), middleware.UserID(c), req.GameName, maxMembers)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, snapshot)
}

// MyRoom handles GET /room/my-room.
func (h *RoomHandler) MyRoom(c *gin.Context) {
	snapshot, found, err := h.rooms.GetMyOwnedRoom(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !found {
		Success(c, nil)
		return
	}
	Success(c, snapshot)
}

// MyJoinedRoom handles GET /room/my-joined-room.
func (h *RoomHandler) MyJoinedRoom(c *gin.Context) {
	snapshot, found, err := h.rooms.GetMyJoinedRoom(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !found {
		Success(c, nil)
		return
	}
	Success(c, snapshot)
}

// GetRoom handles GET /room/:code.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	snapshot, err := h.rooms.GetRoom(c.Request.Context(), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, snapshot)
}

// JoinRoom handles POST /room/:code/join.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	snapshot, err := h.rooms.JoinRoom(c.Request.Context(), middleware.UserID(c), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, snapshot)
}

// LeaveRoom handles POST /room/:code/leave.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	if err := h.rooms.LeaveRoom(c.Request.Context(), middleware.UserID(c), c.Param("code")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Ack(c)
}

// RemoveMember handles POST /room/:code/remove/:memberId.
func (h *RoomHandler) RemoveMember(c *gin.Context) {
	err := h.rooms.RemoveMember(c.Request.Context(), middleware.UserID(c), c.Param("code"), c.Param("memberId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Ack(c)
}

// CloseRoom handles DELETE /room/:code.
func (h *RoomHandler) CloseRoom(c *gin.Context) {
	if err := h.rooms.CloseRoom(c.Request.Context(), middleware.UserID(c), c.Param("code")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Ack(c)
}

// DivideTeams handles POST /room/:code/divide.
func (h *RoomHandler) DivideTeams(c *gin.Context) {
	result, err := h.rooms.DivideTeams(c.Request.Context(), middleware.UserID(c), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

// RedivideTeams handles POST /room/:code/redivide.
func (h *RoomHandler) RedivideTeams(c *gin.Context) {
	result, err := h.rooms.RedivideTeams(c.Request.Context(), middleware.UserID(c), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

// GetDivisionResult handles GET /room/:code/result.
func (h *RoomHandler) GetDivisionResult(c *gin.Context) {
	result, err := h.rooms.GetDivisionResult(c.Request.Context(), c.Param("code"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

type setMemberLabelsRequest struct {
	Labels []domain.Label `json:"labels"`
}

// SetMemberLabels handles POST /room/:code/member/:memberId/labels.
func (h *RoomHandler) SetMemberLabels(c *gin.Context) {
	var req setMemberLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Failure(c, 400, "invalid request body")
		return
	}

	err := h.rooms.SetMemberLabels(c.Request.Context(), middleware.UserID(c), c.Param("code"), c.Param("memberId"), req.Labels)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Ack(c)
}

type setLabelRulesRequest struct {
	LabelRules domain.LabelRules `json:"labelRules"`
}

// SetLabelRules handles POST /room/:code/label-rules.
func (h *RoomHandler) SetLabelRules(c *gin.Context) {
	var req setLabelRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Failure(c, 400, "invalid request body")
		return
	}

	err := h.rooms.SetLabelRules(c.Request.Context(), middleware.UserID(c), c.Param("code"), req.LabelRules)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Ack(c)
}
