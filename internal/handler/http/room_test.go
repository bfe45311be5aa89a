package http_test

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomsplit/internal/domain"
	httphandler "roomsplit/internal/handler/http"
	publishermocks "roomsplit/internal/publisher/mocks"
	"roomsplit/internal/repository"
	"roomsplit/internal/repository/mocks"
	"roomsplit/internal/service"
	"roomsplit/internal/token"
)

func newTestServer(t *testing.T, rooms *mocks.RoomRepository, users *mocks.UserRepository, pub *publishermocks.Publisher) (*gin.Engine, *token.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := token.NewService("secret", time.Hour)
	require.NoError(t, err)

	svc := service.NewRoomService(rooms, users, pub, rand.New(rand.NewSource(7)), service.RoomServiceOptions{})
	handler := httphandler.NewRoomHandler(svc)

	router := gin.New()
	httphandler.RegisterRoutes(router, handler, tokens)
	return router, tokens
}

func TestCreateRoom_RejectsMissingAuth(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	router, _ := newTestServer(t, rooms, users, pub)

	body, _ := json.Marshal(map[string]interface{}{"gameName": "werewolf"})
	req := httptest.NewRequest(http.MethodPost, "/api/room/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetRoom_NotFound_RendersFailureEnvelope(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	router, tokens := newTestServer(t, rooms, users, pub)

	signed, err := tokens.Issue("user-1")
	require.NoError(t, err)

	rooms.On("GetRoomByCode", mock.Anything, "000000").
		Return(repository.RoomAggregate{}, repository.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/room/000000", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, http.StatusNotFound, body["statusCode"])
	assert.Equal(t, "/api/room/000000", body["path"])
}

func TestCreateRoom_Success_RendersEnvelope(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	users := new(mocks.UserRepository)
	pub := new(publishermocks.Publisher)
	router, tokens := newTestServer(t, rooms, users, pub)

	signed, err := tokens.Issue("owner-1")
	require.NoError(t, err)

	rooms.On("FindOwnedWaitingRoom", mock.Anything, "owner-1").Return(nil, nil).Once()
	users.On("FindByID", mock.Anything, "owner-1").Return(nil, nil).Once()
	rooms.On("CreateRoom", mock.Anything, mock.Anything, mock.Anything).
		Return(repository.RoomAggregate{
			Room: domain.Room{ID: "room-1", Code: "123456", Status: domain.StatusWaiting, MaxMembers: 10, OwnerID: "owner-1"},
			Owner: domain.User{ID: "owner-1"},
			Members: []repository.MemberWithUser{{Membership: domain.Membership{UserID: "owner-1"}, User: domain.User{ID: "owner-1"}}},
		}, nil).Once()

	body, _ := json.Marshal(map[string]interface{}{"gameName": "werewolf"})
	req := httptest.NewRequest(http.MethodPost, "/api/room/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Code int `json:"code"`
		Data struct {
			RoomCode string `json:"roomCode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 0, envelope.Code)
	assert.Equal(t, "123456", envelope.Data.RoomCode)
}
