package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"roomsplit/internal/service"
)

// kindStatus maps every service.Kind to the HTTP status it renders as.
// Kinds absent from the table (there are none) fall through to 500.
var kindStatus = map[service.Kind]int{
	service.KindNotFound:          http.StatusNotFound,
	service.KindNotOwner:          http.StatusForbidden,
	service.KindUnauthenticated:   http.StatusUnauthorized,
	service.KindRoomNotJoinable:   http.StatusBadRequest,
	service.KindRoomFull:          http.StatusBadRequest,
	service.KindHasActiveRoom:     http.StatusBadRequest,
	service.KindWrongStatus:       http.StatusBadRequest,
	service.KindTooFewMembers:     http.StatusBadRequest,
	service.KindInvalidLabel:      http.StatusBadRequest,
	service.KindInvalidRule:       http.StatusBadRequest,
	service.KindConflictingRules:  http.StatusBadRequest,
	service.KindCannotRemoveOwner: http.StatusBadRequest,
	service.KindCodeExhausted:     http.StatusInternalServerError,
	service.KindMemberNotFound:    http.StatusNotFound,
	service.KindInternal:          http.StatusInternalServerError,
}

// HandleServiceError renders err through the failure envelope, mapping its
// Kind to an HTTP status. Unrecognized errors are logged and surfaced as
// Internal.
func HandleServiceError(c *gin.Context, err error) {
	svcErr := service.AsError(err)
	status, ok := kindStatus[svcErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		logrus.WithError(err).Error("handler: unhandled internal error")
	}
	Failure(c, status, svcErr.Message)
}
