package service

import "fmt"

// Kind is one of the error taxonomy's members; the HTTP layer maps each
// to a fixed status code.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindNotOwner          Kind = "NotOwner"
	KindUnauthenticated   Kind = "Unauthenticated"
	KindRoomNotJoinable   Kind = "RoomNotJoinable"
	KindRoomFull          Kind = "RoomFull"
	KindHasActiveRoom     Kind = "HasActiveRoom"
	KindWrongStatus       Kind = "WrongStatus"
	KindTooFewMembers     Kind = "TooFewMembers"
	KindInvalidLabel      Kind = "InvalidLabel"
	KindInvalidRule       Kind = "InvalidRule"
	KindConflictingRules  Kind = "ConflictingRules"
	KindCannotRemoveOwner Kind = "CannotRemoveOwner"
	KindCodeExhausted     Kind = "CodeExhausted"
	KindMemberNotFound    Kind = "MemberNotFound"
	KindInternal          Kind = "Internal"
)

// Error is the Room Service's error type; the HTTP layer renders Message
// and maps Kind to a status code.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into a *Error if it already is one, else wraps it as
// KindInternal — the default for anything the repository or publisher
// surfaces that wasn't recognized as a semantic error first.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if svcErr, ok := err.(*Error); ok {
		return svcErr
	}
	return &Error{Kind: KindInternal, Message: err.Error()}
}
