package gormpersistence

import "github.com/google/uuid"

func newMembershipID() string {
	return uuid.NewString()
}
