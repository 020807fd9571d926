package domain

import "time"

// Session describes an issued session token.
type Session struct {
	Token         string
	UserID        string
	Role          Role
	SecondaryRole *Role
	ExpiresAt     time.Time
}
