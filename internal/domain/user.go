package domain

import "time"

// User is the identity anchor. It is created lazily on the first code request
// for an unseen email and holds no credentials of its own.
type User struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
