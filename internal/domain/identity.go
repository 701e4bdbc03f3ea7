package domain

// Identity is the subject carried by a bearer token.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
