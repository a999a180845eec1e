package model

import "time"

// User is an authenticated subscriber.
type User struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"-"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Payload is what the identity authority returns for a bearer token.
// Error is set when the token was rejected.
type Payload struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Error   string `json:"error,omitempty"`
}

type WhoAmIResponse struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	IsSubscriber    bool   `json:"is_subscriber"`
	Email           string `json:"email,omitempty"`
}
