// Package model defines the data structures used throughout the application.
package model

import "time"

// Session is the client's view of who is logged in.
//
// It is created by a successful login, destroyed by logout and persisted to
// device preferences in between. There is no token and no expiry: a restored
// session is trusted as-is until the user logs out.
type Session struct {
	UserID          string `json:"userId"`
	Phone           string `json:"phone,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// User is an account row on the development backend.
//
// The ID is chosen by the user at signup (the backend's login identifier), so
// unlike posts it is not generated with xid.
type User struct {
	ID           string    `json:"id"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"date"`
}
