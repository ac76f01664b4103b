// Package model defines the data structures used throughout the application.
//
// All entities are owned by the backend. The client only ever holds an
// ephemeral copy fetched for one screen, optionally patched optimistically
// until the backend confirms the change.
package model

import "time"

// SyncState tags an item the client holds locally.
//
// Items decoded from the backend are Confirmed (the zero value). Items the
// user just created start as PendingConfirmation and end as either Confirmed
// or FailedToSync, so the UI can show content the backend never stored.
type SyncState int

const (
	Confirmed SyncState = iota
	PendingConfirmation
	FailedToSync
)

func (s SyncState) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case PendingConfirmation:
		return "pending"
	case FailedToSync:
		return "failed"
	default:
		return "unknown"
	}
}

// Post is a community post. Deletion is logical: a deleted post keeps its row
// on the backend with Deleted=true and is hidden from every listing.
type Post struct {
	ID        string     `json:"id"`
	AuthorID  string     `json:"userId"`
	Text      string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	Sync SyncState `json:"-"`
}

// Comment belongs to exactly one Post and follows the same soft-delete rule.
type Comment struct {
	ID        string     `json:"id"`
	PostID    string     `json:"postId"`
	AuthorID  string     `json:"userId"`
	Text      string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	Sync SyncState `json:"-"`
}

// Like links a user to a post. At most one Like per (PostID, UserID) is
// intended; the client only tests membership and does not enforce it.
type Like struct {
	ID        string     `json:"id"`
	PostID    string     `json:"postId"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
