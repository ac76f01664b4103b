// Package repository declares the storage interfaces of the development
// backend. internal/repository/sqlite implements all of them on one *DB.
//
// Listings return every row, tombstones included: filtering deleted items is
// the client's job, and the backend reports exactly what it stores.
package repository

import (
	"context"
	"time"

	"github.com/sakif/hangang/internal/model"
)

type UserRepository interface {
	// CreateUser fails with apperror.ErrConflict if the id is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	UpdatePostText(ctx context.Context, id, text string) error
	SoftDeletePost(ctx context.Context, id string) error
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListComments(ctx context.Context) ([]model.Comment, error)
	SoftDeleteComment(ctx context.Context, id string) error
}

type LikeRepository interface {
	// CreateLike fails with apperror.ErrConflict if the user already likes
	// the post.
	CreateLike(ctx context.Context, like *model.Like) error
	ListLikes(ctx context.Context) ([]model.Like, error)
	DeleteLike(ctx context.Context, postID, userID string) error
}

type InquiryRepository interface {
	CreateInquiry(ctx context.Context, inq *model.Inquiry) error
	ListInquiries(ctx context.Context) ([]model.Inquiry, error)
	ListInquiriesByUser(ctx context.Context, userID string) ([]model.Inquiry, error)
	AnswerInquiry(ctx context.Context, id, adminID, answer string, at time.Time) error
}

type BuskingRepository interface {
	CreateBusking(ctx context.Context, app *model.BuskingApplication) error
	ListBusking(ctx context.Context) ([]model.BuskingApplication, error)
	ListBuskingByUser(ctx context.Context, userID string) ([]model.BuskingApplication, error)
	SetBuskingState(ctx context.Context, id string, state int) error
}

type MarkerRepository interface {
	CreateMarker(ctx context.Context, m *model.Marker) error
	ListMarkers(ctx context.Context) ([]model.Marker, error)
	CountMarkers(ctx context.Context) (int, error)
}

// Store is everything the development backend persists.
type Store interface {
	UserRepository
	PostRepository
	CommentRepository
	LikeRepository
	InquiryRepository
	BuskingRepository
	MarkerRepository
}
