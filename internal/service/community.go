package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
	"github.com/sakif/hangang/internal/repository"
	"github.com/sakif/hangang/internal/validate"
)

const (
	MaxPostLength    = 2000
	MaxCommentLength = 500
)

// CommunityRepository is what CommunityService stores into.
type CommunityRepository interface {
	repository.PostRepository
	repository.CommentRepository
	repository.LikeRepository
}

// CommunityService runs the posts, comments and likes endpoints.
//
// The backend trusts the user id in the request body, like the real one
// does. Author checks on edit and delete are made by the client.
type CommunityService struct {
	repo     CommunityRepository
	validate *validate.Validator
	logger   *slog.Logger
}

func NewCommunityService(repo CommunityRepository, logger *slog.Logger) *CommunityService {
	return &CommunityService{repo: repo, validate: validate.New(), logger: logger}
}

func (s *CommunityService) ListPosts(ctx context.Context) ([]model.Post, error) {
	return s.repo.ListPosts(ctx)
}

// CreatePost stores a post. createdAt is the client's timestamp and may be
// zero.
func (s *CommunityService) CreatePost(ctx context.Context, userID, text string, createdAt time.Time) (*model.Post, error) {
	userID, text = strings.TrimSpace(userID), strings.TrimSpace(text)
	if err := s.validate.Var("userId", userID, "required"); err != nil {
		return nil, err
	}
	if err := s.validate.Var("content", text, fmt.Sprintf("required,max=%d", MaxPostLength)); err != nil {
		return nil, err
	}

	post := &model.Post{AuthorID: userID, Text: text, CreatedAt: createdAt}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("service/community: creating post: %w", err)
	}
	s.logger.Info("post created", slog.String("id", post.ID), slog.String("userID", userID))
	return post, nil
}

func (s *CommunityService) UpdatePost(ctx context.Context, id, text string) error {
	text = strings.TrimSpace(text)
	if err := s.validate.Var("content", text, fmt.Sprintf("required,max=%d", MaxPostLength)); err != nil {
		return err
	}
	if err := s.repo.UpdatePostText(ctx, id, text); err != nil {
		return fmt.Errorf("service/community: updating post %s: %w", id, err)
	}
	s.logger.Info("post updated", slog.String("id", id))
	return nil
}

// DeletePost tombstones the post. Its comments and likes are left alone;
// the client hides comments of deleted posts along with the post.
func (s *CommunityService) DeletePost(ctx context.Context, id string) error {
	if err := s.repo.SoftDeletePost(ctx, id); err != nil {
		return fmt.Errorf("service/community: deleting post %s: %w", id, err)
	}
	s.logger.Info("post deleted", slog.String("id", id))
	return nil
}

func (s *CommunityService) ListComments(ctx context.Context) ([]model.Comment, error) {
	return s.repo.ListComments(ctx)
}

// CreateComment adds a comment to a live post.
func (s *CommunityService) CreateComment(ctx context.Context, postID, userID, text string) (*model.Comment, error) {
	userID, text = strings.TrimSpace(userID), strings.TrimSpace(text)
	if err := s.validate.Var("userId", userID, "required"); err != nil {
		return nil, err
	}
	if err := s.validate.Var("content", text, fmt.Sprintf("required,max=%d", MaxCommentLength)); err != nil {
		return nil, err
	}
	if err := s.requireLivePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &model.Comment{PostID: postID, AuthorID: userID, Text: text}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("service/community: creating comment: %w", err)
	}
	s.logger.Info("comment created", slog.String("id", comment.ID), slog.String("postID", postID))
	return comment, nil
}

func (s *CommunityService) DeleteComment(ctx context.Context, id string) error {
	if err := s.repo.SoftDeleteComment(ctx, id); err != nil {
		return fmt.Errorf("service/community: deleting comment %s: %w", id, err)
	}
	s.logger.Info("comment deleted", slog.String("id", id))
	return nil
}

func (s *CommunityService) ListLikes(ctx context.Context) ([]model.Like, error) {
	return s.repo.ListLikes(ctx)
}

// CreateLike fails with apperror.ErrConflict if the user already likes the
// post.
func (s *CommunityService) CreateLike(ctx context.Context, postID, userID string) (*model.Like, error) {
	if err := s.validate.Var("userId", strings.TrimSpace(userID), "required"); err != nil {
		return nil, err
	}
	if err := s.requireLivePost(ctx, postID); err != nil {
		return nil, err
	}

	like := &model.Like{PostID: postID, UserID: userID}
	if err := s.repo.CreateLike(ctx, like); err != nil {
		return nil, fmt.Errorf("service/community: liking post %s: %w", postID, err)
	}
	return like, nil
}

func (s *CommunityService) DeleteLike(ctx context.Context, postID, userID string) error {
	if postID == "" || userID == "" {
		return apperror.ValidationFailed("postId", "postId and userId are required")
	}
	if err := s.repo.DeleteLike(ctx, postID, userID); err != nil {
		return fmt.Errorf("service/community: unliking post %s: %w", postID, err)
	}
	return nil
}

func (s *CommunityService) requireLivePost(ctx context.Context, postID string) error {
	if strings.TrimSpace(postID) == "" {
		return apperror.ValidationFailed("postId", "postId is required")
	}
	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("service/community: %w", err)
	}
	if post.Deleted {
		return apperror.NotFound("post", postID)
	}
	return nil
}
