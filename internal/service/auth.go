// Package service holds the development backend's business rules. Handlers
// parse HTTP, services validate and decide, repositories store:
//
//	handler (HTTP) → service (rules) → repository (SQLite)
//
// Services take primitives and return domain errors from apperror; mapping
// those to status codes is the handler's job.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/auth"
	"github.com/sakif/hangang/internal/model"
	"github.com/sakif/hangang/internal/repository"
	"github.com/sakif/hangang/internal/validate"
)

// Login failure messages. They are shown to the user verbatim by the client.
const (
	MsgUserNotFound  = "User not found"
	MsgWrongPassword = "Wrong password"
	MsgIDTaken       = "ID already exists"
)

// AuthService handles signup and login. There are no tokens: a successful
// login just returns the user row, and the client remembers the id.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	validate  *validate.Validator
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		validate:  validate.New(),
		logger:    logger,
	}
}

type signUpInput struct {
	ID       string `json:"id" validate:"required,max=30"`
	Password string `json:"password" validate:"required,min=4,max=72"`
	Phone    string `json:"phone" validate:"max=20"`
}

// SignUp creates an account. A taken id fails with apperror.ErrConflict.
func (s *AuthService) SignUp(ctx context.Context, id, password, phone string) (*model.User, error) {
	in := signUpInput{ID: strings.TrimSpace(id), Password: password, Phone: strings.TrimSpace(phone)}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{ID: in.ID, Phone: in.Phone, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: MsgIDTaken, Field: "id"}
		}
		return nil, fmt.Errorf("service/auth: creating user %s: %w", in.ID, err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return user, nil
}

// Login checks the password. An unknown id fails with apperror.ErrNotFound,
// a wrong password with apperror.ErrAuth.
func (s *AuthService) Login(ctx context.Context, id, password string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" || password == "" {
		return nil, apperror.ValidationFailed("id", "id and password are required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: MsgUserNotFound}
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			s.logger.Info("login with wrong password", slog.String("userID", id))
			return nil, apperror.AuthFailed(MsgWrongPassword, 0)
		}
		return nil, fmt.Errorf("service/auth: verifying password for %s: %w", id, err)
	}

	s.logger.Info("user logged in", slog.String("userID", id))
	return user, nil
}
