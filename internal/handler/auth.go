package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/service"
)

// AuthHandler serves signup and login.
//
// There is no session on the server side. Login only checks the password
// and returns the user; the client keeps the id and sends it with every
// write.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentialsRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginUser struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
	Date  string `json:"date"`
}

type loginResponse struct {
	Result  string     `json:"result"`
	Message string     `json:"message"`
	User    *loginUser `json:"user,omitempty"`
}

// HandleSignUp creates an account.
//
// HTTP: POST /api/user/signup
// REQUEST BODY: {"id": "alice", "password": "...", "phone": "010-..."}
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.auth.SignUp(r.Context(), req.ID, req.Password, req.Phone); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Result: "ok"})
}

// HandleLogin checks a password.
//
// HTTP: POST /api/user/login
//
// The two rejections are reported differently, as the mobile backend does:
// an unknown id is a 401 with {"detail": "User not found"}, while a wrong
// password is a 200 with {"result": "fail", "message": "Wrong password"}.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Login(r.Context(), req.ID, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Detail: err.Error()})
		return
	case errors.Is(err, apperror.ErrAuth):
		writeJSON(w, http.StatusOK, loginResponse{Result: "fail", Message: err.Error()})
		return
	default:
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Result: "ok",
		User: &loginUser{
			ID:    user.ID,
			Phone: user.Phone,
			Date:  user.CreatedAt.Format(time.RFC3339),
		},
	})
}
