package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sakif/hangang/internal/apperror"
)

// LoginUser is the "user" object of a successful login response.
type LoginUser struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
	Date  string `json:"date"`
}

type loginResponse struct {
	Result  string     `json:"result"`
	Message string     `json:"message"`
	User    *LoginUser `json:"user"`
}

type credentials struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Login checks userID/password against /api/user/login.
//
// The backend answers 200 with {"result":"ok", "user":{...}} on success. A
// rejection arrives either as a non-200 with {"detail": "..."} or as a 200
// whose result is not "ok" and whose message explains why. Both become
// apperror.ErrAuth carrying the backend's text unchanged. A 5xx is
// apperror.ErrServer.
func (c *Client) Login(ctx context.Context, userID, password string) (user *LoginUser, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveCall("user", "login", start, err) }()

	status, body, err := c.send(ctx, call{
		resource: "user",
		op:       "login",
		method:   http.MethodPost,
		path:     "/api/user/login",
		body:     credentials{ID: userID, Password: password},
	})
	if err != nil {
		return nil, fmt.Errorf("api: login: %w", err)
	}
	if status != http.StatusOK {
		return nil, rejection(status, body)
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("api: login: %w", apperror.Decode(err))
	}
	if resp.Result != "ok" {
		return nil, apperror.AuthFailed(resp.Message, status)
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, fmt.Errorf("api: login: %w", apperror.Decode(errors.New(`missing "user"`)))
	}

	c.logger.Info("login accepted", "userID", resp.User.ID)
	return resp.User, nil
}

// SignUp registers (userID, password, phone). It does not log the user in.
func (c *Client) SignUp(ctx context.Context, userID, password, phone string) (err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveCall("user", "signup", start, err) }()

	status, body, err := c.send(ctx, call{
		resource: "user",
		op:       "signup",
		method:   http.MethodPost,
		path:     "/api/user/signup",
		body:     credentials{ID: userID, Password: password, Phone: phone},
	})
	if err != nil {
		return fmt.Errorf("api: signup: %w", err)
	}
	if status != http.StatusOK {
		return rejection(status, body)
	}
	return nil
}

// rejection maps a non-200 auth response. Only a 4xx is about the
// credentials; anything else is the backend failing.
func rejection(status int, body []byte) error {
	if status >= 400 && status < 500 {
		return apperror.AuthFailed(detail(body), status)
	}
	return apperror.Server(status, detail(body))
}
