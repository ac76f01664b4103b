// Package api is the resource client: it turns one resource operation into
// one HTTP call against the Hangang backend and decodes the typed result.
//
// WIRE CONTRACT:
// The backend speaks JSON over HTTP. Collections come wrapped in
// {"results": [...]}, single items in {"result": ...}. 200 is the only
// success status for every verb; anything else is a failure, and the body may
// carry {"detail": "..."} with a message meant for the user. No auth headers
// are sent: the user id travels inside bodies and paths.
//
// FAILURES:
// Every call fails with exactly one of the apperror sentinels:
//
//	ErrInvalidURL  base URL or path could not be turned into a request URL
//	ErrNetwork     the request never got an HTTP status back
//	ErrServer      status != 200 (StatusCode is set)
//	ErrDecode      body did not match the expected envelope
//
// Nothing is retried. Callers decide what to show.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/metrics"
	"github.com/sakif/hangang/internal/model"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Client talks to one backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	posts     *Resource[model.Post]
	comments  *Resource[model.Comment]
	likes     *LikeResource
	inquiries *Resource[model.Inquiry]
	busking   *Resource[model.BuskingApplication]
	markers   *Resource[model.Marker]
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (useful for httptest).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client for baseURL. The URL is not validated here; a bad
// base URL surfaces as ErrInvalidURL on the first call, like any other
// per-call failure.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.NewNop()
	}

	c.posts = newResource[model.Post](c, "posts", Paths{
		List:   "/community/select",
		Insert: "/community/insert",
		Update: "/community/update",
		Delete: "/community/delete",
	})
	c.comments = newResource[model.Comment](c, "comments", Paths{
		List:   "/comment/select",
		Insert: "/comment/insert",
		Delete: "/comment/delete",
	})
	c.likes = &LikeResource{Resource: newResource[model.Like](c, "likes", Paths{
		List:   "/postlike/select",
		Insert: "/postlike/insert",
	})}
	c.inquiries = newResource[model.Inquiry](c, "inquiries", Paths{
		List:    "/select",
		ListFor: "/select",
		Insert:  "/insert",
		Update:  "/update",
	})
	c.busking = newResource[model.BuskingApplication](c, "busking", Paths{
		List:    "/busking/select",
		ListFor: "/busking/select",
		Insert:  "/busking/insert",
	})
	c.markers = newResource[model.Marker](c, "markers", Paths{
		List: "/marker/select",
	})
	return c
}

func (c *Client) Posts() *Resource[model.Post] { return c.posts }
func (c *Client) Comments() *Resource[model.Comment] { return c.comments }
func (c *Client) Likes() *LikeResource { return c.likes }
func (c *Client) Inquiries() *Resource[model.Inquiry] { return c.inquiries }
func (c *Client) Busking() *Resource[model.BuskingApplication] { return c.busking }
func (c *Client) Markers() *Resource[model.Marker] { return c.markers }

// call describes one request.
type call struct {
	resource string // metrics/log label, e.g. "posts"
	op       string // metrics/log label, e.g. "list"
	method   string
	path     string
	query    url.Values
	body     any
}

// endpoint joins the base URL and path. Path segments supplied by callers
// (ids) must already be escaped.
func (c *Client) endpoint(path string, query url.Values) (string, error) {
	raw := c.baseURL + path
	u, err := url.Parse(raw)
	if err != nil {
		return "", apperror.InvalidURL(raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperror.InvalidURL(raw, errors.New("base URL needs an http(s) scheme and host"))
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// send performs the request and returns the raw status and body. Only
// transport-level problems are errors here; status handling is left to the
// caller.
func (c *Client) send(ctx context.Context, cl call) (int, []byte, error) {
	target, err := c.endpoint(cl.path, cl.query)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return 0, nil, fmt.Errorf("api: encoding %s %s body: %w", cl.resource, cl.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return 0, nil, apperror.InvalidURL(target, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, apperror.Network(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, apperror.Network(err)
	}
	return resp.StatusCode, body, nil
}

// do sends the request, enforces the 200-only contract and decodes the body
// into out (if non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveCall(cl.resource, cl.op, start, err)
		c.logger.Debug("backend call",
			slog.String("resource", cl.resource),
			slog.String("op", cl.op),
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.Duration("duration", time.Since(start)),
			slog.String("outcome", metrics.Outcome(err)),
		)
	}()

	status, body, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apperror.Server(status, detail(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperror.Decode(err)
	}
	return nil
}

// detail extracts the backend's {"detail": ...} message. FastAPI-style
// validation errors put a list of {"msg": ...} there; the first msg is used.
func detail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if len(body) == 0 || json.Unmarshal(body, &envelope) != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(envelope.Detail, &list) == nil && len(list) > 0 {
		return list[0].Msg
	}
	return ""
}
