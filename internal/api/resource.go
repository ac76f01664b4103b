package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
)

// Paths lists the backend routes of one resource. An empty path means the
// backend does not offer that operation.
type Paths struct {
	List    string // GET, {"results": [...]}
	ListFor string // GET {ListFor}/{key}, e.g. one user's items
	Insert  string // POST
	Update  string // PUT {Update}/{id}
	Delete  string // DELETE {Delete}/{id}
}

// Resource is the generic resource client, one per entity type.
type Resource[T any] struct {
	c     *Client
	name  string
	paths Paths
}

func newResource[T any](c *Client, name string, paths Paths) *Resource[T] {
	return &Resource[T]{c: c, name: name, paths: paths}
}

// Name is the label used in logs and metrics.
func (r *Resource[T]) Name() string { return r.name }

// List fetches every item of the resource.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	if r.paths.List == "" {
		return nil, r.unsupported("list")
	}
	return r.list(ctx, "list", r.paths.List)
}

// ListFor fetches the items scoped to key (the select/{id} variant).
func (r *Resource[T]) ListFor(ctx context.Context, key string) ([]T, error) {
	if r.paths.ListFor == "" {
		return nil, r.unsupported("listFor")
	}
	return r.list(ctx, "listFor", r.paths.ListFor+"/"+url.PathEscape(key))
}

func (r *Resource[T]) list(ctx context.Context, op, path string) ([]T, error) {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := r.c.do(ctx, call{resource: r.name, op: op, method: http.MethodGet, path: path}, &envelope); err != nil {
		return nil, fmt.Errorf("api: listing %s: %w", r.name, err)
	}

	// A body without "results" is a schema mismatch, not an empty list.
	if len(envelope.Results) == 0 {
		return nil, fmt.Errorf("api: listing %s: %w", r.name, apperror.Decode(errors.New(`missing "results"`)))
	}
	if bytes.Equal(envelope.Results, []byte("null")) {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(envelope.Results, &items); err != nil {
		return nil, fmt.Errorf("api: listing %s: %w", r.name, apperror.Decode(err))
	}
	return items, nil
}

// Insert POSTs item. When the backend echoes the stored item in
// {"result": {...}} it is returned (carrying the server-assigned id);
// otherwise the returned pointer is nil.
func (r *Resource[T]) Insert(ctx context.Context, item T) (*T, error) {
	if r.paths.Insert == "" {
		return nil, r.unsupported("insert")
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	cl := call{resource: r.name, op: "insert", method: http.MethodPost, path: r.paths.Insert, body: item}
	if err := r.c.do(ctx, cl, &envelope); err != nil {
		return nil, fmt.Errorf("api: inserting %s: %w", r.name, err)
	}

	raw := bytes.TrimSpace(envelope.Result)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	var stored T
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("api: inserting %s: %w", r.name, apperror.Decode(err))
	}
	return &stored, nil
}

// Update PUTs a partial-field payload for id.
func (r *Resource[T]) Update(ctx context.Context, id string, patch any) error {
	if r.paths.Update == "" {
		return r.unsupported("update")
	}
	cl := call{
		resource: r.name,
		op:       "update",
		method:   http.MethodPut,
		path:     r.paths.Update + "/" + url.PathEscape(id),
		body:     patch,
	}
	if err := r.c.do(ctx, cl, nil); err != nil {
		return fmt.Errorf("api: updating %s %s: %w", r.name, id, err)
	}
	return nil
}

// SoftDelete asks the backend to tombstone id. The row stays on the server
// with deleted=true.
func (r *Resource[T]) SoftDelete(ctx context.Context, id string) error {
	if r.paths.Delete == "" {
		return r.unsupported("delete")
	}
	cl := call{
		resource: r.name,
		op:       "delete",
		method:   http.MethodDelete,
		path:     r.paths.Delete + "/" + url.PathEscape(id),
	}
	if err := r.c.do(ctx, cl, nil); err != nil {
		return fmt.Errorf("api: deleting %s %s: %w", r.name, id, err)
	}
	return nil
}

func (r *Resource[T]) unsupported(op string) error {
	return fmt.Errorf("api: %s does not support %s", r.name, op)
}

// LikeResource adds the unlike call, which the backend addresses by
// (postId, userId) instead of by like id.
type LikeResource struct {
	*Resource[model.Like]
}

func (r *LikeResource) Unlike(ctx context.Context, postID, userID string) error {
	cl := call{
		resource: r.name,
		op:       "delete",
		method:   http.MethodDelete,
		path:     "/postlike/delete",
		query:    url.Values{"postId": {postID}, "userId": {userID}},
	}
	if err := r.c.do(ctx, cl, nil); err != nil {
		return fmt.Errorf("api: unliking post %s: %w", postID, err)
	}
	return nil
}

// PostPatch is the partial payload for editing a post.
type PostPatch struct {
	Text string `json:"content"`
}

// InquiryAnswer is the partial payload an admin sends to answer an inquiry.
type InquiryAnswer struct {
	AdminID    string `json:"adminId"`
	Answer     string `json:"answer"`
	AnswerDate string `json:"answerDate"`
	Status     string `json:"status"`
}
