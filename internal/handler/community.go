package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/hangang/internal/service"
)

// CommunityHandler serves posts, comments and likes.
//
// Listings include tombstoned rows with "deleted": true. Hiding them is the
// client's job.
type CommunityHandler struct {
	community *service.CommunityService
	logger    *slog.Logger
}

func NewCommunityHandler(community *service.CommunityService, logger *slog.Logger) *CommunityHandler {
	return &CommunityHandler{community: community, logger: logger}
}

// contentRequest is the body of post and comment writes. The client may
// send a whole entity; only these fields are read.
type contentRequest struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// =========================================================================
// POSTS
// =========================================================================

// HTTP: GET /community/select
func (h *CommunityHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.community.ListPosts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResults(w, posts)
}

// HandleCreatePost stores a post and echoes it with its new id.
//
// HTTP: POST /community/insert
func (h *CommunityHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.community.CreatePost(r.Context(), req.UserID, req.Text, req.CreatedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, post)
}

// HTTP: PUT /community/update/{id}
// REQUEST BODY: {"content": "..."}
func (h *CommunityHandler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.community.UpdatePost(r.Context(), chi.URLParam(r, "id"), req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// HTTP: DELETE /community/delete/{id}
func (h *CommunityHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.community.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// =========================================================================
// COMMENTS
// =========================================================================

// HTTP: GET /comment/select
func (h *CommunityHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.community.ListComments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResults(w, comments)
}

// HTTP: POST /comment/insert
func (h *CommunityHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.community.CreateComment(r.Context(), req.PostID, req.UserID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, comment)
}

// HTTP: DELETE /comment/delete/{id}
func (h *CommunityHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.community.DeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// =========================================================================
// LIKES
// =========================================================================

// HTTP: GET /postlike/select
func (h *CommunityHandler) HandleListLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := h.community.ListLikes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResults(w, likes)
}

// HTTP: POST /postlike/insert
// REQUEST BODY: {"postId": "...", "userId": "..."}
func (h *CommunityHandler) HandleCreateLike(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	like, err := h.community.CreateLike(r.Context(), req.PostID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, like)
}

// HandleDeleteLike removes a like, addressed by post and user rather than
// by like id.
//
// HTTP: DELETE /postlike/delete?postId=...&userId=...
func (h *CommunityHandler) HandleDeleteLike(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.community.DeleteLike(r.Context(), q.Get("postId"), q.Get("userId")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}
