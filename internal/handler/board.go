package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
	"github.com/sakif/hangang/internal/service"
)

// BoardHandler serves inquiries, busking applications and map markers.
type BoardHandler struct {
	board  *service.BoardService
	logger *slog.Logger
}

func NewBoardHandler(board *service.BoardService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{board: board, logger: logger}
}

// =========================================================================
// INQUIRIES
// =========================================================================

// HTTP: GET /select
func (h *BoardHandler) HandleListInquiries(w http.ResponseWriter, r *http.Request) {
	items, err := h.board.ListInquiries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResults(w, items)
}

// HTTP: GET /select/{userID}
func (h *BoardHandler) HandleListUserInquiries(w http.ResponseWriter, r *http.Request) {
	items, err := h.board.ListInquiriesByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeResults(w, items)
}

// HTTP: POST /insert
// REQUEST BODY: {"userId": "...", "question": "...", "questionDate": "..."}
func (h *BoardHandler) HandleCreateInquiry(w http.ResponseWriter, r *http.Request) {
	var req model.Inquiry
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	inq, err := h.board.CreateInquiry(r.Context(), req.UserID, req.Question, req.QuestionDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, inq)
}

type answerRequest struct {
	AdminID    string `json:"adminId"`
	Answer     string `json:"answer"`
	AnswerDate string `json:"answerDate"`
}

// HandleAnswerInquiry is the admin answer. The status always becomes
// "answered" whatever the body says.
//
// HTTP: PUT /update/{id}
func (h *BoardHandler) HandleAnswerInquiry(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var at time.Time
	if s := strings.TrimSpace(req.AnswerDate); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, apperror.ValidationFailed("answerDate", "answerDate must be an RFC 3339 timestamp"))
			return
		}
		at = parsed
	}

	if err := h.board.AnswerInquiry(r.Context(), chi.URLParam(r, "id"), req.AdminID, req.Answer, at); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// =========================================================================
// BUSKING
// =========================================================================

// HTTP: GET /busking/select
func (h *BoardHandler) HandleListBusking(w http.ResponseWriter, r *http.Request) {
	items, err := h.board.ListBusking(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResults(w, items)
}

// HTTP: GET /busking/select/{userID}
func (h *BoardHandler) HandleListUserBusking(w http.ResponseWriter, r *http.Request) {
	items, err := h.board.ListBuskingByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeResults(w, items)
}

// HTTP: POST /busking/insert
func (h *BoardHandler) HandleCreateBusking(w http.ResponseWriter, r *http.Request) {
	var app model.BuskingApplication
	if err := decodeJSON(w, r, &app); err != nil {
		writeError(w, err)
		return
	}

	if err := h.board.CreateBusking(r.Context(), &app); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, app)
}

type stateRequest struct {
	State *int `json:"state"`
}

// HandleSetBuskingState approves or rejects an application.
//
// HTTP: PUT /busking/update/{id}
// REQUEST BODY: {"state": 1}
func (h *BoardHandler) HandleSetBuskingState(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.State == nil {
		writeError(w, apperror.ValidationFailed("state", "state is required"))
		return
	}

	if err := h.board.SetBuskingState(r.Context(), chi.URLParam(r, "id"), *req.State); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// =========================================================================
// MARKERS
// =========================================================================

// HTTP: GET /marker/select
func (h *BoardHandler) HandleListMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.board.ListMarkers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResults(w, markers)
}
