package handler

// RESPONSE SHAPES:
// The development backend mirrors the envelopes the mobile backend uses, so
// the sync client can be pointed at either one:
//
//	list     200 {"results": [...]}
//	write    200 {"result": {...}} or {"result": "ok"}
//	error    4xx/5xx {"detail": "..."}
//	invalid  422 {"detail": [{"loc": [...], "msg": "...", "type": "..."}]}
//
// 200 is used for every success, including inserts. The client treats any
// other status as a failure.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/hangang/internal/apperror"
)

// maxBodyBytes caps request bodies. The largest legitimate payload is a
// 2000-character post.
const maxBodyBytes = 64 << 10

type resultsEnvelope struct {
	Results any `json:"results"`
}

type resultEnvelope struct {
	Result any `json:"result"`
}

// ErrorResponse is the plain error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationResponse is the error body for rejected input.
type ValidationResponse struct {
	Detail []ValidationDetail `json:"detail"`
}

type ValidationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeResults(w http.ResponseWriter, items any) {
	writeJSON(w, http.StatusOK, resultsEnvelope{Results: items})
}

func writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, resultEnvelope{Result: result})
}

func writeOK(w http.ResponseWriter) {
	writeResult(w, "ok")
}

// writeError maps a domain error to its status code.
//
//	ErrValidation → 422 with a detail list
//	ErrAuth       → 401
//	ErrForbidden  → 403
//	ErrNotFound   → 404
//	ErrConflict   → 409
//	anything else → 500, message hidden
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "Internal Server Error"})
		return
	}

	if errors.Is(err, apperror.ErrValidation) {
		field := appErr.Field
		if field == "" {
			field = "body"
		}
		writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Detail: []ValidationDetail{{
			Loc:  []string{"body", field},
			Msg:  appErr.Message,
			Type: "value_error",
		}}})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}

	msg := appErr.Message
	if status == http.StatusInternalServerError {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		msg = "Internal Server Error"
	}
	writeJSON(w, status, ErrorResponse{Detail: msg})
}

// decodeJSON reads one JSON object from the request body into dst. Failures
// come back as validation errors so they share the 422 shape.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is empty")
		}
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	return nil
}
