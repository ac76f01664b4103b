package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/hangang/internal/auth"
	"github.com/sakif/hangang/internal/handler"
	"github.com/sakif/hangang/internal/repository/sqlite"
	"github.com/sakif/hangang/internal/service"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ah := handler.NewAuthHandler(service.NewAuthService(db, auth.NewPasswordServiceWithCost(bcrypt.MinCost), logger), logger)
	ch := handler.NewCommunityHandler(service.NewCommunityService(db, logger), logger)
	bh := handler.NewBoardHandler(service.NewBoardService(db, logger), logger)

	r := chi.NewRouter()
	r.Post("/api/user/signup", ah.HandleSignUp)
	r.Post("/api/user/login", ah.HandleLogin)
	r.Get("/community/select", ch.HandleListPosts)
	r.Post("/community/insert", ch.HandleCreatePost)
	r.Put("/community/update/{id}", ch.HandleUpdatePost)
	r.Delete("/community/delete/{id}", ch.HandleDeletePost)
	r.Post("/comment/insert", ch.HandleCreateComment)
	r.Post("/postlike/insert", ch.HandleCreateLike)
	r.Delete("/postlike/delete", ch.HandleDeleteLike)
	r.Post("/insert", bh.HandleCreateInquiry)
	r.Put("/update/{id}", bh.HandleAnswerInquiry)
	r.Get("/select/{userID}", bh.HandleListUserInquiries)
	r.Post("/busking/insert", bh.HandleCreateBusking)
	r.Put("/busking/update/{id}", bh.HandleSetBuskingState)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr, out
}

func TestAuth_SignUpAndLogin(t *testing.T) {
	h := newRouter(t)

	rr, body := do(t, h, http.MethodPost, "/api/user/signup", `{"id":"alice","password":"hunter2","phone":"010-1234-5678"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["result"])

	t.Run("duplicate signup", func(t *testing.T) {
		rr, body := do(t, h, http.MethodPost, "/api/user/signup", `{"id":"alice","password":"other1"}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, service.MsgIDTaken, body["detail"])
	})

	t.Run("success", func(t *testing.T) {
		rr, body := do(t, h, http.MethodPost, "/api/user/login", `{"id":"alice","password":"hunter2"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", body["result"])
		user := body["user"].(map[string]any)
		assert.Equal(t, "alice", user["id"])
		assert.Equal(t, "010-1234-5678", user["phone"])
		assert.NotEmpty(t, user["date"])
	})

	t.Run("wrong password is a 200 with result fail", func(t *testing.T) {
		rr, body := do(t, h, http.MethodPost, "/api/user/login", `{"id":"alice","password":"nope"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "fail", body["result"])
		assert.Equal(t, service.MsgWrongPassword, body["message"])
	})

	t.Run("unknown user is a 401 with detail", func(t *testing.T) {
		rr, body := do(t, h, http.MethodPost, "/api/user/login", `{"id":"bob","password":"hunter2"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, service.MsgUserNotFound, body["detail"])
	})
}

func TestValidationErrorsUseDetailList(t *testing.T) {
	h := newRouter(t)

	rr, body := do(t, h, http.MethodPost, "/api/user/signup", `{"id":"","password":"hunter2"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	details, ok := body["detail"].([]any)
	require.True(t, ok, "detail should be a list")
	require.Len(t, details, 1)
	first := details[0].(map[string]any)
	assert.Equal(t, "id is required", first["msg"])
}

func TestMalformedJSON(t *testing.T) {
	h := newRouter(t)

	rr, _ := do(t, h, http.MethodPost, "/community/insert", `{"userId":`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, _ = do(t, h, http.MethodPost, "/community/insert", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCommunity_InsertEchoesStoredPost(t *testing.T) {
	h := newRouter(t)

	rr, body := do(t, h, http.MethodPost, "/community/insert", `{"id":"","userId":"alice","content":"hello"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	result := body["result"].(map[string]any)
	id := result["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "hello", result["content"])
	assert.Equal(t, false, result["deleted"])

	rr, body = do(t, h, http.MethodPut, "/community/update/"+id, `{"content":"edited"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["result"])

	rr, _ = do(t, h, http.MethodDelete, "/community/delete/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr, body = do(t, h, http.MethodGet, "/community/select", "")
	require.Equal(t, http.StatusOK, rr.Code)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	post := results[0].(map[string]any)
	assert.Equal(t, "edited", post["content"])
	assert.Equal(t, true, post["deleted"])

	rr, body = do(t, h, http.MethodDelete, "/community/delete/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, body["detail"])
}

func TestLikes_DuplicateAndUnlike(t *testing.T) {
	h := newRouter(t)
	_, body := do(t, h, http.MethodPost, "/community/insert", `{"userId":"alice","content":"hello"}`)
	id := body["result"].(map[string]any)["id"].(string)

	rr, _ := do(t, h, http.MethodPost, "/postlike/insert", `{"postId":"`+id+`","userId":"bob"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = do(t, h, http.MethodPost, "/postlike/insert", `{"postId":"`+id+`","userId":"bob"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, _ = do(t, h, http.MethodDelete, "/postlike/delete?postId="+id+"&userId=bob", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = do(t, h, http.MethodDelete, "/postlike/delete?postId="+id+"&userId=bob", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestComment_OnMissingPost(t *testing.T) {
	h := newRouter(t)

	rr, _ := do(t, h, http.MethodPost, "/comment/insert", `{"postId":"nope","userId":"bob","content":"hi"}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInquiry_AskAndAnswer(t *testing.T) {
	h := newRouter(t)

	rr, body := do(t, h, http.MethodPost, "/insert", `{"userId":"alice","question":"Parking?","questionDate":"2026-05-01T09:00:00Z","status":"pending"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	id := body["result"].(map[string]any)["id"].(string)

	rr, _ = do(t, h, http.MethodPut, "/update/"+id, `{"adminId":"admin","answer":"Lot B.","answerDate":"yesterday"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, _ = do(t, h, http.MethodPut, "/update/"+id, `{"adminId":"admin","answer":"Lot B.","answerDate":"2026-05-02T10:00:00Z","status":"answered"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, body = do(t, h, http.MethodGet, "/select/alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	inq := results[0].(map[string]any)
	assert.Equal(t, "answered", inq["status"])
	assert.Equal(t, "Lot B.", inq["answer"])
}

func TestBusking_InsertForcesPendingAndAdminUpdate(t *testing.T) {
	h := newRouter(t)

	rr, body := do(t, h, http.MethodPost, "/busking/insert",
		`{"userId":"alice","name":"Kim","date":"2026-07-04","category":"acoustic","state":1}`)
	require.Equal(t, http.StatusOK, rr.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, float64(0), result["state"])
	id := result["id"].(string)

	rr, _ = do(t, h, http.MethodPut, "/busking/update/"+id, `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, _ = do(t, h, http.MethodPut, "/busking/update/"+id, `{"state":3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr, _ = do(t, h, http.MethodPut, "/busking/update/"+id, `{"state":1}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}
