package inquiry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/hangang/internal/api"
	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  model.StatusCode
		want Status
	}{
		{"pending", Pending},
		{"PENDING", Pending},
		{"  Pending ", Pending},
		{"0", Pending},
		{"", Pending},
		{"답변대기", Pending},
		{"answered", Answered},
		{"Answered", Answered},
		{"1", Answered},
		{"true", Answered},
		{"TRUE", Answered},
		{" 답변완료", Answered},
		{"false", Unknown},
		{"2", Unknown},
		{"closed", Unknown},
		{"in progress", Unknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestPredicatesAreExclusive(t *testing.T) {
	for _, raw := range []model.StatusCode{"pending", "answered", "0", "1", "weird", ""} {
		inq := model.Inquiry{Status: raw}
		assert.False(t, IsPending(inq) && IsAnswered(inq), "status %q", raw)
	}
}

// =========================================================================
// BOARD
// =========================================================================

type fakeAPI struct {
	all      []model.Inquiry
	byUser   map[string][]model.Inquiry
	inserted []model.Inquiry
	patches  map[string]any
}

func (f *fakeAPI) List(ctx context.Context) ([]model.Inquiry, error) {
	return append([]model.Inquiry(nil), f.all...), nil
}

func (f *fakeAPI) ListFor(ctx context.Context, key string) ([]model.Inquiry, error) {
	return append([]model.Inquiry(nil), f.byUser[key]...), nil
}

func (f *fakeAPI) Insert(ctx context.Context, item model.Inquiry) (*model.Inquiry, error) {
	f.inserted = append(f.inserted, item)
	return nil, nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, patch any) error {
	if f.patches == nil {
		f.patches = make(map[string]any)
	}
	f.patches[id] = patch
	return nil
}

type fakeAuth struct{ userID string }

func (a fakeAuth) RequireAuth(action string) (string, error) {
	if a.userID == "" {
		return "", apperror.AuthRequired(action)
	}
	return a.userID, nil
}

func newBoard(userID string, a *fakeAPI) *Board {
	b := NewWith(a, fakeAuth{userID: userID}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	return b
}

func sample() []model.Inquiry {
	day := func(d int) time.Time { return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC) }
	return []model.Inquiry{
		{ID: "q1", UserID: "alice", Question: "Parking?", QuestionDate: day(1), Status: "pending"},
		{ID: "q2", UserID: "alice", Question: "Bikes?", QuestionDate: day(3), Status: "1"},
		{ID: "q3", UserID: "alice", Question: "Pets?", QuestionDate: day(2), Status: "on hold"},
		{ID: "q4", UserID: "alice", Question: "Toilets?", QuestionDate: day(4), Status: ""},
	}
}

func ids(items []model.Inquiry) []string {
	out := make([]string, len(items))
	for i, inq := range items {
		out[i] = inq.ID
	}
	return out
}

func TestBoard_LoadMineSplitsByStatus(t *testing.T) {
	a := &fakeAPI{byUser: map[string][]model.Inquiry{"alice": sample()}}
	b := newBoard("alice", a)

	require.NoError(t, b.LoadMine(context.Background()))

	assert.Equal(t, []string{"q4", "q2", "q3", "q1"}, ids(b.All()))
	assert.Equal(t, []string{"q4", "q1"}, ids(b.Pending()))
	assert.Equal(t, []string{"q2"}, ids(b.Answered()))
	assert.Equal(t, []string{"q3"}, ids(b.Unknown()))
}

func TestBoard_LoadMineRequiresLogin(t *testing.T) {
	b := newBoard("", &fakeAPI{})
	assert.ErrorIs(t, b.LoadMine(context.Background()), apperror.ErrAuthRequired)
}

func TestBoard_Ask(t *testing.T) {
	a := &fakeAPI{}
	b := newBoard("alice", a)

	inq, err := b.Ask(context.Background(), "  Is the pool open?  ")
	require.NoError(t, err)
	assert.Equal(t, "Is the pool open?", inq.Question)
	assert.True(t, IsPending(inq))

	require.Len(t, a.inserted, 1)
	assert.Equal(t, "alice", a.inserted[0].UserID)
	assert.Len(t, b.Pending(), 1)

	_, err = b.Ask(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Len(t, a.inserted, 1)
}

func TestBoard_Answer(t *testing.T) {
	a := &fakeAPI{all: sample()}
	b := newBoard("admin", a)
	require.NoError(t, b.LoadAll(context.Background()))

	require.NoError(t, b.Answer(context.Background(), "q1", "Yes, lot B."))
	patch, ok := a.patches["q1"].(api.InquiryAnswer)
	require.True(t, ok)
	assert.Equal(t, "admin", patch.AdminID)
	assert.Equal(t, "answered", patch.Status)
	assert.Equal(t, "2026-06-01T09:00:00Z", patch.AnswerDate)

	assert.Equal(t, []string{"q2", "q1"}, ids(b.Answered()))

	assert.ErrorIs(t, b.Answer(context.Background(), "q2", "again"), apperror.ErrConflict)
	assert.ErrorIs(t, b.Answer(context.Background(), "nope", "x"), apperror.ErrNotFound)
}
