package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// listHold lets a test stall a List call after it has taken its snapshot:
// List signals started, then waits for release to be closed.
type listHold struct {
	started chan struct{}
	release chan struct{}
}

func newListHold() *listHold {
	return &listHold{started: make(chan struct{}), release: make(chan struct{})}
}

func (h *listHold) wait() {
	if h == nil {
		return
	}
	h.started <- struct{}{}
	<-h.release
}

// fakePosts is an in-memory PostAPI. insertGate, when set, blocks Insert
// until it is closed so tests can observe the pending state.
type fakePosts struct {
	mu         sync.Mutex
	items      []model.Post
	listErr    error
	insertErr  error
	echo       bool
	insertGate chan struct{}
	hold       *listHold
	inserts    atomic.Int32
	nextID     int
}

func (f *fakePosts) List(ctx context.Context) ([]model.Post, error) {
	f.mu.Lock()
	items, err, hold := append([]model.Post(nil), f.items...), f.listErr, f.hold
	f.hold = nil
	f.mu.Unlock()

	hold.wait()
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *fakePosts) Insert(ctx context.Context, item model.Post) (*model.Post, error) {
	f.inserts.Add(1)
	if f.insertGate != nil {
		<-f.insertGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextID++
	item.ID = fmt.Sprintf("srv-%d", f.nextID)
	item.Sync = model.Confirmed // not on the wire
	f.items = append(f.items, item)
	if !f.echo {
		return nil, nil
	}
	return &item, nil
}

func (f *fakePosts) Update(ctx context.Context, id string, patch any) error {
	return nil
}

func (f *fakePosts) SoftDelete(ctx context.Context, id string) error {
	return nil
}

type fakeComments struct {
	mu      sync.Mutex
	items   []model.Comment
	listErr error
	echo    bool
	hold    *listHold
	nextID  int
}

func (f *fakeComments) List(ctx context.Context) ([]model.Comment, error) {
	f.mu.Lock()
	items, err, hold := append([]model.Comment(nil), f.items...), f.listErr, f.hold
	f.hold = nil
	f.mu.Unlock()

	hold.wait()
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *fakeComments) Insert(ctx context.Context, item model.Comment) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item.ID = fmt.Sprintf("c-new-%d", f.nextID)
	f.items = append(f.items, item)
	if !f.echo {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeComments) SoftDelete(ctx context.Context, id string) error {
	return nil
}

// fakeLikes keeps every like it was given; Unlike only counts calls, so
// listings keep reporting unliked posts as liked.
type fakeLikes struct {
	mu      sync.Mutex
	items   []model.Like
	listErr error
	hold    *listHold
	unlikes int
}

func (f *fakeLikes) List(ctx context.Context) ([]model.Like, error) {
	f.mu.Lock()
	items, err, hold := append([]model.Like(nil), f.items...), f.listErr, f.hold
	f.hold = nil
	f.mu.Unlock()

	hold.wait()
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *fakeLikes) Insert(ctx context.Context, item model.Like) (*model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
	return nil, nil
}

func (f *fakeLikes) Unlike(ctx context.Context, postID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlikes++
	return nil
}

type fakeAuth struct{ userID string }

func (a fakeAuth) RequireAuth(action string) (string, error) {
	if a.userID == "" {
		return "", apperror.AuthRequired(action)
	}
	return a.userID, nil
}

func (a fakeAuth) UserID() string { return a.userID }

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	posts    *fakePosts
	comments *fakeComments
	likes    *fakeLikes
	feed     *Feed
}

func newFixture(userID string) *fixture {
	fx := &fixture{
		posts:    &fakePosts{},
		comments: &fakeComments{},
		likes:    &fakeLikes{},
	}
	fx.feed = NewWith(fx.posts, fx.comments, fx.likes, fakeAuth{userID: userID}, testLogger())
	fx.feed.now = func() time.Time { return at(100) }
	return fx
}

// seedScenario stores 3 posts (the middle one deleted) and 5 comments on the
// first post (one of them deleted).
func (fx *fixture) seedScenario() {
	fx.posts.items = []model.Post{
		{ID: "p1", AuthorID: "alice", Text: "first", CreatedAt: at(1)},
		{ID: "p2", AuthorID: "bob", Text: "removed", CreatedAt: at(2), Deleted: true},
		{ID: "p3", AuthorID: "bob", Text: "third", CreatedAt: at(3)},
	}
	fx.comments.items = []model.Comment{
		{ID: "c3", PostID: "p1", AuthorID: "bob", Text: "three", CreatedAt: at(13)},
		{ID: "c1", PostID: "p1", AuthorID: "bob", Text: "one", CreatedAt: at(11)},
		{ID: "c2", PostID: "p1", AuthorID: "alice", Text: "two", CreatedAt: at(12), Deleted: true},
		{ID: "c5", PostID: "p1", AuthorID: "alice", Text: "five", CreatedAt: at(15)},
		{ID: "c4", PostID: "p1", AuthorID: "bob", Text: "four", CreatedAt: at(14)},
	}
	fx.likes.items = []model.Like{
		{ID: "l1", PostID: "p1", UserID: "bob"},
		{ID: "l2", PostID: "p1", UserID: "alice"},
		{ID: "l3", PostID: "p3", UserID: "bob"},
	}
}

func postIDs(posts []model.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func commentIDs(comments []model.Comment) []string {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}

// =========================================================================
// LOADING AND DERIVED VIEWS
// =========================================================================

func TestLoadAll_ScenarioCountsAndOrder(t *testing.T) {
	fx := newFixture("alice")
	fx.seedScenario()

	rep := fx.feed.LoadAll(context.Background())
	require.True(t, rep.OK())

	assert.Equal(t, []string{"p3", "p1"}, postIDs(fx.feed.Posts()))
	assert.Equal(t, 4, fx.feed.CommentCount("p1"))
	assert.Equal(t, []string{"c1", "c3", "c4", "c5"}, commentIDs(fx.feed.CommentsFor("p1")))
	assert.Equal(t, 2, fx.feed.LikeCount("p1"))
	assert.Equal(t, 1, fx.feed.LikeCount("p3"))
	assert.True(t, fx.feed.IsLiked("p1", "alice"))
	assert.False(t, fx.feed.IsLiked("p3", "alice"))
	assert.False(t, fx.feed.IsLiked("p1", ""))

	_, ok := fx.feed.Post("p2")
	assert.False(t, ok, "deleted post must not be reachable")
}

func TestLoadAll_CommentCountsAcrossPosts(t *testing.T) {
	fx := newFixture("alice")
	fx.posts.items = []model.Post{
		{ID: "p1", AuthorID: "alice", Text: "first", CreatedAt: at(1)},
		{ID: "p2", AuthorID: "bob", Text: "removed", CreatedAt: at(2), Deleted: true},
		{ID: "p3", AuthorID: "bob", Text: "third", CreatedAt: at(3)},
	}
	fx.comments.items = []model.Comment{
		{ID: "c1", PostID: "p1", AuthorID: "bob", CreatedAt: at(11)},
		{ID: "c2", PostID: "p3", AuthorID: "alice", CreatedAt: at(12)},
		{ID: "c3", PostID: "p1", AuthorID: "carol", CreatedAt: at(13)},
		{ID: "c4", PostID: "p3", AuthorID: "bob", CreatedAt: at(14)},
		{ID: "c5", PostID: "p1", AuthorID: "alice", CreatedAt: at(15)},
	}

	require.True(t, fx.feed.LoadAll(context.Background()).OK())

	posts := fx.feed.Posts()
	require.Equal(t, []string{"p3", "p1"}, postIDs(posts))
	assert.Equal(t, 3, fx.feed.CommentCount("p1"))
	assert.Equal(t, 2, fx.feed.CommentCount("p3"))

	total := 0
	for _, p := range posts {
		total += fx.feed.CommentCount(p.ID)
	}
	assert.Equal(t, 5, total)
}

func TestLoadAll_PartialSuccess(t *testing.T) {
	fx := newFixture("alice")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(context.Background()).OK())

	// Comments fail on the second load; posts and likes change.
	fx.comments.listErr = apperror.Network(errors.New("connection reset"))
	fx.posts.items = append(fx.posts.items, model.Post{ID: "p4", AuthorID: "carol", Text: "new", CreatedAt: at(4)})
	fx.likes.items = nil

	rep := fx.feed.LoadAll(context.Background())
	assert.False(t, rep.OK())
	assert.NoError(t, rep.Posts)
	assert.NoError(t, rep.Likes)
	assert.ErrorIs(t, rep.Comments, apperror.ErrNetwork)
	assert.ErrorIs(t, rep.Err(), apperror.ErrNetwork)

	assert.Equal(t, []string{"p4", "p3", "p1"}, postIDs(fx.feed.Posts()))
	assert.Equal(t, 0, fx.feed.LikeCount("p1"))
	// Comments keep their previous contents.
	assert.Equal(t, 4, fx.feed.CommentCount("p1"))
	assert.False(t, fx.feed.Loading())
}

func TestLoadAll_AllFail(t *testing.T) {
	fx := newFixture("alice")
	boom := apperror.Server(500, "")
	fx.posts.listErr = boom
	fx.comments.listErr = boom
	fx.likes.listErr = boom

	rep := fx.feed.LoadAll(context.Background())
	assert.ErrorIs(t, rep.Posts, apperror.ErrServer)
	assert.ErrorIs(t, rep.Comments, apperror.ErrServer)
	assert.ErrorIs(t, rep.Likes, apperror.ErrServer)
	assert.Empty(t, fx.feed.Posts())
}

func TestLoadAll_AfterCloseIsDropped(t *testing.T) {
	fx := newFixture("alice")
	fx.seedScenario()
	fx.feed.Close()

	rep := fx.feed.LoadAll(context.Background())
	assert.True(t, rep.OK())
	assert.Empty(t, fx.feed.Posts())
}

// =========================================================================
// OPTIMISTIC POSTS
// =========================================================================

func TestSubmitPost_PendingThenConfirmedWithServerID(t *testing.T) {
	fx := newFixture("alice")
	fx.posts.echo = true
	fx.posts.insertGate = make(chan struct{})

	done := make(chan error, 1)
	var result model.Post
	go func() {
		var err error
		result, err = fx.feed.SubmitPost(context.Background(), "  hello river  ")
		done <- err
	}()

	require.Eventually(t, func() bool { return len(fx.feed.Posts()) == 1 }, time.Second, 5*time.Millisecond)
	pending := fx.feed.Posts()[0]
	assert.Equal(t, model.PendingConfirmation, pending.Sync)
	assert.Contains(t, pending.ID, localIDPrefix)
	assert.Equal(t, "hello river", pending.Text)
	assert.True(t, fx.feed.Busy("post"))

	close(fx.posts.insertGate)
	require.NoError(t, <-done)

	posts := fx.feed.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "srv-1", posts[0].ID)
	assert.Equal(t, model.Confirmed, posts[0].Sync)
	assert.Equal(t, "srv-1", result.ID)
	assert.False(t, fx.feed.Busy("post"))
}

func TestSubmitPost_NoEchoKeepsLocalID(t *testing.T) {
	fx := newFixture("alice")

	p, err := fx.feed.SubmitPost(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, model.Confirmed, p.Sync)
	assert.Contains(t, p.ID, localIDPrefix)

	// The next load replaces the local copy with the server's.
	require.True(t, fx.feed.LoadAll(context.Background()).OK())
	assert.Equal(t, []string{"srv-1"}, postIDs(fx.feed.Posts()))
}

func TestSubmitPost_FailureKeepsFlaggedItem(t *testing.T) {
	fx := newFixture("alice")
	fx.posts.insertErr = apperror.Server(500, "")

	p, err := fx.feed.SubmitPost(context.Background(), "hi")
	require.ErrorIs(t, err, apperror.ErrServer)
	assert.Equal(t, model.FailedToSync, p.Sync)

	posts := fx.feed.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, model.FailedToSync, posts[0].Sync)

	// A reload keeps the unsent post on top.
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(context.Background()).OK())
	assert.Equal(t, p.ID, fx.feed.Posts()[0].ID)

	// Retry succeeds once the backend recovers.
	fx.posts.insertErr = nil
	fx.posts.echo = true
	retried, err := fx.feed.RetryPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Confirmed, retried.Sync)
	assert.Equal(t, "srv-1", retried.ID)
}

func TestDiscardPost(t *testing.T) {
	fx := newFixture("alice")
	fx.posts.insertErr = apperror.Network(errors.New("offline"))

	p, err := fx.feed.SubmitPost(context.Background(), "hi")
	require.Error(t, err)

	require.NoError(t, fx.feed.DiscardPost(p.ID))
	assert.Empty(t, fx.feed.Posts())
	assert.ErrorIs(t, fx.feed.DiscardPost(p.ID), apperror.ErrNotFound)
	assert.Equal(t, int32(1), fx.posts.inserts.Load())
}

func TestSubmitPost_DoubleSubmitSendsOnce(t *testing.T) {
	fx := newFixture("alice")
	fx.posts.insertGate = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		_, err := fx.feed.SubmitPost(context.Background(), "once")
		first <- err
	}()
	require.Eventually(t, func() bool { return fx.feed.Busy("post") }, time.Second, 5*time.Millisecond)

	_, err := fx.feed.SubmitPost(context.Background(), "once")
	require.ErrorIs(t, err, apperror.ErrInFlight)

	close(fx.posts.insertGate)
	require.NoError(t, <-first)
	assert.Equal(t, int32(1), fx.posts.inserts.Load())
	assert.Len(t, fx.feed.Posts(), 1)
}

func TestSubmitPost_Validation(t *testing.T) {
	fx := newFixture("alice")

	_, err := fx.feed.SubmitPost(context.Background(), "   ")
	require.ErrorIs(t, err, apperror.ErrValidation)

	long := make([]byte, maxPostLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = fx.feed.SubmitPost(context.Background(), string(long))
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, int32(0), fx.posts.inserts.Load())
}

func TestWrites_RequireLogin(t *testing.T) {
	fx := newFixture("")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(context.Background()).OK())
	ctx := context.Background()

	_, err := fx.feed.SubmitPost(ctx, "hi")
	assert.ErrorIs(t, err, apperror.ErrAuthRequired)
	_, err = fx.feed.SubmitComment(ctx, "p1", "hi")
	assert.ErrorIs(t, err, apperror.ErrAuthRequired)
	_, err = fx.feed.ToggleLike(ctx, "p1")
	assert.ErrorIs(t, err, apperror.ErrAuthRequired)
	assert.ErrorIs(t, fx.feed.DeletePost(ctx, "p1"), apperror.ErrAuthRequired)
	assert.ErrorIs(t, fx.feed.DeleteComment(ctx, "c1"), apperror.ErrAuthRequired)
	assert.ErrorIs(t, fx.feed.EditPost(ctx, "p1", "x"), apperror.ErrAuthRequired)

	assert.Equal(t, int32(0), fx.posts.inserts.Load())
}

// =========================================================================
// DELETES, EDITS, COMMENTS, LIKES
// =========================================================================

func TestDeletePost_TombstoneSurvivesStaleReload(t *testing.T) {
	fx := newFixture("alice")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(context.Background()).OK())

	require.NoError(t, fx.feed.DeletePost(context.Background(), "p1"))
	assert.Equal(t, []string{"p3"}, postIDs(fx.feed.Posts()))

	// The fake backend still reports p1 as live.
	require.True(t, fx.feed.LoadAll(context.Background()).OK())
	assert.Equal(t, []string{"p3"}, postIDs(fx.feed.Posts()))
}

func TestDeletePost_OnlyOwnPosts(t *testing.T) {
	fx := newFixture("alice")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(context.Background()).OK())

	assert.ErrorIs(t, fx.feed.DeletePost(context.Background(), "p3"), apperror.ErrForbidden)
	assert.ErrorIs(t, fx.feed.DeletePost(context.Background(), "p2"), apperror.ErrNotFound)
	assert.ErrorIs(t, fx.feed.EditPost(context.Background(), "p3", "mine now"), apperror.ErrForbidden)
}

func TestEditPost(t *testing.T) {
	fx := newFixture("alice")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(context.Background()).OK())

	require.NoError(t, fx.feed.EditPost(context.Background(), "p1", "edited"))
	p, ok := fx.feed.Post("p1")
	require.True(t, ok)
	assert.Equal(t, "edited", p.Text)
	assert.Equal(t, at(100), p.UpdatedAt)
}

func TestSubmitComment(t *testing.T) {
	t.Run("echoed", func(t *testing.T) {
		fx := newFixture("alice")
		fx.seedScenario()
		fx.comments.echo = true
		require.True(t, fx.feed.LoadAll(context.Background()).OK())

		c, err := fx.feed.SubmitComment(context.Background(), "p3", "nice")
		require.NoError(t, err)
		assert.Equal(t, "c-new-1", c.ID)
		assert.Equal(t, 1, fx.feed.CommentCount("p3"))
	})

	t.Run("not echoed reloads", func(t *testing.T) {
		fx := newFixture("alice")
		fx.seedScenario()
		require.True(t, fx.feed.LoadAll(context.Background()).OK())

		_, err := fx.feed.SubmitComment(context.Background(), "p1", "sixth")
		require.NoError(t, err)
		assert.Equal(t, 5, fx.feed.CommentCount("p1"))
	})

	t.Run("deleted post", func(t *testing.T) {
		fx := newFixture("alice")
		fx.seedScenario()
		require.True(t, fx.feed.LoadAll(context.Background()).OK())

		_, err := fx.feed.SubmitComment(context.Background(), "p2", "late")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestDeleteComment(t *testing.T) {
	fx := newFixture("alice")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(context.Background()).OK())

	assert.ErrorIs(t, fx.feed.DeleteComment(context.Background(), "c1"), apperror.ErrForbidden)
	require.NoError(t, fx.feed.DeleteComment(context.Background(), "c5"))
	assert.Equal(t, 3, fx.feed.CommentCount("p1"))

	require.True(t, fx.feed.LoadAll(context.Background()).OK())
	assert.Equal(t, []string{"c1", "c3", "c4"}, commentIDs(fx.feed.CommentsFor("p1")))
	assert.ErrorIs(t, fx.feed.DeleteComment(context.Background(), "c5"), apperror.ErrNotFound)
}

func TestToggleLike(t *testing.T) {
	fx := newFixture("alice")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(context.Background()).OK())

	liked, err := fx.feed.ToggleLike(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, fx.feed.LikeCount("p1"))
	assert.Equal(t, 1, fx.likes.unlikes)

	liked, err = fx.feed.ToggleLike(context.Background(), "p3")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, fx.feed.IsLiked("p3", "alice"))
	assert.Equal(t, 2, fx.feed.LikeCount("p3"))
}

// =========================================================================
// RELOADS RACING WRITES
// =========================================================================

func TestLoadAll_StaleListingKeepsConfirmedPost(t *testing.T) {
	for _, echo := range []bool{true, false} {
		t.Run(fmt.Sprintf("echo=%v", echo), func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture("alice")
			fx.posts.echo = echo
			hold := newListHold()
			fx.posts.hold = hold

			loaded := make(chan Report, 1)
			go func() { loaded <- fx.feed.LoadAll(ctx) }()
			<-hold.started // the listing is taken before the post exists

			post, err := fx.feed.SubmitPost(ctx, "hello river")
			require.NoError(t, err)
			require.Equal(t, []string{post.ID}, postIDs(fx.feed.Posts()))

			close(hold.release)
			require.True(t, (<-loaded).OK())
			assert.Equal(t, []string{post.ID}, postIDs(fx.feed.Posts()))

			// A listing that shows the post replaces the local copy.
			require.True(t, fx.feed.LoadAll(ctx).OK())
			posts := fx.feed.Posts()
			require.Len(t, posts, 1)
			assert.Equal(t, "srv-1", posts[0].ID)
			assert.Equal(t, model.Confirmed, posts[0].Sync)
		})
	}
}

func TestLoadAll_StaleListingKeepsEchoedComment(t *testing.T) {
	ctx := context.Background()
	fx := newFixture("alice")
	fx.seedScenario()
	fx.comments.echo = true
	require.True(t, fx.feed.LoadAll(ctx).OK())

	hold := newListHold()
	fx.comments.hold = hold
	loaded := make(chan Report, 1)
	go func() { loaded <- fx.feed.LoadAll(ctx) }()
	<-hold.started

	_, err := fx.feed.SubmitComment(ctx, "p3", "nice")
	require.NoError(t, err)

	close(hold.release)
	require.True(t, (<-loaded).OK())
	assert.Equal(t, 1, fx.feed.CommentCount("p3"))
	assert.Equal(t, 4, fx.feed.CommentCount("p1"))
}

func TestLoadAll_StaleListingKeepsLikeChanges(t *testing.T) {
	ctx := context.Background()
	fx := newFixture("alice")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(ctx).OK())

	hold := newListHold()
	fx.likes.hold = hold
	loaded := make(chan Report, 1)
	go func() { loaded <- fx.feed.LoadAll(ctx) }()
	<-hold.started

	liked, err := fx.feed.ToggleLike(ctx, "p1")
	require.NoError(t, err)
	require.False(t, liked)
	liked, err = fx.feed.ToggleLike(ctx, "p3")
	require.NoError(t, err)
	require.True(t, liked)

	close(hold.release)
	require.True(t, (<-loaded).OK())
	assert.False(t, fx.feed.IsLiked("p1", "alice"))
	assert.Equal(t, 1, fx.feed.LikeCount("p1"))
	assert.True(t, fx.feed.IsLiked("p3", "alice"))
	assert.Equal(t, 2, fx.feed.LikeCount("p3"))

	// A fresh listing that shows the new like does not double it.
	require.True(t, fx.feed.LoadAll(ctx).OK())
	assert.Equal(t, 2, fx.feed.LikeCount("p3"))
	assert.False(t, fx.feed.IsLiked("p1", "alice"))
}

func TestLoadAll_OlderListingIsDropped(t *testing.T) {
	ctx := context.Background()
	fx := newFixture("alice")
	fx.seedScenario()
	require.True(t, fx.feed.LoadAll(ctx).OK())

	hold := newListHold()
	fx.comments.hold = hold
	loaded := make(chan Report, 1)
	go func() { loaded <- fx.feed.LoadAll(ctx) }()
	<-hold.started

	// Not echoed, so the comment arrives through a reload that starts
	// after the stalled one and finishes first.
	_, err := fx.feed.SubmitComment(ctx, "p1", "sixth")
	require.NoError(t, err)
	require.Equal(t, 5, fx.feed.CommentCount("p1"))

	close(hold.release)
	require.True(t, (<-loaded).OK())
	assert.Equal(t, 5, fx.feed.CommentCount("p1"))
}

func TestClose_DropsLateConfirmation(t *testing.T) {
	fx := newFixture("alice")
	fx.posts.echo = true
	fx.posts.insertGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := fx.feed.SubmitPost(context.Background(), "bye")
		done <- err
	}()
	require.Eventually(t, func() bool { return len(fx.feed.Posts()) == 1 }, time.Second, 5*time.Millisecond)

	fx.feed.Close()
	close(fx.posts.insertGate)
	require.NoError(t, <-done)

	posts := fx.feed.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, model.PendingConfirmation, posts[0].Sync, "closed screen must not be updated")
}
