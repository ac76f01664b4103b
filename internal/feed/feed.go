// Package feed is the community screen: posts, their comments and likes,
// fetched together and kept consistent while the user writes.
//
// The backend owns every item. A Feed holds the copy fetched for one screen
// plus the user's own not-yet-confirmed posts, and is thrown away with the
// screen. Every listing hides tombstoned items through model.Visible.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/hangang/internal/api"
	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
	"github.com/sakif/hangang/internal/submit"
	"github.com/sakif/hangang/internal/validate"
)

const (
	maxPostLength    = 2000
	maxCommentLength = 500

	localIDPrefix = "local-"
)

// PostAPI, CommentAPI and LikeAPI are satisfied by the api resources.
type PostAPI interface {
	List(ctx context.Context) ([]model.Post, error)
	Insert(ctx context.Context, item model.Post) (*model.Post, error)
	Update(ctx context.Context, id string, patch any) error
	SoftDelete(ctx context.Context, id string) error
}

type CommentAPI interface {
	List(ctx context.Context) ([]model.Comment, error)
	Insert(ctx context.Context, item model.Comment) (*model.Comment, error)
	SoftDelete(ctx context.Context, id string) error
}

type LikeAPI interface {
	List(ctx context.Context) ([]model.Like, error)
	Insert(ctx context.Context, item model.Like) (*model.Like, error)
	Unlike(ctx context.Context, postID, userID string) error
}

// Auth is the session gate. *session.Store implements it.
type Auth interface {
	RequireAuth(action string) (string, error)
	UserID() string
}

// Report lists which parts of a LoadAll failed. A nil field means that part
// was refreshed.
type Report struct {
	Posts    error
	Comments error
	Likes    error
}

// Err joins the per-resource failures, or returns nil if all succeeded.
func (r Report) Err() error {
	return errors.Join(r.Posts, r.Comments, r.Likes)
}

func (r Report) OK() bool { return r.Err() == nil }

type Feed struct {
	posts    PostAPI
	comments CommentAPI
	likes    LikeAPI
	auth     Auth
	guard    *submit.Guard
	validate *validate.Validator
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	postList []model.Post
	comList  []model.Comment
	likeList []model.Like
	// Deletes the backend has acknowledged, by id. A listing fetched before
	// the delete landed must not bring the item back.
	deletedPosts    map[string]time.Time
	deletedComments map[string]time.Time
	// Inserts and like changes the backend has acknowledged but no applied
	// listing has shown yet. Merges re-apply them until one does.
	confirmedPosts    map[string]model.Post
	confirmedComments map[string]model.Comment
	likeChanges       map[likeKey]likeChange
	postSeq           listingSeq
	comSeq            listingSeq
	likeSeq           listingSeq
	loading           bool
	closed            bool
}

type likeKey struct{ postID, userID string }

type likeChange struct {
	liked bool
	like  model.Like
}

// listingSeq numbers the listings of one resource in the order their fetch
// started. A listing older than the last applied one is dropped.
type listingSeq struct {
	issued  uint64
	applied uint64
}

func (s *listingSeq) next() uint64 {
	s.issued++
	return s.issued
}

// take reports whether listing n may be applied, and records it if so.
func (s *listingSeq) take(n uint64) bool {
	if n < s.applied {
		return false
	}
	s.applied = n
	return true
}

// New builds a Feed over the api client's community resources.
func New(c *api.Client, auth Auth, logger *slog.Logger) *Feed {
	return NewWith(c.Posts(), c.Comments(), c.Likes(), auth, logger)
}

// NewWith builds a Feed over arbitrary implementations (used by tests).
func NewWith(posts PostAPI, comments CommentAPI, likes LikeAPI, auth Auth, logger *slog.Logger) *Feed {
	return &Feed{
		posts:           posts,
		comments:        comments,
		likes:           likes,
		auth:            auth,
		guard:           submit.NewGuard(),
		validate:        validate.New(),
		logger:          logger,
		now:             time.Now,
		deletedPosts:    make(map[string]time.Time),
		deletedComments: make(map[string]time.Time),

		confirmedPosts:    make(map[string]model.Post),
		confirmedComments: make(map[string]model.Comment),
		likeChanges:       make(map[likeKey]likeChange),
	}
}

// Close marks the screen dismissed. Requests still in flight complete, but
// their results are dropped.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Busy reports whether a submission is in flight for key ("post",
// "comment:<postID>", "like:<postID>"). UIs disable the matching button.
func (f *Feed) Busy(key string) bool { return f.guard.Busy(key) }

// LoadAll fetches posts, comments and likes concurrently and waits for all
// three. Each part that succeeded replaces the held copy; a part that failed
// keeps what was there before and is reported.
func (f *Feed) LoadAll(ctx context.Context) Report {
	f.mu.Lock()
	f.loading = true
	postSeq, comSeq, likeSeq := f.postSeq.next(), f.comSeq.next(), f.likeSeq.next()
	f.mu.Unlock()

	var (
		rep      Report
		posts    []model.Post
		comments []model.Comment
		likes    []model.Like
	)

	// Branches record their own error and return nil, so one failure never
	// cancels or hides the others.
	var g errgroup.Group
	g.Go(func() error {
		posts, rep.Posts = f.posts.List(ctx)
		return nil
	})
	g.Go(func() error {
		comments, rep.Comments = f.comments.List(ctx)
		return nil
	})
	g.Go(func() error {
		likes, rep.Likes = f.likes.List(ctx)
		return nil
	})
	_ = g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if f.closed {
		return rep
	}

	if rep.Posts == nil && f.postSeq.take(postSeq) {
		f.postList = f.mergePosts(posts)
	}
	if rep.Comments == nil && f.comSeq.take(comSeq) {
		f.comList = f.mergeComments(comments)
	}
	if rep.Likes == nil && f.likeSeq.take(likeSeq) {
		f.likeList = f.mergeLikes(likes)
	}

	if err := rep.Err(); err != nil {
		f.logger.Error("feed partially loaded",
			slog.Any("posts", rep.Posts),
			slog.Any("comments", rep.Comments),
			slog.Any("likes", rep.Likes),
		)
	} else {
		f.logger.Debug("feed loaded",
			slog.Int("posts", len(posts)),
			slog.Int("comments", len(comments)),
			slog.Int("likes", len(likes)),
		)
	}
	return rep
}

// mergePosts combines a fresh listing with local state: the user's
// unconfirmed posts stay on top, confirmed posts the listing does not show
// yet are kept, and acknowledged deletes stay applied. Caller holds f.mu.
func (f *Feed) mergePosts(fetched []model.Post) []model.Post {
	out := make([]model.Post, 0, len(fetched)+len(f.confirmedPosts)+1)
	for _, p := range f.postList {
		if p.Sync != model.Confirmed {
			out = append(out, p)
		}
	}
	for _, p := range fetched {
		if at, ok := f.deletedPosts[p.ID]; ok {
			p.MarkDeleted(at)
		}
		out = append(out, p)
	}
	for id, p := range f.confirmedPosts {
		if slices.ContainsFunc(fetched, func(q model.Post) bool { return samePost(p, q) }) {
			delete(f.confirmedPosts, id)
			continue
		}
		if at, ok := f.deletedPosts[p.ID]; ok {
			p.MarkDeleted(at)
		}
		out = append(out, p)
	}
	return out
}

// samePost matches a confirmed post to its listed copy. A post the backend
// stored without echoing still carries its local id, so it is matched on
// author, text and creation time.
func samePost(local, listed model.Post) bool {
	if local.ID == listed.ID {
		return true
	}
	return strings.HasPrefix(local.ID, localIDPrefix) &&
		local.AuthorID == listed.AuthorID &&
		local.Text == listed.Text &&
		local.CreatedAt.Equal(listed.CreatedAt)
}

func (f *Feed) mergeComments(fetched []model.Comment) []model.Comment {
	out := make([]model.Comment, 0, len(fetched)+len(f.confirmedComments))
	for _, c := range fetched {
		if at, ok := f.deletedComments[c.ID]; ok {
			c.MarkDeleted(at)
		}
		out = append(out, c)
	}
	for id, c := range f.confirmedComments {
		if slices.ContainsFunc(fetched, func(l model.Comment) bool { return l.ID == id }) {
			delete(f.confirmedComments, id)
			continue
		}
		if at, ok := f.deletedComments[id]; ok {
			c.MarkDeleted(at)
		}
		out = append(out, c)
	}
	return out
}

// mergeLikes applies acknowledged likes and unlikes the listing does not
// reflect yet. Caller holds f.mu.
func (f *Feed) mergeLikes(fetched []model.Like) []model.Like {
	listed := func(k likeKey) bool {
		return slices.ContainsFunc(fetched, func(l model.Like) bool {
			return l.PostID == k.postID && l.UserID == k.userID
		})
	}

	out := make([]model.Like, 0, len(fetched)+len(f.likeChanges))
	for _, l := range fetched {
		if ch, ok := f.likeChanges[likeKey{l.PostID, l.UserID}]; ok && !ch.liked {
			continue
		}
		out = append(out, l)
	}
	for k, ch := range f.likeChanges {
		if listed(k) == ch.liked {
			delete(f.likeChanges, k)
			continue
		}
		if ch.liked {
			out = append(out, ch.like)
		}
	}
	return out
}

// Posts returns the visible posts, newest first.
func (f *Feed) Posts() []model.Post {
	f.mu.Lock()
	out := model.Visible(f.postList)
	f.mu.Unlock()

	slices.SortStableFunc(out, func(a, b model.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Post returns one visible post.
func (f *Feed) Post(id string) (model.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.postIndex(id)
	if i < 0 || f.postList[i].Deleted {
		return model.Post{}, false
	}
	return f.postList[i], true
}

// CommentsFor returns the visible comments of a post, oldest first.
func (f *Feed) CommentsFor(postID string) []model.Comment {
	f.mu.Lock()
	var out []model.Comment
	for _, c := range model.Visible(f.comList) {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	f.mu.Unlock()

	slices.SortStableFunc(out, func(a, b model.Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// CommentCount counts the visible comments of a post.
func (f *Feed) CommentCount(postID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.comList {
		if c.PostID == postID && !c.Deleted {
			n++
		}
	}
	return n
}

func (f *Feed) LikeCount(postID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.likeList {
		if l.PostID == postID {
			n++
		}
	}
	return n
}

// IsLiked reports whether userID has liked the post. An empty userID (logged
// out) never has.
func (f *Feed) IsLiked(postID, userID string) bool {
	if userID == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likedLocked(postID, userID)
}

func (f *Feed) likedLocked(postID, userID string) bool {
	return slices.ContainsFunc(f.likeList, func(l model.Like) bool {
		return l.PostID == postID && l.UserID == userID
	})
}

func (f *Feed) postIndex(id string) int {
	return slices.IndexFunc(f.postList, func(p model.Post) bool { return p.ID == id })
}

func (f *Feed) commentIndex(id string) int {
	return slices.IndexFunc(f.comList, func(c model.Comment) bool { return c.ID == id })
}

// apply runs fn under the lock unless the screen has been closed. It reports
// whether fn ran.
func (f *Feed) apply(fn func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	fn()
	return true
}

// SubmitPost shows the post immediately as PendingConfirmation and sends it.
// On success the item becomes Confirmed (taking the server id when the
// backend echoes the stored post); on failure it stays visible as
// FailedToSync until RetryPost or DiscardPost.
func (f *Feed) SubmitPost(ctx context.Context, text string) (model.Post, error) {
	userID, err := f.auth.RequireAuth("write a post")
	if err != nil {
		return model.Post{}, err
	}
	text = strings.TrimSpace(text)
	if err := f.validate.Var("content", text, fmt.Sprintf("required,max=%d", maxPostLength)); err != nil {
		return model.Post{}, err
	}

	var result model.Post
	err = f.guard.Do(ctx, "post", func(ctx context.Context) error {
		now := f.now()
		local := model.Post{
			ID:        localIDPrefix + xid.New().String(),
			AuthorID:  userID,
			Text:      text,
			CreatedAt: now,
			UpdatedAt: now,
			Sync:      model.PendingConfirmation,
		}
		f.apply(func() { f.postList = append([]model.Post{local}, f.postList...) })

		var err error
		result, err = f.sendPost(ctx, local)
		return err
	})
	return result, err
}

// RetryPost resends a post that failed to sync.
func (f *Feed) RetryPost(ctx context.Context, id string) (model.Post, error) {
	if _, err := f.auth.RequireAuth("write a post"); err != nil {
		return model.Post{}, err
	}

	var result model.Post
	err := f.guard.Do(ctx, "post", func(ctx context.Context) error {
		var local model.Post
		found := false
		f.apply(func() {
			if i := f.postIndex(id); i >= 0 && f.postList[i].Sync == model.FailedToSync {
				f.postList[i].Sync = model.PendingConfirmation
				local, found = f.postList[i], true
			}
		})
		if !found {
			return apperror.NotFound("unsent post", id)
		}

		var err error
		result, err = f.sendPost(ctx, local)
		return err
	})
	return result, err
}

// DiscardPost drops a post that failed to sync. Nothing is sent.
func (f *Feed) DiscardPost(id string) error {
	removed := false
	f.apply(func() {
		if i := f.postIndex(id); i >= 0 && f.postList[i].Sync == model.FailedToSync {
			f.postList = slices.Delete(f.postList, i, i+1)
			removed = true
		}
	})
	if !removed {
		return apperror.NotFound("unsent post", id)
	}
	f.logger.Info("unsent post discarded", slog.String("id", id))
	return nil
}

func (f *Feed) sendPost(ctx context.Context, local model.Post) (model.Post, error) {
	outgoing := local
	outgoing.ID = ""

	stored, err := f.posts.Insert(ctx, outgoing)
	if err != nil {
		local.Sync = model.FailedToSync
		f.apply(func() {
			if i := f.postIndex(local.ID); i >= 0 {
				f.postList[i].Sync = model.FailedToSync
			}
		})
		f.logger.Error("post not sent", slog.String("localID", local.ID), slog.Any("error", err))
		return local, fmt.Errorf("feed: submitting post: %w", err)
	}

	confirmed := local
	if stored != nil && stored.ID != "" {
		confirmed = *stored
	}
	confirmed.Sync = model.Confirmed

	f.apply(func() {
		f.confirmedPosts[confirmed.ID] = confirmed
		if i := f.postIndex(local.ID); i >= 0 {
			f.postList[i] = confirmed
		} else {
			f.postList = append([]model.Post{confirmed}, f.postList...)
		}
	})
	f.logger.Info("post created", slog.String("id", confirmed.ID), slog.String("userID", confirmed.AuthorID))
	return confirmed, nil
}

// EditPost replaces the text of the user's own post.
func (f *Feed) EditPost(ctx context.Context, id, text string) error {
	userID, err := f.auth.RequireAuth("edit a post")
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if err := f.validate.Var("content", text, fmt.Sprintf("required,max=%d", maxPostLength)); err != nil {
		return err
	}
	if err := f.checkPostOwner(id, userID, "edit"); err != nil {
		return err
	}

	return f.guard.Do(ctx, "post:"+id, func(ctx context.Context) error {
		if err := f.posts.Update(ctx, id, api.PostPatch{Text: text}); err != nil {
			return fmt.Errorf("feed: editing post: %w", err)
		}
		now := f.now()
		f.apply(func() {
			if i := f.postIndex(id); i >= 0 {
				f.postList[i].Text = text
				f.postList[i].UpdatedAt = now
			}
			if p, ok := f.confirmedPosts[id]; ok {
				p.Text, p.UpdatedAt = text, now
				f.confirmedPosts[id] = p
			}
		})
		f.logger.Info("post edited", slog.String("id", id))
		return nil
	})
}

// DeletePost tombstones the user's own post once the backend confirms.
func (f *Feed) DeletePost(ctx context.Context, id string) error {
	userID, err := f.auth.RequireAuth("delete a post")
	if err != nil {
		return err
	}
	if err := f.checkPostOwner(id, userID, "delete"); err != nil {
		return err
	}

	return f.guard.Do(ctx, "post:"+id, func(ctx context.Context) error {
		if err := f.posts.SoftDelete(ctx, id); err != nil {
			return fmt.Errorf("feed: deleting post: %w", err)
		}
		at := f.now()
		f.apply(func() {
			f.deletedPosts[id] = at
			if i := f.postIndex(id); i >= 0 {
				f.postList[i].MarkDeleted(at)
			}
		})
		f.logger.Info("post deleted", slog.String("id", id))
		return nil
	})
}

func (f *Feed) checkPostOwner(id, userID, verb string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.postIndex(id)
	if i < 0 || f.postList[i].Deleted {
		return apperror.NotFound("post", id)
	}
	if f.postList[i].Sync != model.Confirmed {
		return apperror.Conflict("post", id)
	}
	if f.postList[i].AuthorID != userID {
		return apperror.Forbidden(fmt.Sprintf("you can only %s your own posts", verb))
	}
	return nil
}

// SubmitComment adds a comment to a post. Comments are not optimistic: the
// comment appears once the backend has stored it.
func (f *Feed) SubmitComment(ctx context.Context, postID, text string) (model.Comment, error) {
	userID, err := f.auth.RequireAuth("write a comment")
	if err != nil {
		return model.Comment{}, err
	}
	text = strings.TrimSpace(text)
	if err := f.validate.Var("content", text, fmt.Sprintf("required,max=%d", maxCommentLength)); err != nil {
		return model.Comment{}, err
	}
	if _, ok := f.Post(postID); !ok {
		return model.Comment{}, apperror.NotFound("post", postID)
	}

	var result model.Comment
	err = f.guard.Do(ctx, "comment:"+postID, func(ctx context.Context) error {
		now := f.now()
		stored, err := f.comments.Insert(ctx, model.Comment{
			PostID:    postID,
			AuthorID:  userID,
			Text:      text,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("feed: submitting comment: %w", err)
		}

		if stored != nil && stored.ID != "" {
			result = *stored
			f.apply(func() {
				f.confirmedComments[result.ID] = result
				f.comList = append(f.comList, result)
			})
		} else if err := f.reloadComments(ctx); err != nil {
			// Stored, but the refreshed list could not be fetched.
			f.logger.Error("reloading comments", slog.Any("error", err))
		}
		f.logger.Info("comment created", slog.String("postID", postID), slog.String("userID", userID))
		return nil
	})
	return result, err
}

func (f *Feed) reloadComments(ctx context.Context) error {
	f.mu.Lock()
	seq := f.comSeq.next()
	f.mu.Unlock()

	fetched, err := f.comments.List(ctx)
	if err != nil {
		return err
	}
	f.apply(func() {
		if f.comSeq.take(seq) {
			f.comList = f.mergeComments(fetched)
		}
	})
	return nil
}

// DeleteComment tombstones the user's own comment once the backend confirms.
func (f *Feed) DeleteComment(ctx context.Context, id string) error {
	userID, err := f.auth.RequireAuth("delete a comment")
	if err != nil {
		return err
	}

	f.mu.Lock()
	i := f.commentIndex(id)
	var owner string
	deleted := true
	if i >= 0 {
		owner, deleted = f.comList[i].AuthorID, f.comList[i].Deleted
	}
	f.mu.Unlock()

	if deleted {
		return apperror.NotFound("comment", id)
	}
	if owner != userID {
		return apperror.Forbidden("you can only delete your own comments")
	}

	return f.guard.Do(ctx, "comment-delete:"+id, func(ctx context.Context) error {
		if err := f.comments.SoftDelete(ctx, id); err != nil {
			return fmt.Errorf("feed: deleting comment: %w", err)
		}
		at := f.now()
		f.apply(func() {
			f.deletedComments[id] = at
			if i := f.commentIndex(id); i >= 0 {
				f.comList[i].MarkDeleted(at)
			}
		})
		f.logger.Info("comment deleted", slog.String("id", id))
		return nil
	})
}

// ToggleLike likes or unlikes a post for the current user and returns the new
// state. The held likes change only after the backend confirms.
func (f *Feed) ToggleLike(ctx context.Context, postID string) (bool, error) {
	userID, err := f.auth.RequireAuth("like a post")
	if err != nil {
		return false, err
	}

	var liked bool
	err = f.guard.Do(ctx, "like:"+postID, func(ctx context.Context) error {
		f.mu.Lock()
		wasLiked := f.likedLocked(postID, userID)
		f.mu.Unlock()

		if wasLiked {
			if err := f.likes.Unlike(ctx, postID, userID); err != nil {
				liked = true
				return fmt.Errorf("feed: unliking post: %w", err)
			}
			f.apply(func() {
				f.likeChanges[likeKey{postID, userID}] = likeChange{liked: false}
				f.likeList = slices.DeleteFunc(f.likeList, func(l model.Like) bool {
					return l.PostID == postID && l.UserID == userID
				})
			})
			liked = false
			return nil
		}

		now := f.now()
		like := model.Like{PostID: postID, UserID: userID, CreatedAt: now}
		stored, err := f.likes.Insert(ctx, like)
		if err != nil {
			return fmt.Errorf("feed: liking post: %w", err)
		}
		if stored != nil {
			like = *stored
		}
		f.apply(func() {
			f.likeChanges[likeKey{postID, userID}] = likeChange{liked: true, like: like}
			f.likeList = append(f.likeList, like)
		})
		liked = true
		return nil
	})
	return liked, err
}
