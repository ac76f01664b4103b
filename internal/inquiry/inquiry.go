// Package inquiry is the question-and-answer board between park users and
// admins.
//
// The backend has stored the status field in several encodings over time.
// Every decision in this package goes through Normalize, and values it does
// not recognize are kept apart as Unknown instead of being guessed.
package inquiry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sakif/hangang/internal/api"
	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
	"github.com/sakif/hangang/internal/submit"
	"github.com/sakif/hangang/internal/validate"
)

const (
	maxQuestionLength = 1000
	maxAnswerLength   = 2000
)

// API is satisfied by the api client's inquiry resource.
type API interface {
	List(ctx context.Context) ([]model.Inquiry, error)
	ListFor(ctx context.Context, key string) ([]model.Inquiry, error)
	Insert(ctx context.Context, item model.Inquiry) (*model.Inquiry, error)
	Update(ctx context.Context, id string, patch any) error
}

type Auth interface {
	RequireAuth(action string) (string, error)
}

type Board struct {
	api      API
	auth     Auth
	guard    *submit.Guard
	validate *validate.Validator
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	items  []model.Inquiry
	closed bool
}

func New(c *api.Client, auth Auth, logger *slog.Logger) *Board {
	return NewWith(c.Inquiries(), auth, logger)
}

func NewWith(a API, auth Auth, logger *slog.Logger) *Board {
	return &Board{
		api:      a,
		auth:     auth,
		guard:    submit.NewGuard(),
		validate: validate.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (b *Board) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func (b *Board) Busy() bool { return b.guard.Busy("inquiry") }

// LoadMine fetches the current user's inquiries.
func (b *Board) LoadMine(ctx context.Context) error {
	userID, err := b.auth.RequireAuth("see your inquiries")
	if err != nil {
		return err
	}
	items, err := b.api.ListFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("inquiry: loading inquiries of %s: %w", userID, err)
	}
	b.replace(items)
	return nil
}

// LoadAll fetches every inquiry (admin view).
func (b *Board) LoadAll(ctx context.Context) error {
	items, err := b.api.List(ctx)
	if err != nil {
		return fmt.Errorf("inquiry: loading inquiries: %w", err)
	}
	b.replace(items)
	return nil
}

func (b *Board) replace(items []model.Inquiry) {
	slices.SortStableFunc(items, func(x, y model.Inquiry) int {
		return y.QuestionDate.Compare(x.QuestionDate)
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.items = items

	for _, inq := range items {
		if Normalize(inq.Status) == Unknown {
			b.logger.Warn("inquiry with unrecognized status",
				slog.String("id", inq.ID),
				slog.String("status", string(inq.Status)),
			)
		}
	}
}

// All returns the held inquiries, newest first.
func (b *Board) All() []model.Inquiry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

func (b *Board) Pending() []model.Inquiry  { return b.filter(Pending) }
func (b *Board) Answered() []model.Inquiry { return b.filter(Answered) }

// Unknown returns inquiries whose status could not be normalized. Screens
// list them separately.
func (b *Board) Unknown() []model.Inquiry { return b.filter(Unknown) }

func (b *Board) filter(want Status) []model.Inquiry {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Inquiry
	for _, inq := range b.items {
		if Normalize(inq.Status) == want {
			out = append(out, inq)
		}
	}
	return out
}

// Ask submits a new question for the current user.
func (b *Board) Ask(ctx context.Context, question string) (model.Inquiry, error) {
	userID, err := b.auth.RequireAuth("send an inquiry")
	if err != nil {
		return model.Inquiry{}, err
	}
	question = strings.TrimSpace(question)
	if err := b.validate.Var("question", question, fmt.Sprintf("required,max=%d", maxQuestionLength)); err != nil {
		return model.Inquiry{}, err
	}

	var result model.Inquiry
	err = b.guard.Do(ctx, "inquiry", func(ctx context.Context) error {
		item := model.Inquiry{
			UserID:       userID,
			Question:     question,
			QuestionDate: b.now(),
			Status:       "pending",
		}
		stored, err := b.api.Insert(ctx, item)
		if err != nil {
			return fmt.Errorf("inquiry: sending inquiry: %w", err)
		}
		if stored != nil {
			item = *stored
		}
		result = item

		b.mu.Lock()
		if !b.closed {
			b.items = append([]model.Inquiry{item}, b.items...)
		}
		b.mu.Unlock()

		b.logger.Info("inquiry sent", slog.String("userID", userID))
		return nil
	})
	return result, err
}

// Answer records an admin's answer. An inquiry is answered at most once.
func (b *Board) Answer(ctx context.Context, id, answer string) error {
	adminID, err := b.auth.RequireAuth("answer an inquiry")
	if err != nil {
		return err
	}
	answer = strings.TrimSpace(answer)
	if err := b.validate.Var("answer", answer, fmt.Sprintf("required,max=%d", maxAnswerLength)); err != nil {
		return err
	}

	b.mu.Lock()
	i := slices.IndexFunc(b.items, func(inq model.Inquiry) bool { return inq.ID == id })
	var current model.Inquiry
	if i >= 0 {
		current = b.items[i]
	}
	b.mu.Unlock()

	if i < 0 {
		return apperror.NotFound("inquiry", id)
	}
	if IsAnswered(current) {
		return apperror.Conflict("inquiry", id)
	}

	return b.guard.Do(ctx, "answer:"+id, func(ctx context.Context) error {
		now := b.now()
		patch := api.InquiryAnswer{
			AdminID:    adminID,
			Answer:     answer,
			AnswerDate: now.Format(time.RFC3339),
			Status:     "answered",
		}
		if err := b.api.Update(ctx, id, patch); err != nil {
			return fmt.Errorf("inquiry: answering %s: %w", id, err)
		}

		b.mu.Lock()
		if j := slices.IndexFunc(b.items, func(inq model.Inquiry) bool { return inq.ID == id }); j >= 0 && !b.closed {
			b.items[j].AdminID = &adminID
			b.items[j].Answer = &answer
			b.items[j].AnswerDate = &now
			b.items[j].Status = "answered"
		}
		b.mu.Unlock()

		b.logger.Info("inquiry answered", slog.String("id", id), slog.String("adminID", adminID))
		return nil
	})
}
