// Package busking handles performers' applications for busking slots.
//
// An application starts Pending and is moved to Approved or Rejected by an
// admin on the backend. The client only ever creates Pending applications;
// there is no code path here that writes any other state.
package busking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/sakif/hangang/internal/api"
	"github.com/sakif/hangang/internal/model"
	"github.com/sakif/hangang/internal/submit"
	"github.com/sakif/hangang/internal/validate"
)

type State int

const (
	Pending  State = 0
	Approved State = 1
	Rejected State = 2
)

// StateOf returns the typed state of an application. Values outside 0..2
// are reported as Pending with ok=false.
func StateOf(app model.BuskingApplication) (State, bool) {
	switch s := State(app.State); s {
	case Pending, Approved, Rejected:
		return s, true
	default:
		return Pending, false
	}
}

func (s State) Label() string {
	switch s {
	case Approved:
		return "Approved"
	case Rejected:
		return "Rejected"
	default:
		return "Under review"
	}
}

func (s State) Icon() string {
	switch s {
	case Approved:
		return "check_circle"
	case Rejected:
		return "cancel"
	default:
		return "hourglass_empty"
	}
}

// Form is what the performer fills in. It has no state field.
type Form struct {
	PerformerName string
	Date          string // YYYY-MM-DD
	Genre         string
	Description   string
	BandName      string
}

type API interface {
	List(ctx context.Context) ([]model.BuskingApplication, error)
	ListFor(ctx context.Context, key string) ([]model.BuskingApplication, error)
	Insert(ctx context.Context, item model.BuskingApplication) (*model.BuskingApplication, error)
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

	mu     sync.Mutex
	all    []model.BuskingApplication
	mine   []model.BuskingApplication
	closed bool
}

func New(c *api.Client, auth Auth, logger *slog.Logger) *Board {
	return NewWith(c.Busking(), auth, logger)
}

func NewWith(a API, auth Auth, logger *slog.Logger) *Board {
	return &Board{
		api:      a,
		auth:     auth,
		guard:    submit.NewGuard(),
		validate: validate.New(),
		logger:   logger,
	}
}

func (b *Board) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func (b *Board) Busy() bool { return b.guard.Busy("busking") }

// Load fetches every application; Schedule is derived from it.
func (b *Board) Load(ctx context.Context) error {
	items, err := b.api.List(ctx)
	if err != nil {
		return fmt.Errorf("busking: loading applications: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.all = items
	}
	return nil
}

// LoadMine fetches the current user's applications in every state.
func (b *Board) LoadMine(ctx context.Context) error {
	userID, err := b.auth.RequireAuth("see your applications")
	if err != nil {
		return err
	}
	items, err := b.api.ListFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("busking: loading applications of %s: %w", userID, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.mine = items
	}
	return nil
}

// Schedule returns the approved applications ordered by performance date.
func (b *Board) Schedule() []model.BuskingApplication {
	b.mu.Lock()
	var out []model.BuskingApplication
	for _, app := range b.all {
		if s, ok := StateOf(app); ok && s == Approved {
			out = append(out, app)
		}
	}
	b.mu.Unlock()

	slices.SortStableFunc(out, func(x, y model.BuskingApplication) int {
		return strings.Compare(x.Date, y.Date)
	})
	return out
}

// Mine returns the current user's applications, newest date first.
func (b *Board) Mine() []model.BuskingApplication {
	b.mu.Lock()
	out := slices.Clone(b.mine)
	b.mu.Unlock()

	slices.SortStableFunc(out, func(x, y model.BuskingApplication) int {
		return strings.Compare(y.Date, x.Date)
	})
	return out
}

// Apply submits a new application. The state sent is always Pending.
func (b *Board) Apply(ctx context.Context, form Form) (model.BuskingApplication, error) {
	userID, err := b.auth.RequireAuth("apply for busking")
	if err != nil {
		return model.BuskingApplication{}, err
	}

	app := model.BuskingApplication{
		ApplicantID:   userID,
		PerformerName: strings.TrimSpace(form.PerformerName),
		Date:          strings.TrimSpace(form.Date),
		Genre:         strings.TrimSpace(form.Genre),
		Description:   strings.TrimSpace(form.Description),
		BandName:      strings.TrimSpace(form.BandName),
		State:         int(Pending),
	}
	if err := b.validate.Struct(app); err != nil {
		return model.BuskingApplication{}, err
	}

	var result model.BuskingApplication
	err = b.guard.Do(ctx, "busking", func(ctx context.Context) error {
		stored, err := b.api.Insert(ctx, app)
		if err != nil {
			return fmt.Errorf("busking: applying: %w", err)
		}
		result = app
		if stored != nil {
			result = *stored
		}

		b.mu.Lock()
		if !b.closed {
			b.mine = append(b.mine, result)
		}
		b.mu.Unlock()

		b.logger.Info("busking application sent",
			slog.String("userID", userID),
			slog.String("date", app.Date),
		)
		return nil
	})
	return result, err
}
