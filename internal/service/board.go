package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/hangang/internal/model"
	"github.com/sakif/hangang/internal/repository"
	"github.com/sakif/hangang/internal/validate"
)

const MaxQuestionLength = 1000

// BoardRepository is what BoardService stores into.
type BoardRepository interface {
	repository.InquiryRepository
	repository.BuskingRepository
	repository.MarkerRepository
}

// BoardService runs the inquiry, busking and marker endpoints.
type BoardService struct {
	repo     BoardRepository
	validate *validate.Validator
	logger   *slog.Logger
	now      func() time.Time
}

func NewBoardService(repo BoardRepository, logger *slog.Logger) *BoardService {
	return &BoardService{repo: repo, validate: validate.New(), logger: logger, now: time.Now}
}

// =========================================================================
// INQUIRIES
// =========================================================================

func (s *BoardService) ListInquiries(ctx context.Context) ([]model.Inquiry, error) {
	return s.repo.ListInquiries(ctx)
}

func (s *BoardService) ListInquiriesByUser(ctx context.Context, userID string) ([]model.Inquiry, error) {
	return s.repo.ListInquiriesByUser(ctx, userID)
}

func (s *BoardService) CreateInquiry(ctx context.Context, userID, question string, askedAt time.Time) (*model.Inquiry, error) {
	userID, question = strings.TrimSpace(userID), strings.TrimSpace(question)
	if err := s.validate.Var("userId", userID, "required"); err != nil {
		return nil, err
	}
	if err := s.validate.Var("question", question, fmt.Sprintf("required,max=%d", MaxQuestionLength)); err != nil {
		return nil, err
	}
	if askedAt.IsZero() {
		askedAt = s.now()
	}

	inq := &model.Inquiry{UserID: userID, Question: question, QuestionDate: askedAt.UTC()}
	if err := s.repo.CreateInquiry(ctx, inq); err != nil {
		return nil, fmt.Errorf("service/board: creating inquiry: %w", err)
	}
	s.logger.Info("inquiry created", slog.String("id", inq.ID), slog.String("userID", userID))
	return inq, nil
}

// AnswerInquiry stores the admin's answer. The answer date defaults to now.
func (s *BoardService) AnswerInquiry(ctx context.Context, id, adminID, answer string, at time.Time) error {
	answer = strings.TrimSpace(answer)
	if err := s.validate.Var("answer", answer, "required"); err != nil {
		return err
	}
	if at.IsZero() {
		at = s.now()
	}
	if err := s.repo.AnswerInquiry(ctx, id, strings.TrimSpace(adminID), answer, at); err != nil {
		return fmt.Errorf("service/board: answering inquiry %s: %w", id, err)
	}
	s.logger.Info("inquiry answered", slog.String("id", id), slog.String("adminID", adminID))
	return nil
}

// =========================================================================
// BUSKING
// =========================================================================

func (s *BoardService) ListBusking(ctx context.Context) ([]model.BuskingApplication, error) {
	return s.repo.ListBusking(ctx)
}

func (s *BoardService) ListBuskingByUser(ctx context.Context, userID string) ([]model.BuskingApplication, error) {
	return s.repo.ListBuskingByUser(ctx, userID)
}

// CreateBusking validates and stores an application. Whatever state it was
// sent with, it is stored as pending.
func (s *BoardService) CreateBusking(ctx context.Context, app *model.BuskingApplication) error {
	if err := s.validate.Var("userId", strings.TrimSpace(app.ApplicantID), "required"); err != nil {
		return err
	}
	if err := s.validate.Struct(app); err != nil {
		return err
	}
	if app.State != 0 {
		s.logger.Warn("busking application sent with non-pending state",
			slog.String("userID", app.ApplicantID),
			slog.Int("state", app.State),
		)
	}
	if err := s.repo.CreateBusking(ctx, app); err != nil {
		return fmt.Errorf("service/board: creating busking application: %w", err)
	}
	s.logger.Info("busking application created", slog.String("id", app.ID), slog.String("date", app.Date))
	return nil
}

// SetBuskingState is the admin approval step.
func (s *BoardService) SetBuskingState(ctx context.Context, id string, state int) error {
	if err := s.validate.Var("state", state, "oneof=0 1 2"); err != nil {
		return err
	}
	if err := s.repo.SetBuskingState(ctx, id, state); err != nil {
		return fmt.Errorf("service/board: updating busking %s: %w", id, err)
	}
	s.logger.Info("busking state changed", slog.String("id", id), slog.Int("state", state))
	return nil
}

// =========================================================================
// MARKERS
// =========================================================================

func (s *BoardService) ListMarkers(ctx context.Context) ([]model.Marker, error) {
	return s.repo.ListMarkers(ctx)
}

// SeedMarkers inserts the sample markers when the table is empty and
// returns how many were added.
func (s *BoardService) SeedMarkers(ctx context.Context) (int, error) {
	n, err := s.repo.CountMarkers(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i := range sampleMarkers {
		m := sampleMarkers[i]
		if err := s.repo.CreateMarker(ctx, &m); err != nil {
			return i, fmt.Errorf("service/board: seeding markers: %w", err)
		}
	}
	s.logger.Info("markers seeded", slog.Int("count", len(sampleMarkers)))
	return len(sampleMarkers), nil
}

func ptr(s string) *string { return &s }

var sampleMarkers = []model.Marker{
	{Name: "Yeouido Parking Lot 1", Type: "parking", Lat: 37.5283, Lng: 126.9326, Address: "330 Yeouidong-ro, Yeongdeungpo-gu", Time: ptr("24h"), Price: ptr("1,000 KRW / 10 min")},
	{Name: "Banpo Parking Lot", Type: "parking", Lat: 37.5100, Lng: 126.9959, Address: "40 Sinbanpo-ro 11-gil, Seocho-gu", Time: ptr("24h"), Price: ptr("1,000 KRW / 10 min")},
	{Name: "Yeouido Restroom 3", Type: "toilet", Lat: 37.5265, Lng: 126.9345, Address: "Yeouido Hangang Park"},
	{Name: "Ttukseom Restroom 1", Type: "toilet", Lat: 37.5295, Lng: 127.0697, Address: "Ttukseom Hangang Park"},
	{Name: "Yeouido Water Stage", Type: "stage", Lat: 37.5270, Lng: 126.9338, Address: "Yeouido Hangang Park", Time: ptr("10:00-22:00"), Method: ptr("Apply via busking board")},
	{Name: "Banpo Moonlight Square", Type: "stage", Lat: 37.5118, Lng: 126.9965, Address: "Banpo Hangang Park", Time: ptr("10:00-22:00"), Method: ptr("Apply via busking board")},
	{Name: "Ttukseom Bike Rental", Type: "rental", Lat: 37.5302, Lng: 127.0670, Address: "Ttukseom Hangang Park", Time: ptr("09:00-20:00"), Price: ptr("3,000 KRW / hour"), Phone: ptr("02-3780-0521")},
}
