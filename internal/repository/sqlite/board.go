package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/hangang/internal/model"
)

// =========================================================================
// INQUIRIES
// =========================================================================

// CreateInquiry stores a new question. Status always starts as "pending".
func (db *DB) CreateInquiry(ctx context.Context, inq *model.Inquiry) error {
	inq.ID = xid.New().String()
	if inq.QuestionDate.IsZero() {
		inq.QuestionDate = time.Now().UTC()
	}
	inq.Status = "pending"
	inq.AdminID, inq.Answer, inq.AnswerDate = nil, nil, nil

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO inquiries (id, user_id, question, question_date, status)
		 VALUES (?, ?, ?, ?, ?)`,
		inq.ID,
		inq.UserID,
		inq.Question,
		inq.QuestionDate,
		string(inq.Status),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating inquiry: %w", err)
	}
	return nil
}

const inquiryColumns = `id, user_id, admin_id, question, question_date, answer, answer_date, status`

func (db *DB) ListInquiries(ctx context.Context) ([]model.Inquiry, error) {
	return db.queryInquiries(ctx,
		`SELECT `+inquiryColumns+` FROM inquiries ORDER BY question_date DESC`)
}

func (db *DB) ListInquiriesByUser(ctx context.Context, userID string) ([]model.Inquiry, error) {
	return db.queryInquiries(ctx,
		`SELECT `+inquiryColumns+` FROM inquiries WHERE user_id = ? ORDER BY question_date DESC`, userID)
}

func (db *DB) queryInquiries(ctx context.Context, query string, args ...any) ([]model.Inquiry, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing inquiries: %w", err)
	}
	defer rows.Close()

	out := make([]model.Inquiry, 0)
	for rows.Next() {
		var (
			inq        model.Inquiry
			adminID    sql.NullString
			answer     sql.NullString
			answerDate sql.NullTime
			status     string
		)
		if err := rows.Scan(&inq.ID, &inq.UserID, &adminID, &inq.Question,
			&inq.QuestionDate, &answer, &answerDate, &status); err != nil {
			return nil, fmt.Errorf("sqlite: scanning inquiry row: %w", err)
		}
		inq.AdminID = stringPtr(adminID)
		inq.Answer = stringPtr(answer)
		inq.AnswerDate = timePtr(answerDate)
		inq.Status = model.StatusCode(status)
		out = append(out, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating inquiries: %w", err)
	}
	return out, nil
}

// AnswerInquiry records the answer and flips the status to "answered".
func (db *DB) AnswerInquiry(ctx context.Context, id, adminID, answer string, at time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE inquiries
		 SET admin_id = ?, answer = ?, answer_date = ?, status = 'answered'
		 WHERE id = ?`,
		nullString(&adminID), answer, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: answering inquiry %s: %w", id, err)
	}
	return requireRow(result, "inquiry", id)
}

// =========================================================================
// BUSKING
// =========================================================================

// CreateBusking stores a new application in state 0 regardless of the
// state it was sent with.
func (db *DB) CreateBusking(ctx context.Context, app *model.BuskingApplication) error {
	app.ID = xid.New().String()
	app.State = 0

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO busking (id, user_id, name, date, category, content, band_name, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		app.ID,
		app.ApplicantID,
		app.PerformerName,
		app.Date,
		app.Genre,
		app.Description,
		app.BandName,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating busking application: %w", err)
	}
	return nil
}

const buskingColumns = `id, user_id, name, date, category, content, band_name, state`

func (db *DB) ListBusking(ctx context.Context) ([]model.BuskingApplication, error) {
	return db.queryBusking(ctx, `SELECT `+buskingColumns+` FROM busking ORDER BY date ASC`)
}

func (db *DB) ListBuskingByUser(ctx context.Context, userID string) ([]model.BuskingApplication, error) {
	return db.queryBusking(ctx,
		`SELECT `+buskingColumns+` FROM busking WHERE user_id = ? ORDER BY date ASC`, userID)
}

func (db *DB) queryBusking(ctx context.Context, query string, args ...any) ([]model.BuskingApplication, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing busking applications: %w", err)
	}
	defer rows.Close()

	out := make([]model.BuskingApplication, 0)
	for rows.Next() {
		var a model.BuskingApplication
		if err := rows.Scan(&a.ID, &a.ApplicantID, &a.PerformerName, &a.Date,
			&a.Genre, &a.Description, &a.BandName, &a.State); err != nil {
			return nil, fmt.Errorf("sqlite: scanning busking row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating busking applications: %w", err)
	}
	return out, nil
}

// SetBuskingState is the admin decision. The table CHECK rejects states
// outside 0..2.
func (db *DB) SetBuskingState(ctx context.Context, id string, state int) error {
	result, err := db.conn.ExecContext(ctx, `UPDATE busking SET state = ? WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("sqlite: updating busking %s: %w", id, err)
	}
	return requireRow(result, "busking application", id)
}

// =========================================================================
// MARKERS
// =========================================================================

func (db *DB) CreateMarker(ctx context.Context, m *model.Marker) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO markers (name, type, lat, lng, address, time, method, price, phone)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Type, m.Lat, m.Lng, m.Address,
		nullString(m.Time), nullString(m.Method), nullString(m.Price), nullString(m.Phone),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating marker %q: %w", m.Name, err)
	}
	return nil
}

// ListMarkers returns markers in insertion order.
func (db *DB) ListMarkers(ctx context.Context) ([]model.Marker, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, type, lat, lng, address, time, method, price, phone FROM markers ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing markers: %w", err)
	}
	defer rows.Close()

	out := make([]model.Marker, 0)
	for rows.Next() {
		var (
			m                           model.Marker
			hours, method, price, phone sql.NullString
		)
		if err := rows.Scan(&m.Name, &m.Type, &m.Lat, &m.Lng, &m.Address,
			&hours, &method, &price, &phone); err != nil {
			return nil, fmt.Errorf("sqlite: scanning marker row: %w", err)
		}
		m.Time = stringPtr(hours)
		m.Method = stringPtr(method)
		m.Price = stringPtr(price)
		m.Phone = stringPtr(phone)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating markers: %w", err)
	}
	return out, nil
}

func (db *DB) CountMarkers(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM markers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting markers: %w", err)
	}
	return n, nil
}
