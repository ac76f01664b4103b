package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Inquiry is a question sent by a user and answered at most once by an admin.
type Inquiry struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	AdminID      *string    `json:"adminId,omitempty"`
	Question     string     `json:"question"`
	QuestionDate time.Time  `json:"questionDate"`
	Answer       *string    `json:"answer,omitempty"`
	AnswerDate   *time.Time `json:"answerDate,omitempty"`
	Status       StatusCode `json:"status"`
}

// StatusCode is the inquiry status literal exactly as the backend sent it.
//
// The backend has emitted strings ("pending", "답변완료"), numbers (0, 1),
// booleans and null over time. StatusCode accepts all of them and keeps the
// literal as text; interpretation belongs to inquiry.Normalize.
type StatusCode string

func (s *StatusCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = StatusCode(str)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*s = StatusCode(strconv.FormatBool(b))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("model: inquiry status %s: %w", data, err)
		}
		*s = StatusCode(n.String())
	}
	return nil
}
