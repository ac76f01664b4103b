package inquiry

import (
	"strings"

	"github.com/sakif/hangang/internal/model"
)

// Status is the normalized inquiry status.
type Status int

const (
	Unknown Status = iota
	Pending
	Answered
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Answered:
		return "answered"
	default:
		return "unknown"
	}
}

// Label is the text shown on the inquiry list.
func (s Status) Label() string {
	switch s {
	case Pending:
		return "Waiting for answer"
	case Answered:
		return "Answered"
	default:
		return "Status unavailable"
	}
}

var (
	pendingLiterals  = []string{"pending", "0", "", "답변대기"}
	answeredLiterals = []string{"answered", "1", "true", "답변완료"}
)

// Normalize maps the literal the backend sent onto a Status. Matching is
// case-insensitive and ignores surrounding whitespace. Anything outside the
// two known sets is Unknown.
func Normalize(raw model.StatusCode) Status {
	v := strings.ToLower(strings.TrimSpace(string(raw)))
	for _, lit := range pendingLiterals {
		if v == lit {
			return Pending
		}
	}
	for _, lit := range answeredLiterals {
		if v == lit {
			return Answered
		}
	}
	return Unknown
}

func IsPending(inq model.Inquiry) bool  { return Normalize(inq.Status) == Pending }
func IsAnswered(inq model.Inquiry) bool { return Normalize(inq.Status) == Answered }
