package learner

import (
	"fmt"
	"time"

	"github.com/jon4hz/eduquest/internal/quiz"
)

// State is the position of a learner in the session flow.
type State int

const (
	Idle State = iota
	TopicSelected
	Reading
	AwaitingReflection
	QuizInProgress
	Scored
	Saved
)

var stateNames = map[State]string{
	Idle:               "idle",
	TopicSelected:      "topic_selected",
	Reading:            "reading",
	AwaitingReflection: "awaiting_reflection",
	QuizInProgress:     "quiz_in_progress",
	Scored:             "scored",
	Saved:              "saved",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	if _, ok := stateNames[s]; !ok {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for st, n := range stateNames {
		if n == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", string(b))
}

// SessionContext is everything known about one learner's in-flight session.
// It is owned by the caller and passed to every transition.
type SessionContext struct {
	UserID     uint      `json:"user_id"`
	UserName   string    `json:"user_name"`
	SignedInAt time.Time `json:"signed_in_at"`

	State     State  `json:"state"`
	AttemptID string `json:"attempt_id,omitempty"`

	TopicID   uint            `json:"topic_id,omitempty"`
	TopicName string          `json:"topic_name,omitempty"`
	Lesson    string          `json:"lesson,omitempty"`
	Questions []quiz.Question `json:"questions,omitempty"`

	ReadingStart time.Time     `json:"reading_start"`
	ReadingTime  time.Duration `json:"reading_time"`
	WritingTime  time.Duration `json:"writing_time"`
	Reflection   string        `json:"reflection,omitempty"`

	QuizStart time.Time     `json:"quiz_start"`
	QuizTime  time.Duration `json:"quiz_time"`
	Selected  []string      `json:"selected,omitempty"`
	Score     int           `json:"score"`

	// LastSessionID is the id of the most recently saved session.
	LastSessionID uint `json:"last_session_id,omitempty"`
}

// NewContext starts the context of a user who just signed in.
func NewContext(userID uint, userName string, now time.Time) *SessionContext {
	return &SessionContext{
		UserID:     userID,
		UserName:   userName,
		SignedInAt: now,
		State:      Idle,
	}
}

// reset drops all in-flight state and returns to Idle.
func (sc *SessionContext) reset() {
	*sc = SessionContext{
		UserID:        sc.UserID,
		UserName:      sc.UserName,
		SignedInAt:    sc.SignedInAt,
		State:         Idle,
		LastSessionID: sc.LastSessionID,
	}
}
