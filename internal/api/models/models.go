package models

import (
	"time"

	"github.com/jon4hz/eduquest/internal/quiz"
)

// DeletedUserName is shown for sessions whose user no longer exists.
const DeletedUserName = "(deleted user)"

// User is a user as shown to admins and to the user themselves.
type User struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	Joined    string    `json:"joined"`
}

// TopicSummary is an approved topic in the learner's picker.
type TopicSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	AgeLevel string `json:"age_level"`
}

// AdminTopic is a topic with its content and review status.
type AdminTopic struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	AgeLevel     string    `json:"age_level"`
	LessonLength string    `json:"lesson_length"`
	Status       string    `json:"status"`
	Lesson       string    `json:"lesson,omitempty"`
	Quiz         string    `json:"quiz,omitempty"`
	QuestionsOK  int       `json:"parsed_questions"`
	CreatedAt    time.Time `json:"created_at"`
	Updated      string    `json:"updated"`
}

// Question is a quiz question without its answer.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// LearnerState is the learner's in-flight session.
type LearnerState struct {
	State         string     `json:"state"`
	AttemptID     string     `json:"attempt_id,omitempty"`
	TopicID       uint       `json:"topic_id,omitempty"`
	TopicName     string     `json:"topic_name,omitempty"`
	Lesson        string     `json:"lesson,omitempty"`
	Reflection    string     `json:"reflection,omitempty"`
	Questions     []Question `json:"questions,omitempty"`
	Score         int        `json:"score"`
	Total         int        `json:"total"`
	LastSessionID uint       `json:"last_session_id,omitempty"`
	SignedInFor   string     `json:"signed_in_for"`
}

// SessionSummary is a row of a session listing.
type SessionSummary struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"user_id"`
	UserName      string  `json:"user_name"`
	Date          string  `json:"date"`
	Topic         string  `json:"topic"`
	Score         int     `json:"score"`
	Total         int     `json:"total"`
	TimeSpent     float64 `json:"time_spent"`
	TimeSpentText string  `json:"time_spent_text"`
}

// SessionQuestion is an answered question of a saved session.
type SessionQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	UserAnswer    string   `json:"user_answer"`
	Correct       bool     `json:"correct"`
}

// SessionDetail is a saved session with its questions.
type SessionDetail struct {
	ID          uint              `json:"id"`
	UserID      uint              `json:"user_id"`
	Date        string            `json:"date"`
	Topic       string            `json:"topic"`
	Lesson      string            `json:"lesson"`
	Reflection  string            `json:"reflection"`
	Score       int               `json:"score"`
	TimeSpent   string            `json:"time_spent"`
	ReadingTime string            `json:"reading_time"`
	WritingTime string            `json:"writing_time"`
	QuizTime    string            `json:"quiz_time"`
	Questions   []SessionQuestion `json:"questions"`
}

// HistoryEvent is an audit log entry.
type HistoryEvent struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	UserName  string    `json:"user_name,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	When      string    `json:"when"`
}

// Stats are the counts on the admin dashboard.
type Stats struct {
	Users          int            `json:"users"`
	Topics         map[string]int `json:"topics"`
	Sessions       int            `json:"sessions"`
	QuizQuestions  int            `json:"quiz_questions"`
	OrphanSessions int            `json:"orphan_sessions"`
	HistoryEvents  int            `json:"history_events"`
}

// ToQuestions strips the answers from quiz questions.
func ToQuestions(qs []quiz.Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = Question{Text: q.Text, Options: q.Options}
	}
	return out
}
