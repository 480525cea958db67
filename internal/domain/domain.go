package domain

import (
	"errors"
	"fmt"
	"time"
)

// ConversationType selects the coaching style used for a session.
type ConversationType string

const (
	ConversationGeneral  ConversationType = "general"
	ConversationSocratic ConversationType = "socratic"
	ConversationCBT      ConversationType = "cbt"
)

func (t ConversationType) Valid() bool {
	switch t {
	case ConversationGeneral, ConversationSocratic, ConversationCBT:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// TurnSource records which strategy produced a reply.
type TurnSource string

const (
	SourceModel    TurnSource = "model"
	SourceFallback TurnSource = "fallback"
)

type JournalEntry struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"-"`
	Content   string    `json:"content"`
	MoodScore int       `json:"mood_score"`
	MoodLabel string    `json:"mood_label"`
	Themes    []string  `json:"themes"`
	Triggers  []string  `json:"triggers"`
	CreatedAt time.Time `json:"created_at"`
}

type MoodEntry struct {
	ID          string    `json:"id"`
	OwnerID     int64     `json:"-"`
	MoodScore   int       `json:"mood_score"`
	MoodLabel   string    `json:"mood_label"`
	EnergyLevel int       `json:"energy_level"`
	StressLevel int       `json:"stress_level"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type HabitEntry struct {
	ID         string    `json:"id"`
	OwnerID    int64     `json:"-"`
	HabitName  string    `json:"habit_name"`
	HabitValue float64   `json:"habit_value"`
	HabitUnit  string    `json:"habit_unit"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConversationSession struct {
	ID        string           `json:"session_id"`
	OwnerID   int64            `json:"-"`
	Type      ConversationType `json:"conversation_type"`
	Theme     string           `json:"theme,omitempty"`
	Status    SessionStatus    `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
}

// ConversationTurn is append-only: one user message and the reply it produced.
type ConversationTurn struct {
	SessionID  string           `json:"session_id"`
	SequenceNo int              `json:"sequence_no"`
	UserText   string           `json:"message"`
	ReplyText  string           `json:"response"`
	Source     TurnSource       `json:"source"`
	Type       ConversationType `json:"conversation_type"`
	Theme      string           `json:"theme,omitempty"`
	CreatedAt  time.Time        `json:"timestamp"`
}

var (
	// ErrNotFound covers both unknown ids and ids owned by someone else,
	// so a caller cannot learn whether another owner's record exists.
	ErrNotFound = errors.New("not found")

	// ErrSessionEnded is returned when a mutation targets an ended session.
	ErrSessionEnded = errors.New("session already ended")
)

// ValidationError reports an out-of-contract input along with the offending
// field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CheckScale validates a 1..10 rating field.
func CheckScale(field string, v int) error {
	if v < 1 || v > 10 {
		return Invalid(field, fmt.Sprintf("must be between 1 and 10, got %d", v))
	}
	return nil
}
