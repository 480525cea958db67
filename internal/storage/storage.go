package storage

import "innerlog/internal/domain"

// Store abstracts persistence of journal, mood, habit and conversation
// records. Every read and delete is scoped by the owning user; list results
// come back newest first. Implementations must be safe for concurrent use.
type Store interface {
	CreateJournalEntry(e domain.JournalEntry) error
	JournalEntry(owner int64, id string) (domain.JournalEntry, error)
	JournalEntries(owner int64, skip, limit int) ([]domain.JournalEntry, error)
	DeleteJournalEntry(owner int64, id string) error

	CreateMoodEntry(e domain.MoodEntry) error
	MoodEntries(owner int64, skip, limit int) ([]domain.MoodEntry, error)

	CreateHabitEntry(e domain.HabitEntry) error
	HabitEntries(owner int64, skip, limit int) ([]domain.HabitEntry, error)

	SaveSession(s domain.ConversationSession) error
	UpdateSession(s domain.ConversationSession) error
	AppendTurn(t domain.ConversationTurn) error
	Turns(owner int64, sessionID string, skip, limit int) ([]domain.ConversationTurn, error)

	Close() error
}
