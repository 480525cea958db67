package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"innerlog/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestJournalEntryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	e := domain.JournalEntry{
		ID:        "e1",
		OwnerID:   1,
		Content:   "a good day",
		MoodScore: 8,
		MoodLabel: "Excellent",
		Themes:    []string{"work"},
		Triggers:  []string{"deadline"},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.CreateJournalEntry(e); err != nil {
		t.Fatalf("CreateJournalEntry: %v", err)
	}

	got, err := s.JournalEntries(1, 0, 10)
	if err != nil {
		t.Fatalf("JournalEntries: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].ID != e.ID || got[0].Content != e.Content || got[0].MoodScore != e.MoodScore {
		t.Fatalf("entry mismatch: %+v", got[0])
	}
	if len(got[0].Themes) != 1 || got[0].Themes[0] != "work" {
		t.Fatalf("themes mismatch: %v", got[0].Themes)
	}
	if !got[0].CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("created_at mismatch: got %v want %v", got[0].CreatedAt, e.CreatedAt)
	}
}

func TestJournalEntriesNewestFirstWithPagination(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := domain.JournalEntry{
			ID:        string(rune('a' + i)),
			OwnerID:   1,
			Content:   "entry",
			MoodScore: 5,
			MoodLabel: "Okay",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.CreateJournalEntry(e); err != nil {
			t.Fatalf("CreateJournalEntry: %v", err)
		}
	}

	got, err := s.JournalEntries(1, 1, 2)
	if err != nil {
		t.Fatalf("JournalEntries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	// Newest is "e"; skipping 1 yields "d" then "c".
	if got[0].ID != "d" || got[1].ID != "c" {
		t.Fatalf("pagination order wrong: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestJournalEntriesOrderWithSubsecondTimes(t *testing.T) {
	s := newTestStore(t)

	// Whole-second and fractional timestamps in the same second must sort
	// by time, not by string quirks.
	whole := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	frac := time.Date(2025, 6, 1, 12, 0, 0, 500_000_000, time.UTC)
	for _, e := range []domain.JournalEntry{
		{ID: "whole", OwnerID: 1, Content: "x", MoodScore: 5, MoodLabel: "Okay", CreatedAt: whole},
		{ID: "frac", OwnerID: 1, Content: "y", MoodScore: 5, MoodLabel: "Okay", CreatedAt: frac},
	} {
		if err := s.CreateJournalEntry(e); err != nil {
			t.Fatalf("CreateJournalEntry: %v", err)
		}
	}

	got, err := s.JournalEntries(1, 0, 10)
	if err != nil {
		t.Fatalf("JournalEntries: %v", err)
	}
	if len(got) != 2 || got[0].ID != "frac" || got[1].ID != "whole" {
		t.Fatalf("fractional time must sort newer: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestJournalEntryByID(t *testing.T) {
	s := newTestStore(t)

	e := domain.JournalEntry{
		ID: "e1", OwnerID: 1, Content: "a good day", MoodScore: 8, MoodLabel: "Excellent",
		Themes: []string{"work"}, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateJournalEntry(e); err != nil {
		t.Fatalf("CreateJournalEntry: %v", err)
	}

	got, err := s.JournalEntry(1, "e1")
	if err != nil {
		t.Fatalf("JournalEntry: %v", err)
	}
	if got.Content != e.Content || len(got.Themes) != 1 {
		t.Fatalf("entry mismatch: %+v", got)
	}

	// Wrong owner and unknown id look the same.
	if _, err := s.JournalEntry(2, "e1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign read: got %v, want ErrNotFound", err)
	}
	if _, err := s.JournalEntry(1, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestJournalEntriesOwnerIsolation(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	mine := domain.JournalEntry{ID: "mine", OwnerID: 1, Content: "x", MoodScore: 5, MoodLabel: "Okay", CreatedAt: now}
	theirs := domain.JournalEntry{ID: "theirs", OwnerID: 2, Content: "y", MoodScore: 5, MoodLabel: "Okay", CreatedAt: now}
	if err := s.CreateJournalEntry(mine); err != nil {
		t.Fatalf("CreateJournalEntry: %v", err)
	}
	if err := s.CreateJournalEntry(theirs); err != nil {
		t.Fatalf("CreateJournalEntry: %v", err)
	}

	got, err := s.JournalEntries(1, 0, 10)
	if err != nil {
		t.Fatalf("JournalEntries: %v", err)
	}
	if len(got) != 1 || got[0].ID != "mine" {
		t.Fatalf("owner scoping leaked: %+v", got)
	}
}

func TestDeleteJournalEntry(t *testing.T) {
	s := newTestStore(t)

	e := domain.JournalEntry{ID: "e1", OwnerID: 1, Content: "x", MoodScore: 5, MoodLabel: "Okay", CreatedAt: time.Now().UTC()}
	if err := s.CreateJournalEntry(e); err != nil {
		t.Fatalf("CreateJournalEntry: %v", err)
	}

	// Deleting as the wrong owner must not reveal existence.
	if err := s.DeleteJournalEntry(2, "e1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign delete: got %v, want ErrNotFound", err)
	}
	if err := s.DeleteJournalEntry(1, "e1"); err != nil {
		t.Fatalf("DeleteJournalEntry: %v", err)
	}
	if err := s.DeleteJournalEntry(1, "e1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("repeat delete: got %v, want ErrNotFound", err)
	}
}

func TestMoodAndHabitEntries(t *testing.T) {
	s := newTestStore(t)

	m := domain.MoodEntry{
		ID: "m1", OwnerID: 1, MoodScore: 7, MoodLabel: "Good",
		EnergyLevel: 6, StressLevel: 3, Notes: "fine",
		CreatedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	}
	if err := s.CreateMoodEntry(m); err != nil {
		t.Fatalf("CreateMoodEntry: %v", err)
	}
	moods, err := s.MoodEntries(1, 0, 10)
	if err != nil {
		t.Fatalf("MoodEntries: %v", err)
	}
	if len(moods) != 1 || moods[0].EnergyLevel != 6 || moods[0].Notes != "fine" {
		t.Fatalf("mood mismatch: %+v", moods)
	}

	h := domain.HabitEntry{
		ID: "h1", OwnerID: 1, HabitName: "sleep", HabitValue: 7.5, HabitUnit: "hours",
		CreatedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	}
	if err := s.CreateHabitEntry(h); err != nil {
		t.Fatalf("CreateHabitEntry: %v", err)
	}
	habits, err := s.HabitEntries(1, 0, 10)
	if err != nil {
		t.Fatalf("HabitEntries: %v", err)
	}
	if len(habits) != 1 || habits[0].HabitName != "sleep" || habits[0].HabitValue != 7.5 {
		t.Fatalf("habit mismatch: %+v", habits)
	}
}

func TestSessionLifecycleAndTurns(t *testing.T) {
	s := newTestStore(t)

	created := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	sess := domain.ConversationSession{
		ID: "s1", OwnerID: 1, Type: domain.ConversationCBT, Theme: "work stress",
		Status: domain.SessionActive, CreatedAt: created,
	}
	if err := s.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	for i := 1; i <= 3; i++ {
		turn := domain.ConversationTurn{
			SessionID:  "s1",
			SequenceNo: i,
			UserText:   "hello",
			ReplyText:  "hi",
			Source:     domain.SourceFallback,
			Type:       domain.ConversationCBT,
			Theme:      "work stress",
			CreatedAt:  created.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendTurn(turn); err != nil {
			t.Fatalf("AppendTurn %d: %v", i, err)
		}
	}

	ended := created.Add(time.Hour)
	sess.Status = domain.SessionEnded
	sess.EndedAt = &ended
	if err := s.UpdateSession(sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	turns, err := s.Turns(1, "s1", 0, 10)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].SequenceNo != 3 || turns[2].SequenceNo != 1 {
		t.Fatalf("turns not newest first: %d, %d, %d", turns[0].SequenceNo, turns[1].SequenceNo, turns[2].SequenceNo)
	}
	if turns[0].Source != domain.SourceFallback || turns[0].Type != domain.ConversationCBT {
		t.Fatalf("turn fields mismatch: %+v", turns[0])
	}
}

func TestTurnsScopedByOwnerAndSession(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	for i, owner := range []int64{1, 2} {
		id := []string{"s1", "s2"}[i]
		sess := domain.ConversationSession{
			ID: id, OwnerID: owner, Type: domain.ConversationGeneral,
			Status: domain.SessionActive, CreatedAt: now,
		}
		if err := s.SaveSession(sess); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
		turn := domain.ConversationTurn{
			SessionID: id, SequenceNo: 1, UserText: "u", ReplyText: "r",
			Source: domain.SourceModel, Type: domain.ConversationGeneral, CreatedAt: now,
		}
		if err := s.AppendTurn(turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	// Owner 1 cannot read owner 2's session turns.
	turns, err := s.Turns(1, "s2", 0, 10)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("owner scoping leaked %d turns", len(turns))
	}

	// Empty session id returns all of the owner's turns.
	turns, err = s.Turns(1, "", 0, 10)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 1 || turns[0].SessionID != "s1" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}
