// Package journal orchestrates text analysis, persistence and insight
// aggregation on top of the storage layer.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"innerlog/internal/analysis"
	"innerlog/internal/domain"
	"innerlog/internal/insights"
	"innerlog/internal/storage"
)

type Service struct {
	store    storage.Store
	analyzer analysis.Analyzer
}

func NewService(store storage.Store, analyzer analysis.Analyzer) *Service {
	return &Service{store: store, analyzer: analyzer}
}

// CreateEntry analyzes the content and persists the resulting entry.
func (s *Service) CreateEntry(ctx context.Context, owner int64, content string) (domain.JournalEntry, error) {
	res, err := s.analyzer.Analyze(ctx, content)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	entry := domain.JournalEntry{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Content:   content,
		MoodScore: res.MoodScore,
		MoodLabel: res.MoodLabel,
		Themes:    res.Themes,
		Triggers:  res.Triggers,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateJournalEntry(entry); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("persist journal entry: %w", err)
	}
	return entry, nil
}

func (s *Service) Entry(owner int64, id string) (domain.JournalEntry, error) {
	return s.store.JournalEntry(owner, id)
}

func (s *Service) Entries(owner int64, skip, limit int) ([]domain.JournalEntry, error) {
	return s.store.JournalEntries(owner, skip, limit)
}

// EntryAnalysis re-runs extraction over a stored entry's content. The stored
// features are untouched; the entry was analyzed once at submission time.
func (s *Service) EntryAnalysis(ctx context.Context, owner int64, id string) (analysis.Result, error) {
	entry, err := s.store.JournalEntry(owner, id)
	if err != nil {
		return analysis.Result{}, err
	}
	return s.analyzer.Analyze(ctx, entry.Content)
}

func (s *Service) DeleteEntry(owner int64, id string) error {
	return s.store.DeleteJournalEntry(owner, id)
}

// AnalyzeText runs extraction without persisting anything.
func (s *Service) AnalyzeText(ctx context.Context, text string) (analysis.Result, error) {
	return s.analyzer.Analyze(ctx, text)
}

// CreateMoodEntry validates the rating scales and persists the entry. An
// empty label is derived from the score.
func (s *Service) CreateMoodEntry(owner int64, score int, label string, energy, stress int, notes string) (domain.MoodEntry, error) {
	if err := domain.CheckScale("mood_score", score); err != nil {
		return domain.MoodEntry{}, err
	}
	if err := domain.CheckScale("energy_level", energy); err != nil {
		return domain.MoodEntry{}, err
	}
	if err := domain.CheckScale("stress_level", stress); err != nil {
		return domain.MoodEntry{}, err
	}
	if strings.TrimSpace(label) == "" {
		label = analysis.MoodLabel(score)
	}
	entry := domain.MoodEntry{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		MoodScore:   score,
		MoodLabel:   label,
		EnergyLevel: energy,
		StressLevel: stress,
		Notes:       notes,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateMoodEntry(entry); err != nil {
		return domain.MoodEntry{}, fmt.Errorf("persist mood entry: %w", err)
	}
	return entry, nil
}

func (s *Service) MoodEntries(owner int64, skip, limit int) ([]domain.MoodEntry, error) {
	return s.store.MoodEntries(owner, skip, limit)
}

func (s *Service) CreateHabitEntry(owner int64, name string, value float64, unit string) (domain.HabitEntry, error) {
	if strings.TrimSpace(name) == "" {
		return domain.HabitEntry{}, domain.Invalid("habit_name", "must not be empty")
	}
	if value < 0 {
		return domain.HabitEntry{}, domain.Invalid("habit_value", "must not be negative")
	}
	entry := domain.HabitEntry{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		HabitName:  strings.TrimSpace(name),
		HabitValue: value,
		HabitUnit:  unit,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateHabitEntry(entry); err != nil {
		return domain.HabitEntry{}, fmt.Errorf("persist habit entry: %w", err)
	}
	return entry, nil
}

func (s *Service) HabitEntries(owner int64, skip, limit int) ([]domain.HabitEntry, error) {
	return s.store.HabitEntries(owner, skip, limit)
}

// Stats aggregates over the caller's full history.
func (s *Service) Stats(owner int64, now time.Time) (insights.Stats, error) {
	journal, moods, habits, err := s.loadAll(owner)
	if err != nil {
		return insights.Stats{}, err
	}
	return insights.ComputeStats(journal, moods, habits, now), nil
}

func (s *Service) MoodTrend(owner int64, period insights.Period, now time.Time) (string, error) {
	if period != insights.PeriodWeek && period != insights.PeriodMonth {
		return "", domain.Invalid("period", "must be week or month")
	}
	journal, err := s.store.JournalEntries(owner, 0, 0)
	if err != nil {
		return "", err
	}
	moods, err := s.store.MoodEntries(owner, 0, 0)
	if err != nil {
		return "", err
	}
	return insights.ComputeTrend(journal, moods, period, now), nil
}

func (s *Service) HabitCorrelation(owner int64, habitName string) (*float64, error) {
	if strings.TrimSpace(habitName) == "" {
		return nil, domain.Invalid("habit", "must not be empty")
	}
	journal, moods, habits, err := s.loadAll(owner)
	if err != nil {
		return nil, err
	}
	return insights.ComputeHabitCorrelation(habits, journal, moods, habitName), nil
}

func (s *Service) WeeklySummary(owner int64, now time.Time) (insights.WeeklySummary, error) {
	journal, err := s.store.JournalEntries(owner, 0, 0)
	if err != nil {
		return insights.WeeklySummary{}, err
	}
	moods, err := s.store.MoodEntries(owner, 0, 0)
	if err != nil {
		return insights.WeeklySummary{}, err
	}
	return insights.ComputeWeeklySummary(journal, moods, now), nil
}

// Patterns aggregates recurring themes and triggers over the last month of
// journal entries.
func (s *Service) Patterns(owner int64, now time.Time) (insights.PatternAnalysis, error) {
	journal, err := s.store.JournalEntries(owner, 0, 0)
	if err != nil {
		return insights.PatternAnalysis{}, err
	}
	return insights.DetectPatterns(journal, now), nil
}

func (s *Service) RecurringThemes(owner int64, limit int) ([]insights.TagCount, error) {
	journal, err := s.store.JournalEntries(owner, 0, 0)
	if err != nil {
		return nil, err
	}
	return insights.RecurringThemes(journal, limit), nil
}

// Turns returns the caller's conversation history, optionally filtered to a
// single session.
func (s *Service) Turns(owner int64, sessionID string, skip, limit int) ([]domain.ConversationTurn, error) {
	return s.store.Turns(owner, sessionID, skip, limit)
}

// SuggestTopics proposes conversation topics from recent journal themes.
func (s *Service) SuggestTopics(owner int64) ([]string, error) {
	journal, err := s.store.JournalEntries(owner, 0, 20)
	if err != nil {
		return nil, err
	}
	return insights.SuggestTopics(journal), nil
}

func (s *Service) loadAll(owner int64) ([]domain.JournalEntry, []domain.MoodEntry, []domain.HabitEntry, error) {
	journal, err := s.store.JournalEntries(owner, 0, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	moods, err := s.store.MoodEntries(owner, 0, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	habits, err := s.store.HabitEntries(owner, 0, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	return journal, moods, habits, nil
}
