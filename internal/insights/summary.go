package insights

import (
	"fmt"
	"sort"
	"time"

	"innerlog/internal/domain"
)

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type MoodRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type WeeklySummary struct {
	TotalEntries int        `json:"total_entries"`
	AverageMood  float64    `json:"average_mood"`
	MoodTrend    string     `json:"mood_trend"`
	MoodRange    *MoodRange `json:"mood_range,omitempty"`
	TopThemes    []TagCount `json:"most_common_themes"`
	TopTriggers  []TagCount `json:"most_common_triggers"`
}

// ComputeWeeklySummary aggregates the last seven days of journal entries.
func ComputeWeeklySummary(journal []domain.JournalEntry, moods []domain.MoodEntry, now time.Time) WeeklySummary {
	cutoff := now.UTC().Add(-7 * 24 * time.Hour)

	var recent []domain.JournalEntry
	for _, e := range journal {
		if !e.CreatedAt.Before(cutoff) {
			recent = append(recent, e)
		}
	}

	sum := WeeklySummary{
		TotalEntries: len(recent),
		MoodTrend:    ComputeTrend(journal, moods, PeriodWeek, now),
	}
	if len(recent) == 0 {
		sum.TopThemes = []TagCount{}
		sum.TopTriggers = []TagCount{}
		return sum
	}

	total := 0
	rng := MoodRange{Min: recent[0].MoodScore, Max: recent[0].MoodScore}
	var themes, triggers []string
	for _, e := range recent {
		total += e.MoodScore
		if e.MoodScore < rng.Min {
			rng.Min = e.MoodScore
		}
		if e.MoodScore > rng.Max {
			rng.Max = e.MoodScore
		}
		themes = append(themes, e.Themes...)
		triggers = append(triggers, e.Triggers...)
	}

	sum.AverageMood = round2(float64(total) / float64(len(recent)))
	sum.MoodRange = &rng
	sum.TopThemes = topCounts(themes, 5)
	sum.TopTriggers = topCounts(triggers, 5)
	return sum
}

// PatternAnalysis summarizes recurring themes and triggers over a recent
// window of journal entries.
type PatternAnalysis struct {
	RecurringThemes   []TagCount `json:"recurring_themes"`
	EmotionalTriggers []TagCount `json:"emotional_triggers"`
	MostCommonTheme   string     `json:"most_common_theme,omitempty"`
	MostCommonTrigger string     `json:"most_common_trigger,omitempty"`
	TotalEntries      int        `json:"total_entries"`
	Message           string     `json:"message,omitempty"`
}

// DetectPatterns counts theme and trigger frequency across the last thirty
// days of journal entries.
func DetectPatterns(journal []domain.JournalEntry, now time.Time) PatternAnalysis {
	cutoff := now.UTC().Add(-30 * 24 * time.Hour)

	var themes, triggers []string
	total := 0
	for _, e := range journal {
		if e.CreatedAt.Before(cutoff) {
			continue
		}
		total++
		themes = append(themes, e.Themes...)
		triggers = append(triggers, e.Triggers...)
	}

	if total == 0 {
		return PatternAnalysis{
			RecurringThemes:   []TagCount{},
			EmotionalTriggers: []TagCount{},
			Message:           "No journal data available for pattern analysis",
		}
	}

	p := PatternAnalysis{
		RecurringThemes:   topCounts(themes, 5),
		EmotionalTriggers: topCounts(triggers, 5),
		TotalEntries:      total,
	}
	if len(p.RecurringThemes) > 0 {
		p.MostCommonTheme = p.RecurringThemes[0].Tag
	}
	if len(p.EmotionalTriggers) > 0 {
		p.MostCommonTrigger = p.EmotionalTriggers[0].Tag
	}
	return p
}

// RecurringThemes counts theme frequency across all of an owner's journal
// entries, most frequent first.
func RecurringThemes(journal []domain.JournalEntry, limit int) []TagCount {
	var themes []string
	for _, e := range journal {
		themes = append(themes, e.Themes...)
	}
	return topCounts(themes, limit)
}

// SuggestTopics proposes conversation openers from recent journal activity.
func SuggestTopics(journal []domain.JournalEntry) []string {
	if len(journal) == 0 {
		return []string{
			"How are you feeling today?",
			"What's been on your mind lately?",
			"Is there anything you'd like to explore or discuss?",
		}
	}

	sorted := make([]domain.JournalEntry, len(journal))
	copy(sorted, journal)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}

	var suggestions []string
	var themes []string
	for _, e := range sorted {
		themes = append(themes, e.Themes...)
	}
	if top := topCounts(themes, 1); len(top) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Let's explore your thoughts about %s", top[0].Tag))
	}

	for _, e := range sorted {
		if e.MoodScore <= 3 {
			suggestions = append(suggestions, "I notice you've been feeling down lately. Would you like to talk about what's been challenging?")
			break
		}
	}

	if len(suggestions) == 0 {
		suggestions = []string{
			"How has your week been so far?",
			"Is there anything you're looking forward to?",
			"What's been the highlight of your day?",
		}
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

// topCounts ranks tags by frequency; ties break alphabetically so output is
// stable across calls.
func topCounts(tags []string, limit int) []TagCount {
	counts := make(map[string]int)
	for _, t := range tags {
		counts[t]++
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
