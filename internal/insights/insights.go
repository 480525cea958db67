package insights

import (
	"math"
	"sort"
	"time"

	"innerlog/internal/domain"
)

// All functions in this package are pure aggregations over caller-supplied
// entries for a single owner. They tolerate empty, single-element and
// unsorted input. Day boundaries are UTC.

type Stats struct {
	TotalJournalEntries int        `json:"total_journal_entries"`
	TotalMoodEntries    int        `json:"total_mood_entries"`
	TotalHabitEntries   int        `json:"total_habit_entries"`
	AverageMood         float64    `json:"average_mood"`
	LastJournalDate     *time.Time `json:"last_journal_date"`
	LastMoodDate        *time.Time `json:"last_mood_date"`
	StreakDays          int        `json:"streak_days"`
}

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// trendEpsilon is the half-to-half mean difference below which the trend is
// called stable, on the 1..10 mood scale.
const trendEpsilon = 0.25

// ComputeStats aggregates totals, the mean mood over mood entries and
// journal-derived moods, last activity dates and the running daily streak.
func ComputeStats(journal []domain.JournalEntry, moods []domain.MoodEntry, habits []domain.HabitEntry, now time.Time) Stats {
	st := Stats{
		TotalJournalEntries: len(journal),
		TotalMoodEntries:    len(moods),
		TotalHabitEntries:   len(habits),
	}

	sum, count := 0, 0
	for _, e := range moods {
		sum += e.MoodScore
		count++
	}
	for _, e := range journal {
		sum += e.MoodScore
		count++
	}
	if count > 0 {
		st.AverageMood = round2(float64(sum) / float64(count))
	}

	for i := range journal {
		if st.LastJournalDate == nil || journal[i].CreatedAt.After(*st.LastJournalDate) {
			ts := journal[i].CreatedAt
			st.LastJournalDate = &ts
		}
	}
	for i := range moods {
		if st.LastMoodDate == nil || moods[i].CreatedAt.After(*st.LastMoodDate) {
			ts := moods[i].CreatedAt
			st.LastMoodDate = &ts
		}
	}

	st.StreakDays = streakDays(journal, moods, now)
	return st
}

// streakDays counts consecutive UTC calendar days ending today with at least
// one mood or journal entry. The walk stops at the first empty day, so a
// day without entries today yields 0 regardless of past activity.
func streakDays(journal []domain.JournalEntry, moods []domain.MoodEntry, now time.Time) int {
	days := make(map[string]bool, len(journal)+len(moods))
	for _, e := range journal {
		days[dayKey(e.CreatedAt)] = true
	}
	for _, e := range moods {
		days[dayKey(e.CreatedAt)] = true
	}

	streak := 0
	for d := now.UTC(); days[dayKey(d)]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// ComputeTrend buckets the period's mood points in time order and compares
// the mean of the newer half against the older half.
func ComputeTrend(journal []domain.JournalEntry, moods []domain.MoodEntry, period Period, now time.Time) string {
	window := 7 * 24 * time.Hour
	if period == PeriodMonth {
		window = 30 * 24 * time.Hour
	}
	cutoff := now.UTC().Add(-window)

	type point struct {
		at    time.Time
		score int
	}
	var points []point
	for _, e := range moods {
		if !e.CreatedAt.Before(cutoff) {
			points = append(points, point{e.CreatedAt, e.MoodScore})
		}
	}
	for _, e := range journal {
		if !e.CreatedAt.Before(cutoff) {
			points = append(points, point{e.CreatedAt, e.MoodScore})
		}
	}
	if len(points) < 2 {
		return TrendStable
	}

	sort.Slice(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

	mid := len(points) / 2
	older, newer := 0.0, 0.0
	for _, p := range points[:mid] {
		older += float64(p.score)
	}
	for _, p := range points[mid:] {
		newer += float64(p.score)
	}
	diff := newer/float64(len(points)-mid) - older/float64(mid)

	switch {
	case diff > trendEpsilon:
		return TrendImproving
	case diff < -trendEpsilon:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// ComputeHabitCorrelation pairs each day's habit value with that day's mean
// mood and returns the Pearson coefficient. It returns nil when fewer than
// two distinct days overlap, or when either series has no variance.
func ComputeHabitCorrelation(habits []domain.HabitEntry, journal []domain.JournalEntry, moods []domain.MoodEntry, habitName string) *float64 {
	moodSum := make(map[string]float64)
	moodCount := make(map[string]int)
	for _, e := range moods {
		k := dayKey(e.CreatedAt)
		moodSum[k] += float64(e.MoodScore)
		moodCount[k]++
	}
	for _, e := range journal {
		k := dayKey(e.CreatedAt)
		moodSum[k] += float64(e.MoodScore)
		moodCount[k]++
	}

	habitSum := make(map[string]float64)
	habitCount := make(map[string]int)
	for _, e := range habits {
		if e.HabitName != habitName {
			continue
		}
		k := dayKey(e.CreatedAt)
		habitSum[k] += e.HabitValue
		habitCount[k]++
	}

	var xs, ys []float64
	days := make([]string, 0, len(habitSum))
	for k := range habitSum {
		if moodCount[k] > 0 {
			days = append(days, k)
		}
	}
	if len(days) < 2 {
		return nil
	}
	sort.Strings(days)
	for _, k := range days {
		xs = append(xs, habitSum[k]/float64(habitCount[k]))
		ys = append(ys, moodSum[k]/float64(moodCount[k]))
	}

	return pearson(xs, ys)
}

func pearson(xs, ys []float64) *float64 {
	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return nil
	}
	r := cov / math.Sqrt(varX*varY)
	return &r
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
