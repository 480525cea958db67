package analysis

import (
	"context"
	"sort"
	"strings"

	"innerlog/internal/domain"
)

// Result is the transient output of text feature extraction. Persisting it
// onto a journal entry is the caller's job.
type Result struct {
	MoodScore int      `json:"mood_score"`
	MoodLabel string   `json:"mood_label"`
	Themes    []string `json:"themes"`
	Triggers  []string `json:"triggers"`
}

// Analyzer turns raw reflection text into structured features. Both
// implementations honor the same contract: score in [1,10], non-empty label,
// deduplicated lower-cased tags.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

// MoodLabel maps a 1..10 score onto its label bucket.
func MoodLabel(score int) string {
	switch {
	case score >= 8:
		return "Excellent"
	case score >= 6:
		return "Good"
	case score >= 4:
		return "Okay"
	case score == 3:
		return "Low"
	default:
		return "Rough"
	}
}

// RuleBased is the deterministic, always-available strategy: a pure function
// over the lexicon with no hidden state.
type RuleBased struct {
	lexicon *Lexicon
}

func NewRuleBased(lex *Lexicon) *RuleBased {
	return &RuleBased{lexicon: lex}
}

func (r *RuleBased) Analyze(_ context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, domain.Invalid("content", "must not be empty")
	}

	lower := strings.ToLower(text)

	polarity := 0
	for token, weight := range r.lexicon.Sentiment {
		if strings.Contains(lower, token) {
			polarity += weight
		}
	}

	score := clampScore(5 + polarity)

	return Result{
		MoodScore: score,
		MoodLabel: MoodLabel(score),
		Themes:    matchTags(lower, r.lexicon.Themes),
		Triggers:  matchTags(lower, r.lexicon.Triggers),
	}, nil
}

// matchTags returns each tag at most once, sorted so repeated calls on the
// same text produce identical output.
func matchTags(lower string, vocab map[string][]string) []string {
	tags := make([]string, 0, len(vocab))
	for tag, keywords := range vocab {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

func clampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

// NormalizeTags lower-cases, trims, deduplicates and sorts a tag list. Used
// to hold model output to the same contract as the rule-based path.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
