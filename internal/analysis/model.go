package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"innerlog/internal/domain"
	"innerlog/internal/llm"
)

const extractorSystemPrompt = `You analyze a personal journal entry.
Respond with a single JSON object and nothing else:
{
  "mood_score": <int 1-10, 1 very negative, 10 very positive>,
  "mood_label": "<short descriptive label>",
  "themes": ["recurring topics such as work, relationships, health"],
  "triggers": ["events or situations that caused an emotional response"]
}`

// ModelBacked delegates extraction to the external model and falls back to
// the rule-based strategy on any failure. It never returns a model error to
// the caller: extraction degrades, it does not break.
type ModelBacked struct {
	client   llm.Client
	fallback *RuleBased
}

func NewModelBacked(client llm.Client, fallback *RuleBased) *ModelBacked {
	return &ModelBacked{client: client, fallback: fallback}
}

func (m *ModelBacked) Analyze(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, domain.Invalid("content", "must not be empty")
	}

	res, err := m.tryModel(ctx, text)
	if err != nil {
		log.Printf("model extraction failed, using rule-based fallback: %v", err)
		return m.fallback.Analyze(ctx, text)
	}
	return res, nil
}

func (m *ModelBacked) tryModel(ctx context.Context, text string) (Result, error) {
	resp, err := m.client.Generate(ctx, []llm.Message{
		{Role: "system", Content: extractorSystemPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		MoodScore int      `json:"mood_score"`
		MoodLabel string   `json:"mood_label"`
		Themes    []string `json:"themes"`
		Triggers  []string `json:"triggers"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &parsed); err != nil {
		return Result{}, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	score := clampScore(parsed.MoodScore)
	label := strings.TrimSpace(parsed.MoodLabel)
	if label == "" {
		label = MoodLabel(score)
	}

	return Result{
		MoodScore: score,
		MoodLabel: label,
		Themes:    NormalizeTags(parsed.Themes),
		Triggers:  NormalizeTags(parsed.Triggers),
	}, nil
}

// stripCodeFence unwraps ```json ... ``` blocks some models insist on.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
