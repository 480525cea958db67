package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"innerlog/internal/domain"
	"innerlog/internal/llm"
)

// Reply is the outcome of response generation, tagged with the strategy
// that actually produced it.
type Reply struct {
	Text   string
	Source domain.TurnSource
}

// Generator produces the next reply for a session. Implementations are pure
// given their inputs; recording the resulting turn is the engine's job.
type Generator interface {
	Respond(ctx context.Context, userText string, history []domain.ConversationTurn, convType domain.ConversationType, theme string) (Reply, error)
}

// RuleBased selects from fixed prompt banks and keyword cues. It is always
// available and never returns an empty reply.
type RuleBased struct{}

func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

func (r *RuleBased) Respond(_ context.Context, userText string, history []domain.ConversationTurn, convType domain.ConversationType, theme string) (Reply, error) {
	lower := strings.ToLower(userText)

	for _, cue := range keywordCues {
		for _, kw := range cue.keywords {
			if strings.Contains(lower, kw) {
				return Reply{Text: cue.response, Source: domain.SourceFallback}, nil
			}
		}
	}

	bank := promptBanks[convType]
	if len(bank) == 0 {
		bank = promptBanks[domain.ConversationGeneral]
	}
	if themed, ok := themeBanks[theme]; ok {
		bank = append(append([]string{}, bank...), themed...)
	}

	// Rotate with the session's true turn count, not the window length: the
	// window saturates at W, and indexing by it would pin every later turn
	// to the same prompt. The last turn's sequence number is the count of
	// turns so far.
	turn := 0
	if n := len(history); n > 0 {
		turn = history[n-1].SequenceNo
	}
	return Reply{Text: bank[turn%len(bank)], Source: domain.SourceFallback}, nil
}

// ModelBacked forwards the bounded context plus a per-type style directive
// to the external model, and hands over to RuleBased on any failure.
type ModelBacked struct {
	client   llm.Client
	fallback *RuleBased
}

func NewModelBacked(client llm.Client, fallback *RuleBased) *ModelBacked {
	return &ModelBacked{client: client, fallback: fallback}
}

func (m *ModelBacked) Respond(ctx context.Context, userText string, history []domain.ConversationTurn, convType domain.ConversationType, theme string) (Reply, error) {
	messages := make([]llm.Message, 0, 2*len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: styleDirective(convType, theme)})
	for _, turn := range history {
		messages = append(messages,
			llm.Message{Role: "user", Content: turn.UserText},
			llm.Message{Role: "assistant", Content: turn.ReplyText},
		)
	}
	messages = append(messages, llm.Message{Role: "user", Content: userText})

	resp, err := m.client.Generate(ctx, messages)
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err == nil {
			err = fmt.Errorf("model returned empty reply")
		}
		log.Printf("model response failed, using rule-based fallback: %v", err)
		return m.fallback.Respond(ctx, userText, history, convType, theme)
	}

	return Reply{Text: strings.TrimSpace(resp.Content), Source: domain.SourceModel}, nil
}

func styleDirective(convType domain.ConversationType, theme string) string {
	var b strings.Builder
	switch convType {
	case domain.ConversationSocratic:
		b.WriteString("You are a Socratic dialogue coach helping the user explore their thoughts and feelings. " +
			"Ask thoughtful, open-ended questions that help the user reflect deeper. " +
			"Do NOT give advice or solutions; guide them to discover insights themselves. " +
			"Keep your response under 150 words and focus on one aspect at a time.")
	case domain.ConversationCBT:
		b.WriteString("You are a CBT-style coach helping the user examine the connection between thoughts, emotions and behaviors. " +
			"Help them notice cognitive distortions such as all-or-nothing thinking or catastrophizing, " +
			"and gently guide them toward more balanced thinking by weighing evidence for and against their thoughts.")
	default:
		b.WriteString("You are a supportive mental wellness companion. " +
			"Engage in a warm, empathetic conversation that helps the user feel heard and understood. " +
			"Ask follow-up questions that show you are listening and care about their experience.")
	}
	if theme != "" {
		fmt.Fprintf(&b, " The current conversation theme is %q.", theme)
	}
	return b.String()
}
