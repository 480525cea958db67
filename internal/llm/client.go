package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content string
	Model   string
}

// Client is the external generative capability. Callers must treat every
// error as a signal to take the deterministic fallback path; errors from
// Generate are never surfaced to end users.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
