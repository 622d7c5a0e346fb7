// Package advisory generates therapist-facing insights through an external
// language-model service.
package advisory

import "context"

// Chatter is the minimal contract for the advisory collaborator: one
// stateless exchange of a system prompt and a user message. Implementations
// enforce their own timeout; the collaborator offers none.
type Chatter interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}
