package driven

import "context"

// ReviewerLLM generates a persona-conditioned review from a prompt pair.
// A nil ReviewerLLM selects the heuristic-only simulation path; any error
// from Generate triggers the same fallback for that persona only.
type ReviewerLLM interface {
	Generate(ctx context.Context, system, user string, maxTokens int) (string, error)
}
