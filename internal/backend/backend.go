// Package backend defines the generative backend collaborator contract and
// its failure taxonomy. The backend is a black box invoked by the caller
// after a routing decision; the routing core never awaits it.
package backend

import "context"

// FailureKind classifies a backend failure for the routing record.
type FailureKind string

// FailureKind constants define the backend failure taxonomy.
const (
	// FailureTransient marks failures eligible for caller-level retry
	// (timeouts, upstream rate limits, 5xx).
	FailureTransient FailureKind = "backend_transient"
	// FailurePermanent marks failures that retrying cannot fix.
	FailurePermanent FailureKind = "backend_permanent"
	// FailureBudgetExceeded marks prompts or responses that blew past the
	// assigned token budget. Never silently truncated and resubmitted.
	FailureBudgetExceeded FailureKind = "backend_budget_exceeded"
)

// Error is a classified backend failure with the underlying message
// preserved.
type Error struct {
	Kind    FailureKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Request carries one prompt to the backend.
type Request struct {
	Prompt       string
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Result is a successful backend answer.
type Result struct {
	Text       string
	TokensUsed int
}

// Generator executes a prompt and returns text plus token usage. It may be
// slow and may fail; cancellation and timeout belong to the caller's ctx.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}
