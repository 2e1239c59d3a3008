// Package llm defines the narrow language-model capability contract used by
// the classifier's fallback path, plus the Gemini implementation.
package llm

import (
	"context"
	"time"
)

// Schema is the small JSON-schema subset providers must be able to enforce
// on replies. Providers translate it into their native constrained-output
// format.
type Schema struct {
	Type        string
	Description string
	Enum        []string
	Properties  map[string]*Schema
	Required    []string
}

const (
	TypeObject = "object"
	TypeString = "string"
	TypeNumber = "number"
)

// Request is one model invocation. When Schema is set the reply must be a
// JSON document conforming to it.
type Request struct {
	Prompt string
	Schema *Schema
}

// Response carries the raw reply text and how long the call took.
type Response struct {
	Content  string
	Duration time.Duration
}

// Provider is the substitutable model capability: one execute operation plus
// an availability check. Implementations must honor ctx cancellation.
type Provider interface {
	Execute(ctx context.Context, req Request) (*Response, error)
	Available() bool
}
