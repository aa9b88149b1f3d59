package provider

import (
	"context"
	"errors"
	"fmt"
)

// Gateway normalizes a vendor API into a uniform text-completion call.
// Complete returns the first textual completion, or an empty string when the
// vendor response contains no extractable text (not an error). All network,
// HTTP and decode failures are reported as *CallError.
type Gateway interface {
	// Name returns the vendor identifier (e.g. "openai").
	Name() string

	// Complete sends the prompt to the vendor and returns the generated text.
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// CallError is the single normalized failure type for vendor calls, so
// callers never need vendor-specific error branching.
type CallError struct {
	Vendor  string
	Status  int // HTTP status when known, 0 otherwise
	Message string
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s call failed (status %d): %s", e.Vendor, e.Status, e.Message)
	}
	return fmt.Sprintf("%s call failed: %s", e.Vendor, e.Message)
}

// AsCallError unwraps err into a *CallError if possible.
func AsCallError(err error) (*CallError, bool) {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Set maps provider ids to their gateway adapters.
type Set map[string]Gateway

// Lookup returns the gateway for a provider id.
func (s Set) Lookup(id string) (Gateway, bool) {
	g, ok := s[id]
	return g, ok
}
