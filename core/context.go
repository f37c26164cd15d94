package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	outcomeKey contextKey = iota
)

// SetOutcome stores an authenticated outcome in the context.
// This is a helper for adapters to call after verification.
func SetOutcome(ctx context.Context, outcome Outcome) context.Context {
	return context.WithValue(ctx, outcomeKey, outcome)
}

// GetOutcome retrieves the outcome stored by SetOutcome.
//
// Example usage:
//
//	outcome, err := core.GetOutcome(ctx)
//	if err != nil {
//	    return err
//	}
//	user, err := store.GetUser(ctx, outcome.Subject())
func GetOutcome(ctx context.Context) (Outcome, error) {
	outcome, ok := ctx.Value(outcomeKey).(Outcome)
	if !ok {
		return Outcome{}, ErrOutcomeNotFound
	}
	return outcome, nil
}

// Subject returns the authenticated subject stored in the context, or "".
func Subject(ctx context.Context) string {
	outcome, err := GetOutcome(ctx)
	if err != nil || !outcome.OK() {
		return ""
	}
	return outcome.Subject()
}

// HasOutcome checks if an outcome exists in the context without retrieving it.
func HasOutcome(ctx context.Context) bool {
	_, ok := ctx.Value(outcomeKey).(Outcome)
	return ok
}
