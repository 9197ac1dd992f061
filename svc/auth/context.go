package auth

import "context"

type sessionContextKey struct{}

type sessionState struct {
	claim Claim
	err   error
}

// WithSession stores the outcome of verifying the request's session token.
// err is kept so that handlers can tell an expired session from a missing
// one.
func WithSession(ctx context.Context, claim Claim, err error) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sessionState{claim: claim, err: err})
}

// SessionFromContext returns the verified session claim, the verification
// error, or ErrNoSession when nothing was stored.
func SessionFromContext(ctx context.Context) (Claim, error) {
	s, ok := ctx.Value(sessionContextKey{}).(sessionState)
	if !ok {
		return Claim{}, ErrNoSession
	}
	if s.err != nil {
		return Claim{}, s.err
	}
	return s.claim, nil
}

// OptionalSession returns the session claim or nil when the request has no
// valid session.
func OptionalSession(ctx context.Context) *Claim {
	c, err := SessionFromContext(ctx)
	if err != nil {
		return nil
	}
	return &c
}
