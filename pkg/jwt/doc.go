// Package jwt signs and verifies HS256 tokens with a single symmetric key.
//
// It is used for browser session tokens: the claims type is supplied by the
// caller, expiry is enforced during Parse, and every failure other than
// expiry collapses into ErrInvalidToken so callers cannot distinguish a
// forged token from a malformed one. Token transport helpers extract tokens
// from cookies, bearer headers and query parameters.
package jwt
