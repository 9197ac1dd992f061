// Package auth authenticates users and produces the identity claim that the
// rest of the system signs into session cookies, authorization codes and ID
// tokens.
//
// Three entry points produce a Claim: password Login, Signup (gated by a
// CAPTCHA verifier) and OAuthCallback for third-party providers. The OAuth
// path enforces the account-linking policy: a provider profile whose email
// belongs to an existing user is only linked when the caller's session
// belongs to that same user, so a colliding email on another provider can
// never take over a local account.
//
// Persistence is behind the Storage interface; see storage/pgstore and
// storage/sqlitestore.
package auth
