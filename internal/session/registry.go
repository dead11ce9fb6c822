// Package session holds the in-memory token registry. Tokens live for the
// server process only; a restart invalidates every session.
package session

import "sync"

// Registry maps opaque access tokens to user IDs. It stores identifiers, not
// user values: callers re-fetch the canonical user from the store on every
// resolve, so a profile update is visible to existing sessions immediately.
//
// The registry is the only shared mutable structure in the core and is safe
// for concurrent use without external locking.
type Registry struct {
	tokens sync.Map // token -> user ID
}

// NewRegistry creates an empty registry. The server process owns it and
// passes it by reference into the services that need it.
func NewRegistry() *Registry {
	return &Registry{}
}

// Bind associates a token with a user ID. Multiple live tokens may point at
// the same user; no single-session rule is enforced.
func (r *Registry) Bind(token, userID string) {
	r.tokens.Store(token, userID)
}

// Resolve returns the user ID bound to a token.
func (r *Registry) Resolve(token string) (string, bool) {
	v, ok := r.tokens.Load(token)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Rebind replaces the user ID bound to an existing token. It reports false
// when the token is not registered, so callers can surface the gap instead
// of losing the update silently.
func (r *Registry) Rebind(token, userID string) bool {
	if _, ok := r.tokens.Load(token); !ok {
		return false
	}
	r.tokens.Store(token, userID)
	return true
}

// Remove deletes a token binding.
func (r *Registry) Remove(token string) {
	r.tokens.Delete(token)
}

// RemoveUser deletes every token bound to the given user ID.
func (r *Registry) RemoveUser(userID string) {
	r.tokens.Range(func(key, value any) bool {
		if value.(string) == userID {
			r.tokens.Delete(key)
		}
		return true
	})
}

// Close clears the registry on server shutdown.
func (r *Registry) Close() {
	r.tokens.Range(func(key, _ any) bool {
		r.tokens.Delete(key)
		return true
	})
}
