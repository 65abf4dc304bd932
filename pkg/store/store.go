// Package store implements the gateway's keyed, TTL-aware storage contract
// for OAuth clients, authorization codes, access tokens, users, and the
// credential-to-user index.
package store

import (
	"context"
	"time"
)

// Collection names one of the five entity kinds the Store holds.
type Collection string

const (
	Clients         Collection = "clients"
	AuthCodes       Collection = "auth_codes"
	AccessTokens    Collection = "access_tokens"
	Users           Collection = "users"
	CredentialIndex Collection = "credential_index"
)

// Store is the abstract keyed collection layer every backend implements.
// All four operations must be atomic with respect to a single key: in
// particular Consume must let at most one concurrent caller observe a
// given value.
type Store interface {
	// Put overwrites the value at (collection, key). If ttl is non-zero the
	// entry must be unreadable after ttl has elapsed since this call.
	Put(ctx context.Context, collection Collection, key string, value []byte, ttl time.Duration) error

	// Get returns the value at (collection, key), or ok=false if absent or
	// expired.
	Get(ctx context.Context, collection Collection, key string) (value []byte, ok bool, err error)

	// Delete removes (collection, key). It is idempotent.
	Delete(ctx context.Context, collection Collection, key string) error

	// Consume atomically returns and removes the value at (collection,
	// key); a second concurrent caller observes ok=false.
	Consume(ctx context.Context, collection Collection, key string) (value []byte, ok bool, err error)
}
