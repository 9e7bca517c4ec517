package ports

import "context"

// Reservations hands out short-lived exclusive claims on unique values
// (usernames, emails) so that concurrent writers racing for the same value
// are turned away before they reach the store.
type Reservations interface {
	// Claim returns ok=false when another caller currently holds field=value.
	// On success token identifies this claim.
	Claim(ctx context.Context, field, value string) (token string, ok bool, err error)
	// Release drops the claim only while it is still held under token, so a
	// claim that expired and was taken by another writer is left alone.
	Release(ctx context.Context, field, value, token string) error
}
