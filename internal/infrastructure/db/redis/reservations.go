package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/user-directory/internal/core/ports"
)

// defaultReservationTTL covers the longest directory write: three sequential
// store calls of up to 10s each.
const defaultReservationTTL = 35 * time.Second

// releaseScript deletes KEYS[1] only while it still holds the caller's token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Reservations hands out exclusive claims on unique user fields.
// Key format: reservation:<field>:<value>, value: the holder's token.
//
// Claims expire after ttl so that a crashed writer cannot hold a value forever.
type Reservations struct {
	client   *redis.Client
	ttl      time.Duration
	newToken func() string
}

var _ ports.Reservations = (*Reservations)(nil)

// NewReservations wraps client. A non-positive ttl falls back to the default.
func NewReservations(client *redis.Client, ttl time.Duration) *Reservations {
	if ttl <= 0 {
		ttl = defaultReservationTTL
	}
	return &Reservations{client: client, ttl: ttl, newToken: uuid.NewString}
}

// Claim reports whether the caller now holds field=value and under which token.
func (r *Reservations) Claim(ctx context.Context, field, value string) (string, bool, error) {
	token := r.newToken()
	ok, err := r.client.SetNX(ctx, r.key(field, value), token, r.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("reservation claim: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops a claim held under token. Releasing an expired claim, or one
// now held by another writer, is not an error and leaves the key untouched.
func (r *Reservations) Release(ctx context.Context, field, value, token string) error {
	if err := r.client.Eval(ctx, releaseScript, []string{r.key(field, value)}, token).Err(); err != nil {
		return fmt.Errorf("reservation release: %w", err)
	}
	return nil
}

func (r *Reservations) key(field, value string) string {
	return fmt.Sprintf("reservation:%s:%s", field, value)
}
