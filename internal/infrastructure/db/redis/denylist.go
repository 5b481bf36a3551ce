package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/account-service/internal/core/service"
)

const revokedPrefix = "session:revoked:"

var _ service.SessionDenylist = (*SessionDenylist)(nil)

// SessionDenylist records revoked session ids until their tokens could no
// longer be valid anyway.
// Key format: session:revoked:<session_id>
type SessionDenylist struct {
	client *redis.Client
}

func NewSessionDenylist(client *redis.Client) *SessionDenylist {
	return &SessionDenylist{client: client}
}

func (d *SessionDenylist) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := d.client.Set(ctx, revokedPrefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (d *SessionDenylist) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := d.client.Exists(ctx, revokedPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("session lookup: %w", err)
	}
	return n > 0, nil
}

func (d *SessionDenylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}
