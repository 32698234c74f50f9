package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	onlineUsersKey = "online_users"
	statusTTL      = 5 * time.Minute
)

// PresenceService keeps each user's online status in redis so other
// backend components (and other instances) can answer "is this user
// online" without reaching into this process's connection registry.
type PresenceService struct {
	client *redis.Client
}

func NewPresenceService(client *redis.Client) *PresenceService {
	return &PresenceService{client: client}
}

func statusKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:status", userID)
}

func (p *PresenceService) SetUserOnline(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().Unix()
	pipe := p.client.Pipeline()
	pipe.SAdd(ctx, onlineUsersKey, userID.String())
	pipe.HSet(ctx, statusKey(userID), map[string]interface{}{
		"status":     "online",
		"last_seen":  now,
		"updated_at": now,
	})
	pipe.Expire(ctx, statusKey(userID), statusTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set user online: %w", err)
	}
	return nil
}

func (p *PresenceService) SetUserOffline(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().Unix()
	pipe := p.client.Pipeline()
	pipe.SRem(ctx, onlineUsersKey, userID.String())
	pipe.HSet(ctx, statusKey(userID), map[string]interface{}{
		"status":     "offline",
		"last_seen":  now,
		"updated_at": now,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set user offline: %w", err)
	}
	return nil
}

func (p *PresenceService) IsUserOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	online, err := p.client.SIsMember(ctx, onlineUsersKey, userID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("presence lookup: %w", err)
	}
	return online, nil
}

// OnlineCount reports how many users are currently marked online.
func (p *PresenceService) OnlineCount(ctx context.Context) (int64, error) {
	count, err := p.client.SCard(ctx, onlineUsersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("presence count: %w", err)
	}
	return count, nil
}
