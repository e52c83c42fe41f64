package storage

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const banKeyPrefix = "relay:ban:"

// BanList keeps banned user ids in Redis so bans survive restarts and can be
// shared with other tooling.
type BanList struct {
	client *redis.Client
}

// NewBanList wraps a Redis client.
func NewBanList(client *redis.Client) *BanList {
	return &BanList{client: client}
}

// IsBanned reports whether the user id is present in the ban set. With no
// Redis configured nobody is banned.
func (b *BanList) IsBanned(ctx context.Context, userID int64) (bool, error) {
	if b == nil || b.client == nil {
		return false, nil
	}
	n, err := b.client.Exists(ctx, banKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ban marks the user id as banned.
func (b *BanList) Ban(ctx context.Context, userID int64) error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Set(ctx, banKey(userID), "1", 0).Err()
}

// Unban removes the user id from the ban set.
func (b *BanList) Unban(ctx context.Context, userID int64) error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Del(ctx, banKey(userID)).Err()
}

func banKey(userID int64) string {
	return banKeyPrefix + strconv.FormatInt(userID, 10)
}
