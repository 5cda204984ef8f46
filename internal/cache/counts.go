package cache

import (
	"context"
	"fmt"
	"time"
)

const unreadCountTTL = 5 * time.Minute

func unreadCountKey(userID string) string {
	return "notif_unread:" + userID
}

// GetUnreadCount returns the cached unread notification count for a user.
// The second return is false on a cache miss.
func (rc *RedisClient) GetUnreadCount(ctx context.Context, userID string) (int64, bool) {
	if rc == nil {
		return 0, false
	}
	n, err := rc.GetInt(ctx, unreadCountKey(userID))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetUnreadCount caches the unread notification count for a user
func (rc *RedisClient) SetUnreadCount(ctx context.Context, userID string, count int64) {
	if rc == nil {
		return
	}
	_ = rc.SetEx(ctx, unreadCountKey(userID), fmt.Sprintf("%d", count), unreadCountTTL)
}

// InvalidateUnreadCount drops the cached unread count after a write
func (rc *RedisClient) InvalidateUnreadCount(ctx context.Context, userID string) {
	if rc == nil {
		return
	}
	_ = rc.Del(ctx, unreadCountKey(userID))
}
