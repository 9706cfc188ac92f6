package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resetPrefix       = "pwreset:"
	resetTTL          = 30 * time.Minute
	verifyPrefix      = "verify:"
	verifyTTL         = 24 * time.Hour
	StreamTransitions = "grantdesk.transitions"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// SetResetToken maps a one-time password-reset token to a user id.
func SetResetToken(ctx context.Context, rdb *redis.Client, token, userID string) error {
	return rdb.Set(ctx, resetPrefix+token, userID, resetTTL).Err()
}

// TakeResetToken consumes the token, returning the user id it was
// issued for. A token can be taken at most once.
func TakeResetToken(ctx context.Context, rdb *redis.Client, token string) (string, error) {
	return rdb.GetDel(ctx, resetPrefix+token).Result()
}

// SetVerifyToken maps a one-time account-verification token to the
// freshly registered user.
func SetVerifyToken(ctx context.Context, rdb *redis.Client, token, userID string) error {
	return rdb.Set(ctx, verifyPrefix+token, userID, verifyTTL).Err()
}

// TakeVerifyToken consumes the verification token, returning the user
// id it was issued for.
func TakeVerifyToken(ctx context.Context, rdb *redis.Client, token string) (string, error) {
	return rdb.GetDel(ctx, verifyPrefix+token).Result()
}

// PublishTransition emits a committed status change onto the
// transition stream for downstream consumers (mailers, dashboards).
func PublishTransition(ctx context.Context, rdb *redis.Client, payload map[string]any) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamTransitions,
		Values: payload,
	}).Result()
	return err
}
