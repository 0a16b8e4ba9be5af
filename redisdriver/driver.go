// Package redisdriver implements the denylist over Redis.
package redisdriver

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/alexice92/captcha-tgbot-monteanimals/gate"
)

// DefaultKeyPrefix is the default Redis key prefix to use.
const DefaultKeyPrefix = "chatgate:"

// Driver is a Redis-backed denylist store.
// Entries are gob-encoded under one key per (chat, user) pair, so Redis
// never accumulates the duplicate rows the append-only stores allow;
// the contract's observable behavior is the same.
type Driver struct {
	client redis.UniversalClient

	logger    *slog.Logger
	keyPrefix string
}

// WithLogger sets the logger.
// When not specified, uses slog.Default.
func WithLogger(logger *slog.Logger) func(d *Driver) {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithKeyPrefix sets the Redis key prefix to use.
// When not specified, uses DefaultKeyPrefix.
func WithKeyPrefix(prefix string) func(d *Driver) {
	return func(d *Driver) {
		d.keyPrefix = prefix
	}
}

// NewDriver creates a new Redis driver with the specified client.
func NewDriver(client redis.UniversalClient, opts ...func(d *Driver)) (*Driver, error) {
	err := client.Ping(context.Background()).Err()
	if err != nil {
		return nil, fmt.Errorf(`redisdriver: failed to connect to Redis: %w`, err)
	}

	d := &Driver{
		client: client,

		logger:    slog.Default(),
		keyPrefix: DefaultKeyPrefix,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Close closes the underlying Redis client.
func (d *Driver) Close() error {
	return d.client.Close()
}

func (d *Driver) entryKey(chat, user int64) string {
	return d.keyPrefix + "deny:" + strconv.FormatInt(chat, 10) + ":" + strconv.FormatInt(user, 10)
}

// Add stores the entry. Entries never expire on their own.
func (d *Driver) Add(ctx context.Context, entry gate.Entry) error {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(entry); err != nil {
		return fmt.Errorf(`redisdriver: failed to encode denylist entry: %w`, err)
	}

	err := d.client.Set(ctx, d.entryKey(entry.ChatID, entry.UserID), buf.Bytes(), 0).Err()
	if err != nil {
		return fmt.Errorf(`redisdriver: failed to save denylist entry to Redis: %w`, err)
	}

	return nil
}

// Remove deletes the entry for (chat, user).
func (d *Driver) Remove(ctx context.Context, chat, user int64) (bool, error) {
	delCount, err := d.client.Del(ctx, d.entryKey(chat, user)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf(`redisdriver: failed to delete denylist key for chat %d user %d: %w`, chat, user, err)
	}

	return delCount > 0, nil
}

// Contains reports whether an entry exists for (chat, user).
func (d *Driver) Contains(ctx context.Context, chat, user int64) (bool, error) {
	count, err := d.client.Exists(ctx, d.entryKey(chat, user)).Result()
	if err != nil {
		return false, fmt.Errorf(`redisdriver: failed to check denylist key for chat %d user %d: %w`, chat, user, err)
	}

	return count > 0, nil
}
