// Package telemetrybus is an optional live mirror of the facade's
// cached telemetry onto Redis: one hash key overwritten on each poll
// tick plus a companion pub/sub notification, never a history log.
// The core (pkg/loader) has no hard dependency on this package; it
// only drives a narrow interface a *Bus happens to satisfy.
package telemetrybus

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/newpro/autoloader/pkg/telemetry"
)

const (
	// hashKey is overwritten in place each mirror call, never
	// appended to, never historized.
	hashKey    = "autoloader:telemetry"
	channelKey = "autoloader:telemetry:updated"

	fieldElevator = "elevator"
	fieldLoader   = "loader"
	fieldMain     = "main"
)

// Bus wraps one Redis client used both to overwrite the mirrored
// telemetry hash and to publish change notifications.
type Bus struct {
	client *redis.Client
	ctx    context.Context
}

// New connects to addr and verifies reachability with a PING.
func New(addr, password string, db int) (*Bus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("telemetrybus: connect to redis: %w", err)
	}

	return &Bus{client: client, ctx: ctx}, nil
}

// Mirror overwrites the telemetry hash with a CBOR-encoded snapshot,
// one field per decoded structure, and publishes a notification. It
// intentionally discards whatever was in the hash before: this is a
// live mirror, not an append log.
func (b *Bus) Mirror(snapshot telemetry.Snapshot) error {
	elevator, err := cbor.Marshal(snapshot.Elevator)
	if err != nil {
		return fmt.Errorf("telemetrybus: encode elevator axis: %w", err)
	}
	loader, err := cbor.Marshal(snapshot.Loader)
	if err != nil {
		return fmt.Errorf("telemetrybus: encode loader axis: %w", err)
	}
	main, err := cbor.Marshal(snapshot.Main)
	if err != nil {
		return fmt.Errorf("telemetrybus: encode main status: %w", err)
	}

	pipe := b.client.Pipeline()
	pipe.HSet(b.ctx, hashKey, fieldElevator, elevator, fieldLoader, loader, fieldMain, main)
	pipe.Publish(b.ctx, channelKey, "updated")
	if _, err := pipe.Exec(b.ctx); err != nil {
		return fmt.Errorf("telemetrybus: mirror: %w", err)
	}
	return nil
}

// Subscribe returns the mirrored-update channel plus a closer. Each
// received notification means the caller should re-fetch the hash
// (via Latest) rather than trusting the pub/sub payload itself.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *redis.Message, func()) {
	pubsub := b.client.Subscribe(ctx, channelKey)
	return pubsub.Channel(), func() { pubsub.Close() }
}

// Latest reads back the mirrored snapshot's three fields and decodes
// them, for a subscriber that only has a "something changed" ping.
func (b *Bus) Latest() (telemetry.Snapshot, error) {
	fields, err := b.client.HGetAll(b.ctx, hashKey).Result()
	if err != nil {
		return telemetry.Snapshot{}, fmt.Errorf("telemetrybus: read mirror: %w", err)
	}

	var snap telemetry.Snapshot
	if raw, ok := fields[fieldElevator]; ok {
		if err := cbor.Unmarshal([]byte(raw), &snap.Elevator); err != nil {
			return telemetry.Snapshot{}, fmt.Errorf("telemetrybus: decode elevator axis: %w", err)
		}
	}
	if raw, ok := fields[fieldLoader]; ok {
		if err := cbor.Unmarshal([]byte(raw), &snap.Loader); err != nil {
			return telemetry.Snapshot{}, fmt.Errorf("telemetrybus: decode loader axis: %w", err)
		}
	}
	if raw, ok := fields[fieldMain]; ok {
		if err := cbor.Unmarshal([]byte(raw), &snap.Main); err != nil {
			return telemetry.Snapshot{}, fmt.Errorf("telemetrybus: decode main status: %w", err)
		}
	}
	return snap, nil
}

// Close closes the underlying Redis client.
func (b *Bus) Close() error {
	return b.client.Close()
}
