package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const keyBatchSlot = "pricing:batch:slot:%s"

// releaseSlotScript frees KEYS[1] only while it still holds the lease ARGV[1].
const releaseSlotScript = `
local holder = redis.call("GET", KEYS[1])
if holder ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`

// BatchGate admits one batch calculation per client at a time. A slot is a
// Redis key holding a random lease with a TTL, so a request that dies
// mid-batch gives its slot back after the TTL.
type BatchGate struct {
	client  redis.Cmdable
	release *redis.Script
	ttl     time.Duration
}

func NewBatchGate(client redis.Cmdable, ttl time.Duration) *BatchGate {
	return &BatchGate{
		client:  client,
		release: redis.NewScript(releaseSlotScript),
		ttl:     ttl,
	}
}

// Acquire returns the lease to hand back to Release, or ok=false when the
// client already has a batch in flight.
func (g *BatchGate) Acquire(ctx context.Context, clientID string) (lease string, ok bool, err error) {
	lease = uuid.NewString()
	ok, err = g.client.SetNX(ctx, g.slotKey(clientID), lease, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire batch slot: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return lease, true, nil
}

// Release is a no-op for an empty lease or one that already expired and was
// taken over by a newer batch.
func (g *BatchGate) Release(ctx context.Context, clientID, lease string) error {
	if lease == "" {
		return nil
	}
	err := g.release.Run(ctx, g.client, []string{g.slotKey(clientID)}, lease).Err()
	if err != nil {
		return fmt.Errorf("release batch slot: %w", err)
	}
	return nil
}

func (g *BatchGate) slotKey(clientID string) string {
	return fmt.Sprintf(keyBatchSlot, normalizeClient(clientID))
}
