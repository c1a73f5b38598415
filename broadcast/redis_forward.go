package broadcast

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"trivion/logging"
)

// event is the wire shape forwarded to the external broker — the same
// {tag, payload} frame shape clients see over the socket.
type event struct {
	Tag     string `json:"tag"`
	Payload any    `json:"payload"`
}

// RedisForwarder wraps a Bus so that, in addition to the normal
// in-process fan-out, every emission is PUBLISHed on a per-room Redis
// channel. This is the horizontal-scaling hook: a second process
// subscribing to the same channels could fan events out to a disjoint
// set of sockets for the same logical room. When no PUBSUB_URL is
// configured this type is never constructed and the Bus is used
// directly — there is no Redis dependency at runtime in that mode.
type RedisForwarder struct {
	*Bus
	client *redis.Client
	log    *logging.Logger
}

// NewRedisForwarder wraps bus with forwarding through client.
func NewRedisForwarder(bus *Bus, client *redis.Client, log *logging.Logger) *RedisForwarder {
	return &RedisForwarder{Bus: bus, client: client, log: log}
}

// Emit delegates to the in-process bus, then best-effort publishes to
// Redis. A publish failure never affects in-process delivery — it is
// logged and swallowed, matching the "external pub/sub fabric" being
// an optional scaling hook rather than a dependency of correctness.
func (f *RedisForwarder) Emit(roomCode string, tag string, payload any) {
	f.Bus.Emit(roomCode, tag, payload)

	data, err := json.Marshal(event{Tag: tag, Payload: payload})
	if err != nil {
		f.log.Warnw("pubsub marshal failed", "room", roomCode, "tag", tag, "err", err)
		return
	}
	if err := f.client.Publish(context.Background(), channelFor(roomCode), data).Err(); err != nil {
		f.log.Warnw("pubsub publish failed", "room", roomCode, "tag", tag, "err", err)
	}
}

func channelFor(roomCode string) string {
	return "trivion:room:" + roomCode
}
