package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broker carries room frames between API processes.
type Broker interface {
	Publish(ctx context.Context, room string, frame []byte) error
	// Subscribe delivers every published frame until ctx ends.
	Subscribe(ctx context.Context, deliver func(room string, frame []byte)) error
}

// localBroker delivers in-process only.
type localBroker struct {
	deliver func(room string, frame []byte)
}

func (b *localBroker) Publish(_ context.Context, room string, frame []byte) error {
	b.deliver(room, frame)
	return nil
}

func (b *localBroker) Subscribe(ctx context.Context, _ func(string, []byte)) error {
	<-ctx.Done()
	return nil
}

const relayChannel = "distal:relay"

type relayEnvelope struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame"`
}

// RedisBroker fans frames out through Redis pub/sub so every API process sees them.
type RedisBroker struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisBroker(rdb *redis.Client, log *zap.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, channel: relayChannel, log: log.Named("relay")}
}

func (b *RedisBroker) Publish(ctx context.Context, room string, frame []byte) error {
	data, err := json.Marshal(relayEnvelope{Room: room, Frame: frame})
	if err != nil {
		return fmt.Errorf("encode relay envelope: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, deliver func(room string, frame []byte)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.log.Info("relay subscribed", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn("dropping malformed relay envelope", zap.Error(err))
				continue
			}
			deliver(env.Room, env.Frame)
		}
	}
}
