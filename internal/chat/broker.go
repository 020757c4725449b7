package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Broker fans chat events out to every subscriber of a channel.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe delivers events for channelID until cancel is called or ctx ends. The returned
	// channel is closed afterwards.
	Subscribe(ctx context.Context, channelID string) (events <-chan Event, cancel func(), err error)
}

const subscriberBuffer = 32

// MemoryBroker is an in-process Broker. A subscriber whose buffer is full misses events.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
	log  *zap.Logger
}

func NewMemoryBroker(log *zap.Logger) *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan Event]struct{}), log: log}
}

func (b *MemoryBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.ChannelID] {
		select {
		case ch <- ev:
		default:
			b.log.Warn("chat subscriber lagging, event dropped", zap.String("channel_id", ev.ChannelID))
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channelID string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.subs[channelID] == nil {
		b.subs[channelID] = make(map[chan Event]struct{})
	}
	b.subs[channelID][ch] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[channelID], ch)
			if len(b.subs[channelID]) == 0 {
				delete(b.subs, channelID)
			}
			b.mu.Unlock()
			close(ch)
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return ch, cancel, nil
}

func (b *MemoryBroker) subscribers(channelID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channelID])
}

// RedisBroker fans out through Redis Pub/Sub so every API instance sees every post.
type RedisBroker struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedisBroker(rdb *redis.Client, log *zap.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, log: log}
}

func topic(channelID string) string { return "chat:channel:" + channelID }

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, topic(ev.ChannelID), payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, channelID string) (<-chan Event, func(), error) {
	ps := b.rdb.Subscribe(ctx, topic(channelID))
	// Wait for the subscription to be confirmed so no publish is missed after we return.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(done) }) }

	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad chat event on redis", zap.String("channel", m.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				default:
					b.log.Warn("chat subscriber lagging, event dropped", zap.String("channel_id", channelID))
				}
			}
		}
	}()
	return out, cancel, nil
}
