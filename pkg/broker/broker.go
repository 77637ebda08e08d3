// Package broker defines the opaque pub/sub contract the pipeline requires
// from its transport: at-least-once delivery of opaque payloads on named
// topics. The concrete transport is external configuration; an in-memory
// implementation backs tests and local runs.
package broker

import "context"

// Publisher publishes payloads onto a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Consumer subscribes to a named topic. The returned channel is closed when
// the broker shuts down.
type Consumer interface {
	Consume(ctx context.Context, topic string) (<-chan []byte, error)
}

// Drain consumes and discards every payload on the topic until the topic
// channel closes or the context is cancelled. Output topics with no external
// consumer must still be drained: an unread topic eventually fills its
// buffer and blocks publishers. It returns the number of payloads discarded.
func Drain(ctx context.Context, consumer Consumer, topic string) (int, error) {
	ch, err := consumer.Consume(ctx, topic)
	if err != nil {
		return 0, err
	}
	count := 0
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return count, nil
			}
			count++
		case <-ctx.Done():
			return count, ctx.Err()
		}
	}
}
