package broker

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process broker with one buffered channel per topic. It
// implements both Publisher and Consumer.
type Memory struct {
	mu     sync.Mutex
	buffer int
	topics map[string]chan []byte
	closed bool
}

// NewMemory creates an in-memory broker whose topic channels hold up to
// buffer undelivered payloads.
func NewMemory(buffer int) *Memory {
	if buffer < 1 {
		buffer = 1
	}
	return &Memory{
		buffer: buffer,
		topics: make(map[string]chan []byte),
	}
}

// Publish delivers the payload onto the topic, blocking while the topic
// buffer is full.
func (m *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	ch, err := m.channel(topic)
	if err != nil {
		return err
	}
	select {
	case ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns the topic channel. All consumers of a topic share one
// channel, so each payload is delivered to exactly one of them.
func (m *Memory) Consume(ctx context.Context, topic string) (<-chan []byte, error) {
	return m.channel(topic)
}

// Close closes every topic channel. Publishing after Close is an error;
// consumers drain whatever remains buffered.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, ch := range m.topics {
		close(ch)
	}
}

func (m *Memory) channel(topic string) (chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("broker is closed")
	}
	ch, ok := m.topics[topic]
	if !ok {
		ch = make(chan []byte, m.buffer)
		m.topics[topic] = ch
	}
	return ch, nil
}
