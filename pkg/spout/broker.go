// Package spout provides the topology's entry sources: a broker-backed
// source for production topics and a feed-backed source for local runs.
package spout

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"oer-preproc/pkg/broker"
	"oer-preproc/pkg/domain"
)

// BrokerSource feeds the topology from one broker topic, decoding each
// payload as a material document.
type BrokerSource struct {
	topic string
	ch    <-chan []byte
}

// NewBrokerSource subscribes to the topic and returns a source over it.
func NewBrokerSource(ctx context.Context, consumer broker.Consumer, topic string) (*BrokerSource, error) {
	ch, err := consumer.Consume(ctx, topic)
	if err != nil {
		return nil, err
	}
	return &BrokerSource{topic: topic, ch: ch}, nil
}

// Next blocks for the next material. It returns io.EOF when the topic
// channel closes. Payloads that fail to decode are logged and skipped; a
// malformed message must not stall the topic.
func (s *BrokerSource) Next(ctx context.Context) (*domain.Material, error) {
	for {
		select {
		case payload, ok := <-s.ch:
			if !ok {
				return nil, io.EOF
			}
			var material domain.Material
			if err := json.Unmarshal(payload, &material); err != nil {
				log.Printf("Source topic %s: skipping undecodable payload: %v", s.topic, err)
				continue
			}
			return &material, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
