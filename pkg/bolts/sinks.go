package bolts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/broker"
	"oer-preproc/pkg/domain"
)

// MaterialArchiver stores a document copy of a completed material.
type MaterialArchiver interface {
	UpsertMaterial(ctx context.Context, material *domain.Material) error
}

// CompleteSink publishes fully validated materials to the complete topic
// and upserts a copy into the material archive. It is terminal: its main
// emission has no subscribers, but a failed publish still surfaces on its
// partial stream so the failure-telemetry sink captures it.
type CompleteSink struct {
	bolt.Base
	publisher broker.Publisher
	topic     string
	archive   MaterialArchiver
}

// NewCompleteSink creates the complete-materials sink. The archive is
// optional; pass nil to publish only.
func NewCompleteSink(publisher broker.Publisher, topic string, archive MaterialArchiver) *CompleteSink {
	return &CompleteSink{publisher: publisher, topic: topic, archive: archive}
}

// Process publishes the material as JSON and archives it.
func (s *CompleteSink) Process(ctx context.Context, env bolt.Envelope) (bolt.Emission, error) {
	m := env.Material

	payload, err := json.Marshal(m)
	if err != nil {
		return bolt.Fail(m, s.Name(), fmt.Errorf("encode material: %w", err)), nil
	}
	if err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		return bolt.Fail(m, s.Name(), fmt.Errorf("publish to %s: %w", s.topic, err)), nil
	}

	if s.archive != nil {
		// The topic publish is authoritative; an archive miss is logged and
		// repaired by the next redundant delivery.
		if err := s.archive.UpsertMaterial(ctx, m); err != nil {
			log.Printf("Stage %s: archiving %s failed: %v", s.Name(), m.MaterialURL, err)
		}
	}

	return bolt.Main(m), nil
}

// PartialSink publishes partially processed materials to the partial topic.
// It subscribes to the partial stream of every stage in the topology, so a
// failure anywhere is uniformly captured.
type PartialSink struct {
	bolt.Base
	publisher broker.Publisher
	topic     string
}

// NewPartialSink creates the partial-materials sink.
func NewPartialSink(publisher broker.Publisher, topic string) *PartialSink {
	return &PartialSink{publisher: publisher, topic: topic}
}

// Process publishes the material as JSON. Publishing here is the last
// resort for a material, so a publish error is logged rather than diverted
// further; there is nowhere left to route.
func (s *PartialSink) Process(ctx context.Context, env bolt.Envelope) (bolt.Emission, error) {
	m := env.Material

	payload, err := json.Marshal(m)
	if err != nil {
		log.Printf("Stage %s: encode material %s: %v", s.Name(), m.MaterialURL, err)
		return bolt.Main(m), nil
	}
	if err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		log.Printf("Stage %s: publish material %s to %s: %v", s.Name(), m.MaterialURL, s.topic, err)
	}
	return bolt.Main(m), nil
}
