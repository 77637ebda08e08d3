// Package bolt defines the stage contract every pipeline stage implements:
// a lifecycle of Init, Process, Heartbeat and Shutdown, and an emission
// discipline of exactly one emission per accepted material, onto either the
// main stream or the partial stream.
package bolt

import (
	"context"
	"fmt"

	"oer-preproc/pkg/domain"
)

// Stream identifies a named output stream of a stage. Routing uses the
// stream id only; it is never persisted with the material.
type Stream string

const (
	// StreamMain carries materials that the stage processed successfully.
	StreamMain Stream = "main"
	// StreamPartial carries materials whose processing stopped early.
	// A distinguished sink subscribes to every stage's partial stream.
	StreamPartial Stream = "partial"
)

// Envelope wraps a material with the stream it arrived on.
type Envelope struct {
	Stream   Stream
	Material *domain.Material
}

// Emission is the tagged result of processing a single material: the stream
// to route it onto and the (possibly enriched) material itself. Process
// returns it instead of invoking a passed-in continuation, so the router can
// enforce the exactly-once discipline structurally.
type Emission struct {
	Stream   Stream
	Material *domain.Material
}

// Bolt is a single transformation stage.
//
// Process must account for every material it accepts with exactly one
// emission: never zero (the material would be lost) and never more than one
// (it would be duplicated). Side effects must be safe to retry, since the
// upstream transport delivers at least once.
type Bolt interface {
	// Init prepares the stage under its topology-assigned name.
	Init(name string) error

	// Process transforms one material and returns its routing decision.
	Process(ctx context.Context, env Envelope) (Emission, error)

	// Heartbeat is called periodically for liveness reporting. It must not
	// block.
	Heartbeat()

	// Shutdown drains and releases resources. After it returns, the stage
	// must have completed every emission it owes.
	Shutdown(ctx context.Context) error
}

// Forward routes the material onward on the stream it arrived on.
func Forward(env Envelope) Emission {
	return Emission{Stream: env.Stream, Material: env.Material}
}

// Main routes the material onto the main stream.
func Main(m *domain.Material) Emission {
	return Emission{Stream: StreamMain, Material: m}
}

// Partial routes the material onto the partial stream.
func Partial(m *domain.Material) Emission {
	return Emission{Stream: StreamPartial, Material: m}
}

// Fail records a stage-prefixed failure message on the material and routes
// it onto the partial stream. The prefix names the originating stage so the
// failure can be diagnosed after the fact.
func Fail(m *domain.Material, stage string, err error) Emission {
	m.Message = fmt.Sprintf("[%s] %v", stage, err)
	return Partial(m)
}

// Base provides the common Init/Heartbeat/Shutdown plumbing so concrete
// stages only implement Process. The assigned name is available through
// Name after Init.
type Base struct {
	name string
}

// Init records the topology-assigned stage name.
func (b *Base) Init(name string) error {
	b.name = name
	return nil
}

// Name returns the stage name assigned at topology construction.
func (b *Base) Name() string {
	return b.name
}

// Heartbeat is a no-op for stages without liveness state.
func (b *Base) Heartbeat() {}

// Shutdown is a no-op for stages without resources to release.
func (b *Base) Shutdown(ctx context.Context) error {
	return nil
}
