// Package topology wires bolts into a directed graph of named stages.
// Each stage declares which upstream stages and which of their output
// streams it consumes; the router delivers every emission to all declared
// subscribers of that (stage, stream) pair. The router performs no business
// logic and guarantees no ordering across distinct materials.
package topology

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/domain"
)

// DefaultHeartbeat is the default liveness-check interval.
const DefaultHeartbeat = 2 * time.Second

// Source feeds materials into the topology. Next returns io.EOF when the
// source is drained; a broker-backed source blocks until a message arrives
// or the context is cancelled.
type Source interface {
	Next(ctx context.Context) (*domain.Material, error)
}

// Input declares a subscription to one named stream of an upstream stage
// or source. Sources publish on the main stream only.
type Input struct {
	Source string
	Stream bolt.Stream
}

// node is a bolt plus its wiring state inside a running topology.
type node struct {
	name    string
	b       bolt.Bolt
	workers int
	inputs  []Input
	in      chan bolt.Envelope

	mu      sync.Mutex
	pending int // upstream publishers that have not yet finished
}

// Topology is a directed graph of sources and bolts. Stages must be added
// after every stage they subscribe to, which keeps the graph acyclic and
// gives Run a topological order for free.
type Topology struct {
	// Heartbeat overrides the liveness-check interval when set.
	Heartbeat time.Duration

	sources map[string]Source
	nodes   map[string]*node
	order   []string
}

// New creates an empty topology.
func New() *Topology {
	return &Topology{
		sources: make(map[string]Source),
		nodes:   make(map[string]*node),
	}
}

// AddSource registers a source under a unique name.
func (t *Topology) AddSource(name string, src Source) error {
	if err := t.checkName(name); err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("source %q is nil", name)
	}
	t.sources[name] = src
	return nil
}

// AddBolt registers a bolt under a unique name with its stream
// subscriptions. Every input must reference an already-registered source or
// bolt. Inputs with an empty stream subscribe to main.
func (t *Topology) AddBolt(name string, b bolt.Bolt, workers int, inputs ...Input) error {
	if err := t.checkName(name); err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("bolt %q is nil", name)
	}
	if workers < 1 {
		workers = 1
	}
	if len(inputs) == 0 {
		return fmt.Errorf("bolt %q has no inputs", name)
	}
	for i := range inputs {
		if inputs[i].Stream == "" {
			inputs[i].Stream = bolt.StreamMain
		}
		if !t.exists(inputs[i].Source) {
			return fmt.Errorf("bolt %q subscribes to unknown stage %q", name, inputs[i].Source)
		}
		if _, isSource := t.sources[inputs[i].Source]; isSource && inputs[i].Stream != bolt.StreamMain {
			return fmt.Errorf("bolt %q subscribes to stream %q of source %q; sources publish on main only", name, inputs[i].Stream, inputs[i].Source)
		}
	}
	t.nodes[name] = &node{name: name, b: b, workers: workers, inputs: inputs}
	t.order = append(t.order, name)
	return nil
}

func (t *Topology) checkName(name string) error {
	if name == "" {
		return fmt.Errorf("stage name is empty")
	}
	if t.exists(name) {
		return fmt.Errorf("stage %q already registered", name)
	}
	return nil
}

func (t *Topology) exists(name string) bool {
	if _, ok := t.sources[name]; ok {
		return true
	}
	_, ok := t.nodes[name]
	return ok
}

// Run initializes every bolt, starts the stage workers and sources, and
// blocks until every source is drained and every in-flight material has
// left the pipeline. Bolts are shut down in reverse registration order.
func (t *Topology) Run(ctx context.Context) error {
	if len(t.sources) == 0 {
		return fmt.Errorf("topology has no sources")
	}
	if len(t.order) == 0 {
		return fmt.Errorf("topology has no bolts")
	}

	for _, name := range t.order {
		if err := t.nodes[name].b.Init(name); err != nil {
			return fmt.Errorf("init stage %q: %w", name, err)
		}
	}

	subscribers := t.buildSubscriberIndex()
	t.createChannels()

	heartbeatDone := make(chan struct{})
	go t.runHeartbeat(heartbeatDone)

	var wg sync.WaitGroup
	for _, name := range t.order {
		t.startNode(ctx, t.nodes[name], subscribers, &wg)
	}
	for name, src := range t.sources {
		t.startSource(ctx, name, src, subscribers, &wg)
	}

	wg.Wait()
	close(heartbeatDone)

	return t.shutdown(ctx)
}

// buildSubscriberIndex maps each (publisher, stream) pair to the nodes
// subscribed to it.
func (t *Topology) buildSubscriberIndex() map[Input][]*node {
	subscribers := make(map[Input][]*node)
	for _, name := range t.order {
		n := t.nodes[name]
		for _, input := range n.inputs {
			subscribers[input] = append(subscribers[input], n)
		}
	}
	return subscribers
}

// createChannels allocates the input channel of every node and counts its
// distinct upstream publishers, so the channel can be closed exactly when
// the last of them finishes.
func (t *Topology) createChannels() {
	for _, name := range t.order {
		n := t.nodes[name]
		n.in = make(chan bolt.Envelope, n.workers*2)
		publishers := make(map[string]bool)
		for _, input := range n.inputs {
			publishers[input.Source] = true
		}
		n.pending = len(publishers)
	}
}

// startSource pumps materials from a source onto its subscribers' inputs.
func (t *Topology) startSource(ctx context.Context, name string, src Source, subscribers map[Input][]*node, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer t.finishPublisher(name)

		for {
			material, err := src.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Source %s: error reading next material: %v", name, err)
				return
			}
			if material == nil {
				continue
			}
			t.deliver(ctx, name, bolt.Emission{Stream: bolt.StreamMain, Material: material}, subscribers)
		}
	}()
}

// startNode starts the worker goroutines of one stage. Each worker drains
// the stage input channel; multiple in-flight materials per stage are the
// normal case, so a stage that suspends on external I/O only suspends the
// in-flight material, not the whole stage.
func (t *Topology) startNode(ctx context.Context, n *node, subscribers map[Input][]*node, wg *sync.WaitGroup) {
	var nodeWg sync.WaitGroup
	for i := 0; i < n.workers; i++ {
		nodeWg.Add(1)
		wg.Add(1)
		go func(workerID int) {
			defer nodeWg.Done()
			defer wg.Done()
			for env := range n.in {
				t.processEnvelope(ctx, n, workerID, env, subscribers)
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		nodeWg.Wait()
		t.finishPublisher(n.name)
	}()
}

// processEnvelope runs one material through a stage and delivers the
// resulting emission. A process error is never a dead end: the material is
// diverted to the partial stream carrying the stage name and the error.
func (t *Topology) processEnvelope(ctx context.Context, n *node, workerID int, env bolt.Envelope, subscribers map[Input][]*node) {
	emission, err := n.b.Process(ctx, env)
	if err != nil {
		log.Printf("Stage %s (worker %d): process error: %v", n.name, workerID, err)
		if emission.Material == nil {
			emission.Material = env.Material
		}
		emission = bolt.Fail(emission.Material, n.name, err)
	}
	if emission.Material == nil {
		// A nil emission would silently lose the material; divert it instead.
		log.Printf("Stage %s (worker %d): nil emission, diverting input to partial", n.name, workerID)
		emission = bolt.Fail(env.Material, n.name, fmt.Errorf("stage returned no material"))
	}
	t.deliver(ctx, n.name, emission, subscribers)
}

// deliver fans an emission out to every subscriber of (publisher, stream).
// Subscribers after the first receive a deep copy, so no two stages ever
// share mutable state. An emission with no subscribers leaves the pipeline.
func (t *Topology) deliver(ctx context.Context, publisher string, emission bolt.Emission, subscribers map[Input][]*node) {
	subs := subscribers[Input{Source: publisher, Stream: emission.Stream}]
	// Clone before any send: once a subscriber holds the material its worker
	// may start mutating it.
	materials := make([]*domain.Material, len(subs))
	for i := range subs {
		if i == 0 {
			materials[i] = emission.Material
			continue
		}
		materials[i] = emission.Material.Clone()
	}
	for i, sub := range subs {
		select {
		case sub.in <- bolt.Envelope{Stream: emission.Stream, Material: materials[i]}:
		case <-ctx.Done():
			log.Printf("Stage %s: context cancelled while delivering to %s", publisher, sub.name)
			return
		}
	}
}

// finishPublisher marks one upstream publisher as done for every node it
// feeds, closing the node input once its last publisher finishes.
func (t *Topology) finishPublisher(publisher string) {
	for _, name := range t.order {
		n := t.nodes[name]
		feeds := false
		for _, input := range n.inputs {
			if input.Source == publisher {
				feeds = true
				break
			}
		}
		if !feeds {
			continue
		}
		n.mu.Lock()
		n.pending--
		if n.pending == 0 {
			close(n.in)
		}
		n.mu.Unlock()
	}
}

// runHeartbeat invokes every bolt's liveness check on a fixed interval
// until the topology drains.
func (t *Topology) runHeartbeat(done <-chan struct{}) {
	interval := t.Heartbeat
	if interval <= 0 {
		interval = DefaultHeartbeat
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, name := range t.order {
				t.nodes[name].b.Heartbeat()
			}
		case <-done:
			return
		}
	}
}

// shutdown releases stage resources in reverse registration order once the
// pipeline has drained.
func (t *Topology) shutdown(ctx context.Context) error {
	var firstErr error
	for i := len(t.order) - 1; i >= 0; i-- {
		name := t.order[i]
		if err := t.nodes[name].b.Shutdown(ctx); err != nil {
			log.Printf("Stage %s: shutdown error: %v", name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown stage %q: %w", name, err)
			}
		}
	}
	return firstErr
}
