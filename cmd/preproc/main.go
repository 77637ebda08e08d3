// Command preproc runs the OER material preprocessing pipeline: it
// consumes harvested material records, enriches them stage by stage, and
// routes each one to the complete or partial output topic.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/bolts"
	"oer-preproc/pkg/broker"
	"oer-preproc/pkg/config"
	"oer-preproc/pkg/db"
	"oer-preproc/pkg/process"
	"oer-preproc/pkg/spout"
	"oer-preproc/pkg/topology"
	"oer-preproc/pkg/ttp"
	"oer-preproc/pkg/wikifier"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	pg := db.NewPostgresClient(db.PostgresConfig{DSN: cfg.Postgres.DSN})
	if err := pg.Connect(ctx); err != nil {
		return err
	}
	defer pg.Close()

	var archive *db.MaterialArchive
	var archiver bolts.MaterialArchiver
	if cfg.Archive.URI != "" {
		archive = db.NewMaterialArchive(cfg.Archive.URI, cfg.Archive.Database, cfg.Archive.Collection)
		if err := archive.Connect(ctx); err != nil {
			return err
		}
		defer archive.Close(context.Background())
		archiver = archive
	}

	bus := broker.NewMemory(64)
	defer bus.Close()

	source, err := spout.NewBrokerSource(ctx, bus, cfg.Broker.TextTopic)
	if err != nil {
		return err
	}

	// The in-memory bus has no external consumers for the output topics.
	// Without a reader, a full topic buffer would block the sinks and
	// backpressure would stall the whole topology.
	go drainTopic(ctx, bus, cfg.Broker.CompleteTopic)
	go drainTopic(ctx, bus, cfg.Broker.PartialTopic)

	if cfg.FeedSource.URL != "" {
		go feedMaterials(ctx, cfg, bus, archive)
	}

	topo, err := buildTopology(cfg, source, pg, bus, archiver)
	if err != nil {
		return err
	}

	log.Printf("Starting preprocessing pipeline (topic %s)", cfg.Broker.TextTopic)
	return topo.Run(ctx)
}

// buildTopology wires the fixed stage sequence and the two terminal sinks.
// The partial sink subscribes to the partial stream of every stage, so a
// failure at any point is uniformly captured.
func buildTopology(cfg *config.Config, source topology.Source, pg *db.PostgresClient, bus *broker.Memory, archiver bolts.MaterialArchiver) (*topology.Topology, error) {
	store := process.NewPostgresStore(pg, cfg.Postgres.ProcessTable)

	ttpClient := ttp.NewHTTPClient(cfg.TTP.URL, cfg.TTP.User, cfg.TTP.Token, 60*time.Second)
	transcription, err := bolts.NewTranscriptionExtract(ttpClient, store, bolts.TranscriptionConfig{
		Languages:    cfg.TTP.Languages,
		Pivot:        cfg.TTP.Pivot,
		PollInterval: cfg.TTP.PollInterval(),
		PollTimeout:  cfg.TTP.PollTimeout(),
		ScratchDir:   cfg.TTP.ScratchDir,
		TestMode:     cfg.TTP.TestMode,
	})
	if err != nil {
		return nil, err
	}

	annotator := wikifier.NewClient(cfg.Wikifier.URL, cfg.Wikifier.UserKey, 120*time.Second)

	topo := topology.New()
	if err := topo.AddSource("text-input", source); err != nil {
		return nil, err
	}

	workers := cfg.Workers.Default
	steps := []struct {
		name    string
		b       bolt.Bolt
		workers int
		inputs  []topology.Input
	}{
		{"material-format", bolts.NewFormat(), workers,
			[]topology.Input{{Source: "text-input"}}},
		{"material-type", bolts.NewTypeClassify(), workers,
			[]topology.Input{{Source: "material-format"}}},
		{"text-content-extraction", bolts.NewTextExtract(nil, nil), workers,
			[]topology.Input{{Source: "material-type"}}},
		{"text-content-translation", transcription, cfg.Workers.Transcription,
			[]topology.Input{{Source: "text-content-extraction"}}},
		{"wikification", bolts.NewWikify(annotator), workers,
			[]topology.Input{{Source: "text-content-translation"}}},
		{"material-validator", bolts.NewValidate(nil, nil), workers,
			[]topology.Input{{Source: "wikification"}}},
		{"material-complete-topic", bolts.NewCompleteSink(bus, cfg.Broker.CompleteTopic, archiver), workers,
			[]topology.Input{{Source: "material-validator"}}},
		{"material-partial-topic", bolts.NewPartialSink(bus, cfg.Broker.PartialTopic), workers,
			[]topology.Input{
				{Source: "material-format", Stream: bolt.StreamPartial},
				{Source: "material-type", Stream: bolt.StreamPartial},
				{Source: "text-content-extraction", Stream: bolt.StreamPartial},
				{Source: "text-content-translation", Stream: bolt.StreamPartial},
				{Source: "wikification", Stream: bolt.StreamPartial},
				{Source: "material-validator", Stream: bolt.StreamPartial},
				{Source: "material-complete-topic", Stream: bolt.StreamPartial},
			}},
	}
	for _, step := range steps {
		if err := topo.AddBolt(step.name, step.b, step.workers, step.inputs...); err != nil {
			return nil, err
		}
	}
	return topo, nil
}

// drainTopic consumes an output topic for the lifetime of the run so its
// publishers never block on a full buffer.
func drainTopic(ctx context.Context, bus *broker.Memory, topic string) {
	count, err := broker.Drain(ctx, bus, topic)
	if err != nil && ctx.Err() == nil {
		log.Printf("Output topic %s: drain stopped: %v", topic, err)
		return
	}
	log.Printf("Output topic %s: %d materials published", topic, count)
}

// feedMaterials pumps a provider feed onto the text topic for local runs
// without an external broker. Materials already present in the archive are
// skipped.
func feedMaterials(ctx context.Context, cfg *config.Config, bus *broker.Memory, archive *db.MaterialArchive) {
	var skip map[string]bool
	if archive != nil {
		urls, err := archive.ArchivedURLs(ctx)
		if err != nil {
			log.Printf("Feed ingestion: listing archived urls: %v", err)
		} else {
			skip = urls
		}
	}

	feed := spout.NewFeedSource(cfg.FeedSource.URL, cfg.FeedSource.Language, skip)
	count := 0
	for {
		material, err := feed.Next(ctx)
		if err != nil {
			break
		}
		payload, err := json.Marshal(material)
		if err != nil {
			log.Printf("Feed ingestion: encode %s: %v", material.MaterialURL, err)
			continue
		}
		if err := bus.Publish(ctx, cfg.Broker.TextTopic, payload); err != nil {
			log.Printf("Feed ingestion: publish %s: %v", material.MaterialURL, err)
			break
		}
		count++
	}
	log.Printf("Feed ingestion: published %d materials", count)
}
