package bolts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/domain"
	"oer-preproc/pkg/process"
	"oer-preproc/pkg/ttp"
)

// TranscriptionConfig configures the transcription-extraction stage. It is
// validated once, at topology-construction time.
type TranscriptionConfig struct {
	// Languages is the supported language set. Materials in any other
	// origin language pass through untouched.
	Languages []string

	// Pivot is the intermediate language for two-hop translation paths.
	// Defaults to ttp.DefaultPivot.
	Pivot string

	// Formats are the requested output formats. Defaults to plain text.
	Formats []ttp.Format

	// PollInterval is the fixed delay between status checks.
	PollInterval time.Duration

	// PollTimeout bounds the total polling duration for one job. Expiry is
	// a failure, not a longer wait.
	PollTimeout time.Duration

	// ScratchDir is the root under which per-job package directories are
	// created.
	ScratchDir string

	// TestMode is forwarded in the job manifest.
	TestMode bool
}

func (c *TranscriptionConfig) validate() error {
	if len(c.Languages) == 0 {
		return errors.New("transcription config: no supported languages")
	}
	for _, lang := range c.Languages {
		if len(lang) != 2 {
			return fmt.Errorf("transcription config: %q is not a 2-letter language code", lang)
		}
	}
	if c.Pivot == "" {
		c.Pivot = ttp.DefaultPivot
	}
	if len(c.Formats) == 0 {
		c.Formats = []ttp.Format{ttp.PlainFormat}
	}
	if c.PollInterval <= 0 {
		return errors.New("transcription config: poll interval must be positive")
	}
	if c.PollTimeout <= 0 {
		return errors.New("transcription config: poll timeout must be positive")
	}
	if c.ScratchDir == "" {
		c.ScratchDir = os.TempDir()
	}
	return nil
}

// TranscriptionExtract submits a material's raw text to the external
// transcription and translation platform, awaits completion, and merges the
// per-language outputs into the material metadata. Job state is persisted
// by material URL as a whole-row upsert, so redundant deliveries of the
// same material are idempotent.
type TranscriptionExtract struct {
	bolt.Base
	cfg    TranscriptionConfig
	client ttp.Client
	store  process.Store
	poller ttp.Poller
}

// NewTranscriptionExtract creates the transcription-extraction stage. The
// platform client and process store are explicit dependencies so the stage
// is testable with fakes.
func NewTranscriptionExtract(client ttp.Client, store process.Store, cfg TranscriptionConfig) (*TranscriptionExtract, error) {
	if client == nil {
		return nil, errors.New("transcription stage: client is required")
	}
	if store == nil {
		return nil, errors.New("transcription stage: process store is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &TranscriptionExtract{
		cfg:    cfg,
		client: client,
		store:  store,
		poller: ttp.Poller{Interval: cfg.PollInterval, Timeout: cfg.PollTimeout},
	}, nil
}

// Process runs the full job lifecycle for one material: package, persist,
// submit, poll, fetch, merge. Every failure path ends in a partial emission
// carrying the stage name, the error, and the job id when one exists.
func (t *TranscriptionExtract) Process(ctx context.Context, env bolt.Envelope) (bolt.Emission, error) {
	m := env.Material

	if !t.supported(m.Language) {
		// Not a failure: the material simply has nothing to transcribe here.
		return bolt.Main(m), nil
	}

	meta := m.EnsureMetadata()
	if meta.RawText == "" {
		return bolt.Fail(m, t.Name(), errors.New("material has no raw text")), nil
	}

	externalID := ttp.NewExternalID()
	manifest := ttp.Manifest{
		Language: m.Language,
		Documents: []ttp.Document{{
			ExternalID: externalID,
			Title:      ttp.NormalizeTitle(m.Title),
			Filename:   "material.txt",
			FileFormat: "txt",
			MD5:        ttp.Checksum(meta.RawText),
		}},
		RequestedLangs: ttp.TranslationPlan(m.Language, t.cfg.Pivot, t.cfg.Languages),
		TestMode:       t.cfg.TestMode,
	}

	pkg, err := ttp.BuildPackage(t.cfg.ScratchDir, externalID, meta.RawText, manifest)
	if err != nil {
		return bolt.Fail(m, t.Name(), err), nil
	}
	defer func() {
		// Best-effort: the directory is job-scoped, so a leftover cannot
		// corrupt later runs.
		if err := pkg.Cleanup(); err != nil {
			log.Printf("Stage %s: cleanup of %s failed: %v", t.Name(), pkg.Dir, err)
		}
	}()

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return bolt.Fail(m, t.Name(), fmt.Errorf("encode manifest: %w", err)), nil
	}
	state := process.State{
		URL:       m.MaterialURL,
		Stage:     process.StageSubmitted,
		Manifest:  manifestJSON,
		StartedAt: time.Now().UTC(),
	}
	if err := t.store.Upsert(ctx, state); err != nil {
		// A store outage fails this material, not the stage: unrelated
		// materials must keep draining.
		return bolt.Fail(m, t.Name(), err), nil
	}

	jobID, err := t.client.Submit(ctx, manifest, pkg.ArchivePath)
	if err != nil {
		return t.fail(ctx, m, state, err), nil
	}

	if _, err := t.poller.Await(ctx, t.client, jobID); err != nil {
		return t.fail(ctx, m, state, err), nil
	}

	transcriptions, primary, err := t.fetchOutputs(ctx, jobID, m.Language)
	if err != nil {
		return t.fail(ctx, m, state, err), nil
	}

	meta.Transcriptions = transcriptions
	if primary != "" {
		meta.RawText = primary
	}

	state.Stage = process.StageFinished
	state.FinishedAt = time.Now().UTC()
	if err := t.store.Update(ctx, state); err != nil {
		return bolt.Fail(m, t.Name(), err), nil
	}

	return bolt.Main(m), nil
}

// fetchOutputs retrieves every configured language/format output of a
// completed job. The output matching the material's origin language in
// plain format becomes the primary raw text.
func (t *TranscriptionExtract) fetchOutputs(ctx context.Context, jobID, origin string) (map[string]map[string]string, string, error) {
	transcriptions := make(map[string]map[string]string, len(t.cfg.Languages))
	primary := ""

	for _, lang := range t.cfg.Languages {
		outputs := make(map[string]string, len(t.cfg.Formats))
		for _, format := range t.cfg.Formats {
			text, err := t.client.Fetch(ctx, jobID, lang, format)
			if err != nil {
				return nil, "", fmt.Errorf("fetch %s/%s output: %w", lang, format.Name, err)
			}
			outputs[format.Name] = text
		}
		transcriptions[lang] = outputs
		if lang == origin {
			primary = outputs[ttp.PlainFormat.Name]
		}
	}
	return transcriptions, primary, nil
}

// fail records the failure in the process store and diverts the material.
// A store error at this point is logged, not surfaced: the material already
// carries the primary failure.
func (t *TranscriptionExtract) fail(ctx context.Context, m *domain.Material, state process.State, cause error) bolt.Emission {
	state.Stage = process.StageFailed
	state.FinishedAt = time.Now().UTC()
	if err := t.store.Update(ctx, state); err != nil {
		log.Printf("Stage %s: recording failure for %s: %v", t.Name(), state.URL, err)
	}
	return bolt.Fail(m, t.Name(), cause)
}

func (t *TranscriptionExtract) supported(language string) bool {
	for _, lang := range t.cfg.Languages {
		if lang == language {
			return true
		}
	}
	return false
}
