package bolts

import (
	"context"
	"errors"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/domain"
	"oer-preproc/pkg/wikifier"
)

// Wikify annotates the material's raw text with concepts. The concept list
// is always materialized, even when empty, so validation can tell "tagged
// and found nothing" apart from "never tagged".
type Wikify struct {
	bolt.Base
	annotator wikifier.Annotator
}

// NewWikify creates the concept-tagging stage.
func NewWikify(annotator wikifier.Annotator) *Wikify {
	return &Wikify{annotator: annotator}
}

// Process annotates the raw text and accretes the returned concepts.
func (w *Wikify) Process(ctx context.Context, env bolt.Envelope) (bolt.Emission, error) {
	m := env.Material
	meta := m.EnsureMetadata()

	if meta.RawText == "" {
		return bolt.Fail(m, w.Name(), errors.New("material has no raw text")), nil
	}

	concepts, err := w.annotator.Annotate(ctx, meta.RawText, m.Language)
	if err != nil {
		return bolt.Fail(m, w.Name(), err), nil
	}

	if meta.WikipediaConcepts == nil {
		meta.WikipediaConcepts = make([]domain.Concept, 0, len(concepts))
	}
	meta.WikipediaConcepts = append(meta.WikipediaConcepts, concepts...)

	return bolt.Main(m), nil
}
