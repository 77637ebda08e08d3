// Package bolts contains the concrete pipeline stages: field
// normalization, type classification, text extraction, transcription
// extraction, concept tagging, validation, and the two terminal sinks.
package bolts

import (
	"context"
	"errors"
	"strings"
	"time"

	"oer-preproc/pkg/bolt"
)

// Format normalizes a freshly harvested material: trims the descriptive
// fields, lowercases the language code, defaults the retrieval timestamp
// and initializes the metadata sub-object so downstream stages can accrete
// into it. A material with no URL has no identity and is diverted.
type Format struct {
	bolt.Base
}

// NewFormat creates the format-normalization stage.
func NewFormat() *Format {
	return &Format{}
}

// Process normalizes the material in place and forwards it.
func (f *Format) Process(ctx context.Context, env bolt.Envelope) (bolt.Emission, error) {
	m := env.Material

	m.MaterialURL = strings.TrimSpace(m.MaterialURL)
	if m.MaterialURL == "" {
		return bolt.Fail(m, f.Name(), errors.New("material has no url")), nil
	}

	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)
	m.Author = strings.TrimSpace(m.Author)
	m.ProviderURI = strings.TrimSpace(m.ProviderURI)
	m.Language = strings.ToLower(strings.TrimSpace(m.Language))
	m.License = strings.TrimSpace(m.License)

	if m.DateRetrieved == "" {
		m.DateRetrieved = time.Now().UTC().Format(time.RFC3339)
	}
	m.EnsureMetadata()

	return bolt.Main(m), nil
}
