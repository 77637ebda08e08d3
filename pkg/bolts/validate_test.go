package bolts

import (
	"context"
	"encoding/json"
	"testing"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/domain"
)

func validMaterial() *domain.Material {
	return &domain.Material{
		Title:       "Introduction to Machine Learning",
		ProviderURI: "https://provider.example.org",
		MaterialURL: "https://provider.example.org/ml-intro",
		Language:    "en",
		Provider:    &domain.ProviderMetadata{Title: "Provider", URL: "https://provider.example.org"},
		Metadata: &domain.MaterialMetadata{
			RawText:           "Machine learning is the study of algorithms.",
			WikipediaConcepts: []domain.Concept{},
		},
	}
}

func TestValidate_CompleteMaterialRoutesToMain(t *testing.T) {
	stage := NewValidate(nil, nil)
	if err := stage.Init("material-validator"); err != nil {
		t.Fatal(err)
	}

	emission, err := stage.Process(context.Background(), bolt.Envelope{Stream: bolt.StreamMain, Material: validMaterial()})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if emission.Stream != bolt.StreamMain {
		t.Errorf("Expected main stream, got %s", emission.Stream)
	}
}

func TestValidate_IncompleteMaterialRoutesToPartialUnchanged(t *testing.T) {
	stage := NewValidate(nil, nil)
	if err := stage.Init("material-validator"); err != nil {
		t.Fatal(err)
	}

	m := validMaterial()
	m.Metadata.WikipediaConcepts = nil
	before, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}

	emission, procErr := stage.Process(context.Background(), bolt.Envelope{Stream: bolt.StreamMain, Material: m})
	if procErr != nil {
		t.Fatalf("Process: %v", procErr)
	}
	if emission.Stream != bolt.StreamPartial {
		t.Fatalf("Expected partial stream, got %s", emission.Stream)
	}

	after, err := json.Marshal(emission.Material)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("Validation must not mutate the material:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestValidate_PreservesUpstreamFailureMessage(t *testing.T) {
	stage := NewValidate(nil, nil)
	if err := stage.Init("material-validator"); err != nil {
		t.Fatal(err)
	}

	m := validMaterial()
	m.Provider = nil
	m.Message = "[text-content-extraction] fetch failed"

	emission, err := stage.Process(context.Background(), bolt.Envelope{Stream: bolt.StreamPartial, Material: m})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if emission.Stream != bolt.StreamPartial {
		t.Fatalf("Expected partial stream, got %s", emission.Stream)
	}
	if emission.Material.Message != "[text-content-extraction] fetch failed" {
		t.Errorf("Validation overwrote the upstream failure message: %q", emission.Material.Message)
	}
}
