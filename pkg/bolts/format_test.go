package bolts

import (
	"context"
	"testing"
	"time"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/domain"
)

func TestFormat_NormalizesFields(t *testing.T) {
	stage := NewFormat()
	if err := stage.Init("material-format"); err != nil {
		t.Fatal(err)
	}

	m := &domain.Material{
		Title:       "  Intro to ML  ",
		MaterialURL: " https://example.org/ml ",
		ProviderURI: " https://example.org ",
		Language:    " EN ",
		Author:      " Ada Lovelace ",
	}

	emission, err := stage.Process(context.Background(), bolt.Envelope{Stream: bolt.StreamMain, Material: m})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if emission.Stream != bolt.StreamMain {
		t.Fatalf("Expected main stream, got %s", emission.Stream)
	}

	if m.Title != "Intro to ML" {
		t.Errorf("Title not trimmed: %q", m.Title)
	}
	if m.MaterialURL != "https://example.org/ml" {
		t.Errorf("URL not trimmed: %q", m.MaterialURL)
	}
	if m.Language != "en" {
		t.Errorf("Language not lowercased: %q", m.Language)
	}
	if m.Author != "Ada Lovelace" {
		t.Errorf("Author not trimmed: %q", m.Author)
	}
	if m.Metadata == nil {
		t.Error("Metadata sub-object not initialized")
	}

	if m.DateRetrieved == "" {
		t.Fatal("Expected a default retrieval timestamp")
	}
	if _, err := time.Parse(time.RFC3339, m.DateRetrieved); err != nil {
		t.Errorf("Retrieval timestamp is not RFC3339: %q", m.DateRetrieved)
	}
}

func TestFormat_KeepsExistingRetrievalDate(t *testing.T) {
	stage := NewFormat()
	if err := stage.Init("material-format"); err != nil {
		t.Fatal(err)
	}

	m := &domain.Material{
		MaterialURL:   "https://example.org/ml",
		DateRetrieved: "2026-01-15T10:00:00Z",
	}
	if _, err := stage.Process(context.Background(), bolt.Envelope{Stream: bolt.StreamMain, Material: m}); err != nil {
		t.Fatal(err)
	}
	if m.DateRetrieved != "2026-01-15T10:00:00Z" {
		t.Errorf("Existing retrieval date overwritten: %q", m.DateRetrieved)
	}
}

func TestFormat_NoURLDivertsToPartial(t *testing.T) {
	stage := NewFormat()
	if err := stage.Init("material-format"); err != nil {
		t.Fatal(err)
	}

	m := &domain.Material{Title: "Untraceable", MaterialURL: "   "}
	emission, err := stage.Process(context.Background(), bolt.Envelope{Stream: bolt.StreamMain, Material: m})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if emission.Stream != bolt.StreamPartial {
		t.Errorf("Expected partial stream for a material without a url, got %s", emission.Stream)
	}
	if emission.Material.Message == "" {
		t.Error("Expected a failure message")
	}
}

func TestTypeClassify_ByExtension(t *testing.T) {
	stage := NewTypeClassify()
	if err := stage.Init("material-type"); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		url      string
		wantType string
	}{
		{"https://example.org/lecture.pdf", "text"},
		{"https://example.org/lecture.mp4", "video"},
		{"https://example.org/lecture.mp3?session=1", "audio"},
		{"https://example.org/diagram.png", "image"},
		{"https://example.org/course/intro", "text"},
	}
	for _, tc := range cases {
		m := &domain.Material{MaterialURL: tc.url}
		emission, err := stage.Process(context.Background(), bolt.Envelope{Stream: bolt.StreamMain, Material: m})
		if err != nil {
			t.Fatalf("Process(%s): %v", tc.url, err)
		}
		if emission.Stream != bolt.StreamMain {
			t.Errorf("%s: expected main stream, got %s", tc.url, emission.Stream)
		}
		if m.Type != tc.wantType {
			t.Errorf("%s: expected type %q, got %q", tc.url, tc.wantType, m.Type)
		}
	}
}

func TestTypeClassify_KeepsExistingType(t *testing.T) {
	stage := NewTypeClassify()
	if err := stage.Init("material-type"); err != nil {
		t.Fatal(err)
	}

	m := &domain.Material{MaterialURL: "https://example.org/lecture.mp4", Type: "video-lecture"}
	if _, err := stage.Process(context.Background(), bolt.Envelope{Stream: bolt.StreamMain, Material: m}); err != nil {
		t.Fatal(err)
	}
	if m.Type != "video-lecture" {
		t.Errorf("Existing type overwritten: %q", m.Type)
	}
}
