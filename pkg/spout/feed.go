package spout

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/mmcdole/gofeed"

	"oer-preproc/pkg/domain"
)

// FeedSource builds material stubs from a provider's RSS/Atom listing.
// It is the local-ingestion stand-in for the harvested broker topic: each
// feed item becomes one material with its identity and descriptive fields
// set, leaving the derived metadata for the pipeline to accrete.
type FeedSource struct {
	feedURL  string
	language string
	skip     map[string]bool

	parsed    bool
	materials []*domain.Material
}

// NewFeedSource creates a source over the given feed. Materials whose URL
// is in skip are not emitted; pass nil to emit everything.
func NewFeedSource(feedURL, language string, skip map[string]bool) *FeedSource {
	return &FeedSource{feedURL: feedURL, language: language, skip: skip}
}

// Next returns the next material from the feed, parsing it on first use.
// It returns io.EOF once every item has been emitted.
func (s *FeedSource) Next(ctx context.Context) (*domain.Material, error) {
	if !s.parsed {
		if err := s.parse(ctx); err != nil {
			return nil, err
		}
	}
	if len(s.materials) == 0 {
		return nil, io.EOF
	}
	material := s.materials[0]
	s.materials = s.materials[1:]
	return material, nil
}

func (s *FeedSource) parse(ctx context.Context) error {
	s.parsed = true

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return fmt.Errorf("parse feed %s: %w", s.feedURL, err)
	}

	provider := &domain.ProviderMetadata{Title: feed.Title, URL: feed.Link}
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		if s.skip[item.Link] {
			continue
		}
		material := &domain.Material{
			Title:       item.Title,
			Description: item.Description,
			MaterialURL: item.Link,
			ProviderURI: feed.Link,
			Language:    s.language,
			DateCreated: item.Published,
			Provider:    provider.Clone(),
		}
		switch {
		case len(item.Authors) > 0 && item.Authors[0] != nil:
			material.Author = item.Authors[0].Name
		case item.Author != nil:
			material.Author = item.Author.Name
		}
		s.materials = append(s.materials, material)
	}

	log.Printf("Source feed %s: queued %d materials", s.feedURL, len(s.materials))
	return nil
}
