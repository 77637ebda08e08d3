package bolts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/content"
	"oer-preproc/pkg/httpclient"
)

// maxMaterialBytes caps how much of a material page is read.
const maxMaterialBytes = 10 << 20

// TextExtract fills the raw text of a material by fetching its URL and
// extracting the readable content. Materials that already carry raw text
// pass through untouched.
type TextExtract struct {
	bolt.Base
	client    *httpclient.HTTPClient
	extractor content.Extractor
}

// NewTextExtract creates the text-extraction stage.
func NewTextExtract(client *httpclient.HTTPClient, extractor content.Extractor) *TextExtract {
	if client == nil {
		client = httpclient.NewClient(httpclient.BrowserClient)
	}
	if extractor == nil {
		extractor = content.NewDefaultExtractor()
	}
	return &TextExtract{client: client, extractor: extractor}
}

// Process extracts the material's raw text, diverting it when the page
// cannot be fetched or yields no readable text.
func (t *TextExtract) Process(ctx context.Context, env bolt.Envelope) (bolt.Emission, error) {
	m := env.Material
	meta := m.EnsureMetadata()

	if meta.RawText != "" {
		return bolt.Main(m), nil
	}
	if m.Type != "" && m.Type != "text" {
		return bolt.Fail(m, t.Name(), fmt.Errorf("no text extractor for material type %q", m.Type)), nil
	}

	htmlContent, err := t.fetch(ctx, m.MaterialURL)
	if err != nil {
		return bolt.Fail(m, t.Name(), err), nil
	}

	text, err := t.extractor.ExtractText(htmlContent)
	if err != nil {
		return bolt.Fail(m, t.Name(), err), nil
	}
	meta.RawText = text

	if m.Title == "" {
		if title, err := t.extractor.ExtractTitle(htmlContent); err == nil {
			m.Title = title
		}
	}

	return bolt.Main(m), nil
}

func (t *TextExtract) fetch(ctx context.Context, materialURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, materialURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch material: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch material: unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMaterialBytes))
	if err != nil {
		return "", fmt.Errorf("read material body: %w", err)
	}
	if len(body) == 0 {
		return "", errors.New("fetch material: empty response")
	}
	return string(body), nil
}
