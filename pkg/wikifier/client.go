// Package wikifier annotates raw text with concepts from an external
// wikification service.
package wikifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"oer-preproc/pkg/domain"
	"oer-preproc/pkg/httpclient"
)

// Annotator extracts concept annotations from raw text.
type Annotator interface {
	Annotate(ctx context.Context, text, lang string) ([]domain.Concept, error)
}

// Client calls the wikification service's annotate endpoint.
type Client struct {
	endpoint string
	userKey  string
	http     *httpclient.HTTPClient
}

// NewClient creates a wikifier client for the given service URL.
func NewClient(serviceURL, userKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimRight(serviceURL, "/") + "/annotate-article",
		userKey:  userKey,
		http:     httpclient.NewClientWithTimeout(httpclient.APIClient, timeout),
	}
}

// annotation is one concept as the service reports it.
type annotation struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Lang     string  `json:"lang"`
	PageRank float64 `json:"pageRank"`
	Cosine   float64 `json:"cosine"`
	Support  []struct {
		ChFrom int `json:"chFrom"`
		ChTo   int `json:"chTo"`
	} `json:"support"`
}

// Annotate posts the text to the service and converts the returned
// annotations into concepts.
func (c *Client) Annotate(ctx context.Context, text, lang string) ([]domain.Concept, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("lang", lang)
	form.Set("userKey", c.userKey)
	form.Set("support", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("annotate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("annotate request: unexpected status code %d", resp.StatusCode)
	}

	var payload struct {
		Annotations []annotation `json:"annotations"`
		Error       string       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode annotate response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("annotate: %s", payload.Error)
	}

	concepts := make([]domain.Concept, 0, len(payload.Annotations))
	for _, a := range payload.Annotations {
		concepts = append(concepts, domain.Concept{
			Name:       a.Title,
			URI:        a.URL,
			Lang:       a.Lang,
			SupportLen: float64(len(a.Support)),
			PageRank:   a.PageRank,
			Cosine:     a.Cosine,
		})
	}
	return concepts, nil
}
