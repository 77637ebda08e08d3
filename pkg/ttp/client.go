package ttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"oer-preproc/pkg/httpclient"
)

// Format is one requested output format. The platform addresses formats by
// numeric code; the name is used as the key under which the output is
// stored in the material metadata.
type Format struct {
	Code int
	Name string
}

// PlainFormat is the plain-text output format, the default for text jobs.
var PlainFormat = Format{Code: 3, Name: "plain"}

// Client is the narrow interface the pipeline requires from the platform:
// submit a packaged job, check its status, and fetch one output.
type Client interface {
	StatusChecker

	// Submit uploads the job manifest and the packaged archive, returning
	// the platform's job handle.
	Submit(ctx context.Context, manifest Manifest, archivePath string) (string, error)

	// Fetch retrieves one transcription or translation output.
	Fetch(ctx context.Context, jobID, lang string, format Format) (string, error)
}

// HTTPClient talks to the platform's REST API. Every request carries the
// account user and authentication token as query or form parameters.
type HTTPClient struct {
	baseURL string
	user    string
	token   string
	http    *httpclient.HTTPClient
}

// NewHTTPClient creates a platform client for the given API base URL, e.g.
// "https://ttp.example.org/api/v3/text".
func NewHTTPClient(baseURL, user, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		user:    user,
		token:   token,
		http:    httpclient.NewClientWithTimeout(httpclient.APIClient, timeout),
	}
}

// Submit uploads the manifest and archive as a multipart request to the
// ingest endpoint. The platform acknowledges with a return code and a job
// handle; any non-zero return code fails the submission.
func (c *HTTPClient) Submit(ctx context.Context, manifest Manifest, archivePath string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("user", c.user); err != nil {
		return "", fmt.Errorf("write user field: %w", err)
	}
	if err := writer.WriteField("auth_token", c.token); err != nil {
		return "", fmt.Errorf("write auth_token field: %w", err)
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := writer.WriteField("manifest", string(manifestJSON)); err != nil {
		return "", fmt.Errorf("write manifest field: %w", err)
	}

	if err := attachFile(writer, "document", archivePath); err != nil {
		return "", fmt.Errorf("attach archive: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ingest/new", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()

	var ack struct {
		RCode int    `json:"rcode"`
		ID    string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if ack.RCode != 0 {
		return "", fmt.Errorf("[status_code: %d] error when uploading process_id=%s", ack.RCode, ack.ID)
	}
	return ack.ID, nil
}

// Status checks the processing status of a submitted job.
func (c *HTTPClient) Status(ctx context.Context, jobID string) (int, error) {
	query := c.authQuery()
	query.Set("id", jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status?"+query.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request status: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return 0, fmt.Errorf("decode status response: %w", err)
	}
	return status.StatusCode, nil
}

// Fetch retrieves one output of a completed job. The response body is the
// output text itself; a JSON body signals a platform-side error for that
// language/format pair.
func (c *HTTPClient) Fetch(ctx context.Context, jobID, lang string, format Format) (string, error) {
	query := c.authQuery()
	query.Set("id", jobID)
	query.Set("lang", lang)
	query.Set("format", fmt.Sprintf("%d", format.Code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch output: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	if isJSONError(payload) {
		return "", fmt.Errorf("platform returned error payload for lang=%s format=%s of process_id=%s", lang, format.Name, jobID)
	}
	return string(payload), nil
}

func (c *HTTPClient) authQuery() url.Values {
	query := url.Values{}
	query.Set("user", c.user)
	query.Set("auth_token", c.token)
	return query
}

func attachFile(writer *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// isJSONError reports whether an output payload is a JSON document. Valid
// outputs are plain text or dfxp; a JSON body carries an error object.
func isJSONError(payload []byte) bool {
	var decoded map[string]any
	return json.Unmarshal(payload, &decoded) == nil
}
