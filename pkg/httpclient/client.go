package httpclient

import (
	"io"
	"net/http"
	"time"
)

// ClientType selects the header profile used for outgoing requests.
type ClientType string

const (
	// BrowserClient uses browser-like headers for provider sites that reject
	// requests without a browser User-Agent.
	BrowserClient ClientType = "browser"

	// SimpleClient uses curl-like headers for sites whose protection blocks
	// browser-like User-Agents but allows simple tools.
	SimpleClient ClientType = "simple"

	// APIClient sends no extra headers; used for service endpoints such as
	// the transcription platform and the wikifier.
	APIClient ClientType = "api"
)

// HTTPClient wraps an http.Client with a header profile and a request
// timeout.
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
}

// NewClient creates a new HTTP client with the specified profile and no
// request timeout.
func NewClient(clientType ClientType) *HTTPClient {
	return NewClientWithTimeout(clientType, 0)
}

// NewClientWithTimeout creates a new HTTP client with the specified profile
// and an overall per-request timeout. A zero timeout means no limit.
func NewClientWithTimeout(clientType ClientType, timeout time.Duration) *HTTPClient {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Follow up to 10 redirects.
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return &HTTPClient{client: client, clientType: clientType}
}

// Do executes a request with the profile's headers applied.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for GET requests.
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Head is a convenience method for HEAD requests.
func (c *HTTPClient) Head(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post is a convenience method for POST requests with an explicit content
// type.
func (c *HTTPClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

// setHeaders applies the profile's headers to a request.
func (c *HTTPClient) setHeaders(req *http.Request) {
	switch c.clientType {
	case BrowserClient:
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Connection", "keep-alive")

	case SimpleClient:
		// Simple headers like curl; some CDNs allow curl but block browsers.
		req.Header.Set("User-Agent", "curl/8.7.1")

	case APIClient:
		// Service endpoints authenticate by parameter, not by User-Agent.

	default:
		// Go's default User-Agent.
	}
}
