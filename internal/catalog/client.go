package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"
)

const (
	productName    = "subseek"
	productVersion = "dev"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client reads library contents from a Plex server.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// NewClient constructs a catalog client for the given server.
func NewClient(baseURL, token string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  doer,
	}
}

// BaseURL returns the normalized server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ServerIdentity fetches the server's machine identifier and friendly name.
func (c *Client) ServerIdentity(ctx context.Context) (Identity, error) {
	var resp mediaContainerResponse
	if err := c.doJSONRequest(ctx, "/identity", nil, &resp); err != nil {
		return Identity{}, err
	}
	if resp.MediaContainer.MachineIdentifier == "" {
		return Identity{}, fmt.Errorf("plex identity: missing machineIdentifier")
	}
	return Identity{
		MachineIdentifier: resp.MediaContainer.MachineIdentifier,
		FriendlyName:      resp.MediaContainer.FriendlyName,
	}, nil
}

func (c *Client) doJSONRequest(ctx context.Context, path string, query map[string]string, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	q := req.URL.Query()
	for key, value := range query {
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", productName)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("plex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		errBody := strings.TrimSpace(string(bodyBytes))
		return fmt.Errorf("plex GET %s returned %d: %s", path, resp.StatusCode, errBody)
	}

	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
