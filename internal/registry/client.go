// Package registry talks to the GitHub packages API for container images:
// listing the versions of an image and deleting a version by id, scoped to
// either an organization or a personal account.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/bnema/ghcr-retention/internal/config"
)

const (
	defaultBaseURL = "https://api.github.com"
	acceptHeader   = "application/vnd.github+json"
	apiVersion     = "2022-11-28"
)

// ErrRequestFailed marks a non-2xx response from the registry API.
var ErrRequestFailed = errors.New("registry request failed")

// Version is one image version as returned by the packages API.
type Version struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Timestamp returns the field selected by t.
func (v Version) Timestamp(t config.TimestampType) string {
	if t == config.TimestampCreatedAt {
		return v.CreatedAt
	}
	return v.UpdatedAt
}

// Client is the shared HTTP client for one run. The bearer token is bound
// into the underlying transport once; every request additionally carries
// the GitHub accept and API-version headers.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client authenticating with token. baseURL overrides
// the GitHub API endpoint when non-empty (tests, GHES).
func NewClient(ctx context.Context, token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		baseURL:    baseURL,
		httpClient: oauth2.NewClient(ctx, src),
	}
}

// Close releases the client's idle connections. Call it once after all
// concurrent work has finished.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// ListOrgVersions lists the versions of an image in an org namespace.
func (c *Client) ListOrgVersions(ctx context.Context, orgName string, image ImageName) ([]Version, error) {
	path := fmt.Sprintf("/orgs/%s/packages/container/%s/versions", url.PathEscape(orgName), image.Encoded)
	return c.listVersions(ctx, path)
}

// ListUserVersions lists the versions of an image in the personal
// namespace of the authenticated user.
func (c *Client) ListUserVersions(ctx context.Context, image ImageName) ([]Version, error) {
	path := fmt.Sprintf("/user/packages/container/%s/versions", image.Encoded)
	return c.listVersions(ctx, path)
}

// DeleteOrgVersion deletes one image version from an org namespace.
func (c *Client) DeleteOrgVersion(ctx context.Context, orgName string, image ImageName, versionID int64) error {
	path := fmt.Sprintf("/orgs/%s/packages/container/%s/versions/%d", url.PathEscape(orgName), image.Encoded, versionID)
	return c.deleteVersion(ctx, path)
}

// DeleteUserVersion deletes one image version from the personal namespace
// of the authenticated user.
func (c *Client) DeleteUserVersion(ctx context.Context, image ImageName, versionID int64) error {
	path := fmt.Sprintf("/user/packages/container/%s/versions/%d", image.Encoded, versionID)
	return c.deleteVersion(ctx, path)
}

func (c *Client) listVersions(ctx context.Context, path string) ([]Version, error) {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var versions []Version
	if err := json.NewDecoder(resp.Body).Decode(&versions); err != nil {
		return nil, fmt.Errorf("failed to decode version list: %w", err)
	}
	return versions, nil
}

func (c *Client) deleteVersion(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%w: %s %s: %s: %s",
		ErrRequestFailed, resp.Request.Method, resp.Request.URL.Path, resp.Status, string(body))
}
