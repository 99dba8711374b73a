// Package mainwp wraps the MainWP dashboard REST API, which tracks the
// agency's WordPress site portfolio.
package mainwp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimSpace(strings.TrimRight(baseURL, "/"))
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
	}
}

type SiteCount struct {
	Count int `json:"count"`
}

// Tag mirrors the MainWP tag payload. Numeric fields arrive as strings.
type Tag struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CountSites json.Number `json:"count_sites"`
	SitesID    string      `json:"sites_id"`
}

func (t Tag) SiteCount() int {
	n, err := t.CountSites.Int64()
	if err != nil {
		return 0
	}
	return int(n)
}

func (t Tag) SiteIDs() []string {
	raw := strings.TrimSpace(t.SitesID)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

type TagList struct {
	Data map[string]Tag `json:"data"`
}

// FindByName returns the tag with an exactly matching name. The match is
// deliberately case sensitive: tag names in MainWP are canonical.
func (l TagList) FindByName(name string) (Tag, bool) {
	for _, tag := range l.Data {
		if tag.Name == name {
			return tag, true
		}
	}
	return Tag{}, false
}

func (c *Client) SiteCount(ctx context.Context) (SiteCount, error) {
	var out SiteCount
	if err := c.getJSON(ctx, "/sites/count", &out); err != nil {
		return SiteCount{}, err
	}
	return out, nil
}

func (c *Client) Tags(ctx context.Context) (TagList, error) {
	var out TagList
	if err := c.getJSON(ctx, "/tags", &out); err != nil {
		return TagList{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("mainwp client is not initialized")
	}
	if c.baseURL == "" {
		return fmt.Errorf("mainwp base url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mainwp %s http %d", path, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
