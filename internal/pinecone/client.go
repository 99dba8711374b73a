// Package pinecone talks to a Pinecone serverless index over its REST
// data plane: upserts from the content sync cron and similarity queries.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	http     *http.Client
	indexURL string
	apiKey   string
}

// NewClient takes the index host URL (https://<index>-<project>.svc.<env>.pinecone.io).
func NewClient(httpClient *http.Client, indexURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:     httpClient,
		indexURL: strings.TrimSpace(strings.TrimRight(indexURL, "/")),
		apiKey:   strings.TrimSpace(apiKey),
	}
}

type Vector struct {
	ID       string            `json:"id"`
	Values   []float64         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

func (c *Client) Upsert(ctx context.Context, namespace string, vectors []Vector) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	var out upsertResponse
	err := c.postJSON(ctx, "/vectors/upsert", upsertRequest{
		Vectors:   vectors,
		Namespace: strings.TrimSpace(namespace),
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.UpsertedCount, nil
}

type queryRequest struct {
	Vector          []float64 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

// Query returns the topK nearest neighbours of embedding with metadata.
func (c *Client) Query(ctx context.Context, namespace string, embedding []float64, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 10
	}
	var out queryResponse
	err := c.postJSON(ctx, "/query", queryRequest{
		Vector:          embedding,
		TopK:            topK,
		Namespace:       strings.TrimSpace(namespace),
		IncludeMetadata: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("pinecone client is not initialized")
	}
	if c.indexURL == "" {
		return fmt.Errorf("pinecone index url is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	respRaw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pinecone %s http %d", path, resp.StatusCode)
	}
	return json.Unmarshal(respRaw, out)
}
