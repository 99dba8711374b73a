// Package hubspot wraps the HubSpot CRM v3 REST API for company and ticket
// lookups used by the interactive modals.
package hubspot

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
	http        *http.Client
	baseURL     string
	accessToken string
}

func NewClient(httpClient *http.Client, baseURL, accessToken string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimSpace(strings.TrimRight(baseURL, "/"))
	if baseURL == "" {
		baseURL = "https://api.hubapi.com"
	}
	return &Client{
		http:        httpClient,
		baseURL:     baseURL,
		accessToken: strings.TrimSpace(accessToken),
	}
}

type Company struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

func (c Company) Name() string {
	return c.Properties["name"]
}

type SearchResult struct {
	Total   int       `json:"total"`
	Results []Company `json:"results"`
}

type searchRequest struct {
	Query        string        `json:"query,omitempty"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit,omitempty"`
	After        int           `json:"after,omitempty"`
	FilterGroups []filterGroup `json:"filterGroups,omitempty"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

// SearchCompanies performs a free-text company search on the name property.
func (c *Client) SearchCompanies(ctx context.Context, keyword string) (SearchResult, error) {
	var out SearchResult
	err := c.postJSON(ctx, "/crm/v3/objects/companies/search", searchRequest{
		Query:      strings.TrimSpace(keyword),
		Properties: []string{"name"},
	}, &out)
	if err != nil {
		return SearchResult{}, err
	}
	return out, nil
}

func (c *Client) CompanyByID(ctx context.Context, companyID string, properties []string) (Company, error) {
	path := "/crm/v3/objects/companies/" + strings.TrimSpace(companyID)
	if len(properties) > 0 {
		path += "?properties=" + strings.Join(properties, ",")
	}
	var out Company
	if err := c.getJSON(ctx, path, &out); err != nil {
		return Company{}, err
	}
	return out, nil
}

type Ticket struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type TicketSearchResult struct {
	Total   int      `json:"total"`
	Results []Ticket `json:"results"`
}

// LatestTicketsByCompany returns the ten most recent tickets associated
// with a company.
func (c *Client) LatestTicketsByCompany(ctx context.Context, companyID string) (TicketSearchResult, error) {
	var out TicketSearchResult
	err := c.postJSON(ctx, "/crm/v3/objects/tickets/search", searchRequest{
		Properties: []string{"subject", "content", "hs_pipeline_stage", "createdate"},
		Limit:      10,
		FilterGroups: []filterGroup{{
			Filters: []filter{{
				PropertyName: "associations.company",
				Operator:     "EQ",
				Value:        strings.TrimSpace(companyID),
			}},
		}},
	}, &out)
	if err != nil {
		return TicketSearchResult{}, err
	}
	return out, nil
}

type pipelinesResponse struct {
	Results []struct {
		Stages []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"stages"`
	} `json:"results"`
}

// TicketPipelineStages returns a stage id to label lookup across all
// ticket pipelines.
func (c *Client) TicketPipelineStages(ctx context.Context) (map[string]string, error) {
	var out pipelinesResponse
	if err := c.getJSON(ctx, "/crm/v3/pipelines/tickets", &out); err != nil {
		return nil, err
	}
	stages := make(map[string]string)
	for _, pipeline := range out.Results {
		for _, stage := range pipeline.Stages {
			stages[stage.ID] = stage.Label
		}
	}
	return stages, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("hubspot client is not initialized")
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

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
		return fmt.Errorf("hubspot %s http %d", path, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
