package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchCompanies(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm/v3/objects/companies/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"total":1,"results":[{"id":"501","properties":{"name":"Acme BV"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "token")
	got, err := c.SearchCompanies(context.Background(), "acme")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got.Total != 1 || got.Results[0].Name() != "Acme BV" {
		t.Fatalf("result = %+v", got)
	}
	if body["query"] != "acme" {
		t.Fatalf("query = %v", body["query"])
	}
}

func TestLatestTicketsByCompanyFilters(t *testing.T) {
	var body searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"total":1,"results":[{"id":"88","properties":{"subject":"Site down"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "token")
	got, err := c.LatestTicketsByCompany(context.Background(), "501")
	if err != nil {
		t.Fatalf("tickets: %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].Properties["subject"] != "Site down" {
		t.Fatalf("result = %+v", got)
	}
	if body.Limit != 10 {
		t.Fatalf("limit = %d, want 10", body.Limit)
	}
	if len(body.FilterGroups) != 1 || body.FilterGroups[0].Filters[0].PropertyName != "associations.company" {
		t.Fatalf("filters = %+v", body.FilterGroups)
	}
	if body.FilterGroups[0].Filters[0].Value != "501" {
		t.Fatalf("filter value = %q", body.FilterGroups[0].Filters[0].Value)
	}
}

func TestTicketPipelineStages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"stages":[{"id":"1","label":"Nieuw"},{"id":"2","label":"Wacht op ons"}]},
			{"stages":[{"id":"8","label":"Gesloten"}]}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "token")
	stages, err := c.TicketPipelineStages(context.Background())
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	if len(stages) != 3 || stages["2"] != "Wacht op ons" {
		t.Fatalf("stages = %v", stages)
	}
}

func TestCompanyByIDProperties(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("properties"); got != "name,industry" {
			t.Errorf("properties = %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"501","properties":{"name":"Acme BV","industry":"ECOMMERCE"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "token")
	company, err := c.CompanyByID(context.Background(), "501", []string{"name", "industry"})
	if err != nil {
		t.Fatalf("company: %v", err)
	}
	if company.Properties["industry"] != "ECOMMERCE" {
		t.Fatalf("company = %+v", company)
	}
}
