// Package float wraps the Float scheduling API: projects, people and the
// task planning consumed by the daily feedback round.
package float

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	nowFn   func() time.Time
}

func NewClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimSpace(strings.TrimRight(baseURL, "/"))
	if baseURL == "" {
		baseURL = "https://api.float.com/v3"
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		nowFn:   time.Now,
	}
}

type Project struct {
	ProjectID      int64        `json:"project_id"`
	Name           string       `json:"name"`
	ProjectManager int64        `json:"project_manager"`
	ProjectTeam    []TeamMember `json:"project_team,omitempty"`
}

type TeamMember struct {
	PeopleID int64 `json:"people_id"`
}

type Person struct {
	PeopleID int64  `json:"people_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type Account struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

type Task struct {
	TaskID    int64   `json:"task_id"`
	ProjectID int64   `json:"project_id"`
	Name      string  `json:"name"`
	Hours     float64 `json:"hours"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

// Projects lists active billable projects, most recently modified first.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	query := url.Values{}
	query.Set("per-page", "100")
	query.Set("active", "1")
	query.Set("nonBillable", "0")
	query.Set("fields", "project_id,name,project_manager")
	query.Set("sort", "-modified")

	var out []Project
	if err := c.getJSON(ctx, "/projects", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProjectByID(ctx context.Context, projectID int64) (Project, error) {
	query := url.Values{}
	query.Set("fields", "name,project_manager,project_team")
	query.Set("expand", "project_team")

	var out Project
	if err := c.getJSON(ctx, "/projects/"+strconv.FormatInt(projectID, 10), query, &out); err != nil {
		return Project{}, err
	}
	return out, nil
}

func (c *Client) People(ctx context.Context) ([]Person, error) {
	var out []Person
	if err := c.getJSON(ctx, "/people", url.Values{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PersonByID(ctx context.Context, personID int64) (Person, error) {
	query := url.Values{}
	query.Set("fields", "name,email")

	var out Person
	if err := c.getJSON(ctx, "/people/"+strconv.FormatInt(personID, 10), query, &out); err != nil {
		return Person{}, err
	}
	return out, nil
}

// AccountByID resolves a Float account (project managers are accounts, not
// people).
func (c *Client) AccountByID(ctx context.Context, accountID int64) (Account, error) {
	query := url.Values{}
	query.Set("fields", "name,email")

	var out Account
	if err := c.getJSON(ctx, "/accounts/"+strconv.FormatInt(accountID, 10), query, &out); err != nil {
		return Account{}, err
	}
	return out, nil
}

func (c *Client) TaskByID(ctx context.Context, taskID int64) (Task, error) {
	query := url.Values{}
	query.Set("fields", "name,project_id,tasklist_id")

	var out Task
	if err := c.getJSON(ctx, "/tasks/"+strconv.FormatInt(taskID, 10), query, &out); err != nil {
		return Task{}, err
	}
	return out, nil
}

// TasksForToday lists a person's billable tasks scheduled for today.
func (c *Client) TasksForToday(ctx context.Context, personID int64) ([]Task, error) {
	today := c.nowFn().UTC().Format("2006-01-02")

	query := url.Values{}
	query.Set("people_id", strconv.FormatInt(personID, 10))
	query.Set("start_date", today)
	query.Set("end_date", today)
	query.Set("billable", "1")
	query.Set("repeat_state", "0")
	query.Set("fields", "id,name,hours,project_id,task_id,start_date,end_date")

	var out []Task
	if err := c.getJSON(ctx, "/tasks", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("float client is not initialized")
	}
	endpoint := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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
		return fmt.Errorf("float %s http %d", path, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
