package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wardkeep/wardkeep/internal/supervisor"
)

// APIClient talks to a running wardkeep daemon.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8321"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) Status() ([]supervisor.ServiceStatus, error) {
	resp, err := c.client.Get(c.baseURL + "/status")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}
	var sts []supervisor.ServiceStatus
	if err := json.NewDecoder(resp.Body).Decode(&sts); err != nil {
		return nil, err
	}
	return sts, nil
}

func (c *APIClient) Start(service string) error {
	return c.post("/start?service=" + url.QueryEscape(service))
}

func (c *APIClient) Stop(service string) error {
	return c.post("/stop?service=" + url.QueryEscape(service))
}

func (c *APIClient) SetAutorestart(enabled bool) error {
	return c.post(fmt.Sprintf("/autorestart?enabled=%t", enabled))
}

func (c *APIClient) Sweep() error {
	return c.post("/sweep")
}

func (c *APIClient) post(path string) error {
	resp, err := c.client.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var er struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", er.Error)
}
