package frappe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-crm-import/internal/config"

	"github.com/go-resty/resty/v2"
)

// Client talks to a Frappe-style document backend over its REST API.
type Client struct {
	baseURL string
	http    *resty.Client
}

// NewClient creates a client authenticated with an API key/secret pair.
func NewClient(baseURL, apiKey, apiSecret string, timeout time.Duration) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	client.http = resty.New().
		SetBaseURL(client.baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only reads are retried; a retried POST could create a second job
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	if apiKey != "" {
		client.http.SetHeader("Authorization", fmt.Sprintf("token %s:%s", apiKey, apiSecret))
	}

	return client
}

// NewClientFromConfig is the fx constructor.
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.BackendURL, cfg.BackendAPIKey, cfg.BackendAPISecret, cfg.BackendTimeout)
}

// callMethod invokes a whitelisted server method and decodes the "message" envelope into out.
func (c *Client) callMethod(ctx context.Context, httpMethod, method string, params map[string]string, body any, out any) error {
	req := c.http.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(httpMethod, "/api/method/"+method)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if !resp.IsSuccess() {
		return newAPIError(resp.StatusCode(), resp.Body())
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", method, err)
	}
	if len(envelope.Message) == 0 || string(envelope.Message) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Message, out); err != nil {
		return fmt.Errorf("%s: failed to parse message: %w", method, err)
	}
	return nil
}

// resource performs a CRUD call on /api/resource/{doctype}[/{name}] and decodes the "data" envelope.
func (c *Client) resource(ctx context.Context, httpMethod, doctype, name string, body any, out any) error {
	path := "/api/resource/" + url.PathEscape(doctype)
	if name != "" {
		path += "/" + url.PathEscape(name)
	}

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(httpMethod, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", httpMethod, doctype, err)
	}
	if !resp.IsSuccess() {
		return newAPIError(resp.StatusCode(), resp.Body())
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("%s %s: failed to parse response: %w", httpMethod, doctype, err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%s %s: failed to parse data: %w", httpMethod, doctype, err)
	}
	return nil
}
