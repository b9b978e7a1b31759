package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUnauthorized is returned when the relay rejects the token.
var ErrUnauthorized = errors.New("workflow relay: unauthorized")

// ProxyPath is the relay endpoint.
const ProxyPath = "/api/workflow-proxy"

// Client talks to the automation API through the relay. It handles Bearer
// token authentication, JSON marshaling, and automatic retry with
// exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a relay client. baseURL is the relay root, e.g.
// http://localhost:8090; token may be empty when the relay is open.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// ListExecutions returns the most recent executions of one workflow.
func (c *Client) ListExecutions(
	ctx context.Context,
	workflowID string,
	limit int,
) ([]Execution, error) {
	q := url.Values{}
	q.Set("workflowId", workflowID)
	q.Set("includeData", "false")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var list ExecutionList
	if err := c.Get(ctx, "/executions?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetWorkflow returns the metadata of one workflow.
func (c *Client) GetWorkflow(ctx context.Context, workflowID string) (Workflow, error) {
	var wf Workflow
	err := c.Get(ctx, "/workflows/"+url.PathEscape(workflowID), &wf)
	return wf, err
}

// TestConnection checks that the relay and the upstream API answer.
func (c *Client) TestConnection(ctx context.Context) error {
	var list WorkflowList
	if err := c.Get(ctx, "/workflows?limit=1", &list); err != nil {
		return fmt.Errorf("testing workflow connection: %w", err)
	}
	return nil
}

// Get asks the relay to GET path upstream and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, ProxyRequest{Path: path, Method: http.MethodGet}, result)
}

// do posts the proxy request, handling auth, rate limiting with
// exponential backoff, and JSON (de)serialization.
func (c *Client) do(ctx context.Context, preq ProxyRequest, result interface{}) error {
	data, err := json.Marshal(preq)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.baseURL+ProxyPath, bytes.NewReader(data),
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", preq.Method, preq.Path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) on %s", preq.Path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%s: %w", preq.Path, ErrUnauthorized)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var relayErr ErrorResponse
			if json.Unmarshal(respBody, &relayErr) == nil && relayErr.Error != "" {
				return fmt.Errorf(
					"workflow API error (%d) on %s: %s",
					resp.StatusCode, preq.Path, relayErr.Error,
				)
			}
			return fmt.Errorf(
				"unexpected status %d on %s: %s",
				resp.StatusCode, preq.Path, strings.TrimSpace(string(respBody)),
			)
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s: %w", preq.Path, err)
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
