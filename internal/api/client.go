// Package api is the HTTP client for the script server. Everything here is
// transport plumbing: the execution lifecycle itself lives in
// internal/execution and internal/controller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/martin/scriptctl/internal/script"
)

// Client talks to one script server.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client // short calls, bounded timeout
	streamc *http.Client // event streams, no timeout
	logger  *slog.Logger
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		streamc: &http.Client{},
		logger:  logger,
	}
}

// ListScripts returns the names of all scripts the server offers.
func (c *Client) ListScripts(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/scripts/list", nil)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("malformed script list: %w", err)
	}
	return names, nil
}

// ScriptInfo fetches the configuration descriptor of one script.
func (c *Client) ScriptInfo(ctx context.Context, name string) (*script.Script, error) {
	body, err := c.get(ctx, "/scripts/info", url.Values{"name": {name}})
	if err != nil {
		return nil, err
	}

	var info script.Script
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("malformed script info: %w", err)
	}
	return &info, nil
}

// StartScript starts an execution and returns its server-assigned id.
func (c *Client) StartScript(ctx context.Context, name string, values map[string]string) (string, error) {
	payload := map[string]any{
		"script":          name,
		"parameterValues": values,
	}
	body, err := c.post(ctx, "/scripts/execute", payload)
	if err != nil {
		return "", err
	}

	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", fmt.Errorf("server returned empty execution id")
	}
	return id, nil
}

// StopScript requests cancellation of a running execution.
func (c *Client) StopScript(ctx context.Context, id string) error {
	_, err := c.post(ctx, "/scripts/execute/stop", map[string]any{"processId": id})
	return err
}

// SendInput delivers user input to an execution's pending prompt.
func (c *Client) SendInput(ctx context.Context, id, text string) error {
	_, err := c.post(ctx, "/scripts/execute/io/"+url.PathEscape(id), map[string]any{"text": text})
	return err
}

// OpenEventStream subscribes to an execution's io stream. Events are sent on
// the returned channel in server order; the channel is closed when the
// execution finishes, the stream breaks, or ctx is cancelled.
func (c *Client) OpenEventStream(ctx context.Context, id string) (<-chan Event, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/scripts/execute/io/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.streamc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, responseError(resp)
	}

	events := make(chan Event)
	go c.readEvents(resp.Body, id, events)
	return events, nil
}

// readEvents decodes newline-delimited event envelopes until the stream ends.
// Malformed entries are logged and skipped; the stream stays up.
func (c *Client) readEvents(body io.ReadCloser, id string, events chan<- Event) {
	defer close(events)
	defer body.Close()

	decoder := json.NewDecoder(body)
	for {
		var raw wireEvent
		if err := decoder.Decode(&raw); err != nil {
			if err != io.EOF {
				c.logger.Debug("event stream closed", "execution", id, "err", err)
			}
			return
		}

		event, err := decodeEvent(raw)
		if err != nil {
			c.logger.Warn("skipping bad event", "execution", id, "err", err)
			continue
		}
		events <- event
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logger.Debug("api call", "method", req.Method, "path", req.URL.Path,
		"request_id", req.Header.Get("X-Request-Id"))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &RequestError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
