package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Roelanb/autoremove-webui/internal/config"
)

// ActionError is the single failure shape of every backend call. Status is
// 0 when the request never got a response.
type ActionError struct {
	Status  int
	Message string
}

func (e *ActionError) Error() string { return e.Message }

// ActionResult is the body of a preview or run response.
type ActionResult struct {
	OK     bool   `json:"ok"`
	Output string `json:"output"`
	Code   int    `json:"code"`
}

// Client talks to the backend's JSON API.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for baseURL. A nil hc uses a client with no
// timeout of its own.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) Load(ctx context.Context) (config.Snapshot, error) {
	var snap config.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/config", nil, &snap)
	return snap, err
}

func (c *Client) SaveTasks(ctx context.Context, cfg config.Configuration) error {
	return c.do(ctx, http.MethodPost, "/api/config", map[string]any{"tasks": cfg.Tasks}, nil)
}

func (c *Client) SaveRaw(ctx context.Context, raw string) error {
	return c.do(ctx, http.MethodPost, "/api/config", map[string]any{"raw": raw}, nil)
}

func (c *Client) Preview(ctx context.Context) (ActionResult, error) {
	var res ActionResult
	err := c.do(ctx, http.MethodPost, "/api/preview", map[string]any{}, &res)
	return res, err
}

func (c *Client) Run(ctx context.Context) (ActionResult, error) {
	var res ActionResult
	err := c.do(ctx, http.MethodPost, "/api/run", map[string]any{}, &res)
	return res, err
}

// do performs one request. A body that is not JSON counts as {}; a non-2xx
// status fails with the body's "error" field or the status text.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &ActionError{Message: fmt.Sprintf("encode request: %v", err)}
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return &ActionError{Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &ActionError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if !json.Valid(raw) {
		raw = []byte("{}")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error *string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		msg := ""
		if e.Error != nil {
			msg = *e.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ActionError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil {
		// fields of the wrong type stay zero
		_ = json.Unmarshal(raw, out)
	}
	return nil
}
