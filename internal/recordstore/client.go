// Package recordstore publishes normalized outputs to an HTTP key/value
// record store.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/extract"
)

// Root is the key prefix every output lives under.
const Root = "fundgest"

// Client communicates with the record store HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RetryableError indicates a transient failure that can be retried: a
// network error, a 429 or a 5xx.
type RetryableError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retryable error: %v", e.Err)
	}
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, msg)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// StoredOutput is the value written for one output table.
type StoredOutput struct {
	Dataset  string     `json:"dataset"`
	Name     string     `json:"name"`
	Date     string     `json:"date,omitempty"`
	Source   string     `json:"source,omitempty"`
	JobID    string     `json:"job_id,omitempty"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	Skipped  []string   `json:"skipped,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
	StoredAt time.Time  `json:"stored_at"`
}

// nodeRequest is the body for PUT /kv/{key}.
type nodeRequest struct {
	Value     any    `json:"value"`
	MergeMode string `json:"merge_mode,omitempty"`
	Source    string `json:"source,omitempty"`
}

type nodeResponse struct {
	Key   string          `json:"key_path"`
	Value json.RawMessage `json:"value"`
}

// linkRequest is the body for PUT /links.
type linkRequest struct {
	From    string  `json:"from_key"`
	To      string  `json:"to_key"`
	Weight  float64 `json:"weight"`
	Summary string  `json:"summary,omitempty"`
}

// OutputKey is the key of a dataset's named output.
func OutputKey(dataset, name string) string {
	return fmt.Sprintf("%s/outputs/%s/%s", Root, slug(dataset), slug(name))
}

// SourceKey is the key of an uploaded source file.
func SourceKey(source string) string {
	return fmt.Sprintf("%s/sources/%s", Root, slug(source))
}

func slug(s string) string {
	if v := extract.Slugify(s); v != "" {
		return v
	}
	return "unnamed"
}

// PutOutput stores an output and links it from its source file. It returns
// the output key.
func (c *Client) PutOutput(ctx context.Context, out StoredOutput) (string, error) {
	if out.StoredAt.IsZero() {
		out.StoredAt = time.Now().UTC()
	}
	key := OutputKey(out.Dataset, out.Name)
	if err := c.put(ctx, "/kv/"+key, nodeRequest{Value: out, Source: "fundgest:" + out.JobID}); err != nil {
		return key, err
	}
	if out.Source == "" {
		return key, nil
	}
	src := SourceKey(out.Source)
	if err := c.put(ctx, "/kv/"+src, nodeRequest{
		Value:     map[string]any{"filename": out.Source, "updated_at": out.StoredAt.Format(time.RFC3339)},
		MergeMode: "merge",
	}); err != nil {
		return key, err
	}
	err := c.put(ctx, "/links", linkRequest{
		From:    src,
		To:      key,
		Weight:  1,
		Summary: out.Dataset + " output",
	})
	return key, err
}

// GetOutput fetches one output. A missing key is an *errs.NotFoundError.
func (c *Client) GetOutput(ctx context.Context, dataset, name string) (*StoredOutput, error) {
	key := OutputKey(dataset, name)
	resp, err := c.do(ctx, http.MethodGet, "/kv/"+key, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, &errs.NotFoundError{What: "output", Label: name, Where: dataset}
	}
	if err := checkStatus(resp, "get "+key, http.StatusOK); err != nil {
		return nil, err
	}

	var node nodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	var out StoredOutput
	if err := json.Unmarshal(node.Value, &out); err != nil {
		return nil, fmt.Errorf("decode output %s: %w", key, err)
	}
	return &out, nil
}

// OutputRef names one stored output.
type OutputRef struct {
	Key     string `json:"key"`
	Dataset string `json:"dataset"`
	Name    string `json:"name"`
	Date    string `json:"date,omitempty"`
}

// ListOutputs does a prefix scan over the outputs of one dataset, or of
// every dataset when dataset is empty.
func (c *Client) ListOutputs(ctx context.Context, dataset string, limit int) ([]OutputRef, error) {
	prefix := Root + "/outputs"
	if dataset != "" {
		prefix += "/" + slug(dataset)
	}
	path := "/kv/" + prefix + "/*"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(strconv.Itoa(limit))
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "list "+prefix, http.StatusOK); err != nil {
		return nil, err
	}

	var result struct {
		Nodes []nodeResponse `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}
	refs := make([]OutputRef, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		var out StoredOutput
		if err := json.Unmarshal(n.Value, &out); err != nil {
			continue
		}
		refs = append(refs, OutputRef{Key: n.Key, Dataset: out.Dataset, Name: out.Name, Date: out.Date})
	}
	return refs, nil
}

// DeleteOutput removes one output.
func (c *Client) DeleteOutput(ctx context.Context, dataset, name string) error {
	key := OutputKey(dataset, name)
	resp, err := c.do(ctx, http.MethodDelete, "/kv/"+key, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return &errs.NotFoundError{What: "output", Label: name, Where: dataset}
	}
	return checkStatus(resp, "delete "+key, http.StatusOK, http.StatusNoContent)
}

func (c *Client) put(ctx context.Context, path string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	resp, err := c.do(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp, "put "+path, http.StatusOK, http.StatusCreated)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: err}
	}
	return resp, nil
}

func checkStatus(resp *http.Response, op string, ok ...int) error {
	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
