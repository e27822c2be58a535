package client

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

	"github.com/chunkworks/chunkd/internal/model"
)

// HTTPClient implements ChunkClient using the chunkd HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8084"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// ownerPath builds the /v1/owners/{type}/{id} path prefix.
func ownerPath(owner model.OwnerRef) string {
	return "/v1/owners/" + url.PathEscape(owner.Type) + "/" + url.PathEscape(owner.ID)
}

// --- Global chunks ---

func (c *HTTPClient) CreateChunk(ctx context.Context, req *CreateChunkRequest) (*model.Chunk, error) {
	var chunk model.Chunk
	if err := c.doJSON(ctx, http.MethodPost, "/v1/chunks", req, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (c *HTTPClient) GetChunk(ctx context.Context, key string) (*model.Chunk, error) {
	var chunk model.Chunk
	if err := c.doJSON(ctx, http.MethodGet, "/v1/chunks/"+url.PathEscape(key), nil, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (c *HTTPClient) ListChunks(ctx context.Context, req *ListChunksRequest) (*ListChunksResponse, error) {
	q := url.Values{}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := "/v1/chunks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListChunksResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateChunk(ctx context.Context, key, content string) (*model.Chunk, error) {
	body := map[string]string{"content": content}
	var chunk model.Chunk
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/chunks/"+url.PathEscape(key), body, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (c *HTTPClient) DeleteChunk(ctx context.Context, key string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/chunks/"+url.PathEscape(key), nil, nil)
}

func (c *HTTPClient) ResolveChunk(ctx context.Context, key string, ttl int) (string, error) {
	path := "/v1/chunks/" + url.PathEscape(key) + "/resolve"
	if ttl > 0 {
		path += "?ttl=" + strconv.Itoa(ttl)
	}
	var resp struct {
		Text string `json:"text"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// --- Inline chunks ---

func (c *HTTPClient) CreateInlineChunk(ctx context.Context, owner model.OwnerRef, req *CreateChunkRequest) (*model.InlineChunk, error) {
	var chunk model.InlineChunk
	if err := c.doJSON(ctx, http.MethodPost, ownerPath(owner)+"/chunks", req, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (c *HTTPClient) GetInlineChunk(ctx context.Context, owner model.OwnerRef, key string) (*model.InlineChunk, error) {
	var chunk model.InlineChunk
	if err := c.doJSON(ctx, http.MethodGet, ownerPath(owner)+"/chunks/"+url.PathEscape(key), nil, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (c *HTTPClient) ListInlineChunks(ctx context.Context, owner model.OwnerRef) ([]*model.InlineChunk, error) {
	var resp struct {
		Chunks []*model.InlineChunk `json:"chunks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, ownerPath(owner)+"/chunks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chunks, nil
}

func (c *HTTPClient) UpdateInlineChunk(ctx context.Context, owner model.OwnerRef, key, content string) (*model.InlineChunk, error) {
	body := map[string]string{"content": content}
	var chunk model.InlineChunk
	if err := c.doJSON(ctx, http.MethodPatch, ownerPath(owner)+"/chunks/"+url.PathEscape(key), body, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (c *HTTPClient) DeleteInlineChunk(ctx context.Context, owner model.OwnerRef, key string) error {
	return c.doJSON(ctx, http.MethodDelete, ownerPath(owner)+"/chunks/"+url.PathEscape(key), nil, nil)
}

func (c *HTTPClient) ResolveInlineChunk(ctx context.Context, owner model.OwnerRef, key string, ttl int, defaultKey string) (string, error) {
	q := url.Values{}
	if ttl > 0 {
		q.Set("ttl", strconv.Itoa(ttl))
	}
	if defaultKey != "" {
		q.Set("default", defaultKey)
	}
	path := ownerPath(owner) + "/chunks/" + url.PathEscape(key) + "/resolve"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Text string `json:"text"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *HTTPClient) Aggregate(ctx context.Context, owner model.OwnerRef) (map[string]string, error) {
	var resp struct {
		Chunks map[string]string `json:"chunks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, ownerPath(owner)+"/aggregate", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chunks, nil
}

// --- Pages ---

func (c *HTTPClient) RenderPage(ctx context.Context, req *RenderPageRequest) (string, error) {
	var resp struct {
		Output string `json:"output"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/render", req, &resp); err != nil {
		return "", err
	}
	return resp.Output, nil
}

// --- Events ---

func (c *HTTPClient) ChunkEvents(ctx context.Context, key string, limit int) ([]*model.Event, error) {
	path := "/v1/chunks/" + url.PathEscape(key) + "/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return c.getEvents(ctx, path)
}

func (c *HTTPClient) InlineChunkEvents(ctx context.Context, owner model.OwnerRef, key string, limit int) ([]*model.Event, error) {
	path := ownerPath(owner) + "/chunks/" + url.PathEscape(key) + "/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return c.getEvents(ctx, path)
}

func (c *HTTPClient) getEvents(ctx context.Context, path string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Export ---

func (c *HTTPClient) Export(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/export", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return resp.Body, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
