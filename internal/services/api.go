// HTTP client adapter for the ECN REST API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ecn/internal/shared"
)

// APIService provides methods for making HTTP requests to the ECN REST API.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewAPIService creates a new API service instance for the REST API at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// WithLogger returns a copy that logs each request at debug level.
func (a *APIService) WithLogger(l *log.Logger) *APIService {
	cp := *a
	cp.logger = l
	return &cp
}

// WithToken returns a copy whose requests carry "Authorization: Bearer <token>".
//
// An empty token returns a unchanged.
func (a *APIService) WithToken(token string) *APIService {
	if token == "" {
		return a
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, a.httpClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})

	cp := *a
	cp.httpClient = oauth2.NewClient(ctx, src)
	return &cp
}

// BaseURL returns the API root without a trailing slash.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a successful API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// APIError is returned for non-2xx responses.
//
// Message is the "message" field of a JSON body when the server sent one.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v: status %d: %s", shared.ErrServerResponse, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%v: status %d", shared.ErrServerResponse, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return shared.ErrServerResponse
}

// ServerMessage extracts the server-provided message from err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Get performs a GET request to the specified path.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil, "", 0, nil)
}

// Post performs a POST request with the given JSON data.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", int64(len(data)), nil)
}

// Put performs a PUT request with the given JSON data.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPut, path, bytes.NewReader(data), "application/json", int64(len(data)), nil)
}

// Delete performs a DELETE request to the specified path.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodDelete, path, nil, "", 0, nil)
}

// PostMultipart sends mp as one multipart/form-data POST, reporting upload progress to onProgress.
func (a *APIService) PostMultipart(ctx context.Context, path string, mp *Multipart, onProgress ProgressFunc) (*APIResponse, error) {
	return a.sendMultipart(ctx, http.MethodPost, path, mp, onProgress)
}

// PutMultipart sends mp as one multipart/form-data PUT, reporting upload progress to onProgress.
func (a *APIService) PutMultipart(ctx context.Context, path string, mp *Multipart, onProgress ProgressFunc) (*APIResponse, error) {
	return a.sendMultipart(ctx, http.MethodPut, path, mp, onProgress)
}

func (a *APIService) sendMultipart(ctx context.Context, method, path string, mp *Multipart, onProgress ProgressFunc) (*APIResponse, error) {
	payload, contentType, err := mp.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode multipart body: %w", err)
	}
	return a.do(ctx, method, path, bytes.NewReader(payload), contentType, int64(len(payload)), onProgress)
}

// do sends one request. Non-2xx statuses become [*APIError]; transport failures wrap [shared.ErrNetwork].
func (a *APIService) do(ctx context.Context, method, path string, body io.Reader, contentType string, size int64, onProgress ProgressFunc) (*APIResponse, error) {
	fullURL := a.baseURL + path

	var tracker *progressReader
	if body != nil && onProgress != nil {
		tracker = newProgressReader(body, size, onProgress)
		body = tracker
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.ContentLength = size
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.debug("request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrNetwork, err)
	}

	a.debug("request", "method", method, "path", path, "status", resp.StatusCode)

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: messageOf(jsonData), Body: data}
	}

	if tracker != nil {
		tracker.finish()
	}
	return apiResp, nil
}

func (a *APIService) debug(msg string, kv ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, kv...)
	}
}

// messageOf reads the "message" (or "error") string of a decoded JSON object.
func messageOf(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
