package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Record is one carrier record as returned by the lookup API.
type Record struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// LookupResult is the response of the lookup endpoints.
type LookupResult struct {
	Status         string   `json:"status"`
	Message        string   `json:"message"`
	Results        []Record `json:"results"`
	TotalProcessed int      `json:"total_processed"`
	Errors         []string `json:"errors"`
	SkippedLines   []string `json:"skipped_lines,omitempty"`
	BatchID        int      `json:"batch_id,omitempty"`
}

// Batch is a persisted lookup batch summary or detail.
type Batch struct {
	ID             int      `json:"id"`
	PageURL        string   `json:"page_url"`
	Status         string   `json:"status"`
	Message        string   `json:"message"`
	TotalProcessed int      `json:"total_processed"`
	CreatedAt      string   `json:"created_at"`
	Records        []Record `json:"records,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// Client represents an HTTP client for the carrier lookup API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with the default request timeout.
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 10*time.Minute)
}

// NewClientWithTimeout creates a new API client. Lookup batches hold the
// response open for the whole batch, so the timeout has to cover the
// slowest expected batch, not a single round trip.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError represents an error from the API
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// doRequest performs an HTTP request and handles errors
func (c *Client) doRequest(method, path string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()

		// Error bodies are plain text.
		raw, _ := io.ReadAll(resp.Body)
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = resp.Status
		}
		return nil, &APIError{Code: resp.StatusCode, Message: message}
	}

	return resp, nil
}

// doJSON performs a request with a JSON body.
func (c *Client) doJSON(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
		contentType = "application/json"
	}
	return c.doRequest(method, path, contentType, reqBody)
}

// HealthCheck checks if the API server is healthy
func (c *Client) HealthCheck() error {
	resp, err := c.doJSON("GET", "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// CreateLookup runs a lookup batch for the given identifiers.
func (c *Client) CreateLookup(websiteURL string, identifiers []string) (*LookupResult, error) {
	req := map[string]interface{}{
		"identifiers": identifiers,
	}
	if websiteURL != "" {
		req["website_url"] = websiteURL
	}

	resp, err := c.doJSON("POST", "/api/lookups", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result LookupResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// CreateLookupFromFile uploads an identifier file and runs the batch.
func (c *Client) CreateLookupFromFile(websiteURL, path string) (*LookupResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open identifiers file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if websiteURL != "" {
		if err := mw.WriteField("website_url", websiteURL); err != nil {
			return nil, fmt.Errorf("failed to build upload: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("identifiers", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return nil, fmt.Errorf("failed to read identifiers file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	resp, err := c.doRequest("POST", "/api/lookups/file", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result LookupResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// GetBatches returns all persisted batch summaries.
func (c *Client) GetBatches() ([]Batch, error) {
	resp, err := c.doJSON("GET", "/api/batches", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var batches []Batch
	if err := json.NewDecoder(resp.Body).Decode(&batches); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return batches, nil
}

// GetBatch returns one batch with its records and errors.
func (c *Client) GetBatch(id int) (*Batch, error) {
	resp, err := c.doJSON("GET", "/api/batches/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var batch Batch
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &batch, nil
}
