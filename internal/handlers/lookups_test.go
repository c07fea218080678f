package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"carrier-lookup/internal/database"
	"carrier-lookup/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts batch outcomes without a browser.
type fakeRunner struct {
	mu          sync.Mutex
	calls       [][]string
	pageURLs    []string
	err         error
	failOn      map[string]string // identifier -> error message
	block       chan struct{}     // when set, Run blocks until closed
	recordsFrom map[string]scraper.Record
}

func (f *fakeRunner) Run(ctx context.Context, pageURL string, identifiers []string) (*scraper.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, identifiers)
	f.pageURLs = append(f.pageURLs, pageURL)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}

	outcome := scraper.NewOutcome()
	for _, identifier := range identifiers {
		if msg, ok := f.failOn[identifier]; ok {
			outcome.Errors = append(outcome.Errors, msg)
			outcome.Records = append(outcome.Records, scraper.DefaultRecord(identifier))
			outcome.TotalProcessed++
			continue
		}
		if rec, ok := f.recordsFrom[identifier]; ok {
			outcome.Records = append(outcome.Records, rec)
		} else {
			outcome.Records = append(outcome.Records, scraper.DefaultRecord(identifier))
		}
		outcome.TotalProcessed++
	}
	return outcome, nil
}

func setupLookupHandler(t *testing.T, runner LookupRunner) (*LookupHandler, *database.DB) {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewLookupHandler(db, runner, "http://default.test/snapshot", 1), db
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/lookups", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestCreateLookupSuccess(t *testing.T) {
	runner := &fakeRunner{
		recordsFrom: map[string]scraper.Record{
			"123456": {Identifier: "123456", Name: "ACME HAULING LLC", Phone: "(217) 555-0134", Email: "dispatch@acmehauling.test"},
		},
	}
	handler, db := setupLookupHandler(t, runner)

	w := postJSON(t, handler.CreateLookup, LookupRequest{Identifiers: []string{"123456", "789"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LookupResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, resp.TotalProcessed)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "ACME HAULING LLC", resp.Results[0].Name)
	assert.Equal(t, scraper.NotAvailable, resp.Results[1].Name)
	assert.Empty(t, resp.Errors)

	// Default page URL was applied.
	assert.Equal(t, "http://default.test/snapshot", runner.pageURLs[0])

	// Batch was persisted.
	require.NotZero(t, resp.BatchID)
	stored, err := db.Batches.GetByID(resp.BatchID)
	require.NoError(t, err)
	assert.Len(t, stored.Records, 2)
}

func TestCreateLookupCustomURL(t *testing.T) {
	runner := &fakeRunner{}
	handler, _ := setupLookupHandler(t, runner)

	w := postJSON(t, handler.CreateLookup, LookupRequest{
		WebsiteURL:  "http://mirror.test/snapshot",
		Identifiers: []string{"1"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://mirror.test/snapshot", runner.pageURLs[0])
}

func TestCreateLookupNoIdentifiers(t *testing.T) {
	handler, _ := setupLookupHandler(t, &fakeRunner{})

	w := postJSON(t, handler.CreateLookup, LookupRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLookupInvalidJSON(t *testing.T) {
	handler, _ := setupLookupHandler(t, &fakeRunner{})

	req := httptest.NewRequest("POST", "/api/lookups", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	handler.CreateLookup(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLookupFatalSessionFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("failed to start browser session: chrome not found")}
	handler, db := setupLookupHandler(t, runner)

	w := postJSON(t, handler.CreateLookup, LookupRequest{Identifiers: []string{"1", "2"}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "chrome not found")

	// A fatal failure produces zero persisted records.
	batches, err := db.Batches.GetAll()
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestCreateLookupPartialErrors(t *testing.T) {
	runner := &fakeRunner{
		failOn: map[string]string{"42": "failed to process 42: net::ERR_CONNECTION_RESET"},
	}
	handler, _ := setupLookupHandler(t, runner)

	w := postJSON(t, handler.CreateLookup, LookupRequest{Identifiers: []string{"1", "42", "3"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LookupResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "completed_with_errors", resp.Status)
	assert.Len(t, resp.Results, 3)
	assert.Len(t, resp.Errors, 1)
	assert.Equal(t, 3, resp.TotalProcessed)
}

func TestCreateLookupBatchAdmission(t *testing.T) {
	block := make(chan struct{})
	runner := &fakeRunner{block: block}
	handler, _ := setupLookupHandler(t, runner)

	started := make(chan struct{})
	done := make(chan *httptest.ResponseRecorder)
	go func() {
		raw, _ := json.Marshal(LookupRequest{Identifiers: []string{"1"}})
		req := httptest.NewRequest("POST", "/api/lookups", bytes.NewReader(raw))
		w := httptest.NewRecorder()
		close(started)
		handler.CreateLookup(w, req)
		done <- w
	}()

	<-started
	// Wait until the first batch actually holds the slot.
	for {
		runner.mu.Lock()
		calls := len(runner.calls)
		runner.mu.Unlock()
		if calls == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	w := postJSON(t, handler.CreateLookup, LookupRequest{Identifiers: []string{"2"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(block)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
}

func multipartBody(t *testing.T, websiteURL, fileContents string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if websiteURL != "" {
		require.NoError(t, mw.WriteField("website_url", websiteURL))
	}
	fw, err := mw.CreateFormFile("identifiers", "identifiers.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(fileContents))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestCreateLookupFromFile(t *testing.T) {
	runner := &fakeRunner{}
	handler, _ := setupLookupHandler(t, runner)

	body, contentType := multipartBody(t, "", "123456\n2348012345678\nnot-a-number\n")
	req := httptest.NewRequest("POST", "/api/lookups/file", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.CreateLookupFromFile(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp LookupResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	// Prefix stripped, malformed line dropped with a note, not an error.
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"123456", "8012345678"}, runner.calls[0])
	assert.Equal(t, []string{"not-a-number"}, resp.SkippedLines)
	assert.Empty(t, resp.Errors)
}

func TestCreateLookupFromFileNoValidIdentifiers(t *testing.T) {
	handler, _ := setupLookupHandler(t, &fakeRunner{})

	body, contentType := multipartBody(t, "", "junk\nmore junk\n")
	req := httptest.NewRequest("POST", "/api/lookups/file", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.CreateLookupFromFile(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLookupFromFileMissingFile(t *testing.T) {
	handler, _ := setupLookupHandler(t, &fakeRunner{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("website_url", "http://x.test"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/lookups/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	handler.CreateLookupFromFile(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
