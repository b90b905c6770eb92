// Package testutil provides testing utilities for the memos sync client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock Memos endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockMemos is a configurable mock Memos server for testing.
type MockMemos struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastQuery         url.Values
}

// NewMockMemos creates a new mock Memos server.
func NewMockMemos() *MockMemos {
	mock := &MockMemos{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = r.URL.Query()
		mock.mu.Unlock()

		// Check for custom handler
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		// Default handler
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockMemos) URL() string {
	return m.server.URL
}

// APIURL returns the mock server URL with the API base path appended,
// ready for client configuration.
func (m *MockMemos) APIURL() string {
	return m.server.URL + "/api/v1"
}

// Close shuts down the mock server.
func (m *MockMemos) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockMemos) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockMemos) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockMemos) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		// Add delay if specified
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		// Set headers
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		// Write status and body
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetMemosResponse configures the memo listing endpoint response.
func (m *MockMemos) SetMemosResponse(resp MockResponse) {
	m.SetResponse("/api/v1/memos", resp)
}

// SetAttachmentResponse configures the file download endpoint for one
// attachment id and filename.
func (m *MockMemos) SetAttachmentResponse(id, filename string, payload []byte) {
	path := fmt.Sprintf("/file/attachments/%s/%s", id, filename)
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockMemos) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastQuery returns the query parameters of the most recent request.
func (m *MockMemos) GetLastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// defaultHandler answers unconfigured paths with an empty memo listing.
func (m *MockMemos) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"memos": []}`))
}

// MemoJSON builds one memo object for page bodies. The id becomes both
// the resource name suffix and the uid.
func MemoJSON(id, content, createTime string) string {
	return fmt.Sprintf(`{"name": "memos/%s", "uid": "%s", "content": %q, "createTime": %q}`,
		id, id, content, createTime)
}

// PageBody assembles a memo listing response. An empty nextPageToken
// omits the cursor, signalling the last page.
func PageBody(nextPageToken string, memos ...string) string {
	body := `{"memos": [` + strings.Join(memos, ", ") + `]`
	if nextPageToken != "" {
		body += fmt.Sprintf(`, "nextPageToken": %q`, nextPageToken)
	}
	return body + `}`
}

// NewPageResponse creates a standard 200 OK memo listing response.
func NewPageResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewUnauthorizedResponse creates a 401 Unauthorized response.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"message": "invalid access token"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message": "resource not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewPagingHandler creates a handler that serves scripted pages in order,
// selecting by the pageToken query parameter. Page one answers an empty
// token, later pages answer the token of their predecessor.
func NewPagingHandler(pages map[string]string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		body, ok := pages[r.URL.Query().Get("pageToken")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message": "unknown page token"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}
