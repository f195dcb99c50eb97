package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// HTTPTestHelper drives a gin router in handler tests
type HTTPTestHelper struct {
	t      *testing.T
	router *gin.Engine
}

// NewHTTPTestHelper creates a new HTTP test helper
func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	gin.SetMode(gin.TestMode)
	return &HTTPTestHelper{
		t:      t,
		router: gin.New(),
	}
}

// Router returns the engine routes should be registered on
func (h *HTTPTestHelper) Router() *gin.Engine {
	return h.router
}

// SetRouter sets the gin router to use for testing
func (h *HTTPTestHelper) SetRouter(router *gin.Engine) {
	h.router = router
}

// Do performs a request with an optional JSON payload and headers
func (h *HTTPTestHelper) Do(method, url string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(h.t, err, "Failed to marshal JSON payload")
		body = bytes.NewBuffer(data)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(h.t, err, "Failed to create HTTP request")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)
	return recorder
}

// PostJSON performs a POST request with JSON payload
func (h *HTTPTestHelper) PostJSON(url string, payload any) *httptest.ResponseRecorder {
	return h.Do(http.MethodPost, url, payload, nil)
}

// GetJSON performs a GET request expecting JSON response
func (h *HTTPTestHelper) GetJSON(url string) *httptest.ResponseRecorder {
	return h.Do(http.MethodGet, url, nil, nil)
}

// Delete performs a DELETE request
func (h *HTTPTestHelper) Delete(url string) *httptest.ResponseRecorder {
	return h.Do(http.MethodDelete, url, nil, nil)
}

// AssertJSONResponse asserts that the response is valid JSON and unmarshals it
func (h *HTTPTestHelper) AssertJSONResponse(recorder *httptest.ResponseRecorder, expectedStatus int, target any) {
	require.Equal(h.t, expectedStatus, recorder.Code, "Unexpected status code: %s", recorder.Body.String())
	require.Equal(h.t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"), "Expected JSON content type")

	err := json.Unmarshal(recorder.Body.Bytes(), target)
	require.NoError(h.t, err, "Failed to unmarshal JSON response")
}

// AssertErrorResponse asserts that the response contains an error
func (h *HTTPTestHelper) AssertErrorResponse(recorder *httptest.ResponseRecorder, expectedStatus int, expectedErrorSubstring string) {
	require.Equal(h.t, expectedStatus, recorder.Code, "Unexpected status code: %s", recorder.Body.String())

	var errorResponse map[string]any
	err := json.Unmarshal(recorder.Body.Bytes(), &errorResponse)
	require.NoError(h.t, err, "Failed to unmarshal error response")

	errorMessage, exists := errorResponse["error"]
	require.True(h.t, exists, "Expected error field in response")
	require.Contains(h.t, errorMessage, expectedErrorSubstring, "Error message should contain expected substring")
}

// MockHTTPServer provides a mock HTTP server for testing external API calls
type MockHTTPServer struct {
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	mu       sync.Mutex
}

// NewMockHTTPServer creates a new mock HTTP server
func NewMockHTTPServer() *MockHTTPServer {
	mock := &MockHTTPServer{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", mock.routeRequest)

	mock.server = httptest.NewServer(mux)
	return mock
}

// URL returns the mock server URL
func (m *MockHTTPServer) URL() string {
	return m.server.URL
}

// Client returns an HTTP client wired to the server
func (m *MockHTTPServer) Client() *http.Client {
	return m.server.Client()
}

// Close closes the mock server
func (m *MockHTTPServer) Close() {
	m.server.Close()
}

// On registers a handler for a specific path
func (m *MockHTTPServer) On(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// Hits reports how many requests reached path
func (m *MockHTTPServer) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

func (m *MockHTTPServer) routeRequest(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	handler, exists := m.handlers[r.URL.Path]
	m.hits[r.URL.Path]++
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}
	http.NotFound(w, r)
}

// WriteJSON writes v with the given status and content type
func WriteJSON(w http.ResponseWriter, status int, contentType string, v any) {
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// TokenResponse is an OAuth2 token endpoint reply
func TokenResponse() map[string]any {
	return map[string]any{
		"access_token": "mock-access-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
}

// SpotifyTrackResponse creates a mock Spotify track response
func SpotifyTrackResponse(trackID, title, artist, isrc string) map[string]any {
	return map[string]any{
		"id":   trackID,
		"name": title,
		"artists": []map[string]any{
			{"id": "artist-1", "name": artist},
		},
		"album": map[string]any{
			"id":           "album-1",
			"name":         title,
			"release_date": "1971-09-09",
			"images": []map[string]any{
				{"url": "https://i.scdn.co/image/640.jpg", "height": 640, "width": 640},
			},
		},
		"duration_ms":  187000,
		"popularity":   80,
		"preview_url":  "https://p.scdn.co/mp3-preview/" + trackID,
		"external_ids": map[string]string{"isrc": isrc},
		"external_urls": map[string]string{
			"spotify": "https://open.spotify.com/track/" + trackID,
		},
	}
}

// SpotifySearchResponse creates a mock Spotify search response
func SpotifySearchResponse(tracks ...map[string]any) map[string]any {
	if tracks == nil {
		tracks = []map[string]any{}
	}
	return map[string]any{
		"tracks": map[string]any{
			"items": tracks,
			"total": len(tracks),
		},
	}
}
