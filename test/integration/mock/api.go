package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// ApiMock stands in for the remote wallet store. It records requests per
// method and path and replays configured responses. It is safe for concurrent use.
type ApiMock struct {
	mu       sync.Mutex
	server   *httptest.Server
	received map[string][]receivedRequest
	replies  map[string]map[int]reply
	fallback map[string]reply
	mockUrl  string
}

type receivedRequest struct {
	body    map[string]any
	headers map[string]string
}

type reply struct {
	status int
	body   map[string]any
}

func NewApiServer() *ApiMock {
	return &ApiMock{
		received: map[string][]receivedRequest{},
		replies:  map[string]map[int]reply{},
		fallback: map[string]reply{},
	}
}

func (a *ApiMock) Start() {
	a.server = httptest.NewServer(http.HandlerFunc(a.serve))
	a.mockUrl = a.server.URL
}

func (a *ApiMock) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := r.Method + r.URL.Path
	index := len(a.received[key])

	raw, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	_ = json.Unmarshal(raw, &body)

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = values[0]
	}
	a.received[key] = append(a.received[key], receivedRequest{body: body, headers: headers})

	out := reply{status: http.StatusOK, body: map[string]any{}}
	if rep, ok := a.replies[key][index]; ok {
		out = rep
	} else if rep, ok := a.fallback[key]; ok {
		out = rep
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(out.status)
	_ = json.NewEncoder(w).Encode(out.body)
}

func (a *ApiMock) Close() {
	if a.server != nil {
		a.server.Close()
	}
}

func (a *ApiMock) GetUrl() string {
	return a.mockUrl
}

// SetResponse sets the reply to the request with the given index.
// Index -1 sets the reply for every request without its own.
func (a *ApiMock) SetResponse(index int, method, path string, status int, response map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := method + path
	rep := reply{status: status, body: response}
	if index == -1 {
		a.fallback[key] = rep
		return
	}
	if a.replies[key] == nil {
		a.replies[key] = map[int]reply{}
	}
	a.replies[key][index] = rep
}

func (a *ApiMock) GetRequestBody(method, path string, index int) map[string]any {
	if req, ok := a.request(method, path, index); ok {
		return req.body
	}
	return nil
}

func (a *ApiMock) GetRequestHeaders(method, path string, index int) map[string]string {
	if req, ok := a.request(method, path, index); ok {
		return req.headers
	}
	return nil
}

// RequestCount returns how many requests reached method and path.
func (a *ApiMock) RequestCount(method, path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.received[method+path])
}

// ClearResponses forgets the requests and replies for method and path.
func (a *ApiMock) ClearResponses(method, path string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := method + path
	delete(a.received, key)
	delete(a.replies, key)
	delete(a.fallback, key)
}

func (a *ApiMock) request(method, path string, index int) (receivedRequest, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	requests := a.received[method+path]
	if index < 0 || index >= len(requests) {
		return receivedRequest{}, false
	}
	return requests[index], true
}
