package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/agency-crm/backend/internal/application/adapter"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

const maxResponseBody = 1 << 20

// HTTPSenderConfig holds configuration for the HTTP sender.
type HTTPSenderConfig struct {
	URL     string
	Timeout time.Duration
	// AckPath is an optional JSONPath expression evaluated against the
	// response body. When set, a delivery only counts once it yields a truthy value.
	AckPath string
}

// HTTPSender implements the adapter.SyncSender interface by POSTing to the remote store.
type HTTPSender struct {
	client  *http.Client
	url     string
	ackPath string
}

// NewHTTPSender creates a new HTTP sender.
func NewHTTPSender(config HTTPSenderConfig) *HTTPSender {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSender{
		client:  &http.Client{Timeout: timeout},
		url:     config.URL,
		ackPath: strings.TrimSpace(config.AckPath),
	}
}

// Send posts the request body as JSON.
func (s *HTTPSender) Send(ctx context.Context, request adapter.SyncRequest) (*adapter.SyncResult, error) {
	payload, err := json.Marshal(request.Body)
	if err != nil {
		return nil, domainerror.NewSyncError(
			domainerror.ErrCodePermanentSyncFailure,
			"failed to encode sync body",
			err,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, domainerror.NewSyncError(
			domainerror.ErrCodePermanentSyncFailure,
			"failed to build sync request",
			err,
		)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", request.IdempotencyKey)
	req.Header.Set("X-Sync-Action", string(request.Action))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domainerror.NewSyncError(
			domainerror.ErrCodeTemporarySyncFailure,
			"temporary sync failure",
			err,
		)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, domainerror.NewSyncError(
			domainerror.ErrCodeTemporarySyncFailure,
			"failed to read sync response",
			err,
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("%w: remote store answered %d", domainerror.ErrSyncFailure, resp.StatusCode)
		if isPermanentStatus(resp.StatusCode) {
			return nil, domainerror.NewSyncError(
				domainerror.ErrCodePermanentSyncFailure,
				"permanent sync failure",
				statusErr,
			)
		}
		return nil, domainerror.NewSyncError(
			domainerror.ErrCodeTemporarySyncFailure,
			"temporary sync failure",
			statusErr,
		)
	}

	result := &adapter.SyncResult{StatusCode: resp.StatusCode}

	if s.ackPath != "" {
		ack, err := evaluateAck(s.ackPath, body)
		if err != nil || !isTruthy(ack) {
			return nil, domainerror.NewSyncError(
				domainerror.ErrCodeSyncNotAcknowledged,
				"remote store did not acknowledge the mutation",
				domainerror.ErrSyncNotAcknowledged,
			)
		}
		result.Reference = fmt.Sprint(ack)
	}

	return result, nil
}

// isPermanentStatus reports whether a status code rules out a retry.
// Client errors are permanent except timeouts, too-early and rate limiting.
func isPermanentStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return code >= 400 && code < 500
}

// evaluateAck runs the JSONPath expression against the response body.
func evaluateAck(path string, body []byte) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	value, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, err
	}
	if list, ok := value.([]interface{}); ok {
		if len(list) == 0 {
			return nil, nil
		}
		return list[0], nil
	}
	return value, nil
}

func isTruthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && !strings.EqualFold(v, "false")
	case float64:
		return v != 0
	default:
		return true
	}
}

// MockSyncSender is a mock implementation for testing.
type MockSyncSender struct {
	mu          sync.Mutex
	requests    []adapter.SyncRequest
	shouldFail  bool
	failError   error
	isPermanent bool
	failTimes   int
}

// NewMockSyncSender creates a new mock sync sender.
func NewMockSyncSender() *MockSyncSender {
	return &MockSyncSender{
		requests: make([]adapter.SyncRequest, 0),
	}
}

// Send implements the adapter.SyncSender interface for testing.
// Failed attempts are not recorded.
func (m *MockSyncSender) Send(ctx context.Context, request adapter.SyncRequest) (*adapter.SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail || m.failTimes > 0 {
		if m.failTimes > 0 {
			m.failTimes--
		}
		code := domainerror.ErrCodeTemporarySyncFailure
		if m.isPermanent {
			code = domainerror.ErrCodePermanentSyncFailure
		}
		return nil, domainerror.NewSyncError(code, "mock sync failure", m.failError)
	}

	m.requests = append(m.requests, request)

	return &adapter.SyncResult{
		StatusCode: http.StatusOK,
		Reference:  fmt.Sprintf("mock-%d", len(m.requests)),
	}, nil
}

// SetFailure configures the mock to fail every attempt with the given error.
func (m *MockSyncSender) SetFailure(err error, permanent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = true
	m.failError = err
	m.isPermanent = permanent
}

// FailTimes configures the mock to fail the next n attempts with a temporary error.
func (m *MockSyncSender) FailTimes(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTimes = n
	m.failError = err
	m.isPermanent = false
}

// ClearFailure clears the failure configuration.
func (m *MockSyncSender) ClearFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = false
	m.failTimes = 0
	m.failError = nil
	m.isPermanent = false
}

// Requests returns a copy of every delivered request.
func (m *MockSyncSender) Requests() []adapter.SyncRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.SyncRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset clears all delivered requests and failure configuration.
func (m *MockSyncSender) Reset() {
	m.ClearFailure()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make([]adapter.SyncRequest, 0)
}

// Ensure implementations satisfy interfaces.
var (
	_ adapter.SyncSender = (*HTTPSender)(nil)
	_ adapter.SyncSender = (*MockSyncSender)(nil)
)
