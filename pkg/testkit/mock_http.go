package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// ─── MockTransport ───────────────────────────────────────────────────────────

// MockTransport implements http.RoundTripper. Outgoing requests are matched
// against registered steps and answered with canned JSON instead of
// touching the network.
//
// Install it on the shared client before the test:
//
//	mt := testkit.NewMockTransport()
//	mt.On(http.MethodPost, "https://sandbox.cashfree.com/pg/orders", 200, `{"payment_session_id":"s1"}`)
//	cfhttp.DefaultClient.Transport = mt
//	defer cfhttp.ResetTransport()
type MockTransport struct {
	mu       sync.Mutex
	steps    []*MockStep
	requests []RecordedRequest
}

// MockStep answers requests whose method matches and whose URL starts
// with URLPrefix.
type MockStep struct {
	Method    string
	URLPrefix string
	Status    int
	Body      string
	calls     int
}

// RecordedRequest is a captured outgoing call.
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

func NewMockTransport() *MockTransport { return &MockTransport{} }

// On registers a step. Earlier steps win when several match.
func (mt *MockTransport) On(method, urlPrefix string, status int, body string) *MockTransport {
	mt.mu.Lock()
	mt.steps = append(mt.steps, &MockStep{Method: method, URLPrefix: urlPrefix, Status: status, Body: body})
	mt.mu.Unlock()
	return mt
}

// RoundTrip records the request and returns the first matching step's
// response. Unmatched calls fail so tests never reach the network.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.requests = append(mt.requests, RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})

	for _, s := range mt.steps {
		if s.Method != req.Method || !strings.HasPrefix(req.URL.String(), s.URLPrefix) {
			continue
		}
		s.calls++
		return buildResponse(req, s.Status, s.Body), nil
	}
	return nil, fmt.Errorf("testkit: unexpected outgoing call %s %s", req.Method, req.URL)
}

// Requests returns a copy of every captured request.
func (mt *MockTransport) Requests() []RecordedRequest {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]RecordedRequest(nil), mt.requests...)
}

// Uncalled lists steps that never matched a request.
func (mt *MockTransport) Uncalled() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var out []string
	for _, s := range mt.steps {
		if s.calls == 0 {
			out = append(out, s.Method+" "+s.URLPrefix)
		}
	}
	return out
}

func buildResponse(req *http.Request, status int, body string) *http.Response {
	if status == 0 {
		status = http.StatusOK
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Request:    req,
	}
}
