package git

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MockCall records a single call to the mock executor.
type MockCall struct {
	Method string
	Args   []string
}

// MockResponse configures the response for a mock call.
type MockResponse struct {
	Output []byte
	Error  error
}

// MockExecutor implements Executor for testing. It records calls and
// returns scripted responses keyed by the leading git arguments.
type MockExecutor struct {
	mu        sync.Mutex
	calls     []MockCall
	responses map[string]MockResponse
	defaults  MockResponse

	// OnRun, when set, overrides scripted responses for Run calls.
	OnRun func(ctx context.Context, args []string) error
	// OnOutput, when set, overrides scripted responses for Output calls.
	OnOutput func(ctx context.Context, args []string) ([]byte, error)
}

// NewMockExecutor creates a MockExecutor with no scripted responses.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{responses: make(map[string]MockResponse)}
}

// SetResponse scripts the response for commands whose first argument is
// firstArg (e.g. "diff", "add", "show").
func (m *MockExecutor) SetResponse(firstArg string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[firstArg] = MockResponse{Output: output, Error: err}
}

// SetArgsResponse scripts the response for an exact argument sequence.
func (m *MockExecutor) SetArgsResponse(args []string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[argsKey(args)] = MockResponse{Output: output, Error: err}
}

// SetDefaultResponse sets the response used when nothing matches.
func (m *MockExecutor) SetDefaultResponse(output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = MockResponse{Output: output, Error: err}
}

// Calls returns a copy of all recorded calls.
func (m *MockExecutor) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns recorded calls whose first argument matches firstArg.
func (m *MockExecutor) CallsTo(firstArg string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCall
	for _, c := range m.calls {
		if len(c.Args) > 0 && c.Args[0] == firstArg {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears all recorded calls.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Run records the call and returns the scripted response.
func (m *MockExecutor) Run(ctx context.Context, args ...string) error {
	m.record("Run", args)
	if m.OnRun != nil {
		return m.OnRun(ctx, args)
	}
	return m.response(args).Error
}

// Output records the call and returns the scripted response.
func (m *MockExecutor) Output(ctx context.Context, args ...string) ([]byte, error) {
	m.record("Output", args)
	if m.OnOutput != nil {
		return m.OnOutput(ctx, args)
	}
	resp := m.response(args)
	return resp.Output, resp.Error
}

// RunWithStdio records the call and returns the scripted response.
func (m *MockExecutor) RunWithStdio(ctx context.Context, args ...string) error {
	m.record("RunWithStdio", args)
	return m.response(args).Error
}

func (m *MockExecutor) record(method string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Args: args})
}

func (m *MockExecutor) response(args []string) MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	if resp, ok := m.responses[argsKey(args)]; ok {
		return resp
	}
	if len(args) > 0 {
		if resp, ok := m.responses[args[0]]; ok {
			return resp
		}
	}
	return m.defaults
}

func argsKey(args []string) string {
	return fmt.Sprintf("%q", args)
}

// ErrNotRepo is a canned error for tests simulating a missing repository.
var ErrNotRepo = errors.New("fatal: not a git repository")
