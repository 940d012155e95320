package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService is a scripted LLMService for testing.
// Responses are matched by substring of the system prompt or prompt; the
// first rule that matches wins, otherwise the default reply is returned.
type MockLLMService struct {
	mu        sync.Mutex
	model     string
	models    []string
	reply     string
	rules     []llmRule
	err       error
	streamErr error
	pingErr   error
	requests  []domain.GenerateRequest
}

type llmRule struct {
	contains string
	reply    string
	err      error
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		model:  "mock-llm",
		models: []string{"mock-llm", "mock-llm-large"},
		reply:  "mock answer",
	}
}

func (m *MockLLMService) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range m.rules {
		if strings.Contains(req.SystemPrompt, r.contains) || strings.Contains(req.Prompt, r.contains) {
			return r.reply, r.err
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *MockLLMService) GenerateStream(ctx context.Context, req domain.GenerateRequest, onChunk func(string) error) error {
	text, err := m.Generate(ctx, req)
	if err != nil {
		return err
	}
	m.mu.Lock()
	streamErr := m.streamErr
	m.mu.Unlock()
	if streamErr != nil {
		return streamErr
	}
	for _, word := range strings.SplitAfter(text, " ") {
		if err := onChunk(word); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockLLMService) ListModels(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pingErr != nil {
		return nil, m.pingErr
	}
	return append([]string(nil), m.models...), nil
}

func (m *MockLLMService) Model() string {
	return m.model
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *MockLLMService) Close() error {
	return nil
}

// Helper methods for testing

// SetReply sets the default reply
func (m *MockLLMService) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

// SetError makes every unmatched call fail
func (m *MockLLMService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetStreamError makes GenerateStream fail after a successful generation
func (m *MockLLMService) SetStreamError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamErr = err
}

// SetPingError makes Ping and ListModels fail
func (m *MockLLMService) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// On registers a reply for requests whose prompt or system prompt contains s
func (m *MockLLMService) On(s, reply string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, llmRule{contains: s, reply: reply, err: err})
}

// Requests returns every request seen so far
func (m *MockLLMService) Requests() []domain.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.GenerateRequest(nil), m.requests...)
}
