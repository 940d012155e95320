package ai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Ensure OllamaLLM implements LLMService
var _ driven.LLMService = (*OllamaLLM)(nil)

const defaultOllamaChatModel = "llama3.1:8b"

// OllamaLLM implements LLMService against the Ollama chat API
type OllamaLLM struct {
	model string
	http  *ollamaClient
}

// NewOllamaLLM creates a generation service. The HTTP client carries no
// overall timeout because streamed answers are bounded by the caller's context.
func NewOllamaLLM(baseURL, model string) *OllamaLLM {
	if model == "" {
		model = defaultOllamaChatModel
	}
	return &OllamaLLM{
		model: model,
		http:  newOllamaClient(baseURL, 0),
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (o *OllamaLLM) chatRequest(req domain.GenerateRequest, stream bool) ollamaChatRequest {
	model := req.Model
	if model == "" {
		model = o.model
	}
	messages := make([]ollamaMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: domain.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: domain.RoleUser, Content: req.Prompt})
	return ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Options:  ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}
}

// Generate returns the complete answer
func (o *OllamaLLM) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	var resp ollamaChatResponse
	if err := o.http.doJSON(ctx, http.MethodPost, "/api/chat", o.chatRequest(req, false), &resp); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama chat: %s", resp.Error)
	}
	return resp.Message.Content, nil
}

// GenerateStream reads the newline-delimited JSON stream and forwards each fragment
func (o *OllamaLLM) GenerateStream(ctx context.Context, req domain.GenerateRequest, onChunk func(chunk string) error) error {
	resp, err := o.http.do(ctx, http.MethodPost, "/api/chat", o.chatRequest(req, true))
	if err != nil {
		return fmt.Errorf("ollama chat stream: %w", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return fmt.Errorf("ollama chat stream: bad chunk: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama chat stream: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			if err := onChunk(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ollama chat stream: %w", err)
	}
	return errors.New("ollama chat stream: ended before done")
}

// ListModels returns the models pulled into the Ollama instance
func (o *OllamaLLM) ListModels(ctx context.Context) ([]string, error) {
	models, err := o.http.tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}
	return models, nil
}

// Model returns the default model name
func (o *OllamaLLM) Model() string {
	return o.model
}

// Ping verifies the Ollama server answers
func (o *OllamaLLM) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := o.http.tags(ctx); err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	return nil
}

// Close releases idle connections
func (o *OllamaLLM) Close() error {
	o.http.close()
	return nil
}
