package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

func ollamaServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestOllamaLLM_Generate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "llama3.1:8b", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "be brief", req.Messages[0].Content)
		assert.Equal(t, "where is troy", req.Messages[1].Content)
		assert.Equal(t, 256, req.Options.NumPredict)
		assert.InDelta(t, 0.2, req.Options.Temperature, 1e-9)

		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: domain.RoleAssistant, Content: "In Hisarlik."},
			Done:    true,
		})
	})
	llm := NewOllamaLLM(ollamaServer(t, mux).URL, "")

	out, err := llm.Generate(context.Background(), domain.GenerateRequest{
		Prompt:       "where is troy",
		SystemPrompt: "be brief",
		MaxTokens:    256,
		Temperature:  0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "In Hisarlik.", out)
}

func TestOllamaLLM_GenerateModelOverride(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req.Model)
		assert.Len(t, req.Messages, 1)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok"},"done":true}`))
	})
	llm := NewOllamaLLM(ollamaServer(t, mux).URL, "llama3")

	out, err := llm.Generate(context.Background(), domain.GenerateRequest{Prompt: "p", Model: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestOllamaLLM_GenerateErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})
	llm := NewOllamaLLM(ollamaServer(t, mux).URL, "")

	_, err := llm.Generate(context.Background(), domain.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func streamHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}
}

func TestOllamaLLM_GenerateStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", streamHandler(
		`{"message":{"role":"assistant","content":"The "},"done":false}`,
		``,
		`{"message":{"role":"assistant","content":"Parthenon"},"done":false}`,
		`{"message":{"role":"assistant","content":""},"done":true}`,
	))
	llm := NewOllamaLLM(ollamaServer(t, mux).URL, "")

	var chunks []string
	err := llm.GenerateStream(context.Background(), domain.GenerateRequest{Prompt: "p"}, func(c string) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"The ", "Parthenon"}, chunks)
}

func TestOllamaLLM_GenerateStreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"truncated", streamHandler(`{"message":{"content":"a"},"done":false}`), "ended before done"},
		{"bad chunk", streamHandler(`not json`), "bad chunk"},
		{"error chunk", streamHandler(`{"error":"out of memory"}`), "out of memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/chat", tt.handler)
			llm := NewOllamaLLM(ollamaServer(t, mux).URL, "")

			err := llm.GenerateStream(context.Background(), domain.GenerateRequest{Prompt: "p"}, func(string) error { return nil })
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOllamaLLM_GenerateStreamCallbackAbort(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", streamHandler(
		`{"message":{"content":"a"},"done":false}`,
		`{"message":{"content":"b"},"done":true}`,
	))
	llm := NewOllamaLLM(ollamaServer(t, mux).URL, "")
	stop := errors.New("client gone")

	calls := 0
	err := llm.GenerateStream(context.Background(), domain.GenerateRequest{Prompt: "p"}, func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestOllamaLLM_ListModelsAndPing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.1:8b"},{"model":"mistral:7b"}]}`))
	})
	llm := NewOllamaLLM(ollamaServer(t, mux).URL, "")

	models, err := llm.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.1:8b", "mistral:7b"}, models)
	assert.NoError(t, llm.Ping(context.Background()))
	assert.NoError(t, llm.Close())
}

func TestOllamaLLM_PingUnreachable(t *testing.T) {
	llm := NewOllamaLLM("http://127.0.0.1:1", "")
	assert.Error(t, llm.Ping(context.Background()))
}

func TestOllamaEmbedding_EmbedQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "stone circles", req.Prompt)
		_, _ = w.Write([]byte(`{"embedding":[3,4,0]}`))
	})
	emb := NewOllamaEmbedding(ollamaServer(t, mux).URL, "", 3)

	vec, err := emb.EmbedQuery(context.Background(), "stone circles")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8, 0}, vec, 1e-6)
	assert.Equal(t, 3, emb.Dimensions())
}

func TestOllamaEmbedding_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", `{"embedding":[]}`, "empty embedding"},
		{"wrong size", `{"embedding":[1,2]}`, "got 2 dimensions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/embeddings", func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			emb := NewOllamaEmbedding(ollamaServer(t, mux).URL, "", 3)

			err := emb.HealthCheck(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	vec := normalizeVector([]float64{1, 2, 2})
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	zero := normalizeVector([]float64{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestNewOllamaClientTrimsSlash(t *testing.T) {
	c := newOllamaClient("http://ollama:11434/", 0)
	assert.Equal(t, "http://ollama:11434", c.baseURL)
	assert.True(t, strings.HasPrefix(newOllamaClient("", 0).baseURL, "http://localhost"))
}
