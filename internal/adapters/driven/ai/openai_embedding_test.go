package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAIServer(t *testing.T, handler func(w http.ResponseWriter, req embeddingRequest)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(server.Close)
	return server
}

func vectorOf(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = 0.01 * float32(i%10)
	}
	return v
}

func TestNewOpenAIEmbedding(t *testing.T) {
	_, err := NewOpenAIEmbedding("", "", "", 0)
	assert.Error(t, err, "API key is required")

	emb, err := NewOpenAIEmbedding("sk-test", "", "https://custom.api.com/v1/", 0)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", emb.Model())
	assert.Equal(t, "https://custom.api.com/v1", emb.baseURL)
	assert.Equal(t, 1536, emb.Dimensions())
}

func TestOpenAIEmbedding_Dimensions(t *testing.T) {
	tests := []struct {
		model      string
		requested  int
		dimensions int
	}{
		{"text-embedding-3-small", 0, 1536},
		{"text-embedding-3-large", 0, 3072},
		{"text-embedding-ada-002", 0, 1536},
		{"unknown-model", 0, 1536},
		{"text-embedding-3-large", 768, 768},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			emb, err := NewOpenAIEmbedding("sk-test", tt.model, "", tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.dimensions, emb.Dimensions())
		})
	}
}

func TestOpenAIEmbedding_EmbedQuery(t *testing.T) {
	server := openAIServer(t, func(w http.ResponseWriter, req embeddingRequest) {
		assert.Equal(t, "roman temples", req.Input)
		assert.Equal(t, 768, req.Dimensions)
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Index: 0, Embedding: vectorOf(768)}},
		})
	})

	emb, err := NewOpenAIEmbedding("sk-test", "text-embedding-3-small", server.URL, 768)
	require.NoError(t, err)

	vec, err := emb.EmbedQuery(context.Background(), "roman temples")
	require.NoError(t, err)
	assert.Len(t, vec, 768)
}

func TestOpenAIEmbedding_AdaOmitsDimensions(t *testing.T) {
	server := openAIServer(t, func(w http.ResponseWriter, req embeddingRequest) {
		assert.Zero(t, req.Dimensions)
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: vectorOf(1536)}},
		})
	})

	emb, err := NewOpenAIEmbedding("sk-test", "text-embedding-ada-002", server.URL, 0)
	require.NoError(t, err)

	_, err = emb.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
}

func TestOpenAIEmbedding_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, req embeddingRequest)
	}{
		{"api error", func(w http.ResponseWriter, _ embeddingRequest) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid API key","type":"invalid_request_error","code":"invalid_api_key"}}`))
		}},
		{"invalid json", func(w http.ResponseWriter, _ embeddingRequest) {
			_, _ = w.Write([]byte("invalid json"))
		}},
		{"server error", func(w http.ResponseWriter, _ embeddingRequest) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{}`))
		}},
		{"empty data", func(w http.ResponseWriter, _ embeddingRequest) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}},
		{"wrong dimensions", func(w http.ResponseWriter, _ embeddingRequest) {
			_ = json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{{Embedding: vectorOf(3)}}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := openAIServer(t, tt.handler)
			emb, err := NewOpenAIEmbedding("sk-test", "text-embedding-3-small", server.URL, 768)
			require.NoError(t, err)

			_, err = emb.EmbedQuery(context.Background(), "test")
			assert.Error(t, err)
		})
	}
}

func TestOpenAIEmbedding_NetworkError(t *testing.T) {
	emb, err := NewOpenAIEmbedding("sk-test", "", "http://127.0.0.1:1", 0)
	require.NoError(t, err)

	assert.Error(t, emb.HealthCheck(context.Background()))
	assert.NoError(t, emb.Close())
}
