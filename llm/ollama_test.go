package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_CompleteSendsDeterministicOptions(t *testing.T) {
	var got GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(GenerateResponse{Response: `{"risk_pref":0.4}`, Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClientWithTimeout(srv.URL+"/", "test-model", time.Second)
	c.MaxNewTokens = 128

	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"risk_pref":0.4}`, out)

	assert.Equal(t, "test-model", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, "hello", got.Prompt)
	assert.EqualValues(t, 0, got.Options["temperature"])
	assert.EqualValues(t, 128, got.Options["num_predict"])
}

func TestOllamaClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClientWithTimeout(srv.URL, "missing", time.Second)
	_, err := c.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama http 404")
}

func TestOllamaClient_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "m")
	_, err := c.Complete(context.Background(), "x")
	require.EqualError(t, err, "ollama error: out of memory")
}
