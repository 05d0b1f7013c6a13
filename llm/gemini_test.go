package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient_Config(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "  ", "", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")

	g, err := NewGeminiClient(context.Background(), "k-test", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", g.model)
	assert.Equal(t, DefaultMaxNewTokens, g.maxNewTokens)

	g, err = NewGeminiClient(context.Background(), "k-test", "", "gemini-pro", 64)
	require.NoError(t, err)
	assert.Equal(t, "gemini-pro", g.model)
	assert.Equal(t, 64, g.maxNewTokens)
}

func TestGeminiClient_Complete(t *testing.T) {
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"negative"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGeminiClient(context.Background(), "k-test", srv.URL, "gemini-test", 32)
	require.NoError(t, err)
	out, err := g.Complete(context.Background(), "classify")
	require.NoError(t, err)
	assert.Equal(t, "negative", out)
	assert.True(t, strings.HasSuffix(path, "/models/gemini-test:generateContent"), path)
	assert.Equal(t, "k-test", key)
}

func TestGeminiClient_EmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  "}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGeminiClient(context.Background(), "k-test", srv.URL, "gemini-test", 0)
	require.NoError(t, err)
	_, err = g.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")
}
