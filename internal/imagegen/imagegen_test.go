package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/dyluth/hype/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAIGenerator(
		config.LLMConfig{BaseURL: srv.URL, TimeoutSeconds: 5},
		config.ImageConfig{Model: "test-image-model", Size: "1024x1024"},
		"test-key",
	)
}

func TestGenerate_Success(t *testing.T) {
	want := []byte("fake-png-bytes")
	var gotReq imageRequest

	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		fmt.Fprintf(w, `{"data":[{"b64_json":%q}]}`, base64.StdEncoding.EncodeToString(want))
	})

	got, err := gen.Generate(context.Background(), "a neon night market poster")
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, "test-image-model", gotReq.Model)
	assert.Equal(t, "1024x1024", gotReq.Size)
	assert.Equal(t, 1, gotReq.N)
	assert.Equal(t, "b64_json", gotReq.ResponseFormat)
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be sent")
	})

	_, err := gen.Generate(context.Background(), "   ")
	assert.Error(t, err)
}

func TestGenerate_APIError(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"content policy"}}`, http.StatusBadRequest)
	})

	_, err := gen.Generate(context.Background(), "a poster")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestGenerate_NoData(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	_, err := gen.Generate(context.Background(), "a poster")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image data")
}

func TestGenerate_BadBase64(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"b64_json":"not-base64!!!"}]}`))
	})

	_, err := gen.Generate(context.Background(), "a poster")
	assert.Error(t, err)
}

func TestSave_UniqueFilenames(t *testing.T) {
	dir := t.TempDir()

	path1, err := Save(dir, []byte("one"))
	require.NoError(t, err)
	path2, err := Save(dir, []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, path1, path2, "saves must never clobber each other")

	data, err := os.ReadFile(path1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
}
