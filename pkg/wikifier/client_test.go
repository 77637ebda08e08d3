package wikifier

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

func TestClientAnnotate(t *testing.T) {
	var form struct{ text, lang, userKey string }
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/annotate-article", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form.text = r.PostFormValue("text")
		form.lang = r.PostFormValue("lang")
		form.userKey = r.PostFormValue("userKey")
		json.NewEncoder(w).Encode(map[string]any{
			"annotations": []map[string]any{{
				"title":    "Machine learning",
				"url":      "https://en.wikipedia.org/wiki/Machine_learning",
				"lang":     "en",
				"pageRank": 0.9,
				"cosine":   0.8,
				"support": []map[string]any{
					{"chFrom": 0, "chTo": 16},
					{"chFrom": 40, "chTo": 56},
				},
			}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123", time.Second)
	concepts, err := client.Annotate(context.Background(), "Machine learning is everywhere.", "en")

	require.NoError(t, err)
	assert.Equal(t, "Machine learning is everywhere.", form.text)
	assert.Equal(t, "en", form.lang)
	assert.Equal(t, "key-123", form.userKey)

	require.Len(t, concepts, 1)
	assert.Equal(t, "Machine learning", concepts[0].Name)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Machine_learning", concepts[0].URI)
	assert.Equal(t, "en", concepts[0].Lang)
	assert.Equal(t, 2.0, concepts[0].SupportLen, "support length counts the mention spans")
	assert.Equal(t, 0.9, concepts[0].PageRank)
	assert.Equal(t, 0.8, concepts[0].Cosine)
}

func TestClientAnnotate_NoAnnotations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"annotations": []any{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123", time.Second)
	concepts, err := client.Annotate(context.Background(), "text", "en")

	require.NoError(t, err)
	assert.NotNil(t, concepts, "an empty result is still a materialized list")
	assert.Empty(t, concepts)
}

func TestClientAnnotate_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid user key"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", time.Second)
	_, err := client.Annotate(context.Background(), "text", "en")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid user key")
}

func TestClientAnnotate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123", time.Second)
	_, err := client.Annotate(context.Background(), "text", "en")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
