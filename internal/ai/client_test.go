package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftmark/draftmark/internal/model"
)

const suggestionJSON = `{"text":"ok","severity":"high","category":"safety"}`

func newTestClient(t *testing.T, primaryBody string, primaryStatus int, fallbackBody string) (*Client, *int32, *int32) {
	t.Helper()
	var primaryCalls, fallbackCalls int32
	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&primaryCalls, 1)
		w.WriteHeader(primaryStatus)
		_, _ = w.Write([]byte(primaryBody))
	}))
	t.Cleanup(primarySrv.Close)
	fallbackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fallbackCalls, 1)
		_, _ = w.Write([]byte(fallbackBody))
	}))
	t.Cleanup(fallbackSrv.Close)

	primary, err := NewProvider("openai", map[string]interface{}{"api_key": "k", "base_url": primarySrv.URL})
	require.NoError(t, err)
	fallback, err := NewProvider("openaichat", map[string]interface{}{"api_key": "k", "base_url": fallbackSrv.URL})
	require.NoError(t, err)
	client := NewClient(primary, fallback, nil, ClientConfig{Model: "test-model", FallbackModel: "test-fallback"})
	return client, &primaryCalls, &fallbackCalls
}

func TestSuggestCommentPrimaryShapes(t *testing.T) {
	bodies := []string{
		`{"output_text": "` + escapedSuggestion() + `"}`,
		`{"output": [{"content": [{"text": {"value": "` + escapedSuggestion() + `"}}]}]}`,
		`{"choices": [{"message": {"content": "` + escapedSuggestion() + `"}}]}`,
	}
	for _, body := range bodies {
		client, primaryCalls, fallbackCalls := newTestClient(t, body, http.StatusOK, "")
		suggestion, err := client.SuggestComment(context.Background(), SuggestRequest{Excerpt: "beam B-12"})
		require.NoError(t, err)
		require.NotNil(t, suggestion)
		require.Equal(t, "ok", suggestion.Text)
		require.Equal(t, model.SeverityHigh, suggestion.Severity)
		require.Equal(t, model.CategorySafety, suggestion.Category)
		require.EqualValues(t, 1, atomic.LoadInt32(primaryCalls))
		require.EqualValues(t, 0, atomic.LoadInt32(fallbackCalls))
	}
}

func escapedSuggestion() string {
	return `{\"text\":\"ok\",\"severity\":\"high\",\"category\":\"safety\"}`
}

func TestSuggestCommentFallbackOnPrimaryFailure(t *testing.T) {
	fallbackBody := `{"choices": [{"message": {"content": "` + escapedSuggestion() + `"}}]}`
	client, primaryCalls, fallbackCalls := newTestClient(t, "boom", http.StatusInternalServerError, fallbackBody)

	suggestion, err := client.SuggestComment(context.Background(), SuggestRequest{Excerpt: "x"})
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	require.Equal(t, "ok", suggestion.Text)
	require.EqualValues(t, 1, atomic.LoadInt32(primaryCalls))
	require.EqualValues(t, 1, atomic.LoadInt32(fallbackCalls))
}

func TestSuggestCommentFallbackOnShapeMismatch(t *testing.T) {
	fallbackBody := `{"choices": [{"message": {"content": "` + escapedSuggestion() + `"}}]}`
	client, _, fallbackCalls := newTestClient(t, `{"unexpected": true}`, http.StatusOK, fallbackBody)

	suggestion, err := client.SuggestComment(context.Background(), SuggestRequest{Excerpt: "x"})
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	require.EqualValues(t, 1, atomic.LoadInt32(fallbackCalls))
}

func TestSuggestCommentBothFailReturnsNil(t *testing.T) {
	client, _, _ := newTestClient(t, "bad", http.StatusInternalServerError, "also bad")
	suggestion, err := client.SuggestComment(context.Background(), SuggestRequest{Excerpt: "x"})
	require.NoError(t, err)
	require.Nil(t, suggestion)
}

func TestSuggestCommentDefaultsForMissingFields(t *testing.T) {
	body := `{"output_text": "{\"category\":\"cost\"}"}`
	client, _, _ := newTestClient(t, body, http.StatusOK, "")
	suggestion, err := client.SuggestComment(context.Background(), SuggestRequest{Excerpt: "the excerpt"})
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	require.Equal(t, "the excerpt", suggestion.Text)
	require.Equal(t, model.SeverityMedium, suggestion.Severity)
	require.Equal(t, model.CategoryCost, suggestion.Category)
}

func TestSuggestCommentNoCredential(t *testing.T) {
	primary, err := NewProvider("openai", map[string]interface{}{"api_key": ""})
	require.NoError(t, err)
	fallback, err := NewProvider("openaichat", map[string]interface{}{"api_key": ""})
	require.NoError(t, err)
	client := NewClient(primary, fallback, nil, ClientConfig{Model: "m"})

	suggestion, err := client.SuggestComment(context.Background(), SuggestRequest{Excerpt: "x"})
	require.NoError(t, err)
	require.Nil(t, suggestion)
}

func TestSuggestCommentCancelledSkipsFallback(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	defer primarySrv.Close()
	defer close(release)

	var fallbackCalls int32
	fallbackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fallbackCalls, 1)
	}))
	defer fallbackSrv.Close()

	primary, err := NewProvider("openai", map[string]interface{}{"api_key": "k", "base_url": primarySrv.URL})
	require.NoError(t, err)
	fallback, err := NewProvider("openaichat", map[string]interface{}{"api_key": "k", "base_url": fallbackSrv.URL})
	require.NoError(t, err)
	client := NewClient(primary, fallback, nil, ClientConfig{Model: "m"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err = client.SuggestComment(ctx, SuggestRequest{Excerpt: "x"})
	require.ErrorIs(t, err, context.Canceled)
	require.EqualValues(t, 0, atomic.LoadInt32(&fallbackCalls))
}

func TestAskExpertSearchPrefix(t *testing.T) {
	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.RawQuery, "fire+rating")
		_, _ = w.Write([]byte(`{"AbstractText": "ratings are specified in hours"}`))
	}))
	defer searchSrv.Close()

	var sawSearchResults bool
	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if containsAll(string(body), "WEB SEARCH RESULTS", "ratings are specified in hours") {
			sawSearchResults = true
		}
		_, _ = w.Write([]byte(`{"output_text": "two hours"}`))
	}))
	defer primarySrv.Close()

	primary, err := NewProvider("openai", map[string]interface{}{"api_key": "k", "base_url": primarySrv.URL})
	require.NoError(t, err)
	client := NewClient(primary, nil, NewDuckDuckGoSearcher(searchSrv.URL), ClientConfig{Model: "m"})

	answer, err := client.AskExpert(context.Background(), SuggestRequest{}, "search fire rating", nil)
	require.NoError(t, err)
	require.Equal(t, "two hours", answer)
	require.True(t, sawSearchResults)
}

func TestAskExpertThinkPrefixRaisesEffort(t *testing.T) {
	var sawHighEffort bool
	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"effort":"high"`) {
			sawHighEffort = true
		}
		_, _ = w.Write([]byte(`{"output_text": "considered answer"}`))
	}))
	defer primarySrv.Close()

	primary, err := NewProvider("openai", map[string]interface{}{"api_key": "k", "base_url": primarySrv.URL})
	require.NoError(t, err)
	client := NewClient(primary, nil, nil, ClientConfig{Model: "m"})

	answer, err := client.AskExpert(context.Background(), SuggestRequest{}, "think is this slab thick enough", nil)
	require.NoError(t, err)
	require.Equal(t, "considered answer", answer)
	require.True(t, sawHighEffort)
}

func TestAskExpertHistoryBounded(t *testing.T) {
	history := make([]model.ChatTurn, 0, 15)
	for i := 0; i < 15; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, model.ChatTurn{Role: role, Text: string(rune('a' + i))})
	}
	serialized := serializeHistory(history)
	require.NotContains(t, serialized, "User: a")
	require.Contains(t, serialized, "User: o")
	require.Len(t, strings.Split(serialized, "\n"), maxHistoryTurns)
}

func TestSuggestNextFocus(t *testing.T) {
	body := `{"output_text": "{\"pageNumber\": 12, \"text\":\"verify anchor bolts\",\"severity\":\"high\",\"category\":\"design\"}"}`
	client, _, _ := newTestClient(t, body, http.StatusOK, "")
	focus, err := client.SuggestNextFocus(context.Background(), SuggestRequest{})
	require.NoError(t, err)
	require.NotNil(t, focus)
	require.NotNil(t, focus.PageNumber)
	require.Equal(t, 12, *focus.PageNumber)
	require.Equal(t, "verify anchor bolts", focus.Suggestion.Text)
}

func TestSuggestNextFocusNonNumericPage(t *testing.T) {
	body := `{"output_text": "{\"pageNumber\": \"n/a\", \"text\":\"check legend\"}"}`
	client, _, _ := newTestClient(t, body, http.StatusOK, "")
	focus, err := client.SuggestNextFocus(context.Background(), SuggestRequest{})
	require.NoError(t, err)
	require.NotNil(t, focus)
	require.Nil(t, focus.PageNumber)
	require.Equal(t, "check legend", focus.Suggestion.Text)
}

func containsAll(s string, parts ...string) bool {
	for _, part := range parts {
		if !strings.Contains(s, part) {
			return false
		}
	}
	return true
}
