package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSearchBaseURL = "https://api.duckduckgo.com/"

// WebSearcher provides the best-effort external lookup behind the expert
// question "search" prefix.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

type duckduckgoSearcher struct {
	client  *http.Client
	baseURL string
}

func NewDuckDuckGoSearcher(baseURL string) WebSearcher {
	if baseURL == "" {
		baseURL = defaultSearchBaseURL
	}
	return &duckduckgoSearcher{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

type ddgResponse struct {
	AbstractText  string `json:"AbstractText"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (s *duckduckgoSearcher) Search(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s?q=%s&format=json&no_html=1", strings.TrimRight(s.baseURL, "/"), url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search request failed: %s", resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var out ddgResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	var parts []string
	if text := strings.TrimSpace(out.AbstractText); text != "" {
		parts = append(parts, text)
	}
	for _, topic := range out.RelatedTopics {
		if text := strings.TrimSpace(topic.Text); text != "" {
			parts = append(parts, text)
		}
		if len(parts) >= 4 {
			break
		}
	}
	return strings.Join(parts, "\n"), nil
}
