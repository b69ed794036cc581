package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type responsesProvider struct {
	apiKey  string
	baseURL string
}

type responsesRequest struct {
	Model     string             `json:"model"`
	Input     string             `json:"input"`
	Reasoning *reasoningSettings `json:"reasoning,omitempty"`
	Text      *textSettings      `json:"text,omitempty"`
}

type reasoningSettings struct {
	Effort string `json:"effort"`
}

type textSettings struct {
	Verbosity string `json:"verbosity"`
}

func (p *responsesProvider) Name() string {
	return "openai"
}

func (p *responsesProvider) Generate(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/responses"
	reqBody := responsesRequest{
		Model: req.Model,
		Input: req.Prompt,
	}
	if req.ReasoningEffort != "" {
		reqBody.Reasoning = &reasoningSettings{Effort: req.ReasoningEffort}
	}
	if req.Verbosity != "" {
		reqBody.Text = &textSettings{Verbosity: req.Verbosity}
	}
	raw, err := postJSON(ctx, endpoint, p.apiKey, reqBody)
	if err != nil {
		return "", err
	}
	return ExtractText(raw)
}

type chatProvider struct {
	apiKey  string
	baseURL string
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []chatMsg `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (p *chatProvider) Name() string {
	return "openaichat"
}

func (p *chatProvider) Generate(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	reqBody := chatRequest{
		Model:    req.Model,
		Messages: []chatMsg{{Role: "user", Content: req.Prompt}},
		Stream:   false,
	}
	raw, err := postJSON(ctx, endpoint, p.apiKey, reqBody)
	if err != nil {
		return "", err
	}
	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", ErrShapeMismatch
	}
	text, ok := extractChoices(&resp)
	if !ok {
		return "", ErrShapeMismatch
	}
	return text, nil
}

func postJSON(ctx context.Context, endpoint, apiKey string, body interface{}) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("ai request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

func createResponsesFactory(args interface{}) (Provider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &responsesProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func createChatFactory(args interface{}) (Provider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &chatProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	Register("openai", createResponsesFactory)
	Register("openaichat", createChatFactory)
}
