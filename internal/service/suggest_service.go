package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/draftmark/draftmark/internal/ai"
	"github.com/draftmark/draftmark/internal/model"
)

// SuggestService fronts the suggestion client with a short-lived result
// cache, so a reviewer re-selecting the same excerpt does not re-hit the
// providers. Only deterministic modes are cached; expert Q&A is
// conversational and always goes through.
type SuggestService struct {
	client *ai.Client
	cache  *expirable.LRU[string, string]
}

func NewSuggestService(client *ai.Client) *SuggestService {
	cache := expirable.NewLRU[string, string](2000, nil, 30*time.Minute)
	return &SuggestService{client: client, cache: cache}
}

func (s *SuggestService) SuggestComment(ctx context.Context, req ai.SuggestRequest) (*model.Suggestion, error) {
	key := cacheKey("comment", req)
	if cached, ok := s.cache.Get(key); ok {
		var suggestion model.Suggestion
		if err := json.Unmarshal([]byte(cached), &suggestion); err == nil {
			return &suggestion, nil
		}
	}
	suggestion, err := s.client.SuggestComment(ctx, req)
	if err != nil {
		return nil, err
	}
	if suggestion != nil {
		if data, err := json.Marshal(suggestion); err == nil {
			s.cache.Add(key, string(data))
		}
	}
	return suggestion, nil
}

func (s *SuggestService) AskExpert(ctx context.Context, req ai.SuggestRequest, question string, history []model.ChatTurn) (string, error) {
	return s.client.AskExpert(ctx, req, question, history)
}

func (s *SuggestService) SuggestNextFocus(ctx context.Context, req ai.SuggestRequest) (*model.PageSuggestion, error) {
	key := cacheKey("next_focus", req)
	if cached, ok := s.cache.Get(key); ok {
		var focus model.PageSuggestion
		if err := json.Unmarshal([]byte(cached), &focus); err == nil {
			return &focus, nil
		}
	}
	focus, err := s.client.SuggestNextFocus(ctx, req)
	if err != nil {
		return nil, err
	}
	if focus != nil {
		if data, err := json.Marshal(focus); err == nil {
			s.cache.Add(key, string(data))
		}
	}
	return focus, nil
}

func cacheKey(mode string, req ai.SuggestRequest) string {
	payload := fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%s", mode, req.DocumentContext, req.Excerpt, req.PageNumber, req.ProjectName)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
