package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/draftmark/draftmark/internal/model"
)

const (
	// Prompt payload bounds. Overflow is truncated silently, never an
	// error; a clipped context still produces a usable suggestion.
	maxContextChars = 160000
	maxExcerptChars = 4000
	maxHistoryTurns = 10

	searchPrefix = "search "
	thinkPrefix  = "think "
)

// ClientConfig names the models used on the primary and fallback paths.
type ClientConfig struct {
	Model         string
	FallbackModel string
}

// Client asks a generative provider for review suggestions. Every call
// follows the same discipline: try the primary structured-output provider,
// on any failure retry once against the simpler chat-style fallback, and
// if both fail report "no suggestion" instead of an error. Cancellation is
// terminal; a cancelled primary call never triggers the fallback.
type Client struct {
	primary  Provider
	fallback Provider
	searcher WebSearcher
	cfg      ClientConfig
}

func NewClient(primary, fallback Provider, searcher WebSearcher, cfg ClientConfig) *Client {
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = cfg.Model
	}
	return &Client{
		primary:  primary,
		fallback: fallback,
		searcher: searcher,
		cfg:      cfg,
	}
}

// SuggestRequest carries the document context for one suggestion call.
type SuggestRequest struct {
	DocumentContext string
	Excerpt         string
	PageNumber      int
	ProjectName     string
}

// SuggestComment proposes a review comment for the excerpt. A nil result
// with nil error means no suggestion could be produced; the caller cannot
// tell a missing credential from a double provider failure, which is fine
// because suggestions are advisory.
func (c *Client) SuggestComment(ctx context.Context, req SuggestRequest) (*model.Suggestion, error) {
	excerpt := truncate(req.Excerpt, maxExcerptChars)
	prompt := fmt.Sprintf(`You are a senior reviewer of construction and engineering documents.
Propose one concise review comment for the excerpt below.
Respond with strict JSON only, using exactly these keys:
{"text": string, "severity": "low"|"medium"|"high"|"critical", "category": "general"|"design"|"safety"|"spec"|"cost"|"schedule"|"other"}
No prose outside the JSON object.
%s
EXCERPT (page %d):
%s`, contextSection(req), req.PageNumber, excerpt)

	text, err := c.generate(ctx, Request{Model: c.cfg.Model, Prompt: prompt, Verbosity: "low"})
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	suggestion := parseSuggestion(text, excerpt)
	return &suggestion, nil
}

// AskExpert answers a free-form question about the document. A question
// starting with "search " first runs a best-effort web lookup whose
// findings are added to the prompt; "think " raises the reasoning effort
// on the primary call. Returns empty text when both providers fail.
func (c *Client) AskExpert(ctx context.Context, req SuggestRequest, question string, history []model.ChatTurn) (string, error) {
	effort := ""
	searchResults := ""
	lowered := strings.ToLower(question)
	switch {
	case strings.HasPrefix(lowered, searchPrefix):
		question = strings.TrimSpace(question[len(searchPrefix):])
		searchResults = c.lookup(ctx, question)
	case strings.HasPrefix(lowered, thinkPrefix):
		question = strings.TrimSpace(question[len(thinkPrefix):])
		effort = "high"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `You are an expert consultant for construction and engineering documents.
Answer the question using the document context. Be direct and specific.
%s
`, contextSection(req))
	if searchResults != "" {
		fmt.Fprintf(&sb, "WEB SEARCH RESULTS:\n%s\n", searchResults)
	}
	if serialized := serializeHistory(history); serialized != "" {
		fmt.Fprintf(&sb, "CONVERSATION SO FAR:\n%s\n", serialized)
	}
	fmt.Fprintf(&sb, "QUESTION:\n%s", question)

	return c.generate(ctx, Request{Model: c.cfg.Model, Prompt: sb.String(), ReasoningEffort: effort})
}

// SuggestNextFocus proposes where the reviewer should look next. A missing
// or non-numeric page number in the reply is tolerated as a nil page.
func (c *Client) SuggestNextFocus(ctx context.Context, req SuggestRequest) (*model.PageSuggestion, error) {
	prompt := fmt.Sprintf(`You are a senior reviewer of construction and engineering documents.
Pick the single most important area the reviewer should examine next.
Respond with strict JSON only, using exactly these keys:
{"pageNumber": number, "text": string, "severity": "low"|"medium"|"high"|"critical", "category": "general"|"design"|"safety"|"spec"|"cost"|"schedule"|"other"}
No prose outside the JSON object.
%s`, contextSection(req))

	text, err := c.generate(ctx, Request{Model: c.cfg.Model, Prompt: prompt, Verbosity: "low"})
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	result := &model.PageSuggestion{Suggestion: parseSuggestion(text, "")}
	if raw := extractJSONObject(text); raw != "" {
		var page struct {
			PageNumber json.Number `json:"pageNumber"`
		}
		if err := json.Unmarshal([]byte(raw), &page); err == nil {
			if n, err := page.PageNumber.Int64(); err == nil {
				pageNumber := int(n)
				result.PageNumber = &pageNumber
			}
		}
	}
	return result, nil
}

// generate runs the primary/fallback chain. Empty text with nil error is
// the swallowed total-failure outcome; only cancellation surfaces an error.
func (c *Client) generate(ctx context.Context, req Request) (string, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("model", req.Model))
	if c.primary != nil {
		text, err := c.primary.Generate(ctx, req)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Warn("primary suggestion provider failed", zap.String("provider", c.primary.Name()), zap.Error(err))
	}
	if c.fallback != nil {
		fallbackReq := req
		fallbackReq.Model = c.cfg.FallbackModel
		fallbackReq.ReasoningEffort = ""
		fallbackReq.Verbosity = ""
		text, err := c.fallback.Generate(ctx, fallbackReq)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Warn("fallback suggestion provider failed", zap.String("provider", c.fallback.Name()), zap.Error(err))
	}
	return "", nil
}

func (c *Client) lookup(ctx context.Context, query string) string {
	if c.searcher == nil {
		return ""
	}
	results, err := c.searcher.Search(ctx, query)
	if err != nil {
		logutil.GetLogger(ctx).Warn("web lookup failed", zap.String("query", query), zap.Error(err))
		return ""
	}
	return results
}

func contextSection(req SuggestRequest) string {
	var sb strings.Builder
	if req.ProjectName != "" {
		fmt.Fprintf(&sb, "PROJECT: %s\n", req.ProjectName)
	}
	if context := truncate(req.DocumentContext, maxContextChars); context != "" {
		fmt.Fprintf(&sb, "DOCUMENT CONTEXT:\n%s\n", context)
	}
	return sb.String()
}

func serializeHistory(history []model.ChatTurn) string {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	var lines []string
	for _, turn := range history {
		role := "User"
		if strings.EqualFold(turn.Role, "assistant") {
			role = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, turn.Text))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// extractJSONObject takes the substring between the first '{' and the last
// '}' so fenced or chatty replies still parse.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// parseSuggestion decodes the model reply, falling back to safe defaults
// for any missing field instead of failing the whole suggestion.
func parseSuggestion(text, excerpt string) model.Suggestion {
	suggestion := model.Suggestion{
		Text:     excerpt,
		Severity: model.SeverityMedium,
		Category: model.CategoryGeneral,
	}
	raw := extractJSONObject(text)
	if raw == "" {
		return suggestion
	}
	var parsed struct {
		Text     string `json:"text"`
		Severity string `json:"severity"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return suggestion
	}
	if strings.TrimSpace(parsed.Text) != "" {
		suggestion.Text = strings.TrimSpace(parsed.Text)
	}
	if severity := model.Severity(parsed.Severity); severity.IsValid() {
		suggestion.Severity = severity
	}
	if category := model.Category(parsed.Category); category.IsValid() {
		suggestion.Category = category
	}
	return suggestion
}
