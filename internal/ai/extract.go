package ai

import (
	"encoding/json"
	"strings"
)

// Providers return generated text in one of several incompatible
// encodings: a single joined text field, a list of output items whose
// content nodes carry either a plain string or a {value} wrapper, or a
// classic single-message choice list. Extraction tries each known shape in
// a fixed priority order and takes the first non-empty text.

type textNode struct {
	value string
}

func (n *textNode) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		n.value = plain
		return nil
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		n.value = wrapped.Value
		return nil
	}
	// Unknown node encoding reads as empty rather than failing the
	// whole response.
	n.value = ""
	return nil
}

type rawResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text textNode `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type extractor func(r *rawResponse) (string, bool)

var extractors = []extractor{
	extractJoinedText,
	extractOutputItems,
	extractChoices,
}

func extractJoinedText(r *rawResponse) (string, bool) {
	text := strings.TrimSpace(r.OutputText)
	return text, text != ""
}

func extractOutputItems(r *rawResponse) (string, bool) {
	var parts []string
	for _, item := range r.Output {
		for _, node := range item.Content {
			if text := strings.TrimSpace(node.Text.value); text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

func extractChoices(r *rawResponse) (string, bool) {
	if len(r.Choices) == 0 {
		return "", false
	}
	text := strings.TrimSpace(r.Choices[0].Message.Content)
	return text, text != ""
}

// ExtractText pulls the generated text out of a raw provider reply.
func ExtractText(data []byte) (string, error) {
	var resp rawResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", ErrShapeMismatch
	}
	for _, extract := range extractors {
		if text, ok := extract(&resp); ok {
			return text, nil
		}
	}
	return "", ErrShapeMismatch
}
