package model

type Suggestion struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
}

// PageSuggestion is a suggestion pointing at a page of the document.
// PageNumber is nil when the model did not return a usable page.
type PageSuggestion struct {
	PageNumber *int       `json:"page_number,omitempty"`
	Suggestion Suggestion `json:"suggestion"`
}

type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
