package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTextShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "joined text field",
			body: `{"output_text": "joined reply"}`,
			want: "joined reply",
		},
		{
			name: "output items with plain text nodes",
			body: `{"output": [{"content": [{"text": "part one"}, {"text": "part two"}]}]}`,
			want: "part one\npart two",
		},
		{
			name: "output items with value wrappers",
			body: `{"output": [{"content": [{"text": {"value": "wrapped reply"}}]}]}`,
			want: "wrapped reply",
		},
		{
			name: "legacy choice list",
			body: `{"choices": [{"message": {"content": "chat reply"}}]}`,
			want: "chat reply",
		},
		{
			name: "joined text wins over other shapes",
			body: `{"output_text": "primary", "choices": [{"message": {"content": "secondary"}}]}`,
			want: "primary",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.body))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTextShapeMismatch(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"output_text": ""}`,
		`{"output": [{"content": []}]}`,
		`{"choices": []}`,
		`not json at all`,
	} {
		_, err := ExtractText([]byte(body))
		require.ErrorIs(t, err, ErrShapeMismatch, "body: %s", body)
	}
}
