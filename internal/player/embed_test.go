package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmbedSource(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "iframe tag yields src target",
			source: `<iframe src="https://example.com/x?y=1"></iframe>`,
			want:   "https://example.com/x?y=1",
		},
		{
			name:   "single quoted src",
			source: `<iframe src='https://app.powerbi.com/view?r=abc' width="100%"></iframe>`,
			want:   "https://app.powerbi.com/view?r=abc",
		},
		{
			name:   "uppercase attribute",
			source: `<IFRAME SRC="https://example.com/dash"></IFRAME>`,
			want:   "https://example.com/dash",
		},
		{
			name:   "src with surrounding whitespace",
			source: `<iframe src = "https://example.com/pad"></iframe>`,
			want:   "https://example.com/pad",
		},
		{
			name:   "bare absolute url used as-is",
			source: "https://example.com/report",
			want:   "https://example.com/report",
		},
		{
			name:   "absolute url with surrounding whitespace is trimmed",
			source: "  https://example.com/report  ",
			want:   "https://example.com/report",
		},
		{
			name:   "non-url passes through unchanged",
			source: "not-a-url-and-no-tag",
			want:   "not-a-url-and-no-tag",
		},
		{
			name:   "relative path passes through unchanged",
			source: "/dashboards/42",
			want:   "/dashboards/42",
		},
		{
			name:   "empty string passes through",
			source: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmbedSource(tt.source))
		})
	}
}
