package ctdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinLines(t *testing.T) {
	first := FormattedLine{Markup: "<CM>14 <CF>NB <CB>3,11,17", Text: "14 (NB): 3,11,17"}
	second := FormattedLine{Markup: "<CM>33 <CF>NB <CB>12,27", Text: "33 (NB): 12,27"}

	tests := []struct {
		name     string
		lines    []FormattedLine
		expected FormattedLine
	}{
		{"empty", nil, FormattedLine{}},
		{"identity", []FormattedLine{first}, first},
		{"two", []FormattedLine{first, second}, FormattedLine{
			Markup: "<CM>14 <CF>NB <CB>3,11,17<FI><CM>33 <CF>NB <CB>12,27",
			Text:   "14 (NB): 3,11,17\n33 (NB): 12,27",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, JoinLines(tc.lines, "<FI>", "\n"))
		})
	}
}

func TestJoinLinesKeepsWhitespace(t *testing.T) {
	line := FormattedLine{Markup: " <CB> ", Text: " x "}
	assert.Equal(t, line, JoinLines([]FormattedLine{line}, "<FI>", "\n"))
}
