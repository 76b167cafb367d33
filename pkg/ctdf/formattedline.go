package ctdf

import "strings"

// FormattedLine is a board markup string paired with its human readable rendering.
type FormattedLine struct {
	Markup string `json:"markup"`
	Text   string `json:"text"`
}

// JoinLines concatenates lines with separate markup and text separators. Zero lines join to the
// empty line and a single line is returned unchanged.
func JoinLines(lines []FormattedLine, markupSeparator string, textSeparator string) FormattedLine {
	markups := make([]string, 0, len(lines))
	texts := make([]string, 0, len(lines))

	for _, line := range lines {
		markups = append(markups, line.Markup)
		texts = append(texts, line.Text)
	}

	return FormattedLine{
		Markup: strings.Join(markups, markupSeparator),
		Text:   strings.Join(texts, textSeparator),
	}
}
