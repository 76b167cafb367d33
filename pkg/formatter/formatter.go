// Package formatter renders normalized predictions into sign markup and console text.
//
// Every function returns a ctdf.FormattedLine. The markup tokens are parsed by the sign controller as a
// fixed grammar so spacing here is significant.
package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/noiseboard/noiseboard/pkg/ctdf"
	"github.com/noiseboard/noiseboard/pkg/predictions"
)

const (
	TokenRouteColour     = "<CM>"
	TokenDirectionColour = "<CF>"
	TokenMinutesColour   = "<CB>"
	TokenHeadlineColour  = "<CP>"
	TokenStopGroup       = "<SA>"
	TokenSeparator       = "<FI>"

	FramePrefix = "<ID01><PA>  <FD>"
	FrameSuffix = "\r\n"

	// DateLineLayout is month/day and 24 hour clock, e.g. 07/5 14:22.
	DateLineLayout = "01/2 15:04"
)

// FormatRoute renders one route's arrivals. Values above predictions.MaxDisplayMinutes are left out but
// the route is still rendered, with an empty minute list if nothing remains.
func FormatRoute(routeID string, minutes []int, direction string, rename map[string]string) ctdf.FormattedLine {
	route := ctdf.RenameRoute(routeID, rename)
	csv := joinMinutes(minutes)

	var markup, text strings.Builder

	markup.WriteString(TokenRouteColour)
	markup.WriteString(route)
	text.WriteString(route)

	if direction != "" {
		markup.WriteString(" " + TokenDirectionColour + direction)
		text.WriteString(" (" + direction + ")")
	}

	markup.WriteString(" " + TokenMinutesColour + csv)
	text.WriteString(": " + csv)

	return ctdf.FormattedLine{
		Markup: markup.String(),
		Text:   text.String(),
	}
}

func joinMinutes(minutes []int) string {
	values := make([]string, 0, len(minutes))

	for _, value := range minutes {
		if value > predictions.MaxDisplayMinutes {
			continue
		}

		values = append(values, strconv.Itoa(value))
	}

	return strings.Join(values, ",")
}

// FormatStopGroup starts a new highlight group on the sign for one stop's routes.
func FormatStopGroup(routeLines []ctdf.FormattedLine) ctdf.FormattedLine {
	joined := ctdf.JoinLines(routeLines, TokenSeparator, "\n")

	return ctdf.FormattedLine{
		Markup: TokenStopGroup + joined.Markup,
		Text:   joined.Text,
	}
}

func FormatService(headline string, stopGroupLines []ctdf.FormattedLine) ctdf.FormattedLine {
	joined := ctdf.JoinLines(stopGroupLines, TokenSeparator, "\n")

	return ctdf.FormattedLine{
		Markup: TokenHeadlineColour + headline + TokenSeparator + joined.Markup,
		Text:   headline + ":\n" + joined.Text,
	}
}

func DateLine(now time.Time) ctdf.FormattedLine {
	date := now.Format(DateLineLayout)

	return ctdf.FormattedLine{
		Markup: date,
		Text:   date,
	}
}

// BoardFrame is the complete string written to the sign: every service followed by the date line.
// The text side is the same content for the console, without the frame wrapper.
func BoardFrame(services []ctdf.FormattedLine, now time.Time) ctdf.FormattedLine {
	lines := make([]ctdf.FormattedLine, 0, len(services)+1)
	lines = append(lines, services...)
	lines = append(lines, DateLine(now))

	joined := ctdf.JoinLines(lines, TokenSeparator, "\n")

	return ctdf.FormattedLine{
		Markup: FramePrefix + joined.Markup + FrameSuffix,
		Text:   joined.Text,
	}
}
