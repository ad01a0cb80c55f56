package compositor

import (
	"strings"

	"github.com/oakrise/docstamp/internal/mapping"
)

// lineSpacing is the baseline-to-baseline distance as a multiple of font size.
const lineSpacing = 1.2

// charWidthFactor approximates the average Helvetica advance width as a
// multiple of font size. Placement geometry depends only on this constant,
// the font size and the text, so identical inputs always land identically.
const charWidthFactor = 0.5

// placedLine is one line of text resolved to an absolute page position.
// X and Y are the line's top-left corner in page coordinates, origin
// top-left, y increasing downward.
type placedLine struct {
	Text string
	X    float64
	Y    float64
}

// layoutField word-wraps text into the mapping's box and resolves each line
// to an absolute position. Text is clipped to the box: lines that would
// start below the box bottom are dropped, and a single word wider than the
// box is truncated to fit. The box never grows and never moves.
func layoutField(text string, m mapping.FieldMapping) []placedLine {
	fontSize := m.EffectiveFontSize()
	maxChars := int(m.Size.Width / (fontSize * charWidthFactor))
	if maxChars < 1 {
		maxChars = 1
	}

	lines := wrap(text, maxChars)
	lineHeight := fontSize * lineSpacing

	placed := make([]placedLine, 0, len(lines))
	for i, line := range lines {
		top := m.Position.Y + float64(i)*lineHeight
		if top+fontSize > m.Position.Y+m.Size.Height {
			break // clip: no box growth
		}
		placed = append(placed, placedLine{
			Text: line,
			X:    alignX(line, m, fontSize),
			Y:    top,
		})
	}
	return placed
}

// alignX computes the line's left edge from the mapping's alignment and an
// estimated text width, clamped to the box.
func alignX(line string, m mapping.FieldMapping, fontSize float64) float64 {
	textWidth := float64(len([]rune(line))) * fontSize * charWidthFactor
	if textWidth > m.Size.Width {
		textWidth = m.Size.Width
	}
	switch m.EffectiveAlign() {
	case mapping.AlignCenter:
		return m.Position.X + (m.Size.Width-textWidth)/2
	case mapping.AlignRight:
		return m.Position.X + m.Size.Width - textWidth
	default:
		return m.Position.X
	}
}

// wrap breaks text into lines of at most maxChars runes, preferring word
// boundaries. A word longer than maxChars is hard-truncated rather than
// allowed to overflow the box.
func wrap(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := ""
	for _, word := range words {
		if len([]rune(word)) > maxChars {
			word = string([]rune(word)[:maxChars])
		}
		switch {
		case current == "":
			current = word
		case len([]rune(current))+1+len([]rune(word)) <= maxChars:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
