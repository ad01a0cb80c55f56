package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakrise/docstamp/internal/mapping"
)

func boxMapping(w, h float64) mapping.FieldMapping {
	return mapping.FieldMapping{
		Field:    "F",
		Position: mapping.Position{X: 50, Y: 100},
		Size:     mapping.Size{Width: w, Height: h},
		FontSize: 10,
	}
}

func TestLayoutSingleLine(t *testing.T) {
	m := boxMapping(120, 20)

	lines := layoutField("hello", m)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0].Text)
	assert.Equal(t, 50.0, lines[0].X, "left aligned text starts at the box edge")
	assert.Equal(t, 100.0, lines[0].Y, "first line sits at the box top")
}

func TestLayoutAlignment(t *testing.T) {
	// 10pt font, charWidthFactor 0.5: "hi" estimates 10pt wide in a 120pt box.
	m := boxMapping(120, 20)

	m.Align = mapping.AlignCenter
	center := layoutField("hi", m)
	require.Len(t, center, 1)
	assert.Equal(t, 50+(120-10)/2.0, center[0].X)

	m.Align = mapping.AlignRight
	right := layoutField("hi", m)
	require.Len(t, right, 1)
	assert.Equal(t, 50+120-10.0, right[0].X)
}

func TestLayoutWrapsAndClips(t *testing.T) {
	// 60pt box fits 12 chars per line; 20pt height fits one 10pt line only
	// (a second line would start at y+12 and overrun the box bottom).
	m := boxMapping(60, 20)

	lines := layoutField("alpha beta gamma delta", m)
	require.Len(t, lines, 1, "overflow is clipped, the box never grows")
	assert.Equal(t, "alpha beta", lines[0].Text)

	// Growing the box height admits more lines at fixed positions.
	m.Size.Height = 60
	lines = layoutField("alpha beta gamma delta", m)
	require.Len(t, lines, 2)
	assert.Equal(t, "alpha beta", lines[0].Text)
	assert.Equal(t, "gamma delta", lines[1].Text)
	assert.Equal(t, 100.0, lines[0].Y)
	assert.Equal(t, 112.0, lines[1].Y, "line spacing is 1.2 times the font size")
}

func TestLayoutTruncatesOversizedWord(t *testing.T) {
	m := boxMapping(25, 20) // fits 5 chars per line

	lines := layoutField("incomprehensibilities", m)
	require.Len(t, lines, 1)
	assert.Equal(t, "incom", lines[0].Text)
}

func TestLayoutEmptyText(t *testing.T) {
	assert.Empty(t, layoutField("   ", boxMapping(120, 20)))
	assert.Empty(t, layoutField("", boxMapping(120, 20)))
}

func TestLayoutDeterministic(t *testing.T) {
	m := boxMapping(80, 50)
	m.Align = mapping.AlignCenter

	first := layoutField("the quick brown fox jumps", m)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, layoutField("the quick brown fox jumps", m),
			"placement geometry must replay identically")
	}

	// Content length affects how much of the box fills, never its position.
	longer := layoutField("the quick brown fox jumps over everything", m)
	require.NotEmpty(t, longer)
	assert.Equal(t, first[0].Y, longer[0].Y)
}
