// Package preview renders a template page to a PNG image. The preview is
// what the mapping authoring tool draws field boxes against, so it uses the
// same top-left-origin, y-down coordinate space the compositor replays.
package preview

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// DefaultDPI matches the PDF point grid, so one preview pixel is one
// mapping coordinate unit.
const DefaultDPI = 72

// Renderer rasterizes template pages.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a preview renderer.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderPage rasterizes one page (1-based) of the template to PNG at the
// given DPI. A dpi of 0 uses DefaultDPI.
func (r *Renderer) RenderPage(templateBytes []byte, page int, dpi float64) ([]byte, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if page < 1 {
		page = 1
	}

	doc, err := fitz.NewFromMemory(templateBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open template for preview: %w", err)
	}
	defer doc.Close()

	if page > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range: template has %d page(s)", page, doc.NumPage())
	}

	img, err := doc.ImageDPI(page-1, dpi)
	if err != nil {
		r.logger.Error("Failed to rasterize template page",
			zap.Int("page", page),
			zap.Float64("dpi", dpi),
			zap.Error(err))
		return nil, fmt.Errorf("failed to rasterize page %d: %w", page, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	r.logger.Debug("Template preview rendered",
		zap.Int("page", page),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
