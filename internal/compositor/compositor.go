// Package compositor overlays formatted field values at fixed coordinates
// onto a single-page PDF template. The background page is never rescaled,
// cropped or recompressed; a mapping authored against a rendered preview of
// the template lands at the same visual position on every replay.
package compositor

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/formatter"
	"github.com/oakrise/docstamp/internal/mapping"
	"github.com/oakrise/docstamp/internal/record"
	"github.com/oakrise/docstamp/pkg/utils"
)

// fontName is the stamp font. Helvetica is one of the PDF base-14 fonts, so
// stamping never embeds font data into the output.
const fontName = "Helvetica"

// Compositor produces filled documents from template bytes and records.
type Compositor struct {
	formatter *formatter.Formatter
	logger    *zap.Logger
}

// New creates a compositor using the given value formatter.
func New(f *formatter.Formatter, logger *zap.Logger) *Compositor {
	return &Compositor{
		formatter: f,
		logger:    logger,
	}
}

// newConf builds a pdfcpu configuration for a single call. pdfcpu mutates
// state reachable from the configuration, so one must never be shared
// across concurrent Compose calls.
func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Compose overlays the record's mapped fields onto the template and returns
// the filled document's bytes. Mappings are painted in sequence order, so a
// later mapping draws on top when boxes overlap. A mapping whose field is
// not in the record's key set is skipped. With nothing to stamp the template
// bytes are returned unchanged.
//
// Compose fails with ErrTemplateUnreadable when the bytes are not a valid
// PDF and with ErrRenderFailure when stamping cannot produce output. Both
// are per-record failures.
func (c *Compositor) Compose(templateBytes []byte, rec record.Record, set *mapping.MappingSet) ([]byte, error) {
	if _, err := api.PageCount(bytes.NewReader(templateBytes), newConf()); err != nil {
		c.logger.Warn("Template failed to parse",
			zap.String("row_id", rec.RowID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnreadable, err)
	}

	stamps, err := c.buildStamps(rec, set)
	if err != nil {
		return nil, err
	}
	if len(stamps) == 0 {
		out := make([]byte, len(templateBytes))
		copy(out, templateBytes)
		return out, nil
	}

	var buf bytes.Buffer
	m := map[int][]*model.Watermark{1: stamps}
	if err := api.AddWatermarksSliceMap(bytes.NewReader(templateBytes), &buf, m, newConf()); err != nil {
		c.logger.Error("Failed to stamp fields onto template",
			zap.String("row_id", rec.RowID),
			zap.Int("stamps", len(stamps)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	return buf.Bytes(), nil
}

// buildStamps formats and lays out every applicable mapping, producing one
// absolutely-positioned text stamp per rendered line, in paint order.
func (c *Compositor) buildStamps(rec record.Record, set *mapping.MappingSet) ([]*model.Watermark, error) {
	var stamps []*model.Watermark
	for _, fm := range set.Mappings {
		if !rec.Has(fm.Field) {
			continue
		}
		text := utils.StripControlChars(c.formatter.Format(rec.Get(fm.Field), fm))
		if text == "" {
			continue
		}
		for _, line := range layoutField(text, fm) {
			wm, err := api.TextWatermark(line.Text, stampDesc(line, fm.EffectiveFontSize()), true, false, types.POINTS)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", ErrRenderFailure, fm.Field, err)
			}
			stamps = append(stamps, wm)
		}
	}
	return stamps, nil
}

// stampDesc builds the pdfcpu watermark description for one line. The stamp
// is anchored at the page's top-left corner and offset to the line position;
// pdfcpu offsets grow upward, so the y-down page coordinate is negated. The
// font size offset drops the baseline so the line's top edge sits at Y.
// pdfcpu parses points as an integer, so fractional sizes are truncated.
func stampDesc(line placedLine, fontSize float64) string {
	return fmt.Sprintf("fontname:%s, points:%d, scale:1 abs, rot:0, pos:tl, off:%.2f %.2f, fillcol:#000000, op:1",
		fontName, int(fontSize), line.X, -(line.Y + fontSize))
}
