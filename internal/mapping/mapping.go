// Package mapping defines the field-placement data model: a FieldMapping
// places one record field inside an axis-aligned box on the template page,
// and a MappingSet is a named, ordered collection of placements plus the
// output and delivery settings for a batch run.
package mapping

import (
	"fmt"
	"time"
)

// SchemaVersion is the fixed version tag carried by persisted mapping sets
// for forward compatibility. There is no migration beyond this tag.
const SchemaVersion = "1"

// Alignment controls horizontal text placement inside a field box.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// DefaultFontSize is applied when a mapping does not specify one.
const DefaultFontSize = 12

// Position is a page-local offset in PDF points, origin top-left, y down.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a box extent in PDF points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FieldMapping places one record field on the template page.
type FieldMapping struct {
	Field         string    `json:"field"`
	Position      Position  `json:"position"`
	Size          Size      `json:"size"`
	FontSize      float64   `json:"fontSize,omitempty"`
	Align         Alignment `json:"align,omitempty"`
	DateFormat    string    `json:"dateFormat,omitempty"`
	NumberFormat  bool      `json:"numberFormat,omitempty"`
	DecimalPlaces int       `json:"decimalPlaces,omitempty"`
	DefaultValue  string    `json:"defaultValue,omitempty"`
}

// EffectiveFontSize returns the font size with the default applied.
func (m FieldMapping) EffectiveFontSize() float64 {
	if m.FontSize <= 0 {
		return DefaultFontSize
	}
	return m.FontSize
}

// EffectiveAlign returns the alignment with the default applied.
func (m FieldMapping) EffectiveAlign() Alignment {
	switch m.Align {
	case AlignCenter, AlignRight:
		return m.Align
	default:
		return AlignLeft
	}
}

// Validate checks that the mapping can render visible text.
func (m FieldMapping) Validate() error {
	if m.Field == "" {
		return fmt.Errorf("%w: field name is empty", ErrInvalidMapping)
	}
	if m.Size.Width <= 0 || m.Size.Height <= 0 {
		return fmt.Errorf("%w: field %q has non-positive box %gx%g",
			ErrInvalidMapping, m.Field, m.Size.Width, m.Size.Height)
	}
	if m.Position.X < 0 || m.Position.Y < 0 {
		return fmt.Errorf("%w: field %q has negative position", ErrInvalidMapping, m.Field)
	}
	if m.DecimalPlaces < 0 {
		return fmt.Errorf("%w: field %q has negative decimal places", ErrInvalidMapping, m.Field)
	}
	return nil
}

// OutputSettings controls where and under what name generated documents land.
type OutputSettings struct {
	FolderID  string `json:"folderId,omitempty"`
	Extension string `json:"extension,omitempty"`
}

// EffectiveExtension returns the output file extension with the default applied.
func (o OutputSettings) EffectiveExtension() string {
	if o.Extension == "" {
		return "pdf"
	}
	return o.Extension
}

// DeliverySettings configures optional per-record delivery of generated
// documents. RecipientField names the record column holding the recipient
// address; records with a blank value there are generated but not delivered.
type DeliverySettings struct {
	Enabled        bool     `json:"enabled"`
	RecipientField string   `json:"recipientField,omitempty"`
	Subject        string   `json:"subject,omitempty"`
	Body           string   `json:"body,omitempty"`
	CC             []string `json:"cc,omitempty"`
	BCC            []string `json:"bcc,omitempty"`
}

// MappingSet is a named mapping configuration. Identity is Name; saving
// under an existing name overwrites the previous configuration whole.
type MappingSet struct {
	Name          string           `json:"name"`
	PDFTemplateID string           `json:"pdfTemplateId"`
	Mappings      []FieldMapping   `json:"mappings"`
	Output        OutputSettings   `json:"outputSettings"`
	Delivery      DeliverySettings `json:"deliverySettings"`
	Version       string           `json:"version,omitempty"`
	LastModified  time.Time        `json:"lastModified,omitempty"`
}

// Validate checks the set and every mapping in it. A set with zero mappings
// is legal and composes to an unmodified copy of the template.
func (s *MappingSet) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: mapping set has no name", ErrInvalidMapping)
	}
	if s.PDFTemplateID == "" {
		return fmt.Errorf("%w: mapping set %q has no template reference", ErrInvalidMapping, s.Name)
	}
	for i, m := range s.Mappings {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("mapping %d: %w", i, err)
		}
	}
	return nil
}
