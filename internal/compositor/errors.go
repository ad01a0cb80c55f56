package compositor

import "errors"

// Composition-stage errors. Both are per-record failures: the orchestrator
// records them in the batch report and moves on, they are never fatal to a
// whole run.

var (
	// ErrTemplateUnreadable signals that the template bytes could not be
	// parsed as a valid PDF.
	ErrTemplateUnreadable = errors.New("template is not a readable PDF")

	// ErrRenderFailure signals that overlaying the formatted fields onto the
	// template could not produce output.
	ErrRenderFailure = errors.New("failed to render document")
)
