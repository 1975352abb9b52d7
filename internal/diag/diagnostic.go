package diag

import (
	"reef/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

// IsError reports whether d stops the pipeline.
func (d *Diagnostic) IsError() bool {
	return d != nil && d.Severity >= SevError
}
