package mir

import (
	"errors"
	"fmt"

	"reef/internal/source"
)

// ICE is an internal compiler error: the typed input broke an assumption the
// lowering relies on. It aborts the unit.
type ICE struct {
	Construct string
	Span      source.Span
	Msg       string
}

func (e *ICE) Error() string {
	if e.Construct == "" {
		return "internal compiler error: " + e.Msg
	}
	return fmt.Sprintf("internal compiler error: %s: %s", e.Construct, e.Msg)
}

func ice(construct string, span source.Span, format string, args ...any) error {
	return &ICE{Construct: construct, Span: span, Msg: fmt.Sprintf(format, args...)}
}

// AsICE unwraps err to an *ICE if it carries one.
func AsICE(err error) (*ICE, bool) {
	var e *ICE
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
