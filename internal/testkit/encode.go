package testkit

import (
	"bytes"

	"reef/internal/hir"
)

// MustEncode returns p in the unit file format and panics on failure.
func MustEncode(p *hir.Program) []byte {
	var buf bytes.Buffer
	if err := hir.Encode(&buf, p); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
