package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"reef/internal/hir"
	"reef/internal/mir"
)

// Digest is a SHA-256 cache key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// fingerprint folds every option that changes the lowered output, together
// with both file format versions.
func fingerprint(opts *Options) string {
	return fmt.Sprintf("schema=%d;hir=%d;mir=%d;nfc=%t;warn=%t;simplify=%t",
		diskCacheSchemaVersion, hir.FormatVersion, mir.FormatVersion,
		opts.NormalizeStrings, opts.WarnUnreachable, opts.Simplify)
}

// unitKey is H(fingerprint || 0 || data).
func unitKey(data []byte, fp string) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(fp))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(data)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
