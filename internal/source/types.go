package source

// FileID uniquely identifies a source file within a FileSet.
type FileID uint32

// File captures the path and, when available, the content of a unit's source.
// Typed programs may ship without content; diagnostics then omit snippets.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
