// Package diag defines the diagnostic model shared by the lowering pipeline.
//
// A Diagnostic carries a Severity, a numeric Code with a stable string form
// (see codes.go), a short Message, the Primary span and optional Notes.
//
// Phases emit through a Reporter so they stay independent of storage and
// formatting. ReportBuilder (via ReportError / ReportWarning / ReportInfo)
// lets a producer attach notes before calling Emit. BagReporter collects
// into a Bag, which supports sorting and deduplication; DedupReporter wraps
// another Reporter and drops repeats.
//
// Rendering lives in internal/diagfmt. The short single-line form used by
// the CLI's --format=short lives here in short.go.
package diag
