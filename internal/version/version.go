// Package version holds build metadata and renders it for `reef version`.
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

const tagline = "typed trees in, control flow out"

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
}

// Options selects the optional fields.
type Options struct {
	ShowHash bool
	ShowDate bool
}

// Collect reads the build variables.
func Collect() Info {
	v := strings.TrimSpace(Version)
	if v == "" {
		v = "dev"
	}
	return Info{
		Version:   v,
		GitCommit: strings.TrimSpace(GitCommit),
		BuildDate: strings.TrimSpace(BuildDate),
	}
}

// Colored renders the version with colored major, minor and patch digits.
// Anything that is not a dotted triple is returned as is.
func Colored(v string) string {
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// RenderPretty writes the human-readable form.
func RenderPretty(w io.Writer, info Info, opts Options) {
	fmt.Fprintf(w, "reef %s: %s\n", Colored(info.Version), tagline)
	if opts.ShowHash {
		fmt.Fprintf(w, "commit: %s\n", valueOrUnknown(info.GitCommit))
	}
	if opts.ShowDate {
		fmt.Fprintf(w, "built:  %s\n", valueOrUnknown(info.BuildDate))
	}
}

type payload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// RenderJSON writes the metadata as an indented JSON object.
func RenderJSON(w io.Writer, info Info, opts Options) error {
	p := payload{Tool: "reef", Version: info.Version}
	if opts.ShowHash {
		p.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if opts.ShowDate {
		p.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
