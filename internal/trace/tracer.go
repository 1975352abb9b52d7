package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Tracer receives the events of a lowering run. Emit is called from every
// unit goroutine at once.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	// Close flushes and releases the output.
	Close() error
	Level() Level
	Enabled() bool
}

// DefaultRingSize is the number of events a ring keeps when the config
// leaves it unset.
const DefaultRingSize = 4096

// Config holds tracer configuration.
type Config struct {
	Level  Level
	Mode   StorageMode
	Format Format
	// Output takes precedence over OutputPath. OutputPath is a file, or one
	// of "", "-", "stderr" and "stdout"; a .ndjson file selects FormatNDJSON.
	Output     io.Writer
	OutputPath string
	RingSize   int
	Heartbeat  time.Duration
}

// New builds the tracer cfg describes. A disabled level yields Nop and
// opens nothing.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if _, ok := modeNames[cfg.Mode]; !ok {
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = DefaultRingSize
	}

	var parts []Tracer
	if cfg.Mode.writes() {
		w, format, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		parts = append(parts, NewStreamTracer(w, cfg.Level, format))
	}
	if cfg.Mode.keepsRing() {
		parts = append(parts, NewRingTracer(cfg.RingSize, cfg.Level))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return NewMultiTracer(cfg.Level, parts...), nil
}

func openOutput(cfg Config) (io.Writer, Format, error) {
	format := cfg.Format
	if cfg.Output != nil {
		return cfg.Output, format, nil
	}
	switch cfg.OutputPath {
	case "", "-", "stderr":
		return os.Stderr, format, nil
	case "stdout":
		return os.Stdout, format, nil
	}
	if strings.HasSuffix(cfg.OutputPath, ".ndjson") {
		format = FormatNDJSON
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, format, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, format, nil
}

// Nop discards every event.
var Nop Tracer = nop{}

type nop struct{}

func (nop) Emit(*Event) {}
func (nop) Flush() error { return nil }
func (nop) Close() error { return nil }
func (nop) Level() Level { return LevelOff }
func (nop) Enabled() bool { return false }
