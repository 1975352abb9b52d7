package trace

import (
	"fmt"
	"strings"
)

// StorageMode selects where events go: written out as they happen, kept in
// memory for a dump after an internal compiler error, or both.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1
	ModeRing
	ModeBoth
)

var modeNames = map[StorageMode]string{
	ModeStream: "stream",
	ModeRing:   "ring",
	ModeBoth:   "both",
}

func (m StorageMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// keepsRing reports whether m records events for a later dump.
func (m StorageMode) keepsRing() bool { return m == ModeRing || m == ModeBoth }

// writes reports whether m writes events to an output.
func (m StorageMode) writes() bool { return m == ModeStream || m == ModeBoth }

// ParseMode reads a [trace].mode value.
func ParseMode(s string) (StorageMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}
