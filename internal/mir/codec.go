package mir

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is written ahead of every encoded module.
const FormatVersion uint16 = 1

type moduleEnvelope struct {
	Version uint16  `msgpack:"v"`
	Module  *Module `msgpack:"m"`
}

// Encode writes m in the lowered-module file format.
func Encode(w io.Writer, m *Module) error {
	if m == nil {
		return errors.New("mir: encode nil module")
	}
	bw := bufio.NewWriter(w)
	if err := msgpack.NewEncoder(bw).Encode(&moduleEnvelope{Version: FormatVersion, Module: m}); err != nil {
		return fmt.Errorf("mir: encode %s: %w", m.Name, err)
	}
	return bw.Flush()
}

// Decode reads a module written by Encode.
func Decode(r io.Reader) (*Module, error) {
	var env moduleEnvelope
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&env); err != nil {
		return nil, fmt.Errorf("mir: decode: %w", err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("mir: unsupported format version %d (want %d)", env.Version, FormatVersion)
	}
	if env.Module == nil {
		return nil, errors.New("mir: empty module")
	}
	return env.Module, nil
}
