package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteOutputs writes the module of every successful unit to dir (next to
// the unit when dir is empty) and returns the written paths.
func WriteOutputs(results []UnitResult, dir string) ([]string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	var written []string
	var errs []error
	for i := range results {
		r := &results[i]
		if r.Failed() || len(r.Output) == 0 {
			continue
		}
		path := OutputPath(r.Path, dir)
		if err := writeAtomic(path, r.Output); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
			continue
		}
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}

func writeAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".reef-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
