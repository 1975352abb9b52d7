// Package driver lowers many units at once: it finds them on disk, runs
// the per-unit pipeline in parallel, serves unchanged units from the disk
// cache and writes the resulting modules.
package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// UnitExt is the extension of encoded typed programs.
	UnitExt = ".rhir"
	// OutputExt is the extension of encoded lowered modules.
	OutputExt = ".rmir"
)

// Unit is one encoded typed program.
type Unit struct {
	Path string
	Data []byte
}

// ListUnits expands directories to the unit files below them. Files named
// explicitly are kept whatever their extension. The result is sorted and
// free of duplicates.
func ListUnits(paths []string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, UnitExt) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// LoadUnits reads every file named by paths.
func LoadUnits(paths []string) ([]Unit, error) {
	units := make([]Unit, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("load unit: %w", err)
		}
		units = append(units, Unit{Path: p, Data: data})
	}
	return units, nil
}

// OutputPath returns where the lowered module of unit is written. An empty
// dir places it next to the unit.
func OutputPath(unit, dir string) string {
	base := strings.TrimSuffix(filepath.Base(unit), filepath.Ext(unit)) + OutputExt
	if dir == "" {
		return filepath.Join(filepath.Dir(unit), base)
	}
	return filepath.Join(dir, base)
}
