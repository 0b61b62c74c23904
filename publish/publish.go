// Package publish writes a bundle set to disk as one JSON file per scope.
package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/padraicbc/electioncalls/aggregate"
)

// TopLevelFile is the nation bundle's file name.
const TopLevelFile = "top-level-results.json"

// FileName returns where a bundle is written inside the output directory.
func FileName(b *aggregate.Bundle) string {
	switch b.Kind {
	case aggregate.KindNation:
		return TopLevelFile
	default:
		return fmt.Sprintf("%s-%s.json", b.Kind, strings.ToLower(b.Key))
	}
}

// Dir publishes into a directory. Each Publish replaces the directory as a whole
// so readers never see a mix of two cycles.
type Dir struct {
	Path string
}

// Publish writes every bundle into a staging directory next to Path and swaps it
// in. On error the previous contents are left in place. The swap is two renames,
// so Path is briefly absent between them; readers either miss or see one whole
// cycle, never a mix.
func (d Dir) Publish(set *aggregate.BundleSet) (int, error) {
	parent := filepath.Dir(filepath.Clean(d.Path))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return 0, err
	}
	base := filepath.Base(filepath.Clean(d.Path))

	staging, err := os.MkdirTemp(parent, "."+base+"-staging-")
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	n := 0
	for _, b := range set.All() {
		raw, err := json.Marshal(b)
		if err != nil {
			return 0, fmt.Errorf("encoding %s %s: %w", b.Kind, b.Key, err)
		}
		if err := os.WriteFile(filepath.Join(staging, FileName(b)), raw, 0o644); err != nil {
			return 0, err
		}
		n++
	}
	if err := os.Chmod(staging, 0o755); err != nil {
		return 0, err
	}

	old := ""
	if _, err := os.Stat(d.Path); err == nil {
		old = filepath.Join(parent, "."+base+"-old")
		_ = os.RemoveAll(old)
		if err := os.Rename(d.Path, old); err != nil {
			return 0, err
		}
	}
	if err := os.Rename(staging, d.Path); err != nil {
		if old != "" {
			_ = os.Rename(old, d.Path)
		}
		return 0, err
	}
	committed = true
	if old != "" {
		_ = os.RemoveAll(old)
	}
	return n, nil
}
