package publish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/electioncalls/aggregate"
)

func bundleSet(stamp time.Time) *aggregate.BundleSet {
	return &aggregate.BundleSet{
		Races:    []*aggregate.Bundle{{Kind: aggregate.KindRace, Key: "10-az", LastUpdated: stamp}},
		States:   []*aggregate.Bundle{{Kind: aggregate.KindState, Key: "AZ", LastUpdated: stamp}},
		Chambers: []*aggregate.Bundle{{Kind: aggregate.KindChamber, Key: "senate", LastUpdated: stamp, Incomplete: true}},
		Nation:   &aggregate.Bundle{Kind: aggregate.KindNation, Key: "top-level", LastUpdated: stamp},
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "race-10-az.json", FileName(&aggregate.Bundle{Kind: aggregate.KindRace, Key: "10-az"}))
	assert.Equal(t, "state-az.json", FileName(&aggregate.Bundle{Kind: aggregate.KindState, Key: "AZ"}))
	assert.Equal(t, "chamber-senate.json", FileName(&aggregate.Bundle{Kind: aggregate.KindChamber, Key: "senate"}))
	assert.Equal(t, TopLevelFile, FileName(&aggregate.Bundle{Kind: aggregate.KindNation, Key: "top-level"}))
}

func TestPublishReplacesWholeDirectory(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "rendered")
	d := Dir{Path: out}

	first := time.Date(2026, 11, 3, 23, 0, 0, 0, time.UTC)
	n, err := d.Publish(bundleSet(first))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"chamber-senate.json", "race-10-az.json", "state-az.json", TopLevelFile}, listDir(t, out))

	// A stale file from the previous cycle disappears with the swap.
	require.NoError(t, os.WriteFile(filepath.Join(out, "race-stale.json"), []byte("{}"), 0o644))
	second := first.Add(time.Hour)
	_, err = d.Publish(bundleSet(second))
	require.NoError(t, err)
	assert.NotContains(t, listDir(t, out), "race-stale.json")

	raw, err := os.ReadFile(filepath.Join(out, "chamber-senate.json"))
	require.NoError(t, err)
	var b aggregate.Bundle
	require.NoError(t, json.Unmarshal(raw, &b))
	assert.True(t, b.Incomplete)
	assert.True(t, second.Equal(b.LastUpdated))

	// Only the published directory is left behind.
	assert.Equal(t, []string{"rendered"}, listDir(t, root))
}
