package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeTraceFixture(t *testing.T, dir string, traceID int) {
	t.Helper()
	failurePath, transientFailPath, transientRepairPath := fileNames(dir, traceID)

	writeYAML := func(path string, data fileFormat) {
		b, err := yaml.Marshal(data)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, b, 0o644))
	}

	writeYAML(failurePath, fileFormat{0: {100.5, 50.0}})
	writeYAML(transientFailPath, fileFormat{0: {10.0}})
	writeYAML(transientRepairPath, fileFormat{0: {12.0}, 1: {5.0}})
}

func TestLoadParsesAndSortsEventTimes(t *testing.T) {
	dir := t.TempDir()
	writeTraceFixture(t, dir, 9)

	tr, err := Load(dir, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, tr.ID())

	ev := tr.EventsForNode(0)
	assert.Equal(t, []float64{50.0, 100.5}, ev.PermanentFailures)
	assert.Equal(t, []float64{10.0}, ev.TransientFailures)
	assert.Equal(t, []float64{12.0}, ev.TransientRepairs)
}

func TestEventsForUnmentionedNodeAreEmpty(t *testing.T) {
	dir := t.TempDir()
	writeTraceFixture(t, dir, 9)

	tr, err := Load(dir, 9)
	require.NoError(t, err)
	ev := tr.EventsForNode(99)
	assert.Empty(t, ev.PermanentFailures)
	assert.Empty(t, ev.TransientFailures)
	assert.Empty(t, ev.TransientRepairs)
}

func TestLoadMissingFileIsTraceError(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, 42)
	assert.Error(t, err)
}

func TestLoadMalformedFileIsTraceError(t *testing.T) {
	dir := t.TempDir()
	failurePath, transientFailPath, transientRepairPath := fileNames(dir, 1)
	require.NoError(t, os.WriteFile(failurePath, []byte("not: [valid yaml structure"), 0o644))
	require.NoError(t, os.WriteFile(transientFailPath, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(transientRepairPath, []byte("{}"), 0o644))

	_, err := Load(dir, 1)
	assert.Error(t, err)
}

func TestFileNamesAreDeterministic(t *testing.T) {
	f, tf, tr := fileNames(filepath.Join("x", "y"), 3)
	assert.Contains(t, f, "s3n0-failure.yaml")
	assert.Contains(t, tf, "s3n0-transient-fail.yaml")
	assert.Contains(t, tr, "s3n0-transient-repair.yaml")
}
