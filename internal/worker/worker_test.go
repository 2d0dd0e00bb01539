package worker

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmitools/replay/internal/config"
	"github.com/acmitools/replay/internal/logging"
	"github.com/acmitools/replay/internal/parser"
	"github.com/acmitools/replay/internal/storage/memory"
)

const sampleRecording = `FileType=text/acmi/tacview
FileVersion=2.2
0,ReferenceTime=2020-01-01T00:00:00Z
0,ReferenceLongitude=30
0,ReferenceLatitude=50
#1.00
A100,T=30.01|50.01|1000|0|0|90,Name=Test
#2.00
A100,T=30.02|50.02|1000
`

func newTestManager(t *testing.T) (*Manager, *memory.Backend) {
	t.Helper()
	logManager := logging.NewSlogManager()
	logManager.Setup(logging.Options{File: io.Discard, Level: "error"})

	backend := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, backend.Init())

	return NewManager(Dependencies{LogManager: logManager}, backend), backend
}

func writeRecording(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(sampleRecording), 0644))
	return path
}

func TestIngestAll_MultipleRecordings(t *testing.T) {
	m, backend := newTestManager(t)
	dir := t.TempDir()

	paths := []string{
		writeRecording(t, dir, "alpha.txt.acmi"),
		writeRecording(t, dir, "bravo.txt.acmi"),
		writeRecording(t, dir, "charlie.txt.acmi"),
	}

	results := m.IngestAll(paths, 2)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Path)
		assert.Equal(t, 1, r.Stats.Objects)
		assert.False(t, r.IngestedAt.IsZero())
	}

	summaries, err := backend.ListRecordings()
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "alpha", summaries[0].Name)
	assert.Equal(t, "bravo", summaries[1].Name)
	assert.Equal(t, "charlie", summaries[2].Name)
}

func TestIngestAll_BadPathDoesNotStopOthers(t *testing.T) {
	m, backend := newTestManager(t)
	dir := t.TempDir()

	paths := []string{
		filepath.Join(dir, "missing.txt.acmi"),
		writeRecording(t, dir, "alpha.txt.acmi"),
	}

	results := m.IngestAll(paths, 2)
	require.Len(t, results, 2)

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Error(t, byName["missing"].Err)
	assert.NoError(t, byName["alpha"].Err)

	summaries, err := backend.ListRecordings()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "alpha", summaries[0].Name)
}

func TestIngestAll_BlankPathDoesNotStarveWorkers(t *testing.T) {
	m, backend := newTestManager(t)
	dir := t.TempDir()

	// A blank entry must come back as a failed result, not end the worker
	// before it reaches the recordings staged behind it.
	paths := []string{
		"",
		writeRecording(t, dir, "alpha.txt.acmi"),
		writeRecording(t, dir, "bravo.txt.acmi"),
	}

	// Single worker drains the queue in staged order.
	results := m.IngestAll(paths, 1)
	require.Len(t, results, 3)

	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	summaries, err := backend.ListRecordings()
	require.NoError(t, err)
	require.Len(t, summaries, 2)
}

func TestIngestAll_DuplicateNameRejected(t *testing.T) {
	m, _ := newTestManager(t)
	dirA := t.TempDir()
	dirB := t.TempDir()

	paths := []string{
		writeRecording(t, dirA, "alpha.txt.acmi"),
		writeRecording(t, dirB, "alpha.txt.acmi"),
	}

	// Single worker keeps ordering deterministic for the duplicate check.
	results := m.IngestAll(paths, 1)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "already indexed")
}

func TestIngestAll_EmptyPathList(t *testing.T) {
	m, _ := newTestManager(t)
	results := m.IngestAll(nil, 4)
	assert.Empty(t, results)
}

func TestIngestReport(t *testing.T) {
	report := IngestReport(parser.Stats{
		Lines:           100,
		Comments:        3,
		Frames:          10,
		PositionSamples: 50,
		PropertyUpdates: 20,
		Removals:        1,
		DroppedLines:    2,
		Objects:         5,
		ParseDuration:   1500 * time.Microsecond,
	})

	assert.Equal(t, uint(100), report.Lines)
	assert.Equal(t, uint(3), report.Comments)
	assert.Equal(t, uint(10), report.Frames)
	assert.Equal(t, uint(50), report.PositionSamples)
	assert.Equal(t, uint(20), report.PropertyUpdates)
	assert.Equal(t, uint(1), report.Removals)
	assert.Equal(t, uint(2), report.DroppedLines)
	assert.Equal(t, uint(5), report.Objects)
	assert.InDelta(t, 1.5, float64(report.ParseDurationMs), 1e-6)
}
