// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/acmitools/replay/internal/config"
	"github.com/acmitools/replay/internal/storage"
	"github.com/acmitools/replay/pkg/core"
)

// Record groups an indexed recording with its export payload
type Record struct {
	Meta   storage.Meta
	Export RecordingExport
}

// Backend stores recording indexes in memory and exports each to JSON
type Backend struct {
	cfg        config.MemoryConfig
	recordings map[string]*Record // keyed by recording name

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:        cfg,
		recordings: make(map[string]*Record),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SaveRecording indexes the dataset in memory and writes its JSON export
func (b *Backend) SaveRecording(dataset *core.Dataset, meta storage.Meta) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.recordings[meta.Name]; ok {
		return fmt.Errorf("recording %q is already indexed", meta.Name)
	}

	record := &Record{
		Meta:   meta,
		Export: buildExport(dataset, meta),
	}

	path, err := b.exportJSON(record)
	if err != nil {
		return err
	}

	b.recordings[meta.Name] = record
	b.lastExportPath = path
	return nil
}

// ListRecordings returns a summary of every indexed recording, sorted by name
func (b *Backend) ListRecordings() ([]storage.Summary, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	summaries := make([]storage.Summary, 0, len(b.recordings))
	for _, record := range b.recordings {
		summaries = append(summaries, storage.Summary{
			Name:          record.Meta.Name,
			ReferenceTime: record.Export.ReferenceTime,
			StartTime:     record.Export.StartTime,
			EndTime:       record.Export.EndTime,
			Objects:       len(record.Export.Objects),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

// GetExportedFilePath returns the path of the most recent JSON export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
