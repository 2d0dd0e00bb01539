// Package worker runs the ingest pipeline: recordings are parsed on a pool
// of goroutines and persisted through a single writer, since the storage
// backends keep one connection.
package worker

import (
	"sync"
	"time"

	"github.com/acmitools/replay/internal/loader"
	"github.com/acmitools/replay/internal/logging"
	"github.com/acmitools/replay/internal/model"
	"github.com/acmitools/replay/internal/parser"
	"github.com/acmitools/replay/internal/queue"
	"github.com/acmitools/replay/internal/storage"
	"github.com/acmitools/replay/pkg/core"
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	LogManager *logging.SlogManager
}

// Result reports the outcome of ingesting one recording.
type Result struct {
	Path       string
	Name       string
	Stats      parser.Stats
	IngestedAt time.Time
	Err        error
}

type ingestItem struct {
	result  Result
	dataset *core.Dataset
}

// Manager manages ingest worker goroutines
type Manager struct {
	deps    Dependencies
	backend storage.Backend
	pending *queue.Queue[string]
}

// NewManager creates a new worker manager writing to the given backend.
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
		pending: queue.New[string](),
	}
}

// IngestAll parses the given recordings on up to workers goroutines and
// persists each through the backend. Results come back in completion order;
// a failed recording does not stop the rest.
func (m *Manager) IngestAll(paths []string, workers int) []Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	logger := m.deps.LogManager.Logger()
	m.pending.Push(paths...)

	parsedCh := make(chan ingestItem, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := parser.NewParser(logger)
			for {
				// All paths are staged before the workers start, so a
				// drained queue means no more work.
				path, ok := m.pending.Pop()
				if !ok {
					return
				}
				item := ingestItem{result: Result{
					Path:       path,
					Name:       loader.RecordingName(path),
					IngestedAt: time.Now(),
				}}

				text, err := loader.Load(path)
				if err != nil {
					item.result.Err = err
					parsedCh <- item
					continue
				}
				item.dataset, item.result.Stats, item.result.Err = p.Parse(text)
				parsedCh <- item
			}
		}()
	}

	go func() {
		wg.Wait()
		close(parsedCh)
	}()

	results := make([]Result, 0, len(paths))
	for item := range parsedCh {
		if item.result.Err == nil {
			item.result.Err = m.backend.SaveRecording(item.dataset, storage.Meta{
				Name:       item.result.Name,
				SourcePath: item.result.Path,
				IngestedAt: item.result.IngestedAt,
				Report:     IngestReport(item.result.Stats),
			})
		}
		if item.result.Err != nil {
			logger.Error("Failed to ingest recording", "path", item.result.Path, "error", item.result.Err)
		} else {
			logger.Info("Ingested recording",
				"name", item.result.Name,
				"objects", item.result.Stats.Objects,
				"samples", item.result.Stats.PositionSamples)
		}
		results = append(results, item.result)
	}
	return results
}

// IngestReport converts parse statistics into their persisted form.
func IngestReport(stats parser.Stats) model.IngestReport {
	return model.IngestReport{
		Lines:           uint(stats.Lines),
		Comments:        uint(stats.Comments),
		Frames:          uint(stats.Frames),
		PositionSamples: uint(stats.PositionSamples),
		PropertyUpdates: uint(stats.PropertyUpdates),
		Removals:        uint(stats.Removals),
		DroppedLines:    uint(stats.DroppedLines),
		Objects:         uint(stats.Objects),
		ParseDurationMs: float32(stats.ParseDuration.Seconds() * 1000),
	}
}
