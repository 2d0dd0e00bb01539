// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/acmitools/replay/internal/model"
	"github.com/acmitools/replay/pkg/core"
)

// Backend is the interface all recording index implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveRecording indexes a parsed dataset under the given metadata.
	SaveRecording(dataset *core.Dataset, meta Meta) error

	// ListRecordings returns a summary of every indexed recording.
	ListRecordings() ([]Summary, error)
}

// Meta carries ingest metadata alongside a parsed dataset.
type Meta struct {
	Name       string
	SourcePath string
	IngestedAt time.Time
	Report     model.IngestReport
}

// Summary is a compact listing entry for an indexed recording.
type Summary struct {
	Name          string
	ReferenceTime time.Time
	StartTime     float64
	EndTime       float64
	Objects       int
}
