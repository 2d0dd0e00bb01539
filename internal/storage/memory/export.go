// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/acmitools/replay/internal/util"
	"github.com/acmitools/replay/pkg/core"
	"github.com/acmitools/replay/internal/storage"
)

// RecordingExport is the root JSON structure
type RecordingExport struct {
	Name               string            `json:"name"`
	SourcePath         string            `json:"sourcePath,omitempty"`
	ReferenceTime      time.Time         `json:"referenceTime"`
	ReferenceLongitude float64           `json:"referenceLongitude"`
	ReferenceLatitude  float64           `json:"referenceLatitude"`
	StartTime          float64           `json:"startTime"`
	EndTime            float64           `json:"endTime"`
	Headers            map[string]string `json:"headers,omitempty"`
	Objects            []ObjectJSON      `json:"objects"`
}

// ObjectJSON represents one tracked object
type ObjectJSON struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties,omitempty"`
	RemovedAt  *float64          `json:"removedAt,omitempty"`

	// Samples rows are [time, lon, lat, alt, roll, pitch, yaw] with null for
	// angles the recording did not supply.
	Samples [][]any `json:"samples"`
}

func buildExport(dataset *core.Dataset, meta storage.Meta) RecordingExport {
	export := RecordingExport{
		Name:               meta.Name,
		SourcePath:         meta.SourcePath,
		ReferenceTime:      dataset.ReferenceTime,
		ReferenceLongitude: dataset.ReferenceLongitude,
		ReferenceLatitude:  dataset.ReferenceLatitude,
		StartTime:          dataset.StartTime,
		EndTime:            dataset.EndTime,
		Headers:            dataset.Headers,
		Objects:            make([]ObjectJSON, 0, len(dataset.Objects)),
	}

	ids := make([]string, 0, len(dataset.Objects))
	for id := range dataset.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		obj := dataset.Objects[id]
		out := ObjectJSON{
			ID:         obj.ID,
			Properties: obj.Properties,
			RemovedAt:  obj.RemovedAt,
			Samples:    make([][]any, 0, len(obj.States)),
		}
		for _, s := range obj.States {
			out.Samples = append(out.Samples, []any{
				s.Time, s.Longitude, s.Latitude, s.Altitude,
				anglePtr(s.Roll), anglePtr(s.Pitch), anglePtr(s.Yaw),
			})
		}
		export.Objects = append(export.Objects, out)
	}

	return export
}

func anglePtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// exportJSON writes the recording export to a JSON file and returns its path
func (b *Backend) exportJSON(record *Record) (string, error) {
	name := util.SanitizeFileName(record.Meta.Name)
	timestamp := record.Export.ReferenceTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, record.Export); err != nil {
			return "", err
		}
	} else {
		if err := writeJSON(outputPath, record.Export); err != nil {
			return "", err
		}
	}

	return outputPath, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(v); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gz.Close()
}
