// internal/storage/storage_test.go
package storage_test

import (
	"testing"
	"time"

	"github.com/acmitools/replay/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestSummaryFields(t *testing.T) {
	ref := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := storage.Summary{
		Name:          "sortie_12",
		ReferenceTime: ref,
		StartTime:     1.5,
		EndTime:       3600.5,
		Objects:       42,
	}

	assert.Equal(t, "sortie_12", s.Name)
	assert.Equal(t, ref, s.ReferenceTime)
	assert.Equal(t, 1.5, s.StartTime)
	assert.Equal(t, 3600.5, s.EndTime)
	assert.Equal(t, 42, s.Objects)
}
