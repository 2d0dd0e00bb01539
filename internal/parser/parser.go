// Package parser turns raw ACMI 2.x text into a structured per-object time
// series in a single forward pass. Only the missing file-type header is fatal;
// malformed content after it is dropped so that as much as possible of a
// long-running recording survives.
package parser

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/acmitools/replay/internal/util"
	"github.com/acmitools/replay/pkg/core"
)

// Parser provides pure text -> core.Dataset conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger

	linesProcessed metric.Int64Counter
	linesDropped   metric.Int64Counter
}

// NewParser creates a new parser with only a logger dependency.
func NewParser(logger *slog.Logger) *Parser {
	p := &Parser{logger: logger}

	m := meter()
	var err error
	p.linesProcessed, err = m.Int64Counter(
		"parser.lines.processed",
		metric.WithDescription("Total recording lines processed"),
	)
	if err != nil {
		logger.Warn("Failed to create processed counter", "error", err)
	}
	p.linesDropped, err = m.Int64Counter(
		"parser.lines.dropped",
		metric.WithDescription("Total malformed recording lines dropped"),
	)
	if err != nil {
		logger.Warn("Failed to create dropped counter", "error", err)
	}

	return p
}

// parseState carries the per-pass mutable state through the line loop.
type parseState struct {
	dataset *core.Dataset
	stats   Stats

	sawFileType    bool
	seenFirstFrame bool
	currentTime    float64
}

// Parse consumes a full recording and returns the dataset. The returned error
// is non-nil only for a *FormatError; no partial dataset is returned then.
func (p *Parser) Parse(text string) (*core.Dataset, Stats, error) {
	start := time.Now()

	st := &parseState{dataset: core.NewDataset()}

	for _, raw := range util.SplitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		st.stats.Lines++
		if strings.HasPrefix(line, "//") {
			st.stats.Comments++
			continue
		}

		if !st.sawFileType {
			if line != FileTypeHeader {
				return nil, st.stats, &FormatError{Line: line}
			}
			st.sawFileType = true
			continue
		}

		p.parseLine(st, line)
	}

	// A recording with no significant lines at all, a zero-byte file
	// included, is still missing its mandatory header.
	if !st.sawFileType {
		return nil, st.stats, &FormatError{}
	}

	st.stats.Objects = len(st.dataset.Objects)
	st.stats.ParseDuration = time.Since(start)

	if p.linesProcessed != nil {
		p.linesProcessed.Add(context.Background(), int64(st.stats.Lines))
	}

	p.logger.Debug("Parsed recording",
		"objects", st.stats.Objects,
		"frames", st.stats.Frames,
		"samples", st.stats.PositionSamples,
		"dropped", st.stats.DroppedLines,
		"duration", st.stats.ParseDuration)

	return st.dataset, st.stats, nil
}

// parseLine routes one significant line to the frame/header/removal/update
// branch. The phase is determined by content; only seenFirstFrame is sticky.
func (p *Parser) parseLine(st *parseState, line string) {
	switch {
	case strings.HasPrefix(line, "#"):
		p.parseFrameMarker(st, line)
	case !st.seenFirstFrame && p.parseHeaderField(st, line):
		// consumed as a global header field
	case strings.HasPrefix(line, "-"):
		p.parseRemoval(st, line)
	default:
		p.parseObjectUpdate(st, line)
	}
}

// parseFrameMarker sets the current time for all subsequent object lines and
// permanently closes the header phase.
func (p *Parser) parseFrameMarker(st *parseState, line string) {
	t, err := strconv.ParseFloat(line[1:], 64)
	if err != nil {
		p.drop(st, "frame", line, err)
		return
	}

	if !st.seenFirstFrame {
		st.seenFirstFrame = true
		st.dataset.StartTime = t
		st.dataset.EndTime = t
	} else if t > st.dataset.EndTime {
		st.dataset.EndTime = t
	}
	st.currentTime = t
	st.stats.Frames++
}

// parseRemoval marks the referenced object as removed at the current time.
// Unknown ids are silently ignored.
func (p *Parser) parseRemoval(st *parseState, line string) {
	id := strings.TrimSpace(line[1:])
	obj, ok := st.dataset.Objects[id]
	if !ok {
		return
	}
	removedAt := st.currentTime
	obj.RemovedAt = &removedAt
	st.stats.Removals++
}

func (p *Parser) drop(st *parseState, kind, line string, err error) {
	st.stats.DroppedLines++
	if p.linesDropped != nil {
		p.linesDropped.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("kind", kind)))
	}
	p.logger.Debug("Dropped malformed line", "kind", kind, "line", line, "error", err)
}
