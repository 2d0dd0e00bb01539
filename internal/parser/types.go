package parser

import (
	"fmt"
	"time"
)

// FileTypeHeader is the mandatory first significant line of an ACMI recording.
const FileTypeHeader = "FileType=text/acmi/tacview"

// FormatError is the only fatal parse error: the mandatory file-type header is
// missing or wrong. Every other anomaly is tolerated and skipped.
type FormatError struct {
	Line string
}

func (e *FormatError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("not an ACMI recording: no content, want %q header", FileTypeHeader)
	}
	return fmt.Sprintf("not an ACMI recording: first line %q, want %q", e.Line, FileTypeHeader)
}

// Stats summarizes one parse pass. Long recordings routinely contain
// truncation or minor corruption, so dropped-line counts matter for judging
// how much of a recording was salvaged.
type Stats struct {
	Lines           int
	Comments        int
	Frames          int
	PositionSamples int
	PropertyUpdates int
	Removals        int
	DroppedLines    int
	Objects         int
	ParseDuration   time.Duration
}
