package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/acmitools/replay/internal/util"
)

// referenceTimeLayouts are tried in order. Values without a timezone
// indicator are treated as UTC regardless.
var referenceTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseHeaderField handles global header lines, which appear only before the
// first frame marker: a bare FileVersion line or key=value pairs on the global
// object "0". It reports whether the line was consumed as a header line.
// Recognized keys are FileVersion, ReferenceTime, ReferenceLongitude and
// ReferenceLatitude; other global keys are kept verbatim in Dataset.Headers.
// Malformed values are a tolerated anomaly: the default stays in place.
func (p *Parser) parseHeaderField(st *parseState, line string) bool {
	if strings.HasPrefix(line, "FileVersion=") {
		// Version is informational only; 2.x framing is identical.
		return true
	}
	if !strings.HasPrefix(line, "0,") {
		return false
	}

	for _, token := range tokenize(line)[1:] {
		key, value := splitKeyValue(token)
		value = util.TrimQuotes(value)

		switch key {
		case "ReferenceTime":
			if t, err := parseReferenceTime(value); err == nil {
				st.dataset.ReferenceTime = t
			} else {
				p.logger.Debug("Ignoring malformed ReferenceTime", "value", value, "error", err)
			}
		case "ReferenceLongitude":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				st.dataset.ReferenceLongitude = v
			}
		case "ReferenceLatitude":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				st.dataset.ReferenceLatitude = v
			}
		default:
			if key != "" {
				st.dataset.Headers[key] = value
			}
		}
	}
	return true
}

func parseReferenceTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range referenceTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
