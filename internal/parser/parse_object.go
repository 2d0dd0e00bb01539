package parser

import (
	"strconv"
	"strings"

	"github.com/acmitools/replay/internal/util"
	"github.com/acmitools/replay/pkg/core"
)

// tokenize splits an object line on commas, honoring double-quote-delimited
// runs: a quote toggles the in-quotes flag and a comma inside quotes belongs
// to the field. Quote characters stay in the token; value unwrapping happens
// at the key=value stage.
func tokenize(line string) []string {
	fields := make([]string, 0, 8)
	var b strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			b.WriteRune(r)
		case r == ',' && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	fields = append(fields, b.String())
	return fields
}

// splitKeyValue splits a token at the first '='. A token without '=' becomes
// a key with an empty value.
func splitKeyValue(token string) (string, string) {
	if i := strings.Index(token, "="); i >= 0 {
		return token[:i], token[i+1:]
	}
	return token, ""
}

// parseObjectUpdate applies one object line: the first token is the id
// (creating the object on first reference), each remaining token a key=value
// pair. "T" carries the pipe-separated transform; everything else goes into
// the property bag, last write wins.
func (p *Parser) parseObjectUpdate(st *parseState, line string) {
	fields := tokenize(line)
	id := fields[0]
	if id == "" {
		p.drop(st, "update", line, nil)
		return
	}

	obj := st.dataset.Object(id)

	for _, token := range fields[1:] {
		key, value := splitKeyValue(token)
		value = util.TrimQuotes(value)

		if key == "T" {
			if p.parseTransform(st, obj, value) {
				st.stats.PositionSamples++
			} else {
				st.stats.DroppedLines++
			}
			continue
		}

		obj.Properties[key] = value
		st.stats.PropertyUpdates++
	}
}

// parseTransform appends a TimeState built from a pipe-separated value of up
// to six ordinal fields: longitude, latitude, altitude, roll, pitch, yaw.
// Empty or non-numeric fields are absent, not zero. A sample missing any of
// the three core coordinates is dropped entirely; there are no partial
// samples. Reports whether a state was appended.
func (p *Parser) parseTransform(st *parseState, obj *core.TrackedObject, value string) bool {
	parts := strings.Split(value, "|")
	if len(parts) > 6 {
		parts = parts[:6]
	}

	ords := make([]*float64, 6)
	for i, part := range parts {
		if part == "" {
			continue
		}
		if v, err := strconv.ParseFloat(part, 64); err == nil {
			ords[i] = &v
		}
	}

	lon, lat, alt := ords[0], ords[1], ords[2]
	if lon == nil || lat == nil || alt == nil {
		return false
	}

	obj.States = append(obj.States, core.TimeState{
		Time:      st.currentTime,
		Longitude: *lon,
		Latitude:  *lat,
		Altitude:  *alt,
		Roll:      ords[3],
		Pitch:     ords[4],
		Yaw:       ords[5],
	})
	return true
}
