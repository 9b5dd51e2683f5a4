package scraper

import (
	"strings"
	"time"
)

// Tibiantis publishes timestamps in the server's local wall-clock time with
// a trailing zone abbreviation. Only the two zones the server actually uses
// are recognized; anything else is a parse failure, never a crash. The map
// is the single place to extend when the server changes zones.
var zoneOffsets = map[string]int{
	"CEST": 2 * 60 * 60,
	"CET":  1 * 60 * 60,
}

const timestampLayout = "Jan 02 2006, 15:04:05"

// ParseTimestamp parses a raw Tibiantis timestamp such as
// "Apr 06 2025, 21:06:54 CEST". It returns nil when the value cannot be
// parsed or carries an unknown zone abbreviation; a nil time downgrades the
// field to "unknown" without failing the enclosing record.
func ParseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	idx := strings.LastIndexByte(raw, ' ')
	if idx < 0 {
		return nil
	}
	abbr := raw[idx+1:]
	offset, ok := zoneOffsets[abbr]
	if !ok {
		return nil
	}

	t, err := time.Parse(timestampLayout, strings.TrimSpace(raw[:idx]))
	if err != nil {
		return nil
	}

	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0,
		time.FixedZone(abbr, offset))
	return &t
}
