package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NaiveLayout renders a naive timestamp: no offset, fractional seconds only
// when present.
const NaiveLayout = "2006-01-02T15:04:05.999999"

// Accepted ISO-8601 shapes, tried in order. A fractional second after the
// seconds field is accepted by time.Parse even when the layout omits it.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Naive drops the offset of t while keeping its wall clock. The result is
// located in UTC. No conversion happens: 00:00+02:00 becomes 00:00.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ParseNaive parses an ISO-8601 timestamp and returns it as a naive value.
func ParseNaive(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised ISO-8601 timestamp %q", raw)
}

// NaiveString formats t without an offset.
func NaiveString(t time.Time) string {
	return Naive(t).Format(NaiveLayout)
}

// NaiveTime is a time.Time that travels through JSON as a naive ISO-8601
// string. Any offset on input is dropped.
type NaiveTime struct {
	time.Time
}

func (t NaiveTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(NaiveString(t.Time))
}

func (t *NaiveTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseNaive(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// TruncateRunes returns s cut to at most max characters.
func TruncateRunes(s string, max int) string {
	if max < 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
