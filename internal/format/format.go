// Package format converts raw scoreboard values into display strings.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// DefaultDateLayout mirrors the en-US locale date and time rendering.
const DefaultDateLayout = "1/2/2006, 3:04:05 PM"

// Column keys with dedicated formatting rules.
const (
	KeyDuration = "dur"
	KeyEnd      = "end"
	KeyCombo    = "char"
)

// Formatter renders column values for one display context. The layout and
// location stand in for the viewer's locale and timezone.
type Formatter struct {
	layout string
	loc    *time.Location
}

// New returns a Formatter. An empty layout selects DefaultDateLayout and a
// nil location selects time.Local.
func New(layout string, loc *time.Location) *Formatter {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{layout: layout, loc: loc}
}

// Location returns the zone dates are rendered in.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Hours returns whole hours in a duration given in seconds.
func Hours(seconds int64) int64 {
	return seconds / 3600
}

// Duration renders seconds as HH:MM:SS. The hour segment grows past two
// digits instead of wrapping.
func Duration(seconds int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// Date renders an epoch timestamp in seconds.
func (f *Formatter) Date(ts int64) string {
	return time.Unix(ts, 0).In(f.loc).Format(f.layout)
}

// ColumnHeader returns the table header label for a column key.
func ColumnHeader(key string) string {
	switch key {
	case KeyCombo:
		return "Combo"
	case KeyDuration:
		return "Duration"
	case KeyEnd:
		return "Date"
	default:
		return capitalize(key)
	}
}

// ColumnData routes a raw value through the formatter selected by key.
// Values that cannot be read as integers are returned unchanged.
func (f *Formatter) ColumnData(raw any, key string) any {
	switch key {
	case KeyDuration:
		if n, ok := toInt64(raw); ok {
			return Duration(n)
		}
	case KeyEnd:
		if n, ok := toInt64(raw); ok {
			return f.Date(n)
		}
	}
	return raw
}

// PrettyInt adds thousands separators.
func PrettyInt(n int64) string {
	return humanize.Comma(n)
}

// PrettyHours renders hours played, never less than one.
func PrettyHours(seconds int64) string {
	if seconds > 3600 {
		return strconv.FormatInt(Hours(seconds), 10)
	}
	return "1"
}

// Percentage converts a ratio to a percentage rounded to digits places.
func Percentage(ratio float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	scale := math.Pow(10, float64(digits))
	v := math.Round(ratio*100*scale) / scale
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return fromUint64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return fromUint64(n)
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case fmt.Stringer:
		return toInt64(n.String())
	default:
		return 0, false
	}
}

func fromUint64(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}
