// Package logfile parses and imports DCSS server logfiles.
package logfile

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/crawlboard/internal/crawl"
	"github.com/verte-zerg/crawlboard/internal/model"
)

// ErrSkip marks a line that is valid but not a vanilla game.
var ErrSkip = errors.New("not a vanilla game")

var versionPattern = regexp.MustCompile(`^0\.\d+`)

// ParseLine converts one logfile line from server src into a Game.
func ParseLine(line, src string) (model.Game, error) {
	if strings.ContainsRune(line, '\x00') {
		return model.Game{}, ErrSkip
	}
	fields, err := splitFields(line)
	if err != nil {
		return model.Game{}, err
	}
	if _, ok := fields["start"]; !ok {
		return model.Game{}, ErrSkip
	}
	if fields["lv"] != "0.1" {
		return model.Game{}, ErrSkip
	}

	g := model.Game{
		Name:   fields["name"],
		Server: src,
		Char:   fields["char"],
		God:    fields["god"],
		Place:  fields["place"],
		Tmsg:   fields["tmsg"],
		Ktyp:   fields["ktyp"],
	}
	if g.Name == "" || len(g.Char) < 4 {
		return model.Game{}, fmt.Errorf("missing name or char: %q", strings.TrimSpace(line))
	}
	g.Species, g.Background = crawl.SplitCombo(g.Char)
	g.GID = fmt.Sprintf("%s:%s:%s", g.Name, src, fields["start"])
	g.Won = g.Ktyp == "winning"
	if g.God == "" {
		g.God = "Atheist"
	}
	g.God = crawl.FixGodName(g.God)

	version := versionPattern.FindString(fields["v"])
	if version == "" {
		return model.Game{}, fmt.Errorf("bad version %q", fields["v"])
	}
	g.Version = version

	if g.Start, err = ParseCrawlDate(fields["start"]); err != nil {
		return model.Game{}, fmt.Errorf("bad start: %w", err)
	}
	if g.End, err = ParseCrawlDate(fields["end"]); err != nil {
		return model.Game{}, fmt.Errorf("bad end: %w", err)
	}

	ints := []struct {
		key    string
		target *int64
	}{
		{"sc", &g.Score},
		{"turn", &g.Turns},
		{"dur", &g.Dur},
	}
	for _, f := range ints {
		if *f.target, err = intField(fields, f.key); err != nil {
			return model.Game{}, err
		}
	}
	small := []struct {
		key    string
		target *int
	}{
		{"xl", &g.XL},
		{"urune", &g.Runes},
		{"potionsused", &g.PotionsUsed},
		{"scrollsused", &g.ScrollsUsed},
	}
	for _, f := range small {
		n, err := intField(fields, f.key)
		if err != nil {
			return model.Game{}, err
		}
		*f.target = int(n)
	}
	return g, nil
}

// ParseCrawlDate parses a logfile date such as "20160102030405S". Months are
// 0-indexed in logfiles; the trailing S/D daylight marker is ignored.
func ParseCrawlDate(s string) (time.Time, error) {
	if len(s) < 14 {
		return time.Time{}, fmt.Errorf("crawl date %q too short", s)
	}
	parts := make([]int, 6)
	bounds := [][2]int{{0, 4}, {4, 6}, {6, 8}, {8, 10}, {10, 12}, {12, 14}}
	for i, b := range bounds {
		n, err := strconv.Atoi(s[b[0]:b[1]])
		if err != nil {
			return time.Time{}, fmt.Errorf("crawl date %q: %w", s, err)
		}
		parts[i] = n
	}
	month := parts[1] + 1
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("crawl date %q: month out of range", s)
	}
	return time.Date(parts[0], time.Month(month), parts[2], parts[3], parts[4], parts[5], 0, time.UTC), nil
}

// splitFields splits on single colons; "::" is an escaped colon.
func splitFields(line string) (map[string]string, error) {
	fields := map[string]string{}
	var cur strings.Builder
	flush := func() error {
		raw := cur.String()
		cur.Reset()
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		k, v, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("bad field %q", raw)
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
		return nil
	}
	for i := 0; i < len(line); i++ {
		if line[i] != ':' {
			cur.WriteByte(line[i])
			continue
		}
		if i+1 < len(line) && line[i+1] == ':' {
			cur.WriteByte(':')
			i++
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return fields, nil
}

func intField(fields map[string]string, key string) (int64, error) {
	v, ok := fields[key]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", key, err)
	}
	return n, nil
}
