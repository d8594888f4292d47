// Package sources lists public server logfiles and downloads them.
package sources

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	logfilePattern = regexp.MustCompile(`(logfile|allgames)`)
	// Sprint and zotdef games, plus servers that are gone.
	ignoredPattern = regexp.MustCompile(`(sprint|zotdef|rl\.heh\.fi|crawlus\.somatika\.net)`)
)

// Source is one server and the logfile paths it publishes, relative to Base.
// Paths may use {a,b} and {1..3} alternatives.
type Source struct {
	Name string
	Base string
	Logs []string
}

// Default lists the public servers whose logfiles are fetched.
var Default = []Source{
	{Name: "cao", Base: "http://crawl.akrasiac.org/", Logs: []string{"logfile{04,05,06,07,08,09,10,11,12,13,14,15,16,17,18,19,20,21,22,23,24}", "logfile-git"}},
	{Name: "cdo", Base: "https://crawl.develz.org/", Logs: []string{"allgames-0.{10..24}.txt", "allgames-svn.txt"}},
	{Name: "cbro", Base: "http://crawl.berotato.org/crawl/meta/", Logs: []string{"0.{13..24}/logfile", "git/logfile"}},
	{Name: "cue", Base: "https://underhound.eu/crawl/meta/", Logs: []string{"0.{13..24}/logfile", "git/logfile"}},
	{Name: "cxc", Base: "https://crawl.xtahua.com/crawl/meta/", Logs: []string{"0.{14..24}/logfile", "git/logfile"}},
	{Name: "cwz", Base: "https://webzook.net/soup/", Logs: []string{"0.{13..24}/logfile", "trunk/logfile"}},
	{Name: "lld", Base: "http://lazy-life.ddo.jp/mirror/meta/", Logs: []string{"0.{14..24}/logfile", "trunk/logfile"}},
	{Name: "cpo", Base: "https://crawl.project357.org/", Logs: []string{"dcss-logfiles-0.{15..24}", "dcss-logfiles-trunk"}},
	{Name: "cjr", Base: "https://crawl.jorgrun.rocks/meta/", Logs: []string{"0.{17..24}/logfile", "git/logfile"}},
	{Name: "cszo", Base: "https://dobrazupa.org/meta/", Logs: []string{"0.{10..24}/logfile", "git/logfile", "0.{10..24}/logfile-sprint"}},
}

// URLs returns the expanded logfile URLs of s. Ignored servers and game
// modes are dropped, as are paths that are not logfiles.
func (s Source) URLs() []string {
	base := s.Base
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	var out []string
	for _, line := range s.Logs {
		for _, path := range ExpandBraces(strings.ReplaceAll(line, "*", "")) {
			entry := base + path
			if ignoredPattern.MatchString(entry) {
				continue
			}
			if !logfilePattern.MatchString(entry) {
				continue
			}
			out = append(out, entry)
		}
	}
	return out
}

// Select returns the sources named in names, in the order given. Unknown
// names are returned separately. An empty names list selects all.
func Select(all []Source, names []string) ([]Source, []string) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]Source, len(all))
	for _, s := range all {
		byName[strings.ToLower(s.Name)] = s
	}
	var selected []Source
	var unknown []string
	for _, name := range names {
		if s, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
			selected = append(selected, s)
			continue
		}
		unknown = append(unknown, name)
	}
	return selected, unknown
}

// URLToFilename flattens the path of a logfile URL into a file name.
func URLToFilename(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	name := strings.ReplaceAll(strings.TrimLeft(u.Path, "/"), "/", "-")
	if name == "" {
		return "", fmt.Errorf("url %q has no path", raw)
	}
	return name, nil
}

// ExpandBraces expands shell-style {a,b} alternatives and {1..3} integer
// ranges into every combination, left to right. Braces without an
// alternative are kept literally.
func ExpandBraces(pattern string) []string {
	start, end, alts := findGroup(pattern)
	if start < 0 {
		return []string{pattern}
	}
	prefix, suffix := pattern[:start], pattern[end+1:]
	var out []string
	for _, alt := range alts {
		out = append(out, ExpandBraces(prefix+alt+suffix)...)
	}
	return out
}

func findGroup(s string) (int, int, []string) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		end, alts, ok := matchGroup(s, i)
		if ok {
			return i, end, alts
		}
	}
	return -1, -1, nil
}

func matchGroup(s string, start int) (int, []string, bool) {
	depth := 0
	last := start + 1
	var alts []string
	for j := start; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case ',':
			if depth == 1 {
				alts = append(alts, s[last:j])
				last = j + 1
			}
		case '}':
			depth--
			if depth > 0 {
				continue
			}
			if alts != nil {
				return j, append(alts, s[last:j]), true
			}
			if r, ok := expandRange(s[start+1 : j]); ok {
				return j, r, true
			}
			return 0, nil, false
		}
	}
	return 0, nil, false
}

func expandRange(body string) ([]string, bool) {
	lo, hi, found := strings.Cut(body, "..")
	if !found {
		return nil, false
	}
	from, err := strconv.Atoi(lo)
	if err != nil {
		return nil, false
	}
	to, err := strconv.Atoi(hi)
	if err != nil {
		return nil, false
	}
	step := 1
	if to < from {
		step = -1
	}
	var out []string
	for n := from; ; n += step {
		out = append(out, strconv.Itoa(n))
		if n == to {
			break
		}
	}
	return out, true
}
