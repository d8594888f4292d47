// Package blacklist loads account names excluded from the scoreboard.
package blacklist

import (
	"bufio"
	"errors"
	"os"
	"sort"
	"strings"
)

// DefaultBots are known bot accounts.
var DefaultBots = []string{
	"autorobin", "xw", "auto7hm", "rw", "qw", "ow", "qwrobin", "gw",
	"notqw", "jw", "parabodrick", "hyperqwbe", "cashybrid", "tstbtto",
	"parabolic", "oppbolic", "ew", "rushxxi", "gaubot", "cojitobot",
	"paulcdejean", "otabotab", "nakatomy", "testingqw", "beemell", "beem",
	"drasked", "phybot",
}

// Set is a case-insensitive set of account names.
type Set map[string]struct{}

// New builds a Set from names.
func New(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Add inserts a name.
func (s Set) Add(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

// Contains reports whether name is blacklisted.
func (s Set) Contains(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}

// Names returns the sorted names.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load reads one name per line from path. Blank lines and lines starting with
// '#' are ignored. A missing file yields DefaultBots.
func Load(path string) (Set, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(DefaultBots...), nil
		}
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only blacklist.
			_ = cerr
		}
	}()

	s := Set{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
