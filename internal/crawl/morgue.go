package crawl

import (
	"fmt"
	"strings"
	"time"
)

type morgueHost struct {
	prefix    string
	versioned bool
	noMorgues bool
}

var morgueHosts = map[string]morgueHost{
	"cao":  {prefix: "http://crawl.akrasiac.org/rawdata"},
	"cdo":  {prefix: "http://crawl.develz.org/morgues", versioned: true},
	"cszo": {prefix: "http://dobrazupa.org/morgue"},
	"cue":  {prefix: "http://underhound.eu:81/crawl/morgue"},
	"clan": {prefix: "http://underhound.eu:81/crawl/morgue"},
	"cbro": {prefix: "http://crawl.berotato.org/crawl/morgue"},
	"cxc":  {prefix: "http://crawl.xtahua.com/crawl/morgue"},
	"lld":  {prefix: "http://lazy-life.ddo.jp:8080/morgue", versioned: true},
	"cpo":  {prefix: "https://crawl.project357.org/morgue"},
	"cjr":  {prefix: "http://www.jorgrun.rocks/morgue"},
	"cwz":  {prefix: "http://webzook.net/soup/morgue", versioned: true},
	"ckr":  {noMorgues: true},
	"csn":  {noMorgues: true},
	"rhf":  {noMorgues: true},
}

// MorgueURL builds the morgue file URL for a game. Servers that no longer host
// morgues return an empty string.
func MorgueURL(server, version, account string, end time.Time) (string, error) {
	host, ok := morgueHosts[strings.ToLower(server)]
	if !ok {
		return "", fmt.Errorf("no morgue prefix for server %q", server)
	}
	if host.noMorgues {
		return "", nil
	}
	prefix := host.prefix
	if host.versioned {
		prefix += "/" + VersionURL(version)
	}
	stamp := end.UTC().Format("20060102-150405")
	return fmt.Sprintf("%s/%s/morgue-%s-%s.txt", prefix, account, account, stamp), nil
}

// VersionURL trims a version for use in morgue paths: development versions map
// to "trunk" and patch levels are dropped.
func VersionURL(version string) string {
	if strings.HasSuffix(version, "a0") {
		return "trunk"
	}
	if len(version) > 4 {
		if i := strings.LastIndexByte(version, '.'); i >= 0 {
			return version[:i]
		}
	}
	return version
}
