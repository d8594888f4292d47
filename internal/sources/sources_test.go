package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var fixedTime = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

func TestExpandBraces(t *testing.T) {
	cases := map[string][]string{
		"logfile":            {"logfile"},
		"logfile{11,12}":     {"logfile11", "logfile12"},
		"{a,b}{1,2}":         {"a1", "a2", "b1", "b2"},
		"0.{13..15}/logfile": {"0.13/logfile", "0.14/logfile", "0.15/logfile"},
		"v{3..1}":            {"v3", "v2", "v1"},
		"{x}{a,b}":           {"{x}a", "{x}b"},
		"{a,{b,c}}d":         {"ad", "bd", "cd"},
		"{,-git}":            {"", "-git"},
	}
	for in, want := range cases {
		if got := ExpandBraces(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("ExpandBraces(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSourceURLs(t *testing.T) {
	src := Source{
		Name: "test",
		Base: "http://example.org/meta",
		Logs: []string{"0.{1,2}/logfile", "0.1/logfile-sprint", "0.1/milestones", "git/logfile*"},
	}
	want := []string{
		"http://example.org/meta/0.1/logfile",
		"http://example.org/meta/0.2/logfile",
		"http://example.org/meta/git/logfile",
	}
	if got := src.URLs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected urls: %v", got)
	}
}

func TestSelect(t *testing.T) {
	selected, unknown := Select(Default, []string{"CAO", "nope", "cdo"})
	if len(selected) != 2 || selected[0].Name != "cao" || selected[1].Name != "cdo" {
		t.Fatalf("unexpected selection: %+v", selected)
	}
	if !reflect.DeepEqual(unknown, []string{"nope"}) {
		t.Fatalf("unexpected unknown names: %v", unknown)
	}
	if all, _ := Select(Default, nil); len(all) != len(Default) {
		t.Fatalf("expected all sources without names")
	}
}

func TestURLToFilename(t *testing.T) {
	got, err := URLToFilename("http://rl.heh.fi/meta/crawl-0.12/logfile")
	if err != nil {
		t.Fatalf("URLToFilename: %v", err)
	}
	if got != "meta-crawl-0.12-logfile" {
		t.Fatalf("unexpected filename %q", got)
	}
	if _, err := URLToFilename("http://example.org/"); err == nil {
		t.Fatalf("expected error for url without path")
	}
}

func TestDownloadFreshAndResume(t *testing.T) {
	content := "v=0.17:name=a\nv=0.17:name=b\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "logfile", fixedTime, strings.NewReader(content))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "logfile")
	f := NewFetcher(server.Client(), nil)

	status, err := f.Download(context.Background(), server.URL+"/logfile", dest)
	if err != nil || status != StatusDownloaded {
		t.Fatalf("fresh download: %v %v", status, err)
	}
	assertFile(t, dest, content)

	if err := os.WriteFile(dest, []byte(content[:10]), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	status, err = f.Download(context.Background(), server.URL+"/logfile", dest)
	if err != nil || status != StatusResumed {
		t.Fatalf("resume: %v %v", status, err)
	}
	assertFile(t, dest, content)

	status, err = f.Download(context.Background(), server.URL+"/logfile", dest)
	if err != nil || status != StatusUpToDate {
		t.Fatalf("complete file: %v %v", status, err)
	}
}

func TestDownloadMissingWritesMarker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "logfile")
	f := NewFetcher(server.Client(), nil)
	status, err := f.Download(context.Background(), server.URL+"/logfile", dest)
	if err != nil || status != StatusMissing {
		t.Fatalf("missing: %v %v", status, err)
	}
	assertFile(t, dest, "")

	status, err = f.Download(context.Background(), server.URL+"/logfile", dest)
	if err != nil || status != StatusSkipped {
		t.Fatalf("marker: %v %v", status, err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected marker to prevent a second request")
	}
}

func TestDownloadUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "logfile")
	f := NewFetcher(server.Client(), nil)
	if _, err := f.Download(context.Background(), server.URL+"/logfile", dest); err == nil {
		t.Fatalf("expected error for 500")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("expected no file after a failed download")
	}
}

func TestFetchAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/gone/logfile") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("v=0.17\n"))
	}))
	defer server.Close()

	srcs := []Source{
		{Name: "one", Base: server.URL + "/one", Logs: []string{"{a,b}/logfile"}},
		{Name: "two", Base: server.URL + "/two", Logs: []string{"gone/logfile"}},
	}
	dir := t.TempDir()
	sum, err := NewFetcher(server.Client(), nil).FetchAll(context.Background(), srcs, dir)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if sum.Downloaded != 2 || sum.Missing != 1 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	assertFile(t, filepath.Join(dir, "one", "one-a-logfile"), "v=0.17\n")
	assertFile(t, filepath.Join(dir, "two", "two-gone-logfile"), "")
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(data) != want {
		t.Fatalf("unexpected contents of %s: %q", path, data)
	}
}
