package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/crawlboard/internal/logger"
	"github.com/verte-zerg/crawlboard/internal/metrics"
)

// DefaultWorkers is how many sources download at once.
const DefaultWorkers = 10

// Status describes what Download did with a URL.
type Status int

const (
	StatusDownloaded Status = iota
	StatusResumed
	StatusUpToDate
	StatusSkipped
	StatusMissing
)

func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusResumed:
		return "resumed"
	case StatusUpToDate:
		return "up-to-date"
	case StatusSkipped:
		return "skipped"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Summary counts Download outcomes for a fetch run.
type Summary struct {
	Downloaded int
	Resumed    int
	UpToDate   int
	Skipped    int
	Missing    int
	Failed     int
}

// Fetcher downloads logfiles over HTTP.
type Fetcher struct {
	client  *http.Client
	log     *logger.Logger
	workers int
}

// NewFetcher returns a Fetcher. A nil client gets a 60 second timeout.
func NewFetcher(client *http.Client, log *logger.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{client: client, log: log, workers: DefaultWorkers}
}

// Download fetches url into dest. An existing non-empty file is continued
// with a Range request. A zero-byte dest marks a URL that is known to be
// gone and is skipped; 404 and 403 responses create that marker.
func (f *Fetcher) Download(ctx context.Context, url, dest string) (Status, error) {
	var offset int64
	info, err := os.Stat(dest)
	switch {
	case err == nil && info.Size() == 0:
		return StatusSkipped, nil
	case err == nil:
		offset = info.Size()
	case !errors.Is(err, os.ErrNotExist):
		return 0, fmt.Errorf("failed to stat %s: %w", dest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		if err := appendBody(dest, resp.Body); err != nil {
			return 0, err
		}
		return StatusResumed, nil
	case http.StatusOK:
		if err := replaceBody(dest, resp.Body); err != nil {
			return 0, err
		}
		return StatusDownloaded, nil
	case http.StatusRequestedRangeNotSatisfiable:
		return StatusUpToDate, nil
	case http.StatusNotFound, http.StatusForbidden:
		if offset == 0 {
			if err := os.WriteFile(dest, nil, 0o644); err != nil {
				return 0, fmt.Errorf("failed to write marker %s: %w", dest, err)
			}
		}
		return StatusMissing, nil
	default:
		return 0, fmt.Errorf("unexpected status for %s: %s", url, resp.Status)
	}
}

// FetchAll downloads every URL of srcs into dir/<source name>/, one worker
// per source up to DefaultWorkers. Per-URL failures are logged and counted.
func (f *Fetcher) FetchAll(ctx context.Context, srcs []Source, dir string) (Summary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("failed to create logfile dir: %w", err)
	}
	results := make([]Summary, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, src := range srcs {
		g.Go(func() error {
			sum, err := f.fetchSource(ctx, src, dir)
			results[i] = sum
			return err
		})
	}
	err := g.Wait()

	var total Summary
	for _, r := range results {
		total.Downloaded += r.Downloaded
		total.Resumed += r.Resumed
		total.UpToDate += r.UpToDate
		total.Skipped += r.Skipped
		total.Missing += r.Missing
		total.Failed += r.Failed
	}
	return total, err
}

func (f *Fetcher) fetchSource(ctx context.Context, src Source, dir string) (Summary, error) {
	destDir := filepath.Join(dir, src.Name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("failed to create %s: %w", destDir, err)
	}
	urls := src.URLs()
	f.log.Info("downloading source files", zap.String("source", src.Name), zap.Int("files", len(urls)))

	var sum Summary
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		name, err := URLToFilename(url)
		if err != nil {
			f.log.Warn("skipping url", zap.String("url", url), zap.Error(err))
			sum.Failed++
			continue
		}
		status, err := f.Download(ctx, url, filepath.Join(destDir, name))
		if err != nil {
			f.log.Error("download failed", err, zap.String("url", url))
			metrics.FetchFilesTotal.WithLabelValues("failed").Inc()
			sum.Failed++
			continue
		}
		f.log.Debug("download finished", zap.String("url", url), zap.Stringer("status", status))
		metrics.FetchFilesTotal.WithLabelValues(status.String()).Inc()
		switch status {
		case StatusDownloaded:
			sum.Downloaded++
		case StatusResumed:
			sum.Resumed++
		case StatusUpToDate:
			sum.UpToDate++
		case StatusSkipped:
			sum.Skipped++
		case StatusMissing:
			sum.Missing++
		}
	}
	return sum, nil
}

func appendBody(dest string, body io.Reader) error {
	file, err := os.OpenFile(dest, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dest, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to resume %s: %w", dest, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return nil
}

func replaceBody(dest string, body io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "logfile-*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := io.Copy(tmpFile, body); err != nil {
		return fmt.Errorf("failed to download %s: %w", dest, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}
