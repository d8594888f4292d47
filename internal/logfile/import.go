package logfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/verte-zerg/crawlboard/internal/blacklist"
	"github.com/verte-zerg/crawlboard/internal/logger"
	"github.com/verte-zerg/crawlboard/internal/metrics"
	"github.com/verte-zerg/crawlboard/internal/model"
)

var (
	logfilePattern   = regexp.MustCompile(`(logfile|allgames)`)
	milestonePattern = regexp.MustCompile(`milestone`)
)

// GameStore is the persistence used by Reader.
type GameStore interface {
	InsertGames(ctx context.Context, games []model.Game) (int, error)
	LogfileProgress(ctx context.Context, path string) (int64, error)
	SaveLogfileProgress(ctx context.Context, path string, offset int64) error
}

// Candidate is a logfile found on disk.
type Candidate struct {
	Path   string
	Server string
}

// Result counts the outcome of one import.
type Result struct {
	Lines   int
	Games   int
	Skipped int
	Failed  int
	Offset  int64
}

// Reader imports logfiles into a GameStore.
type Reader struct {
	store     GameStore
	log       *logger.Logger
	blacklist blacklist.Set
}

// NewReader builds a Reader. A nil blacklist keeps every account.
func NewReader(st GameStore, log *logger.Logger, bl blacklist.Set) *Reader {
	if log == nil {
		log = logger.NewNop()
	}
	if bl == nil {
		bl = blacklist.Set{}
	}
	return &Reader{store: st, log: log, blacklist: bl}
}

// CandidateLogfiles lists logfiles stored as dir/<server>/<file>. Empty files,
// milestone files and unknown files are skipped.
func CandidateLogfiles(dir string, log *logger.Logger) ([]Candidate, error) {
	if log == nil {
		log = logger.NewNop()
	}
	servers, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read logfile directory: %w", err)
	}
	var out []Candidate
	for _, srv := range servers {
		if !srv.IsDir() {
			continue
		}
		srcPath := filepath.Join(dir, srv.Name())
		files, err := os.ReadDir(srcPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", srcPath, err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			info, err := f.Info()
			if err != nil || info.Size() == 0 {
				continue
			}
			switch {
			case milestonePattern.MatchString(f.Name()):
				continue
			case logfilePattern.MatchString(f.Name()):
				out = append(out, Candidate{Path: filepath.Join(srcPath, f.Name()), Server: srv.Name()})
			default:
				log.Debug("skipping unknown file", zap.String("file", f.Name()))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Import reads the lines appended to path since the last import. A trailing
// line without a newline is left for the next run.
func (r *Reader) Import(ctx context.Context, path, src string) (Result, error) {
	offset, err := r.store.LogfileProgress(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load progress: %w", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only logfile.
			_ = cerr
		}
	}()
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Result{}, fmt.Errorf("failed to seek: %w", err)
	}

	log := r.log.With(zap.String("logfile", path), zap.String("server", src))
	res := Result{Offset: offset}
	var games []model.Game
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Result{}, fmt.Errorf("failed to read logfile: %w", err)
		}
		res.Offset += int64(len(line))
		res.Lines++
		if len(line) <= 1 {
			continue
		}
		g, err := ParseLine(line, src)
		switch {
		case errors.Is(err, ErrSkip):
			res.Skipped++
			continue
		case err != nil:
			res.Failed++
			log.Warn("failed to parse line", zap.Int("line", res.Lines), zap.Error(err))
			continue
		}
		if r.blacklist.Contains(g.Name) {
			res.Skipped++
			continue
		}
		games = append(games, g)
	}

	inserted, err := r.store.InsertGames(ctx, games)
	if err != nil {
		return Result{}, fmt.Errorf("failed to store games: %w", err)
	}
	res.Games = inserted
	metrics.ImportedGamesTotal.Add(float64(inserted))
	metrics.ImportSkippedLinesTotal.Add(float64(res.Skipped))
	metrics.ImportFailedLinesTotal.Add(float64(res.Failed))
	if err := r.store.SaveLogfileProgress(ctx, path, res.Offset); err != nil {
		return Result{}, fmt.Errorf("failed to save progress: %w", err)
	}
	log.Info("imported logfile",
		zap.Int("lines", res.Lines),
		zap.Int("games", res.Games),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
