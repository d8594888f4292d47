// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/crawlboard/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store wraps SQLite access for game data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			gid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			server TEXT NOT NULL,
			version TEXT NOT NULL,
			char TEXT NOT NULL,
			species TEXT NOT NULL,
			background TEXT NOT NULL,
			god TEXT NOT NULL,
			score INTEGER NOT NULL,
			xl INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			dur INTEGER NOT NULL,
			start_at INTEGER NOT NULL,
			end_at INTEGER NOT NULL,
			place TEXT NOT NULL,
			tmsg TEXT NOT NULL,
			ktyp TEXT NOT NULL,
			runes INTEGER NOT NULL,
			won INTEGER NOT NULL,
			potions_used INTEGER NOT NULL,
			scrolls_used INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS logfile_progress (
			path TEXT PRIMARY KEY,
			bytes_parsed INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_name ON games(name COLLATE NOCASE);`,
		`CREATE INDEX IF NOT EXISTS idx_games_end_at ON games(end_at);`,
		`CREATE INDEX IF NOT EXISTS idx_games_score ON games(score);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertGames stores games in one transaction. Games whose GID already exists
// are ignored. It returns the number of new games.
func (s *Store) InsertGames(ctx context.Context, games []model.Game) (inserted int, err error) {
	if len(games) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO games (gid, name, server, version, char, species, background, god, score, xl, turns, dur,
			start_at, end_at, place, tmsg, ktyp, runes, won, potions_used, scrolls_used)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	for _, g := range games {
		res, err := stmt.ExecContext(ctx,
			g.GID, g.Name, g.Server, g.Version, g.Char, g.Species, g.Background, g.God,
			g.Score, g.XL, g.Turns, g.Dur, g.Start.Unix(), g.End.Unix(),
			g.Place, g.Tmsg, g.Ktyp, g.Runes, boolToInt(g.Won), g.PotionsUsed, g.ScrollsUsed,
		)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// LogfileProgress returns the byte offset already imported from path.
func (s *Store) LogfileProgress(ctx context.Context, path string) (int64, error) {
	var offset int64
	err := s.db.QueryRowContext(ctx, `SELECT bytes_parsed FROM logfile_progress WHERE path = ?`, path).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return offset, err
}

// SaveLogfileProgress records the byte offset imported from path.
func (s *Store) SaveLogfileProgress(ctx context.Context, path string, offset int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logfile_progress (path, bytes_parsed) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET bytes_parsed = excluded.bytes_parsed`, path, offset)
	return err
}

const gameColumns = `gid, name, server, version, char, species, background, god, score, xl, turns, dur,
	start_at, end_at, place, tmsg, ktyp, runes, won, potions_used, scrolls_used`

// ListGames returns games matching the filter.
func (s *Store) ListGames(ctx context.Context, f model.GameFilter) ([]model.Game, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.Player != "" {
		clauses = append(clauses, "name = ? COLLATE NOCASE")
		args = append(args, f.Player)
	}
	if f.Won != nil {
		clauses = append(clauses, "won = ?")
		args = append(args, boolToInt(*f.Won))
	}
	if f.Version != "" {
		clauses = append(clauses, "version = ?")
		args = append(args, f.Version)
	}
	query := fmt.Sprintf(`SELECT %s FROM games WHERE %s ORDER BY %s`,
		gameColumns, strings.Join(clauses, " AND "), orderClause(f.Order))
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

// GetGame returns one game by GID.
func (s *Store) GetGame(ctx context.Context, gid string) (model.Game, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM games WHERE gid = ?`, gameColumns), gid)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, ErrNotFound
	}
	return g, err
}

// ListPlayers returns distinct player names sorted case-insensitively.
func (s *Store) ListPlayers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT MIN(name) FROM games GROUP BY name COLLATE NOCASE ORDER BY MIN(name) COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// CountGames returns the number of stored games.
func (s *Store) CountGames(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (model.Game, error) {
	var g model.Game
	var startAt, endAt int64
	var won int
	err := row.Scan(&g.GID, &g.Name, &g.Server, &g.Version, &g.Char, &g.Species, &g.Background, &g.God,
		&g.Score, &g.XL, &g.Turns, &g.Dur, &startAt, &endAt,
		&g.Place, &g.Tmsg, &g.Ktyp, &g.Runes, &won, &g.PotionsUsed, &g.ScrollsUsed)
	if err != nil {
		return model.Game{}, err
	}
	g.Start = time.Unix(startAt, 0).UTC()
	g.End = time.Unix(endAt, 0).UTC()
	g.Won = won != 0
	return g, nil
}

func orderClause(o model.GameOrder) string {
	switch o {
	case model.OrderScoreDesc:
		return "score DESC, end_at ASC"
	case model.OrderDurationAsc:
		return "dur ASC, end_at ASC"
	case model.OrderTurnsAsc:
		return "turns ASC, end_at ASC"
	case model.OrderStartAsc:
		return "start_at ASC, gid ASC"
	default:
		return "end_at DESC, gid ASC"
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
