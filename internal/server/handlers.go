package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/verte-zerg/crawlboard/internal/board"
	"github.com/verte-zerg/crawlboard/internal/crawl"
	"github.com/verte-zerg/crawlboard/internal/format"
	"github.com/verte-zerg/crawlboard/internal/model"
	"github.com/verte-zerg/crawlboard/internal/scoring"
	"github.com/verte-zerg/crawlboard/internal/store"
)

const maxHighscoreLimit = 1000

type gameRow struct {
	GID       string   `json:"gid"`
	Cells     []string `json:"cells"`
	Tooltip   string   `json:"tooltip"`
	Morgue    string   `json:"morgue,omitempty"`
	PlayerURL string   `json:"player_url"`
}

type gameTable struct {
	Headers []string  `json:"headers"`
	Rows    []gameRow `json:"rows"`
}

type playerResponse struct {
	Name             string         `json:"name"`
	Games            int            `json:"games"`
	Wins             int            `json:"wins"`
	WinRate          string         `json:"win_rate"`
	HoursPlayed      string         `json:"hours_played"`
	Sparkline        string         `json:"sparkline"`
	Best             *gameRow       `json:"best,omitempty"`
	Fastest          *gameRow       `json:"fastest,omitempty"`
	Shortest         *gameRow       `json:"shortest,omitempty"`
	WinsBySpecies    map[string]int `json:"wins_by_species"`
	WinsByBackground map[string]int `json:"wins_by_background"`
	WinsByGod        map[string]int `json:"wins_by_god"`
	RecentGames      gameTable      `json:"recent_games"`
	HiddenGames      int            `json:"hidden_games"`
}

type streakResponse struct {
	Player  string    `json:"player"`
	Wins    int       `json:"wins"`
	Active  bool      `json:"active"`
	Games   gameTable `json:"games"`
	Breaker *gameRow  `json:"breaker,omitempty"`
}

type holderResponse struct {
	Player     string   `json:"player"`
	Highscores int      `json:"highscores"`
	Combos     []string `json:"combos"`
}

type recordsResponse struct {
	Combos      gameTable        `json:"combos"`
	Species     gameTable        `json:"species"`
	Backgrounds gameTable        `json:"backgrounds"`
	Gods        gameTable        `json:"gods"`
	Holders     []holderResponse `json:"holders"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListPlayers(r.Context())
	if err != nil {
		s.fail(w, "failed to list players", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	games, err := s.store.ListGames(r.Context(), model.GameFilter{Player: name, Order: model.OrderEndDesc})
	if err != nil {
		s.fail(w, "failed to list games", err)
		return
	}
	if len(games) == 0 {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown player " + name})
		return
	}

	sum := scoring.Summarize(games[0].Name, games)
	shown := len(games)
	if shown > s.opts.ShowGames {
		shown = s.opts.ShowGames
	}
	resp := playerResponse{
		Name:             sum.Name,
		Games:            sum.Games,
		Wins:             sum.Wins,
		WinRate:          format.Percentage(sum.WinRate, 1),
		HoursPlayed:      format.PrettyHours(sum.TotalDur),
		Sparkline:        sum.ScoreSparkline,
		Best:             s.optionalRow(sum.Best, board.PlayerColumns),
		Fastest:          s.optionalRow(sum.Fastest, board.PlayerColumns),
		Shortest:         s.optionalRow(sum.Shortest, board.PlayerColumns),
		WinsBySpecies:    sum.WinsBySpecies,
		WinsByBackground: sum.WinsByBackground,
		WinsByGod:        sum.WinsByGod,
		RecentGames:      s.table(games[:shown], board.PlayerColumns),
		HiddenGames:      len(games) - shown,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	gid := mux.Vars(r)["gid"]
	g, err := s.store.GetGame(r.Context(), gid)
	if errors.Is(err, store.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown game " + gid})
		return
	}
	if err != nil {
		s.fail(w, "failed to load game", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.row(g, board.PlayerColumns))
}

func (s *Server) handleHighscores(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.TableLength
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHighscoreLimit {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and " + strconv.Itoa(maxHighscoreLimit)})
			return
		}
		limit = n
	}
	games, err := s.store.ListGames(r.Context(), model.GameFilter{Order: model.OrderScoreDesc, Limit: limit})
	if err != nil {
		s.fail(w, "failed to list highscores", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.table(games, board.WinColumns))
}

func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.ListGames(r.Context(), model.GameFilter{Order: model.OrderStartAsc})
	if err != nil {
		s.fail(w, "failed to list games", err)
		return
	}
	streaks := scoring.Streaks(games)
	out := make([]streakResponse, 0, len(streaks))
	for _, st := range streaks {
		out = append(out, streakResponse{
			Player:  st.Player,
			Wins:    len(st.Games),
			Active:  st.Active,
			Games:   s.table(st.Games, board.PlayerColumns),
			Breaker: s.optionalRow(st.Breaker, board.PlayerColumns),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.ListGames(r.Context(), model.GameFilter{Order: model.OrderScoreDesc})
	if err != nil {
		s.fail(w, "failed to list games", err)
		return
	}
	rec := scoring.Records(games)
	resp := recordsResponse{
		Combos:      s.table(rec.Combos, board.RecordColumns),
		Species:     s.table(rec.Species, board.RecordColumns),
		Backgrounds: s.table(rec.Backgrounds, board.RecordColumns),
		Gods:        s.table(rec.Gods, board.RecordColumns),
		Holders:     make([]holderResponse, 0, len(rec.Holders)),
	}
	for _, h := range rec.Holders {
		combos := make([]string, len(h.Games))
		for i, g := range h.Games {
			combos[i] = g.Char
		}
		resp.Holders = append(resp.Holders, holderResponse{Player: h.Player, Highscores: len(h.Games), Combos: combos})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) table(games []model.Game, columns []string) gameTable {
	t := gameTable{Headers: s.board.Headers(columns), Rows: make([]gameRow, 0, len(games))}
	for _, g := range games {
		t.Rows = append(t.Rows, s.row(g, columns))
	}
	return t
}

func (s *Server) optionalRow(g *model.Game, columns []string) *gameRow {
	if g == nil {
		return nil
	}
	row := s.row(*g, columns)
	return &row
}

func (s *Server) row(g model.Game, columns []string) gameRow {
	cells := make([]string, len(columns))
	for i, key := range columns {
		cells[i] = s.board.Cell(g, key)
	}
	morgue, err := crawl.MorgueURL(g.Server, g.Version, g.Name, g.End)
	if err != nil {
		s.logger.Debug("no morgue url", zap.String("gid", g.GID), zap.Error(err))
	}
	return gameRow{
		GID:       g.GID,
		Cells:     cells,
		Tooltip:   board.Tooltip(g),
		Morgue:    morgue,
		PlayerURL: strings.TrimRight(s.opts.URLBase, "/") + "/api/players/" + url.PathEscape(g.Name),
	}
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", err)
	}
}
