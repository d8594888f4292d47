package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/crawlboard/internal/board"
	"github.com/verte-zerg/crawlboard/internal/format"
	"github.com/verte-zerg/crawlboard/internal/model"
	"github.com/verte-zerg/crawlboard/internal/store"
)

type fakeStore struct {
	games []model.Game
	err   error
}

func (f *fakeStore) ListPlayers(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := map[string]bool{}
	var names []string
	for _, g := range f.games {
		if !seen[g.Name] {
			seen[g.Name] = true
			names = append(names, g.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeStore) ListGames(_ context.Context, filter model.GameFilter) ([]model.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Game
	for _, g := range f.games {
		if filter.Player != "" && !strings.EqualFold(g.Name, filter.Player) {
			continue
		}
		out = append(out, g)
	}
	switch filter.Order {
	case model.OrderScoreDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	case model.OrderStartAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].End.After(out[j].End) })
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) GetGame(_ context.Context, gid string) (model.Game, error) {
	if f.err != nil {
		return model.Game{}, f.err
	}
	for _, g := range f.games {
		if g.GID == gid {
			return g, nil
		}
	}
	return model.Game{}, store.ErrNotFound
}

func testGame(name string, day int, won bool, score int64) model.Game {
	start := time.Date(2017, 3, day, 0, 0, 0, 0, time.UTC)
	return model.Game{
		GID:     name + ":cao:" + start.Format("20060102"),
		Name:    name,
		Server:  "cao",
		Version: "0.19",
		Char:    "MiBe",
		God:     "Trog",
		Score:   score,
		Turns:   40000,
		Dur:     7200,
		Start:   start,
		End:     start.Add(3 * time.Hour),
		Won:     won,
	}
}

func newTestServer(st GameStore) *Server {
	b := board.New(format.New("2006-01-02", time.UTC))
	return New(st, b, nil, Options{URLBase: "https://example.org/", TableLength: 2, ShowGames: 2})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func sampleStore() *fakeStore {
	return &fakeStore{games: []model.Game{
		testGame("alice", 1, true, 1000000),
		testGame("alice", 2, true, 2000000),
		testGame("alice", 3, false, 500),
		testGame("bob", 1, true, 3000000),
	}}
}

func TestPlayersJSON(t *testing.T) {
	rec := get(t, newTestServer(sampleStore()), "/static/js/players.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestPlayersJSONEmpty(t *testing.T) {
	rec := get(t, newTestServer(&fakeStore{}), "/static/js/players.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestPlayerSummary(t *testing.T) {
	rec := get(t, newTestServer(sampleStore()), "/api/players/ALICE")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp playerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Name)
	assert.Equal(t, 3, resp.Games)
	assert.Equal(t, 2, resp.Wins)
	assert.Equal(t, "66.7", resp.WinRate)
	assert.Equal(t, "6", resp.HoursPlayed)
	require.NotNil(t, resp.Best)
	assert.Equal(t, "2,000,000", resp.Best.Cells[3])
	assert.Len(t, resp.RecentGames.Rows, 2)
	assert.Equal(t, 1, resp.HiddenGames)
	assert.Equal(t, "Minotaur Berserker", resp.RecentGames.Rows[0].Tooltip)
	assert.Equal(t, "https://example.org/api/players/alice", resp.RecentGames.Rows[0].PlayerURL)
	assert.Equal(t, "http://crawl.akrasiac.org/rawdata/alice/morgue-alice-20170303-030000.txt", resp.RecentGames.Rows[0].Morgue)
	assert.Equal(t, "2017-03-03", resp.RecentGames.Rows[0].Cells[6])
}

func TestPlayerNotFound(t *testing.T) {
	rec := get(t, newTestServer(sampleStore()), "/api/players/nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGameByGID(t *testing.T) {
	s := newTestServer(sampleStore())
	rec := get(t, s, "/api/games/bob:cao:20170301")
	require.Equal(t, http.StatusOK, rec.Code)
	var row gameRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, "bob:cao:20170301", row.GID)
	assert.Equal(t, "3,000,000", row.Cells[3])

	rec = get(t, s, "/api/games/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHighscores(t *testing.T) {
	s := newTestServer(sampleStore())

	rec := get(t, s, "/api/highscores")
	require.Equal(t, http.StatusOK, rec.Code)
	var table gameTable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Score", table.Headers[1])
	assert.Equal(t, "bob", table.Rows[0].Cells[0])
	assert.Equal(t, "3,000,000", table.Rows[0].Cells[1])

	rec = get(t, s, "/api/highscores?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Rows, 3)

	for _, bad := range []string{"0", "-1", "abc", "1001"} {
		rec = get(t, s, "/api/highscores?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", bad)
	}
}

func TestStreaks(t *testing.T) {
	rec := get(t, newTestServer(sampleStore()), "/api/streaks")
	require.Equal(t, http.StatusOK, rec.Code)

	var streaks []streakResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &streaks))
	require.Len(t, streaks, 1)
	assert.Equal(t, "alice", streaks[0].Player)
	assert.Equal(t, 2, streaks[0].Wins)
	assert.False(t, streaks[0].Active)
	require.NotNil(t, streaks[0].Breaker)
}

func TestRecords(t *testing.T) {
	st := sampleStore()
	removed := testGame("carol", 4, true, 9000000)
	removed.Char = "ElPr"
	ddfi := testGame("bob", 5, false, 700)
	ddfi.Char, ddfi.God = "DDFi", "Pakellas"
	st.games = append(st.games, removed, ddfi)

	rec := get(t, newTestServer(st), "/api/records")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp recordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Combo", resp.Combos.Headers[0])
	require.Len(t, resp.Combos.Rows, 2)
	assert.Equal(t, []string{"MiBe", "bob", "3,000,000"}, resp.Combos.Rows[0].Cells[:3])
	assert.Equal(t, "DDFi", resp.Combos.Rows[1].Cells[0])
	assert.Len(t, resp.Species.Rows, 2)
	assert.Len(t, resp.Backgrounds.Rows, 2)
	require.Len(t, resp.Gods.Rows, 1)
	assert.Equal(t, "Trog", resp.Gods.Rows[0].Cells[3])
	assert.Equal(t, []holderResponse{{Player: "bob", Highscores: 2, Combos: []string{"MiBe", "DDFi"}}}, resp.Holders)
}

func TestStoreErrorIs500(t *testing.T) {
	rec := get(t, newTestServer(&fakeStore{err: errors.New("boom")}), "/api/highscores")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to list highscores")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(sampleStore())
	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `crawlboard_http_requests_total{code="200",route="/healthz"}`)
}
