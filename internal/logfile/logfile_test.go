package logfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/crawlboard/internal/blacklist"
	"github.com/verte-zerg/crawlboard/internal/model"
)

const winLine = "v=0.17.1:lv=0.1:name=Stabwound:race=Minotaur:cls=Berserker:char=MiBe:xl=27:sk=Fighting:god=the Shining One:title=Slayer:place=D::1:start=20160102030405S:dur=12345:turn=54321:urune=3:sc=1234567:ktyp=winning:end=20160102050405S:tmsg=escaped with the Orb:potionsused=2:scrollsused=1\n"

const lossLine = "v=0.18.0:lv=0.1:name=bob:char=DDFi:xl=3:place=D::2:start=20160301000000S:dur=300:turn=900:sc=50:ktyp=mon:end=20160301001000S:tmsg=slain by a gnoll\n"

func TestParseLineWin(t *testing.T) {
	g, err := ParseLine(winLine, "cao")
	require.NoError(t, err)

	assert.Equal(t, "Stabwound", g.Name)
	assert.Equal(t, "cao", g.Server)
	assert.Equal(t, "0.17", g.Version)
	assert.Equal(t, "Mi", g.Species)
	assert.Equal(t, "Be", g.Background)
	assert.Equal(t, "The Shining One", g.God)
	assert.Equal(t, "D:1", g.Place)
	assert.Equal(t, int64(1234567), g.Score)
	assert.Equal(t, int64(54321), g.Turns)
	assert.Equal(t, int64(12345), g.Dur)
	assert.Equal(t, 27, g.XL)
	assert.Equal(t, 3, g.Runes)
	assert.Equal(t, 2, g.PotionsUsed)
	assert.True(t, g.Won)
	assert.Equal(t, "Stabwound:cao:20160102030405S", g.GID)
	assert.Equal(t, time.Date(2016, 2, 2, 3, 4, 5, 0, time.UTC), g.Start)
}

func TestParseLineDefaultsGod(t *testing.T) {
	g, err := ParseLine(lossLine, "cdo")
	require.NoError(t, err)
	assert.Equal(t, "Atheist", g.God)
	assert.False(t, g.Won)
	assert.Equal(t, "D:2", g.Place)
}

func TestParseLineSkips(t *testing.T) {
	_, err := ParseLine("v=0.17:lv=0.1-sprint:name=a:char=MiBe:start=20160102030405S\n", "cao")
	assert.ErrorIs(t, err, ErrSkip)

	_, err = ParseLine("v=0.17:lv=0.1:name=a:char=MiBe\n", "cao")
	assert.ErrorIs(t, err, ErrSkip)

	_, err = ParseLine("v=0.17:lv=0.1:name=a\x00:char=MiBe\n", "cao")
	assert.ErrorIs(t, err, ErrSkip)
}

func TestParseLineBadField(t *testing.T) {
	_, err := ParseLine("v=0.17:lv=0.1:garbage:start=20160102030405S\n", "cao")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSkip)
}

func TestParseCrawlDate(t *testing.T) {
	d, err := ParseCrawlDate("20161131235959D")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2016, 12, 31, 23, 59, 59, 0, time.UTC), d)

	_, err = ParseCrawlDate("2016")
	assert.Error(t, err)
	_, err = ParseCrawlDate("20161231235959S")
	assert.Error(t, err)
}

type memStore struct {
	games    map[string]model.Game
	progress map[string]int64
}

func newMemStore() *memStore {
	return &memStore{games: map[string]model.Game{}, progress: map[string]int64{}}
}

func (m *memStore) InsertGames(_ context.Context, games []model.Game) (int, error) {
	n := 0
	for _, g := range games {
		if _, ok := m.games[g.GID]; ok {
			continue
		}
		m.games[g.GID] = g
		n++
	}
	return n, nil
}

func (m *memStore) LogfileProgress(_ context.Context, path string) (int64, error) {
	return m.progress[path], nil
}

func (m *memStore) SaveLogfileProgress(_ context.Context, path string, offset int64) error {
	m.progress[path] = offset
	return nil
}

func TestImportResumesFromOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logfile")
	partial := "v=0.17:lv=0.1:name=carol"
	require.NoError(t, os.WriteFile(path, []byte(winLine+"garbage-line\n"+partial), 0o644))

	st := newMemStore()
	r := NewReader(st, nil, blacklist.New("qw"))
	ctx := context.Background()

	res, err := r.Import(ctx, path, "cao")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, 1, res.Games)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, int64(len(winLine)+len("garbage-line\n")), st.progress[path])

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(":char=MiBe\n" + lossLine)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err = r.Import(ctx, path, "cao")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Games)
	assert.Len(t, st.games, 2)
}

func TestImportSkipsBlacklisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logfile")
	require.NoError(t, os.WriteFile(path, []byte(lossLine), 0o644))

	st := newMemStore()
	res, err := NewReader(st, nil, blacklist.New("BOB")).Import(context.Background(), path, "cdo")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, st.games)
}

func TestCandidateLogfiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cao"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cdo"), 0o755))
	write := func(rel, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte(content), 0o644))
	}
	write("cao/meta-crawl-0.17-logfile", "x\n")
	write("cao/meta-crawl-0.17-milestones", "x\n")
	write("cdo/allgames-0.18.txt", "x\n")
	write("cdo/empty-logfile", "")
	write("cdo/readme", "x\n")

	got, err := CandidateLogfiles(dir, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Candidate{Path: filepath.Join(dir, "cao", "meta-crawl-0.17-logfile"), Server: "cao"}, got[0])
	assert.Equal(t, "cdo", got[1].Server)
}
