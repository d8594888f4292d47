package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/crawlboard/internal/crawl"
	"github.com/verte-zerg/crawlboard/internal/format"
	"github.com/verte-zerg/crawlboard/internal/model"
)

// Column sets for the standard tables.
var (
	RecentColumns = []string{"name", "char", "god", "place", "turns", "dur", "end", "version"}
	WinColumns    = []string{"name", "score", "char", "god", "runes", "turns", "dur", "end", "version"}
	PlayerColumns = []string{"char", "god", "place", "score", "turns", "dur", "end", "version"}
	RecordColumns = []string{"char", "name", "score", "god", "runes", "turns", "dur", "end", "version"}
)

var numericColumns = map[string]bool{
	"score": true,
	"turns": true,
	"dur":   true,
	"end":   true,
	"runes": true,
	"level": true,
}

// Board renders games through an injected Formatter.
type Board struct {
	fmt *format.Formatter
}

// New returns a Board using f for every cell.
func New(f *format.Formatter) *Board {
	return &Board{fmt: f}
}

// Formatter returns the formatter cells are rendered with.
func (b *Board) Formatter() *format.Formatter {
	return b.fmt
}

// Headers returns the header labels for columns.
func (b *Board) Headers(columns []string) []string {
	out := make([]string, len(columns))
	for i, key := range columns {
		out[i] = format.ColumnHeader(key)
	}
	return out
}

// Cell renders one column of a game.
func (b *Board) Cell(g model.Game, key string) string {
	v := b.fmt.ColumnData(g.Field(key), key)
	switch n := v.(type) {
	case int64:
		if key == "score" || key == "turns" {
			return format.PrettyInt(n)
		}
		return strconv.FormatInt(n, 10)
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}

// Rows renders games as table rows. With ranked set, a 1-based position
// column is prepended.
func (b *Board) Rows(games []model.Game, columns []string, ranked bool) [][]string {
	rows := make([][]string, 0, len(games))
	for i, g := range games {
		row := make([]string, 0, len(columns)+1)
		if ranked {
			row = append(row, strconv.Itoa(i+1))
		}
		for _, key := range columns {
			row = append(row, b.Cell(g, key))
		}
		rows = append(rows, row)
	}
	return rows
}

// Render formats games as aligned text lines.
func (b *Board) Render(games []model.Game, columns []string, ranked bool) []string {
	headers := b.Headers(columns)
	align := map[int]bool{}
	offset := 0
	if ranked {
		headers = append([]string{"#"}, headers...)
		align[0] = true
		offset = 1
	}
	for i, key := range columns {
		if numericColumns[key] {
			align[i+offset] = true
		}
	}
	return FormatTable(headers, b.Rows(games, columns, ranked), align)
}

// HolderLines renders the players holding the most combo highscores.
func HolderLines(holders []model.Holder) []string {
	rows := make([][]string, 0, len(holders))
	for i, h := range holders {
		combos := make([]string, len(h.Games))
		for j, g := range h.Games {
			combos[j] = g.Char
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), h.Player, strconv.Itoa(len(h.Games)), strings.Join(combos, ", ")})
	}
	return FormatTable([]string{"#", "Player", "Highscores", "Combos"}, rows, map[int]bool{0: true, 2: true})
}

// Tooltip returns the expanded character name for a game's combo.
func Tooltip(g model.Game) string {
	return crawl.FullCharacter(g.Char)
}
