package board

import (
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/crawlboard/internal/format"
	"github.com/verte-zerg/crawlboard/internal/model"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Combo", "Score", "Duration"}
	rows := [][]string{
		{"MiBe", "1,234", "01:00:00"},
		{"DDFi", "7", "100:00:00"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := FormatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Combo Score  Duration" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "MiBe  1,234  01:00:00" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "DDFi      7 100:00:00" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func testBoard() *Board {
	return New(format.New("2006-01-02", time.UTC))
}

func TestRenderGames(t *testing.T) {
	g := model.Game{
		Name:    "Stabwound",
		Char:    "MiBe",
		God:     "Trog",
		Score:   1234567,
		Turns:   54321,
		Dur:     3661,
		End:     time.Date(2016, 2, 2, 5, 4, 5, 0, time.UTC),
		Runes:   3,
		Version: "0.17",
	}
	b := testBoard()
	if got := b.Headers(WinColumns); !reflect.DeepEqual(got, []string{"Name", "Score", "Combo", "God", "Runes", "Turns", "Duration", "Date", "Version"}) {
		t.Fatalf("unexpected headers: %v", got)
	}
	row := b.Rows([]model.Game{g}, WinColumns, true)[0]
	want := []string{"1", "Stabwound", "1,234,567", "MiBe", "Trog", "3", "54,321", "01:01:01", "2016-02-02", "0.17"}
	if !reflect.DeepEqual(row, want) {
		t.Fatalf("unexpected row:\n got %v\nwant %v", row, want)
	}

	lines := b.Render([]model.Game{g}, []string{"char", "dur"}, false)
	if len(lines) != 2 || lines[0] != "Combo Duration" || lines[1] != "MiBe  01:01:01" {
		t.Fatalf("unexpected render: %q", lines)
	}
}

func TestTooltip(t *testing.T) {
	if got := Tooltip(model.Game{Char: "VSAK"}); got != "Vine Stalker Abyssal Knight" {
		t.Fatalf("unexpected tooltip %q", got)
	}
}

func TestComplete(t *testing.T) {
	names := []string{"elliptic", "Ell", "bmfx", "ELLIE", "theglow", "ellen"}
	got := Complete(names, "  ell ", 0)
	want := []string{"Ell", "ELLIE", "ellen", "elliptic"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected suggestions: %v", got)
	}
	if got := Complete(names, "ell", 2); len(got) != 2 {
		t.Fatalf("expected limit to apply, got %v", got)
	}
	if got := Complete(names, "   ", 0); got != nil {
		t.Fatalf("expected no suggestions for blank input, got %v", got)
	}
	if got := Complete(names, "glow", 0); got != nil {
		t.Fatalf("expected starts-with matching only, got %v", got)
	}
}

func TestCollapsible(t *testing.T) {
	c := NewCollapsible(3, "Show older wins")
	if c.Count(10) != 3 || c.Hidden(10) != 7 {
		t.Fatalf("expected 3 visible rows, got %d", c.Count(10))
	}
	c.Toggle()
	if !c.Expanded() || c.Count(10) != 10 || c.Label != "Hide older wins" {
		t.Fatalf("unexpected expanded state: %+v", c)
	}
	c.Toggle()
	if c.Label != "Show older wins" || c.Count(2) != 2 {
		t.Fatalf("unexpected collapsed state: %+v", c)
	}
	if ToggleLabel("Sh", true) != "Hide" {
		t.Fatalf("expected short label to become the verb")
	}
}

func TestHolderLines(t *testing.T) {
	holders := []model.Holder{
		{Player: "alice", Games: []model.Game{{Char: "MiBe"}, {Char: "DDFi"}}},
		{Player: "bob", Games: []model.Game{{Char: "HuWz"}}},
	}
	want := []string{
		"# Player Highscores Combos",
		"1 alice           2 MiBe, DDFi",
		"2 bob             1 HuWz",
	}
	if got := HolderLines(holders); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected holder lines:\n%q\nwant\n%q", got, want)
	}
}
