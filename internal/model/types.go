// Package model defines shared data structures.
package model

import "time"

// DisplayConfig defines how tables and dates are rendered.
type DisplayConfig struct {
	DateLayout  string
	Timezone    string
	TableLength int
	ShowGames   int
}

// Game is one finished game read from a server logfile.
type Game struct {
	GID         string
	Name        string
	Server      string
	Version     string
	Char        string
	Species     string
	Background  string
	God         string
	Score       int64
	XL          int
	Turns       int64
	Dur         int64
	Start       time.Time
	End         time.Time
	Place       string
	Tmsg        string
	Ktyp        string
	Runes       int
	Won         bool
	PotionsUsed int
	ScrollsUsed int
}

// Field returns the raw value shown in the column with the given key.
func (g Game) Field(key string) any {
	switch key {
	case "name":
		return g.Name
	case "score":
		return g.Score
	case "char":
		return g.Char
	case "god":
		return g.God
	case "level":
		return g.XL
	case "turns":
		return g.Turns
	case "dur":
		return g.Dur
	case "end":
		return g.End.Unix()
	case "place":
		return g.Place
	case "version":
		return g.Version
	case "runes":
		return g.Runes
	case "server":
		return g.Server
	case "tmsg":
		return g.Tmsg
	default:
		return ""
	}
}

// GameOrder selects the sort order for game listings.
type GameOrder int

const (
	OrderEndDesc GameOrder = iota
	OrderScoreDesc
	OrderDurationAsc
	OrderTurnsAsc
	OrderStartAsc
)

// GameFilter narrows game listings.
type GameFilter struct {
	Player  string
	Won     *bool
	Version string
	Order   GameOrder
	Limit   int
}

// Streak is a run of consecutive wins by one player.
type Streak struct {
	Player string
	Games  []Game
	Active bool
	// Breaker is the loss that ended the streak, nil while active.
	Breaker *Game
}

// Holder counts the combo highscores held by one player.
type Holder struct {
	Player string
	Games  []Game
}

// Records holds the best game per playable category and the players holding
// the most combo highscores.
type Records struct {
	Combos      []Game
	Species     []Game
	Backgrounds []Game
	Gods        []Game
	Holders     []Holder
}

// PlayerSummary aggregates a player's games.
type PlayerSummary struct {
	Name             string
	Games            int
	Wins             int
	WinRate          float64
	TotalDur         int64
	Best             *Game
	Fastest          *Game
	Shortest         *Game
	WinsBySpecies    map[string]int
	WinsByBackground map[string]int
	WinsByGod        map[string]int
	ScoreSparkline   string
}
