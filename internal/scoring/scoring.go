// Package scoring derives streaks, records and summaries from games.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/crawlboard/internal/crawl"
	"github.com/verte-zerg/crawlboard/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MinStreakLength is the shortest run of wins reported as a streak.
const MinStreakLength = 2

// IsGrief reports whether a loss looks like a deliberate streak-breaker. Only
// an account's first game is considered.
func IsGrief(g model.Game, firstGame bool) bool {
	if !firstGame || g.Won {
		return false
	}
	if g.PotionsUsed > 0 || g.ScrollsUsed > 0 {
		return g.Dur < 600 || g.Turns < 1000
	}
	return g.Dur < 1200 || g.Turns < 5000
}

// Streaks walks each player's games in start order: a win starts or extends a
// streak and a non-grief loss closes it. Runs shorter than MinStreakLength are
// dropped. Results are sorted by length, longest first.
func Streaks(games []model.Game) []model.Streak {
	byPlayer := map[string][]model.Game{}
	for _, g := range games {
		key := strings.ToLower(g.Name)
		byPlayer[key] = append(byPlayer[key], g)
	}

	var out []model.Streak
	for _, pg := range byPlayer {
		sort.SliceStable(pg, func(i, j int) bool { return pg[i].Start.Before(pg[j].Start) })
		seenAccounts := map[string]bool{}
		var cur *model.Streak
		for i := range pg {
			g := pg[i]
			account := g.Server + ":" + strings.ToLower(g.Name)
			first := !seenAccounts[account]
			seenAccounts[account] = true

			if g.Won {
				if cur == nil {
					cur = &model.Streak{Player: g.Name, Active: true}
				} else if !validAddition(g, cur) {
					continue
				}
				cur.Games = append(cur.Games, g)
				continue
			}
			if cur == nil || IsGrief(g, first) {
				continue
			}
			breaker := g
			cur.Active = false
			cur.Breaker = &breaker
			out = appendStreak(out, *cur)
			cur = nil
		}
		if cur != nil {
			out = appendStreak(out, *cur)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if len(a.Games) != len(b.Games) {
			return len(a.Games) > len(b.Games)
		}
		if !a.Games[0].Start.Equal(b.Games[0].Start) {
			return a.Games[0].Start.Before(b.Games[0].Start)
		}
		return a.Player < b.Player
	})
	return out
}

func validAddition(g model.Game, s *model.Streak) bool {
	return !g.Start.Before(s.Games[0].Start)
}

func appendStreak(out []model.Streak, s model.Streak) []model.Streak {
	if len(s.Games) < MinStreakLength {
		return out
	}
	return append(out, s)
}

// Highscore returns the highest scoring game.
func Highscore(games []model.Game) (model.Game, bool) {
	return best(games, func(a, b model.Game) bool { return a.Score > b.Score })
}

// FastestWin returns the win with the lowest real-time duration.
func FastestWin(games []model.Game) (model.Game, bool) {
	return best(wins(games), func(a, b model.Game) bool { return a.Dur < b.Dur })
}

// ShortestWin returns the win with the fewest turns.
func ShortestWin(games []model.Game) (model.Game, bool) {
	return best(wins(games), func(a, b model.Game) bool { return a.Turns < b.Turns })
}

// ComboHighscores returns the best game per playable combo, highest score
// first. Combos with a removed species or background are ignored.
func ComboHighscores(games []model.Game) []model.Game {
	species := codeSet(crawl.PlayableSpecies())
	backgrounds := codeSet(crawl.PlayableBackgrounds())
	return bestBy(games, func(g model.Game) string {
		sp, bg := crawl.SplitCombo(g.Char)
		if !species[sp] || !backgrounds[bg] {
			return ""
		}
		return g.Char
	})
}

// SpeciesHighscores returns the best game per playable species.
func SpeciesHighscores(games []model.Game) []model.Game {
	species := codeSet(crawl.PlayableSpecies())
	return bestBy(games, func(g model.Game) string {
		sp, _ := crawl.SplitCombo(g.Char)
		if !species[sp] {
			return ""
		}
		return sp
	})
}

// BackgroundHighscores returns the best game per playable background.
func BackgroundHighscores(games []model.Game) []model.Game {
	backgrounds := codeSet(crawl.PlayableBackgrounds())
	return bestBy(games, func(g model.Game) string {
		_, bg := crawl.SplitCombo(g.Char)
		if !backgrounds[bg] {
			return ""
		}
		return bg
	})
}

// GodHighscores returns the best game per playable god.
func GodHighscores(games []model.Game) []model.Game {
	gods := codeSet(crawl.PlayableGods())
	return bestBy(games, func(g model.Game) string {
		name := crawl.FixGodName(g.God)
		if !gods[name] {
			return ""
		}
		return name
	})
}

// Records builds every per-category highscore table at once.
func Records(games []model.Game) model.Records {
	combos := ComboHighscores(games)
	return model.Records{
		Combos:      combos,
		Species:     SpeciesHighscores(games),
		Backgrounds: BackgroundHighscores(games),
		Gods:        GodHighscores(games),
		Holders:     HighscoreHolders(combos),
	}
}

// HighscoreHolders groups highscore games by player, most records first.
func HighscoreHolders(highscores []model.Game) []model.Holder {
	idx := map[string]int{}
	var out []model.Holder
	for _, g := range highscores {
		key := strings.ToLower(g.Name)
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, model.Holder{Player: g.Name})
		}
		out[i].Games = append(out[i].Games, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Games) == len(out[j].Games) {
			return strings.ToLower(out[i].Player) < strings.ToLower(out[j].Player)
		}
		return len(out[i].Games) > len(out[j].Games)
	})
	return out
}

// Summarize aggregates one player's games.
func Summarize(name string, games []model.Game) model.PlayerSummary {
	sum := model.PlayerSummary{
		Name:             name,
		Games:            len(games),
		WinsBySpecies:    map[string]int{},
		WinsByBackground: map[string]int{},
		WinsByGod:        map[string]int{},
	}
	ordered := make([]model.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].End.Before(ordered[j].End) })

	scores := make([]float64, 0, len(ordered))
	for _, g := range ordered {
		sum.TotalDur += g.Dur
		scores = append(scores, float64(g.Score))
		if !g.Won {
			continue
		}
		sum.Wins++
		sum.WinsBySpecies[g.Species]++
		sum.WinsByBackground[g.Background]++
		sum.WinsByGod[g.God]++
	}
	if sum.Games > 0 {
		sum.WinRate = float64(sum.Wins) / float64(sum.Games)
	}
	if g, ok := Highscore(ordered); ok {
		sum.Best = &g
	}
	if g, ok := FastestWin(ordered); ok {
		sum.Fastest = &g
	}
	if g, ok := ShortestWin(ordered); ok {
		sum.Shortest = &g
	}
	sum.ScoreSparkline = Sparkline(scores)
	return sum
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func wins(games []model.Game) []model.Game {
	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		if g.Won {
			out = append(out, g)
		}
	}
	return out
}

func best(games []model.Game, better func(a, b model.Game) bool) (model.Game, bool) {
	if len(games) == 0 {
		return model.Game{}, false
	}
	top := games[0]
	for _, g := range games[1:] {
		if better(g, top) {
			top = g
		}
	}
	return top, true
}

func codeSet(names []crawl.Name) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n.Code] = true
	}
	return set
}

func bestBy(games []model.Game, key func(model.Game) string) []model.Game {
	top := map[string]model.Game{}
	for _, g := range games {
		k := key(g)
		if k == "" {
			continue
		}
		if cur, ok := top[k]; !ok || g.Score > cur.Score {
			top[k] = g
		}
	}
	out := make([]model.Game, 0, len(top))
	for _, g := range top {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].GID < out[j].GID
		}
		return out[i].Score > out[j].Score
	})
	return out
}
