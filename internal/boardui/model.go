// Package boardui provides the Bubble Tea scoreboard interface.
package boardui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/crawlboard/internal/board"
	"github.com/verte-zerg/crawlboard/internal/format"
	"github.com/verte-zerg/crawlboard/internal/model"
	"github.com/verte-zerg/crawlboard/internal/scoring"
)

const (
	tabRecent = iota
	tabHighscores
	tabStreaks
	tabPlayer
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	suggestStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// GameStore is the read side of the game database.
type GameStore interface {
	ListPlayers(ctx context.Context) ([]string, error)
	ListGames(ctx context.Context, f model.GameFilter) ([]model.Game, error)
}

// Options configures table sizes and the clock used for relative times.
type Options struct {
	TableLength int
	ShowGames   int
	Now         func() time.Time
}

// Model implements the Bubble Tea scoreboard UI.
type Model struct {
	store GameStore
	board *board.Board
	opts  Options

	tabs      []string
	activeTab int
	tables    []table.Model
	// games backs the rows of each tab table, for the footer tooltip.
	games  [][]model.Game
	errMsg string

	players     []string
	player      string
	playerGames []model.Game
	summary     model.PlayerSummary
	older       *board.Collapsible

	searchMode   bool
	search       textinput.Model
	suggestions  []string
	suggestIndex int

	width  int
	height int
}

// NewModel constructs a scoreboard UI model and loads the tables.
func NewModel(st GameStore, b *board.Board, opts Options) *Model {
	if opts.TableLength <= 0 {
		opts.TableLength = 10
	}
	if opts.ShowGames <= 0 {
		opts.ShowGames = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Model{
		store:  st,
		board:  b,
		opts:   opts,
		tabs:   []string{"Recent", "Highscores", "Streaks", "Player"},
		tables: make([]table.Model, 4),
		games:  make([][]model.Game, 4),
	}
	m.search = newSearchInput()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.searchMode {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startSearch()
		case "o":
			if m.activeTab == tabPlayer && m.older != nil {
				m.older.Toggle()
				m.applyPlayerTable()
			}
			return m, nil
		case "r":
			m.refresh()
			return m, nil
		case "g", "home":
			m.tables[m.activeTab].GotoTop()
			return m, nil
		case "G", "end":
			m.tables[m.activeTab].GotoBottom()
			return m, nil
		default:
			var cmd tea.Cmd
			m.tables[m.activeTab], cmd = m.tables[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newSearchInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "Player: "
	input.Placeholder = "name"
	input.CharLimit = 64
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) refresh() {
	ctx := context.Background()
	m.errMsg = ""

	players, err := m.store.ListPlayers(ctx)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load players: %v", err)
		return
	}
	m.players = players

	recent, err := m.store.ListGames(ctx, model.GameFilter{Order: model.OrderEndDesc, Limit: m.opts.ShowGames})
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load games: %v", err)
		return
	}
	m.setGamesTable(tabRecent, recent, board.RecentColumns, false)

	top, err := m.store.ListGames(ctx, model.GameFilter{Order: model.OrderScoreDesc, Limit: m.opts.TableLength})
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load highscores: %v", err)
		return
	}
	m.setGamesTable(tabHighscores, top, board.WinColumns, true)

	all, err := m.store.ListGames(ctx, model.GameFilter{Order: model.OrderStartAsc})
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load streaks: %v", err)
		return
	}
	m.setStreakTable(scoring.Streaks(all))

	if m.player != "" {
		m.loadPlayer(m.player)
	} else {
		m.setGamesTable(tabPlayer, nil, board.PlayerColumns, false)
	}
}

func (m *Model) loadPlayer(name string) {
	games, err := m.store.ListGames(context.Background(), model.GameFilter{Player: name, Order: model.OrderEndDesc})
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load %s: %v", name, err)
		return
	}
	if len(games) == 0 {
		m.errMsg = fmt.Sprintf("no games for %s", name)
		return
	}
	m.errMsg = ""
	m.player = games[0].Name
	m.playerGames = games
	m.summary = scoring.Summarize(m.player, games)
	m.older = board.NewCollapsible(m.opts.TableLength, "Show older games")
	m.applyPlayerTable()
}

func (m *Model) applyPlayerTable() {
	shown := m.playerGames
	if m.older != nil {
		shown = shown[:m.older.Count(len(shown))]
	}
	m.setGamesTable(tabPlayer, shown, board.PlayerColumns, false)
}

func (m *Model) setGamesTable(tab int, games []model.Game, columns []string, ranked bool) {
	headers := m.board.Headers(columns)
	if ranked {
		headers = append([]string{"#"}, headers...)
	}
	m.games[tab] = games
	m.tables[tab] = buildTable(headers, m.board.Rows(games, columns, ranked))
	if tab == m.activeTab {
		m.tables[tab].Focus()
	}
	m.updateLayout()
}

func (m *Model) setStreakTable(streaks []model.Streak) {
	headers := []string{"#", "Player", "Wins", "Status", "Combos"}
	rows := make([][]string, 0, len(streaks))
	last := make([]model.Game, 0, len(streaks))
	for i, s := range streaks {
		status := "ended"
		if s.Active {
			status = "active"
		}
		combos := make([]string, 0, len(s.Games))
		for _, g := range s.Games {
			combos = append(combos, g.Char)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), s.Player, strconv.Itoa(len(s.Games)), status, strings.Join(combos, " ")})
		last = append(last, s.Games[len(s.Games)-1])
	}
	m.games[tabStreaks] = last
	m.tables[tabStreaks] = buildTable(headers, rows)
	m.updateLayout()
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.tables[m.activeTab].Blur()
	m.activeTab = next
	m.tables[m.activeTab].Focus()
}

func (m *Model) selectedGame() (model.Game, bool) {
	games := m.games[m.activeTab]
	idx := m.tables[m.activeTab].Cursor()
	if idx < 0 || idx >= len(games) {
		return model.Game{}, false
	}
	return games[idx], true
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = lipgloss.Height(activeNavStyle.Render("X"))
	footerHeight = 2
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.tables {
		height := bodyHeight
		if i == tabPlayer {
			height -= lipgloss.Height(m.renderPlayerHeader()) + 1
		}
		m.tables[i].SetWidth(m.width)
		m.tables[i].SetHeight(maxInt(1, height-1))
	}
	promptWidth := lipgloss.Width(m.search.Prompt)
	m.search.Width = maxInt(10, m.width-promptWidth-2)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == tabPlayer && m.player != "" {
			tab = "Player: " + m.player
		}
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderBody(height int) string {
	if m.searchMode {
		return fitLines(m.renderSearch(), m.width, height)
	}
	if m.activeTab == tabPlayer {
		if m.player == "" {
			return fitLines("No player selected. Press / to search.", m.width, height)
		}
		view := m.renderPlayerHeader() + "\n" + tableMutedStyle.Render(m.tables[tabPlayer].View())
		if m.older != nil && (m.older.Hidden(len(m.playerGames)) > 0 || m.older.Expanded()) {
			view += "\n" + headerStyle.Render(fmt.Sprintf("%s (o)", m.older.Label))
		}
		return fitLines(view, m.width, height)
	}
	if len(m.games[m.activeTab]) == 0 {
		return fitLines("No games found. Run crawlboard import first.", m.width, height)
	}
	return fitLines(tableMutedStyle.Render(m.tables[m.activeTab].View()), m.width, height)
}

func (m *Model) renderPlayerHeader() string {
	if m.player == "" {
		return ""
	}
	s := m.summary
	cards := []string{
		metricCard("Games", format.PrettyInt(int64(s.Games))),
		metricCard("Wins", format.PrettyInt(int64(s.Wins))),
		metricCard("Win rate", format.Percentage(s.WinRate, 1)+"%"),
		metricCard("Hours", format.PrettyHours(s.TotalDur)),
	}
	if s.Best != nil {
		cards = append(cards, metricCard("Best", format.PrettyInt(s.Best.Score)))
	}
	if s.Fastest != nil {
		cards = append(cards, metricCard("Fastest win", format.Duration(s.Fastest.Dur)))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	return row + "\n" + headerStyle.Render("Scores: "+s.ScoreSparkline)
}

func metricCard(label, value string) string {
	content := cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value)
	return cardStyle.Render(content)
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Scroll: up/down  Search: /  Older games: o  Reload: r  Quit: q"
	if m.searchMode {
		help = "tab: next suggestion  enter: open player  esc: cancel"
	}
	lines := []string{truncateLine(m.renderSelection(), m.width), headerStyle.Render(help)}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSelection() string {
	g, ok := m.selectedGame()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s  %s | ended %s", g.Name, board.Tooltip(g), format.TimeAgo(g.End, m.opts.Now()))
}

func (m *Model) renderSearch() string {
	lines := []string{"Open player page (enter to open, esc to cancel)", m.search.View()}
	for i, name := range m.suggestions {
		if i == m.suggestIndex {
			lines = append(lines, suggestStyle.Render("> "+name))
			continue
		}
		lines = append(lines, "  "+name)
	}
	if len(m.suggestions) == 0 && strings.TrimSpace(m.search.Value()) != "" {
		lines = append(lines, headerStyle.Render("No matching players."))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) startSearch() (tea.Model, tea.Cmd) {
	m.searchMode = true
	m.search.SetValue("")
	m.suggestions = nil
	m.suggestIndex = 0
	return m, m.search.Focus()
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		name := m.searchChoice()
		m.searchMode = false
		m.search.Blur()
		if name == "" {
			return m, nil
		}
		m.loadPlayer(name)
		if m.errMsg == "" {
			m.tables[m.activeTab].Blur()
			m.activeTab = tabPlayer
			m.tables[tabPlayer].Focus()
		}
		return m, tea.ClearScreen
	case tea.KeyTab, tea.KeyDown:
		if len(m.suggestions) > 0 {
			m.suggestIndex = (m.suggestIndex + 1) % len(m.suggestions)
		}
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		if len(m.suggestions) > 0 {
			m.suggestIndex = (m.suggestIndex - 1 + len(m.suggestions)) % len(m.suggestions)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.suggestions = board.Complete(m.players, m.search.Value(), board.DefaultMaxSuggestions)
	m.suggestIndex = 0
	return m, cmd
}

// searchChoice prefers an exact name over the highlighted suggestion.
func (m *Model) searchChoice() string {
	value := strings.TrimSpace(m.search.Value())
	for _, name := range m.players {
		if strings.EqualFold(name, value) {
			return name
		}
	}
	if len(m.suggestions) > 0 {
		return m.suggestions[m.suggestIndex]
	}
	return value
}
