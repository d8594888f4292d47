// Package main provides the CLI entrypoint for crawlboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/crawlboard/internal/blacklist"
	"github.com/verte-zerg/crawlboard/internal/board"
	"github.com/verte-zerg/crawlboard/internal/boardui"
	"github.com/verte-zerg/crawlboard/internal/config"
	"github.com/verte-zerg/crawlboard/internal/format"
	"github.com/verte-zerg/crawlboard/internal/logfile"
	"github.com/verte-zerg/crawlboard/internal/logger"
	"github.com/verte-zerg/crawlboard/internal/model"
	"github.com/verte-zerg/crawlboard/internal/scoring"
	"github.com/verte-zerg/crawlboard/internal/server"
	"github.com/verte-zerg/crawlboard/internal/sources"
	"github.com/verte-zerg/crawlboard/internal/store"
)

var (
	dbPath      string
	dateLayout  string
	timezone    string
	tableLength int
	showGames   int
	logLevel    string
	logEnv      string

	importLogDir    string
	importBlacklist string

	fetchServers []string
	fetchImport  bool

	listPlayer  string
	listWins    bool
	listOrder   string
	listVersion string
	listLimit   int
	listBy      string

	playersOut string

	serveAddr    string
	serveURLBase string
)

// settings is the resolved configuration shared by every command.
type settings struct {
	file      config.FileConfig
	formatter *format.Formatter
	log       *logger.Logger
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "crawlboard",
		Short:         "DCSS scoreboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runBoardCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dbPath, "db", config.DefaultDBPath(), "path to the game database")
	flags.StringVar(&dateLayout, "date-layout", format.DefaultDateLayout, "Go time layout for dates")
	flags.StringVar(&timezone, "timezone", "local", "timezone for dates (IANA name)")
	flags.IntVar(&tableLength, "table-length", config.DefaultTableLength, "rows per highscore table")
	flags.IntVar(&showGames, "show-games", config.DefaultShowGames, "games listed per player")
	flags.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logEnv, "log-env", config.DefaultEnvironment, "log environment (development or production)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newPlayersCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func loadSettings(cmd *cobra.Command, withLogger bool) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "date-layout", &dateLayout, fileCfg.Display.DateLayout)
	applyStringConfig(cmd, "timezone", &timezone, fileCfg.Display.Timezone)
	applyIntConfig(cmd, "table-length", &tableLength, fileCfg.Display.TableLength)
	applyIntConfig(cmd, "show-games", &showGames, fileCfg.Display.ShowGames)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-env", &logEnv, fileCfg.Log.Environment)

	display := model.DisplayConfig{
		DateLayout:  dateLayout,
		Timezone:    timezone,
		TableLength: tableLength,
		ShowGames:   showGames,
	}
	if err := validateDisplay(display); err != nil {
		return settings{}, err
	}
	loc, err := config.LoadLocation(display.Timezone)
	if err != nil {
		return settings{}, err
	}

	log := logger.NewNop()
	if withLogger {
		log, err = logger.New(logger.Config{Level: logLevel, Environment: logEnv})
		if err != nil {
			return settings{}, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	return settings{
		file:      fileCfg,
		formatter: format.New(display.DateLayout, loc),
		log:       log,
	}, nil
}

func openStore() (*store.Store, func(), error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeFn, nil
}

func runBoardCmd(cmd *cobra.Command, _ []string) error {
	set, err := loadSettings(cmd, false)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ui := boardui.NewModel(st, board.New(set.formatter), boardui.Options{
		TableLength: tableLength,
		ShowGames:   showGames,
	})
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import games from downloaded logfiles",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
	addImportFlags(cmd)
	return cmd
}

func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&importLogDir, "logdir", config.DefaultLogDir(), "directory of <server>/<logfile> files")
	cmd.Flags().StringVar(&importBlacklist, "blacklist", config.DefaultBlacklistPath(), "file of player names to ignore")
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	set, err := loadSettings(cmd, true)
	if err != nil {
		return err
	}
	defer syncLogger(set.log)
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	return importLogfiles(cmd, set, st)
}

func importLogfiles(cmd *cobra.Command, set settings, st *store.Store) error {
	applyStringConfig(cmd, "logdir", &importLogDir, set.file.Import.LogDir)
	applyStringConfig(cmd, "blacklist", &importBlacklist, set.file.Import.Blacklist)

	bl, err := blacklist.Load(importBlacklist)
	if err != nil {
		return fmt.Errorf("failed to load blacklist: %w", err)
	}
	candidates, err := logfile.CandidateLogfiles(importLogDir, set.log)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		logErrf("No logfiles found in %s. Download with: crawlboard fetch\n", importLogDir)
		return nil
	}

	reader := logfile.NewReader(st, set.log, bl)
	var total logfile.Result
	for _, c := range candidates {
		res, err := reader.Import(cmd.Context(), c.Path, c.Server)
		if err != nil {
			set.log.Error("import failed", err, zap.String("logfile", c.Path))
			continue
		}
		total.Lines += res.Lines
		total.Games += res.Games
		total.Skipped += res.Skipped
		total.Failed += res.Failed
	}
	stored, err := st.CountGames(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count games: %w", err)
	}
	set.log.Info("import finished",
		zap.Int("logfiles", len(candidates)),
		zap.Int("lines", total.Lines),
		zap.Int("games", total.Games),
		zap.Int("skipped", total.Skipped),
		zap.Int("failed", total.Failed),
		zap.Int("stored", stored),
	)
	return nil
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download logfiles from public servers",
		Args:  cobra.NoArgs,
		RunE:  runFetchCmd,
	}
	addImportFlags(cmd)
	cmd.Flags().StringSliceVar(&fetchServers, "servers", nil, "servers to download from (default: all)")
	cmd.Flags().BoolVar(&fetchImport, "import", false, "import the downloaded logfiles")
	return cmd
}

func runFetchCmd(cmd *cobra.Command, _ []string) error {
	set, err := loadSettings(cmd, true)
	if err != nil {
		return err
	}
	defer syncLogger(set.log)
	applyStringConfig(cmd, "logdir", &importLogDir, set.file.Import.LogDir)

	srcs, unknown := sources.Select(sources.Default, fetchServers)
	for _, name := range unknown {
		set.log.Warn("invalid server specified, skipping", zap.String("server", name))
	}
	if len(srcs) == 0 {
		return fmt.Errorf("no servers to download from")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sum, err := sources.NewFetcher(nil, set.log).FetchAll(ctx, srcs, importLogDir)
	if err != nil {
		return fmt.Errorf("failed to fetch logfiles: %w", err)
	}
	set.log.Info("fetch finished",
		zap.Int("downloaded", sum.Downloaded),
		zap.Int("resumed", sum.Resumed),
		zap.Int("up_to_date", sum.UpToDate),
		zap.Int("missing", sum.Missing),
		zap.Int("failed", sum.Failed),
	)
	if !fetchImport {
		return nil
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	return importLogfiles(cmd, set, st)
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a games table",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&listPlayer, "player", "", "only games by this player")
	cmd.Flags().BoolVar(&listWins, "wins", false, "only winning games")
	cmd.Flags().StringVar(&listOrder, "order", "recent", "order: recent, score, fastest, shortest")
	cmd.Flags().StringVar(&listVersion, "version", "", "only games of this version (e.g. 0.17)")
	cmd.Flags().IntVar(&listLimit, "limit", 0, "maximum rows (default: table-length)")
	cmd.Flags().StringVar(&listBy, "by", "", "best game per: combo, species, background, god, or holders")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	set, err := loadSettings(cmd, false)
	if err != nil {
		return err
	}
	order, err := parseOrder(listOrder)
	if err != nil {
		return err
	}
	by, err := parseRecordKind(listBy)
	if err != nil {
		return err
	}
	filter := model.GameFilter{
		Player:  listPlayer,
		Version: listVersion,
		Order:   order,
		Limit:   listLimit,
	}
	if filter.Limit <= 0 {
		filter.Limit = tableLength
	}
	if by != "" {
		filter.Order = model.OrderScoreDesc
		filter.Limit = 0
	}
	if listWins {
		won := true
		filter.Won = &won
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	games, err := st.ListGames(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list games: %w", err)
	}
	if len(games) == 0 {
		logErrln("No games found.")
		return nil
	}

	b := board.New(set.formatter)
	if by != "" {
		return writeLines(cmd.OutOrStdout(), recordLines(b, scoring.Records(games), by), terminalWidth())
	}

	columns := board.RecentColumns
	switch {
	case listPlayer != "":
		columns = board.PlayerColumns
	case listWins || order != model.OrderEndDesc:
		columns = board.WinColumns
	}
	lines := b.Render(games, columns, order != model.OrderEndDesc)
	return writeLines(cmd.OutOrStdout(), lines, terminalWidth())
}

func parseOrder(s string) (model.GameOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recent":
		return model.OrderEndDesc, nil
	case "score":
		return model.OrderScoreDesc, nil
	case "fastest":
		return model.OrderDurationAsc, nil
	case "shortest":
		return model.OrderTurnsAsc, nil
	default:
		return 0, fmt.Errorf("unknown --order %q (recent, score, fastest, shortest)", s)
	}
}

func parseRecordKind(s string) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(s))
	switch kind {
	case "", "combo", "species", "background", "god", "holders":
		return kind, nil
	default:
		return "", fmt.Errorf("unknown --by %q (combo, species, background, god, holders)", s)
	}
}

func recordLines(b *board.Board, rec model.Records, kind string) []string {
	switch kind {
	case "species":
		return b.Render(rec.Species, board.RecordColumns, true)
	case "background":
		return b.Render(rec.Backgrounds, board.RecordColumns, true)
	case "god":
		return b.Render(rec.Gods, board.RecordColumns, true)
	case "holders":
		return board.HolderLines(rec.Holders)
	default:
		return b.Render(rec.Combos, board.RecordColumns, true)
	}
}

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Write the player name list as JSON",
		Args:  cobra.NoArgs,
		RunE:  runPlayersCmd,
	}
	cmd.Flags().StringVar(&playersOut, "out", "", "output file (default: stdout)")
	return cmd
}

func runPlayersCmd(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	names, err := st.ListPlayers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode players: %w", err)
	}
	if playersOut == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(playersOut), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(playersOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", playersOut, err)
	}
	logErrf("Wrote %d players to %s\n", len(names), playersOut)
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoreboard API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", config.DefaultServerAddr, "listen address")
	cmd.Flags().StringVar(&serveURLBase, "urlbase", "", "prefix for links in responses")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	set, err := loadSettings(cmd, true)
	if err != nil {
		return err
	}
	defer syncLogger(set.log)
	applyStringConfig(cmd, "addr", &serveAddr, set.file.Server.Addr)
	applyStringConfig(cmd, "urlbase", &serveURLBase, set.file.Server.URLBase)

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.New(st, board.New(set.formatter), set.log, server.Options{
		Addr:        serveAddr,
		URLBase:     serveURLBase,
		TableLength: tableLength,
		ShowGames:   showGames,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	set.log.Info("shutting down scoreboard server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func validateDisplay(cfg model.DisplayConfig) error {
	if strings.TrimSpace(cfg.DateLayout) == "" {
		return fmt.Errorf("--date-layout must not be empty")
	}
	if cfg.TableLength <= 0 {
		return fmt.Errorf("--table-length must be > 0")
	}
	if cfg.ShowGames <= 0 {
		return fmt.Errorf("--show-games must be > 0")
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}

func writeLines(w io.Writer, lines []string, width int) error {
	for _, line := range lines {
		if width > 0 {
			line = runewidth.Truncate(line, width, "")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func syncLogger(log *logger.Logger) {
	// Sync on stderr returns EINVAL on some platforms.
	if err := log.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		logErrf("failed to flush logs: %v\n", err)
	}
}

func logErrf(msg string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, msg, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
