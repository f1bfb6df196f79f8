// Package main is the entry point for the single-saberize CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BrokenLinc/single-saberize/pkg/api"
	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"github.com/BrokenLinc/single-saberize/pkg/config"
	"github.com/BrokenLinc/single-saberize/pkg/converter"
	"github.com/BrokenLinc/single-saberize/pkg/converter/schemas"
	"github.com/BrokenLinc/single-saberize/pkg/logging"
	"github.com/BrokenLinc/single-saberize/pkg/songpack"
	"github.com/BrokenLinc/single-saberize/pkg/tui"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile      string
	logLevel        string
	outputFile      string
	tierName        string
	sourceName      string
	targetName      string
	bpm             float64
	offsetMillis    float64
	dropUnmerged    bool
	generateMissing bool
	convertAfter    bool
	prefix          string
	nameSuffix      string
	jobs            int
	logFile         string
	serverPort      int
)

var (
	cfg    *config.Config
	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "single-saberize",
	Short: "Convert custom beatmaps for single-saber play",
	Long: `single-saberize rewrites two-handed rhythm game beatmaps so they can be
played with one saber. Left notes that are far enough from the previous
right-hand note are moved to the right hand.

It can also derive missing lower difficulties from denser ones.

Examples:
  single-saberize convert ~/CustomSongs
  single-saberize convert ~/CustomSongs --generate-missing
  single-saberize difficulty Expert.json -o Expert.single.json
  single-saberize synthesize ExpertPlus.json --target Hard
  single-saberize preview Expert.json -o Expert.mid
  single-saberize tui
  single-saberize serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var convertCmd = &cobra.Command{
	Use:   "convert [songs-dir]",
	Short: "Duplicate every song in a folder as a single-saber copy",
	Long: `Copies every song folder to "<prefix><name>" and converts the copy.
Without an argument the songs_dir config key is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

var difficultyCmd = &cobra.Command{
	Use:   "difficulty <file.json>",
	Short: "Convert one difficulty file",
	Long:  `Converts a difficulty file in place, or to --output. The tier defaults to the file name.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDifficulty,
}

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <file.json>",
	Short: "Derive a lower difficulty from a denser file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSynthesize,
}

var previewCmd = &cobra.Command{
	Use:   "preview <file.json>",
	Short: "Render the notes of a difficulty file as MIDI",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Print the difficulty tier rules",
	Args:  cobra.NoArgs,
	RunE:  runTiers,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	// convert command
	convertCmd.Flags().BoolVarP(&generateMissing, "generate-missing", "g", false, "Synthesize missing difficulty tiers")
	convertCmd.Flags().BoolVar(&dropUnmerged, "drop-unmerged", true, "Drop left notes that could not be moved to the right hand")
	convertCmd.Flags().StringVar(&prefix, "prefix", "", "Folder name prefix of the copies")
	convertCmd.Flags().StringVar(&nameSuffix, "suffix", "", "Appended to the song name")
	convertCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Songs converted at once")

	// difficulty command
	difficultyCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default: in place)")
	difficultyCmd.Flags().StringVarP(&tierName, "tier", "t", "", "Tier rules to use (default: from the file name)")
	difficultyCmd.Flags().Float64Var(&bpm, "bpm", 0, "Tempo used when the file carries none")
	difficultyCmd.Flags().BoolVar(&dropUnmerged, "drop-unmerged", true, "Drop left notes that could not be moved to the right hand")

	// synthesize command
	synthesizeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default: <target>.json next to the input)")
	synthesizeCmd.Flags().StringVarP(&sourceName, "source", "s", "", "Tier of the input (default: from the file name)")
	synthesizeCmd.Flags().StringVarP(&targetName, "target", "t", "", "Tier to derive")
	synthesizeCmd.Flags().Float64Var(&offsetMillis, "offset", 0, "Song offset in milliseconds")
	synthesizeCmd.Flags().Float64Var(&bpm, "bpm", 0, "Tempo used when the file carries none")
	synthesizeCmd.Flags().BoolVar(&convertAfter, "convert", false, "Also convert the derived difficulty")
	synthesizeCmd.Flags().BoolVar(&dropUnmerged, "drop-unmerged", true, "Drop left notes that could not be moved to the right hand")
	_ = synthesizeCmd.MarkFlagRequired("target")

	// preview command
	previewCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	previewCmd.Flags().Float64Var(&bpm, "bpm", 0, "Tempo used when the file carries none")

	// tui command
	tuiCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the UI runs")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(difficultyCmd)
	rootCmd.AddCommand(synthesizeCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(tiersCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config file and lays set flags over it
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("drop-unmerged") {
		cfg.DropUnmerged = dropUnmerged
	}
	if flags.Changed("generate-missing") {
		cfg.GenerateMissing = generateMissing
	}
	if flags.Changed("prefix") {
		cfg.Prefix = prefix
	}
	if flags.Changed("suffix") {
		cfg.NameSuffix = nameSuffix
	}
	if flags.Changed("jobs") {
		cfg.Jobs = jobs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = logging.New(os.Stderr, cfg.LogLevel)
	return nil
}

func newConverter() (*converter.Converter, error) {
	tiers, err := cfg.TierTable()
	if err != nil {
		return nil, err
	}
	conv := converter.New(tiers, schemas.NewLegacy(), schemas.NewColorNotes())
	conv.SetDropUnmerged(cfg.DropUnmerged)
	return conv, nil
}

// tierOf resolves a tier flag, falling back to the file name
func tierOf(name, file string) (beatmap.Difficulty, error) {
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return beatmap.ParseDifficulty(name)
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func runConvert(cmd *cobra.Command, args []string) error {
	songsDir := cfg.SongsDir
	if len(args) == 1 {
		songsDir = args[0]
	}
	if songsDir == "" {
		return errors.New("no songs folder given and songs_dir is not configured")
	}

	conv, err := newConverter()
	if err != nil {
		return err
	}
	p := songpack.New(conv, songpack.Options{
		Prefix:          cfg.Prefix,
		NameSuffix:      cfg.NameSuffix,
		GenerateMissing: cfg.GenerateMissing,
		Jobs:            cfg.Jobs,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	abs, err := filepath.Abs(songsDir)
	if err != nil {
		return err
	}
	report, err := p.ProcessSongs(ctx, abs)
	if report != nil {
		logger.Info("Done",
			"songs", report.SongsProcessed,
			"skipped", report.SongsSkipped,
			"files", report.FilesConverted,
			"failed", report.FilesFailed,
			"generated", report.TiersSynthesized,
		)
	}
	return err
}

func runDifficulty(cmd *cobra.Command, args []string) error {
	input := args[0]
	d, err := tierOf(tierName, input)
	if err != nil {
		return err
	}
	conv, err := newConverter()
	if err != nil {
		return err
	}

	result, err := conv.ConvertFile(input, outputFile, d, bpm)
	if err != nil {
		return err
	}
	output := outputFile
	if output == "" {
		output = input
	}
	logger.Info("Converted", "file", output, "tier", d, "schema", result.Schema,
		"in", result.NotesIn, "out", result.NotesOut,
		"left", result.Hands[beatmap.Left], "right", result.Hands[beatmap.Right])
	return nil
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	input := args[0]
	source, err := tierOf(sourceName, input)
	if err != nil {
		return err
	}
	target, err := beatmap.ParseDifficulty(targetName)
	if err != nil {
		return err
	}
	conv, err := newConverter()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	result, err := conv.SynthesizeDifficulty(data, source, target, offsetMillis, bpm)
	if err != nil {
		return err
	}
	derived, sourceNotes := result.NotesOut, result.NotesIn
	if convertAfter {
		if result, err = conv.ConvertDifficulty(result.Data, target, bpm); err != nil {
			return err
		}
	}

	output := outputFile
	if output == "" {
		output = filepath.Join(filepath.Dir(input), converter.DifficultyFileName(target))
	}
	if err := converter.WriteFileAtomic(output, result.Data); err != nil {
		return err
	}
	logger.Infof("%d %s notes derived from %d %s notes", derived, target, sourceNotes, source)
	logger.Info("Wrote", "file", output)
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".mid")

	conv := converter.New(nil, schemas.NewLegacy(), schemas.NewColorNotes())
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	result, err := conv.PreviewMIDI(data, bpm)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, result, 0644); err != nil {
		return err
	}

	logger.Info("Rendered", "input", input, "output", output)
	return nil
}

func runTiers(cmd *cobra.Command, args []string) error {
	tiers, err := cfg.TierTable()
	if err != nil {
		return err
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIER", "ORDER", "TIMING THRESHOLD", "GRID").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, tier := range tiers.All() {
		grid := "-"
		if tier.CanSynthesize() {
			grid = "1/" + strconv.FormatFloat(tier.QuantumDivisor, 'g', -1, 64)
		}
		t.Row(tier.Difficulty.String(), strconv.Itoa(tier.Order),
			strconv.FormatFloat(tier.TimingThreshold, 'g', -1, 64), grid)
	}

	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	tiers, err := cfg.TierTable()
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs only go to a file
	uiLogger := logging.Discard()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		uiLogger = logging.New(f, cfg.LogLevel)
	}

	return tui.Run(tui.Options{
		Tiers: tiers,
		Songs: songpack.Options{
			Prefix:          cfg.Prefix,
			NameSuffix:      cfg.NameSuffix,
			GenerateMissing: cfg.GenerateMissing,
			Jobs:            cfg.Jobs,
		},
		DropUnmerged: cfg.DropUnmerged,
		Logger:       uiLogger,
		StartDir:     cfg.SongsDir,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	tiers, err := cfg.TierTable()
	if err != nil {
		return err
	}
	logger.Info("Starting API server", "port", serverPort)
	logger.Infof("Swagger docs available at http://localhost:%d/swagger/index.html", serverPort)
	return api.StartServer(serverPort, api.NewServer(tiers, cfg.DropUnmerged, logger))
}
