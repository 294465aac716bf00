// Package main provides the CLI entrypoint for tracer-picker.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mlfcnt/tracer-picker/internal/config"
	"github.com/mlfcnt/tracer-picker/internal/draw"
	"github.com/mlfcnt/tracer-picker/internal/logging"
	"github.com/mlfcnt/tracer-picker/internal/model"
	"github.com/mlfcnt/tracer-picker/internal/store"
)

const (
	defaultBackend     = store.BackendSQLite
	defaultLogLevel    = "warn"
	defaultPortalDelay = 2 * time.Second
	defaultAttempts    = 3
)

var (
	weightBase         float64
	weightOccurrence   bool
	weightDivider      float64
	weightRecency      bool
	weightRecencyMin   float64
	weightRecencyPower float64
	drawSeed           int64

	historyBackend string
	historyPath    string
	logLevel       string
	logFile        string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tracer-picker",
		Short:         "Weighted draw of traceur committees for ski competitions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&historyBackend, "backend", defaultBackend, "history backend (sqlite or json)")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "history store path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	rootCmd.AddCommand(newDrawCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCommitteesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addWeightFlags(cmd *cobra.Command) {
	def := model.DefaultWeightConfig()
	cmd.Flags().Float64Var(&weightBase, "base-weight", def.BasePercentageWeight, "multiplier applied to the competitor share")
	cmd.Flags().BoolVar(&weightOccurrence, "occurrence", def.OccurrenceWeightEnabled, "penalize committees drawn often")
	cmd.Flags().Float64Var(&weightDivider, "occurrence-divider", def.OccurrenceDivider, "occurrence penalty divider (> 0)")
	cmd.Flags().BoolVar(&weightRecency, "recency", def.CompetitionsSinceLastTraceWeightEnabled, "favor committees that waited longest")
	cmd.Flags().Float64Var(&weightRecencyMin, "recency-min", def.CompetitionsSinceLastTraceWeightMin, "floor of the competitions-since-last-trace factor")
	cmd.Flags().Float64Var(&weightRecencyPower, "recency-power", def.CompetitionsSinceLastTraceWeightPower, "exponent of the competitions-since-last-trace factor")
	cmd.Flags().Int64Var(&drawSeed, "seed", 0, "seed for a reproducible draw")
}

// runtimeEnv holds what every command resolves from flags and the config file.
type runtimeEnv struct {
	file    config.FileConfig
	log     *zap.Logger
	closeFn func()
}

func (e *runtimeEnv) Close() {
	_ = e.log.Sync() // stderr sync fails on some terminals
	e.closeFn()
}

func loadEnv(cmd *cobra.Command) (*runtimeEnv, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)
	applyStringConfig(cmd, "backend", &historyBackend, fileCfg.History.Backend)
	applyStringConfig(cmd, "history", &historyPath, fileCfg.History.Path)

	format := ""
	if fileCfg.Log.Format != nil {
		format = *fileCfg.Log.Format
	}
	log, closeFn, err := logging.New(logging.Config{Level: logLevel, File: logFile, Format: format})
	if err != nil {
		return nil, err
	}
	return &runtimeEnv{file: fileCfg, log: log, closeFn: closeFn}, nil
}

func (e *runtimeEnv) weightConfig(cmd *cobra.Command) (model.WeightConfig, error) {
	d := e.file.Draw
	applyFloatConfig(cmd, "base-weight", &weightBase, d.BaseWeight)
	applyBoolConfig(cmd, "occurrence", &weightOccurrence, d.Occurrence)
	applyFloatConfig(cmd, "occurrence-divider", &weightDivider, d.OccurrenceDivider)
	applyBoolConfig(cmd, "recency", &weightRecency, d.Recency)
	applyFloatConfig(cmd, "recency-min", &weightRecencyMin, d.RecencyMin)
	applyFloatConfig(cmd, "recency-power", &weightRecencyPower, d.RecencyPower)
	cfg := model.WeightConfig{
		BasePercentageWeight:                    weightBase,
		OccurrenceWeightEnabled:                 weightOccurrence,
		OccurrenceDivider:                       weightDivider,
		CompetitionsSinceLastTraceWeightEnabled: weightRecency,
		CompetitionsSinceLastTraceWeightMin:     weightRecencyMin,
		CompetitionsSinceLastTraceWeightPower:   weightRecencyPower,
	}
	if err := cfg.Validate(); err != nil {
		return model.WeightConfig{}, err
	}
	return cfg, nil
}

// source returns a seeded source when --seed or the config sets one.
func (e *runtimeEnv) source(cmd *cobra.Command) draw.Source {
	seedSet := cmd.Flags().Changed("seed")
	if !seedSet && e.file.Draw.Seed != nil {
		drawSeed = *e.file.Draw.Seed
		seedSet = true
	}
	if seedSet {
		e.log.Info("seeded draw", zap.Int64("seed", drawSeed))
		return rand.New(rand.NewSource(drawSeed))
	}
	return draw.NewSource()
}

func (e *runtimeEnv) builder(cmd *cobra.Command) (*draw.Builder, error) {
	weights, err := e.weightConfig(cmd)
	if err != nil {
		return nil, err
	}
	extra, err := e.file.Committees.ExtraCounts()
	if err != nil {
		return nil, err
	}
	return draw.NewBuilder(
		draw.WithWeightConfig(weights),
		draw.WithExtraCounts(extra),
		draw.WithSource(e.source(cmd)),
		draw.WithLogger(e.log),
	), nil
}

// openStore resolves the backend name once so the default path and the store
// implementation always agree.
func (e *runtimeEnv) openStore() (store.HistoryStore, error) {
	backend, err := store.NormalizeBackend(historyBackend)
	if err != nil {
		return nil, err
	}
	path := historyPath
	if path == "" {
		path = config.DefaultHistoryPath(backend)
	}
	st, err := store.OpenBackend(backend, path, e.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	e.log.Debug("history store opened", zap.String("backend", backend), zap.String("path", path))
	return st, nil
}

func closeStore(st store.HistoryStore) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close history: %v\n", cerr)
	}
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
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
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

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	def := model.DefaultWeightConfig()
	return fmt.Sprintf(`# tracer-picker configuration
# Uncomment a value to enable it. CLI flags override config values.
# Portal credentials come from the EMAIL and PASSWORD environment variables.

[draw]
# base-weight = %.1f          # Multiplier applied to the competitor share
# occurrence = %t            # Penalize committees drawn often
# occurrence-divider = %.1f   # Occurrence penalty divider (> 0)
# recency = %t               # Favor committees that waited longest
# recency-min = %.1f          # Floor of the competitions-since-last-trace factor
# recency-power = %.1f        # Exponent of the competitions-since-last-trace factor
# seed = 42                   # Reproducible draws

[committees.extra]
# AU = 2                      # Synthetic competitors added before the draw

[portal]
# base-url = %q
# attempts = %d
# delay = %q
# timeout = "30s"

[history]
# backend = %q            # sqlite or json
# path = ""                   # Defaults to the XDG data directory

[log]
# level = %q
# file = ""                   # JSON audit log of every draw
# format = "json"             # json or human

[report]
# dir = ""                    # Defaults to the XDG data directory
# open = false                # Open the HTML report after a draw
`,
		def.BasePercentageWeight,
		def.OccurrenceWeightEnabled,
		def.OccurrenceDivider,
		def.CompetitionsSinceLastTraceWeightEnabled,
		def.CompetitionsSinceLastTraceWeightMin,
		def.CompetitionsSinceLastTraceWeightPower,
		"https://inscription.ffs.fr",
		defaultAttempts,
		defaultPortalDelay.String(),
		defaultBackend,
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
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
