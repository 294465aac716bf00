package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mlfcnt/tracer-picker/internal/config"
	"github.com/mlfcnt/tracer-picker/internal/draw"
	"github.com/mlfcnt/tracer-picker/internal/model"
	"github.com/mlfcnt/tracer-picker/internal/portal"
	"github.com/mlfcnt/tracer-picker/internal/report"
	"github.com/mlfcnt/tracer-picker/internal/review"
	"github.com/mlfcnt/tracer-picker/internal/store"
)

var (
	drawCode   string
	drawHome   string
	drawDryRun bool
	drawYes    bool
	drawOpen   bool

	portalURL      string
	portalAttempts int
	portalDelay    string
	portalTimeout  string
	reportDir      string

	simulateHome   string
	simulateCounts string
)

func newDrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Fetch a competition and draw its traceur committees",
		Args:  cobra.NoArgs,
		RunE:  runDrawCmd,
	}
	cmd.Flags().StringVar(&drawCode, "code", "", "4-digit competition code")
	cmd.Flags().StringVar(&drawHome, "home", "", "organizing committee (overrides the portal)")
	cmd.Flags().BoolVar(&drawDryRun, "dry-run", false, "do not save the confirmed draw")
	cmd.Flags().BoolVar(&drawYes, "yes", false, "accept the proposal without review")
	cmd.Flags().BoolVar(&drawOpen, "open", false, "open the HTML report when done")
	cmd.Flags().StringVar(&portalURL, "portal-url", portal.DefaultBaseURL, "registration portal root")
	cmd.Flags().IntVar(&portalAttempts, "attempts", defaultAttempts, "attempts per portal request")
	cmd.Flags().StringVar(&portalDelay, "delay", defaultPortalDelay.String(), "delay between portal attempts")
	cmd.Flags().StringVar(&portalTimeout, "timeout", "30s", "timeout of a portal request")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "HTML report directory (default: XDG data dir)")
	addWeightFlags(cmd)
	return cmd
}

func runDrawCmd(cmd *cobra.Command, _ []string) error {
	if err := portal.ValidateCompetitionCode(drawCode); err != nil {
		return err
	}
	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	builder, err := env.builder(cmd)
	if err != nil {
		return err
	}
	client, err := newPortalClient(cmd, env)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	logErrln("Connexion au portail des inscriptions...")
	if err := client.Login(ctx); err != nil {
		return err
	}
	comp, codes, err := client.FetchCompetition(ctx, drawCode)
	if err != nil {
		return err
	}
	if drawHome != "" {
		home, err := model.ParseCommittee(drawHome)
		if err != nil {
			return fmt.Errorf("--home: %w", err)
		}
		comp.Home = home
	}
	if comp.Home == "" {
		return fmt.Errorf("organizing committee not found on the portal; pass --home")
	}
	counts, err := model.CountCompetitors(codes)
	if err != nil {
		return fmt.Errorf("competition %s: %w", drawCode, err)
	}

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	history, err := st.LoadHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	results, err := builder.Generate(counts, comp, history)
	if err != nil {
		return err
	}

	results, entry, err := confirmResults(ctx, cmd.OutOrStdout(), results)
	if err != nil {
		if errors.Is(err, review.ErrAborted) {
			logErrln("Tirage abandonné, rien n'a été enregistré.")
			return nil
		}
		return err
	}
	if err := report.RenderTable(cmd.OutOrStdout(), results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if drawDryRun {
		logErrln("Dry run: draw not saved.")
	} else {
		if err := st.SaveSelection(ctx, store.NewSelection(entry, results.Competition)); err != nil {
			return fmt.Errorf("failed to save draw: %w", err)
		}
		env.log.Info("draw saved", zap.String("key", entry.Key))
	}
	return writeReport(cmd, env, results)
}

// confirmResults runs the review loop, or accepts the proposal as is with --yes.
func confirmResults(ctx context.Context, out io.Writer, results model.Results) (model.Results, model.HistoryEntry, error) {
	if drawYes || !term.IsTerminal(int(os.Stdin.Fd())) {
		if !drawYes {
			if err := report.RenderTable(out, results); err != nil {
				return model.Results{}, model.HistoryEntry{}, err
			}
			return model.Results{}, model.HistoryEntry{}, fmt.Errorf("stdin is not a terminal; pass --yes to accept the proposal")
		}
		entry, err := draw.Confirm(results)
		if err != nil {
			return model.Results{}, model.HistoryEntry{}, err
		}
		warnRepeatedDraw(results)
		return results, entry, nil
	}
	outcome, err := review.Run(ctx, results)
	if err != nil {
		return model.Results{}, model.HistoryEntry{}, err
	}
	warnRepeatedDraw(outcome.Results)
	return outcome.Results, outcome.Entry, nil
}

func warnRepeatedDraw(results model.Results) {
	if c, ok := draw.RepeatedDraw(results); ok {
		logErrf("Attention : %s trace les manches 2 et 4.\n", c)
	}
}

func newPortalClient(cmd *cobra.Command, env *runtimeEnv) (*portal.Client, error) {
	p := env.file.Portal
	applyStringConfig(cmd, "portal-url", &portalURL, p.BaseURL)
	applyIntConfig(cmd, "attempts", &portalAttempts, p.Attempts)
	applyStringConfig(cmd, "delay", &portalDelay, p.Delay)
	applyStringConfig(cmd, "timeout", &portalTimeout, p.Timeout)
	delay, err := time.ParseDuration(portalDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid --delay value: %w", err)
	}
	timeout, err := time.ParseDuration(portalTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid --timeout value: %w", err)
	}
	if portalAttempts <= 0 {
		return nil, fmt.Errorf("--attempts must be > 0")
	}

	email, password, err := config.Credentials(os.Getenv)
	if err != nil {
		return nil, err
	}
	if password == "" {
		password, err = readPassword(email)
		if err != nil {
			return nil, err
		}
	}
	return portal.New(email, password,
		portal.WithBaseURL(portalURL),
		portal.WithRetry(portalAttempts, delay),
		portal.WithTimeout(timeout),
		portal.WithLogger(env.log),
	)
}

func readPassword(email string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("PASSWORD environment variable is not set")
	}
	logErrf("Mot de passe pour %s: ", email)
	pw, err := term.ReadPassword(fd)
	logErrln()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(pw) == 0 {
		return "", fmt.Errorf("password is empty")
	}
	return string(pw), nil
}

func writeReport(cmd *cobra.Command, env *runtimeEnv, results model.Results) error {
	r := env.file.Report
	applyStringConfig(cmd, "report-dir", &reportDir, r.Dir)
	applyBoolConfig(cmd, "open", &drawOpen, r.Open)
	dir := reportDir
	if dir == "" {
		dir = config.DefaultReportDir()
	}
	path, err := report.WriteHTMLFile(dir, results, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logErrf("Rapport: %s\n", path)
	if drawOpen {
		if err := openBrowser(path); err != nil {
			logErrf("failed to open report: %v\n", err)
		}
	}
	return nil
}

func openBrowser(path string) error {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
	default:
		name = "xdg-open"
	}
	return exec.Command(name, path).Start()
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Draw offline from given counts against the stored history",
		Args:  cobra.NoArgs,
		RunE:  runSimulateCmd,
	}
	cmd.Flags().StringVar(&simulateHome, "home", "", "organizing committee")
	cmd.Flags().StringVar(&simulateCounts, "counts", "", "competitors per committee, e.g. SA=5,MB=3")
	addWeightFlags(cmd)
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	home, err := model.ParseCommittee(simulateHome)
	if err != nil {
		return fmt.Errorf("--home: %w", err)
	}
	counts, err := parseCounts(simulateCounts)
	if err != nil {
		return fmt.Errorf("--counts: %w", err)
	}
	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	builder, err := env.builder(cmd)
	if err != nil {
		return err
	}
	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := commandContext(cmd)
	history, err := st.LoadHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	results, err := builder.Generate(counts, model.Competition{Home: home}, history)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.RenderTable(out, results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := report.RenderWeights(out, results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// parseCounts reads "SA=5,MB=3" into validated counts.
func parseCounts(raw string) (model.Counts, error) {
	values := map[string]int{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, n, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected COMMITTEE=COUNT, got %q", part)
		}
		count, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("invalid count in %q: %w", part, err)
		}
		values[strings.TrimSpace(code)] += count
	}
	counts, err := model.NewCounts(values)
	if err != nil {
		return nil, err
	}
	if counts.Total() == 0 {
		return nil, model.ErrNoCompetitors
	}
	return counts, nil
}
