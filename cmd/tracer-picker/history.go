package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlfcnt/tracer-picker/internal/historyui"
	"github.com/mlfcnt/tracer-picker/internal/model"
	"github.com/mlfcnt/tracer-picker/internal/report"
	"github.com/mlfcnt/tracer-picker/internal/store"
)

var (
	historyJSON bool
	historyYAML bool

	statsCommittees  []string
	statsInteractive bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show confirmed draws",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().BoolVar(&historyJSON, "json", false, "export as JSON (legacy file format)")
	cmd.Flags().BoolVar(&historyYAML, "yaml", false, "export as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	cmd.AddCommand(newHistoryImportCmd())
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()
	history, err := loadHistory(cmd, env)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case historyJSON:
		err = store.ExportHistory(out, history, store.FormatJSON)
	case historyYAML:
		err = store.ExportHistory(out, history, store.FormatYAML)
	default:
		err = report.RenderSelections(out, history)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newHistoryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON history file into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			n, err := store.ImportJSON(commandContext(cmd), args[0], st)
			if err != nil {
				return err
			}
			logErrf("Imported %d draws from %s\n", n, args[0])
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-committee history statistics and weight factors",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringSliceVar(&statsCommittees, "committee", nil, "committees to show (default: all)")
	cmd.Flags().BoolVarP(&statsInteractive, "interactive", "i", false, "browse the history in a terminal UI")
	addWeightFlags(cmd)
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	committees := model.Committees
	if len(statsCommittees) > 0 {
		committees = make([]model.Committee, 0, len(statsCommittees))
		for _, raw := range statsCommittees {
			c, err := model.ParseCommittee(raw)
			if err != nil {
				return fmt.Errorf("--committee: %w", err)
			}
			committees = append(committees, c)
		}
	}

	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()
	weights, err := env.weightConfig(cmd)
	if err != nil {
		return err
	}
	history, err := loadHistory(cmd, env)
	if err != nil {
		return err
	}
	if statsInteractive {
		return historyui.Run(commandContext(cmd), history, committees, weights)
	}
	if err := report.RenderHistory(cmd.OutOrStdout(), history, committees, weights); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newCommitteesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "committees",
		Short: "List known committee codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range model.Committees {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), c); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
			return nil
		},
	}
}

func loadHistory(cmd *cobra.Command, env *runtimeEnv) (model.SelectionHistory, error) {
	st, err := env.openStore()
	if err != nil {
		return model.SelectionHistory{}, err
	}
	defer closeStore(st)
	history, err := st.LoadHistory(commandContext(cmd))
	if err != nil {
		return model.SelectionHistory{}, fmt.Errorf("failed to load history: %w", err)
	}
	return history, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
