package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"OilTycoon/internal/notifier"
	"OilTycoon/internal/recorder"
)

// NewStatusCommand prints the saved economy as it would look right now.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Show the saved economy, including offline earnings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.engine.Load(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), notifier.FormatStatus(notifier.StatusFromEngine(a.engine)))
			return nil
		},
	}
}

// NewHistoryCommand lists recent retirements and purchases from the recorder.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "List recent retirements and purchases",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if cfg.Recorder.SQLitePath == "" {
				return errors.New("recorder.sqlite_path is not configured")
			}
			rec, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath, logger)
			if err != nil {
				return err
			}
			defer rec.Close()

			out := cmd.OutOrStdout()
			retirements, err := rec.RecentRetirements(limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Retirements:")
			if len(retirements) == 0 {
				fmt.Fprintln(out, "  none")
			}
			for _, evt := range retirements {
				fmt.Fprintln(out, "  "+notifier.FormatRetirement(evt))
			}

			purchases, err := rec.RecentPurchases(limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Purchases:")
			if len(purchases) == 0 {
				fmt.Fprintln(out, "  none")
			}
			for _, p := range purchases {
				fmt.Fprintf(out, "  %-10s %-12s x%-4d $%s\n", p.Kind, p.Target, p.Quantity, notifier.FormatMoney(p.Cost))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "rows per section")
	return cmd
}

// NewResetCommand erases the save.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:          "reset",
		Short:        "Erase the save and start over",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to erase the save without --yes")
			}
			cfg, logger, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.engine.HardReset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Save erased.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing the save")
	return cmd
}
