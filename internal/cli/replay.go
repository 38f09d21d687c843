package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rigel-lab/qsweep/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Plot     bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [sweep-id]",
		Short: "Reconstruct a recorded sweep series",
		Long: `Read a past sweep back from the database without re-running anything.
Without a sweep id, lists every recorded sweep instead.

Example:
  qsweep replay --db results.db
  qsweep replay 0190... --db results.db --plot`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listSweeps(opts, cmd)
			}
			return replaySweep(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Plot, "plot", false, "render the series as an ASCII chart")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func openExisting(opts *ReplayOptions) (*store.Store, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func listSweeps(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.ListSweeps(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sweeps", err)
	}

	var text strings.Builder
	if len(recs) == 0 {
		text.WriteString("no sweeps recorded\n")
	}
	for _, rec := range recs {
		fmt.Fprintf(&text, "%s  %-10s %-10s %d shots  binary %.12s\n",
			rec.ID, rec.Target, rec.Register, rec.Shots, rec.BinaryHash)
	}
	return formatter.SuccessText(text.String(), recs)
}

func replaySweep(opts *ReplayOptions, sweepID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	series, err := st.ReplaySeries(cmd.Context(), sweepID)
	if err != nil {
		formatter.Error("E006", err.Error(), nil)
		if store.IsNotFound(err) {
			return WrapExitError(ExitCommandError, "sweep not found", err)
		}
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	text, err := renderSeries(series, opts.Plot)
	if err != nil {
		return WrapExitError(ExitFailure, "rendering failed", err)
	}
	return formatter.SuccessText(text, series)
}
