package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rigel-lab/qsweep/internal/compiler"
	"github.com/rigel-lab/qsweep/internal/plot"
	"github.com/rigel-lab/qsweep/internal/store"
	"github.com/rigel-lab/qsweep/internal/sweep"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	Target   string
	Program  string
	Register string
	From     float64
	To       float64
	Points   int
	Values   []float64
	Readout  string
	Database string
	Plot     bool
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep <program.cue>",
		Short: "Sweep a parameter across repeated executions",
		Long: `Compile a program once, then execute the binary once per value of the
swept parameter, in order, aggregating each run's readout into a
visibility point. The grid is either --values or an evenly spaced
--from/--to/--points range.

With --db every sweep and run is recorded; replay the series later with
qsweep replay. --plot renders the series as an ASCII chart.

Example:
  qsweep sweep experiments/rabi.cue --target sim-2q --register theta \
      --from 0 --to 6.2832 --points 25 --plot
  qsweep sweep experiments/rabi.cue --target sim-2q --register theta \
      --values 0,1.5708,3.1416 --db results.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "target id (required)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "program name when the file declares several")
	cmd.Flags().StringVar(&opts.Register, "register", "", "real register to sweep (required)")
	cmd.Flags().Float64Var(&opts.From, "from", 0, "range start")
	cmd.Flags().Float64Var(&opts.To, "to", 0, "range end (inclusive)")
	cmd.Flags().IntVar(&opts.Points, "points", 0, "number of evenly spaced points")
	cmd.Flags().Float64SliceVar(&opts.Values, "values", nil, "explicit value list (overrides --from/--to/--points)")
	cmd.Flags().StringVar(&opts.Readout, "readout", "", "bit register to aggregate")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record sweep and runs in this SQLite database")
	cmd.Flags().BoolVar(&opts.Plot, "plot", false, "render the series as an ASCII chart")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("register")

	return cmd
}

func sweepValues(opts *SweepOptions) ([]float64, error) {
	if len(opts.Values) > 0 {
		return opts.Values, nil
	}
	if opts.Points < 1 {
		return nil, fmt.Errorf("need --values or --points >= 1")
	}
	return sweep.Linspace(opts.From, opts.To, opts.Points), nil
}

func runSweep(opts *SweepOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	values, err := sweepValues(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad sweep grid", err)
	}

	p, err := compiler.LoadProgram(path, opts.Program)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitFailure, "program load failed", err)
	}

	h, err := resolveTarget(opts.RootOptions, opts.Target)
	if err != nil {
		return err
	}

	runnerOpts := []sweep.Option{}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		// Appending to an existing log: resume the logical clock past
		// everything already recorded.
		maxSeq, err := st.MaxSeq(cmd.Context())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read database", err)
		}
		runnerOpts = append(runnerOpts,
			sweep.WithRecorder(st),
			sweep.WithClock(sweep.NewClockAt(maxSeq)),
		)
	}

	runner := sweep.NewRunner(runnerOpts...)
	req := sweep.Request{Register: opts.Register, Values: values}
	if opts.Readout != "" {
		req.Readout.Register = opts.Readout
	}

	series, err := runner.Execute(cmd.Context(), h, p, req)
	if err != nil {
		formatter.Error("E005", err.Error(), nil)
		return WrapExitError(ExitFailure, "sweep failed", err)
	}

	text, err := renderSeries(series, opts.Plot)
	if err != nil {
		return WrapExitError(ExitFailure, "rendering failed", err)
	}
	return formatter.SuccessText(text, series)
}

// renderSeries renders a series as text, optionally with the ASCII chart.
func renderSeries(series *sweep.Series, withPlot bool) (string, error) {
	var text strings.Builder
	fmt.Fprintf(&text, "sweep %s: %s on %s, %d points\n",
		series.SweepID, series.Register, series.Target, len(series.Points))
	for i, pt := range series.Points {
		fmt.Fprintf(&text, "  %3d  %-12.6g %.4f\n", i, pt.Value, pt.Visibility)
	}
	if withPlot {
		text.WriteByte('\n')
		if err := plot.Render(&text, series, plot.Options{}); err != nil {
			return "", err
		}
	}
	return text.String(), nil
}
