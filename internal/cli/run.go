package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rigel-lab/qsweep/internal/compiler"
	"github.com/rigel-lab/qsweep/internal/prog"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Target   string
	Program  string
	Bindings []string
	Readout  string
}

// runResult is the JSON payload for a single execution.
type runResult struct {
	Target     string             `json:"target"`
	Shots      int                `json:"shots"`
	Visibility map[string]float64 `json:"visibility"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program.cue>",
		Short: "Execute a program once with explicit bindings",
		Long: `Compile a program for a target, bind every declared parameter with
--set, execute one batch of shots, and report per-register visibility.

Example:
  qsweep run experiments/rabi.cue --target sim-2q --set theta=1.5708
  qsweep run cal.cue --target sim-2q --set phi[0]=0.1 --set phi[1]=0.2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "target id (required)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "program name when the file declares several")
	cmd.Flags().StringArrayVar(&opts.Bindings, "set", nil, "parameter binding register=value (repeatable)")
	cmd.Flags().StringVar(&opts.Readout, "readout", "", "bit register to report (default: all)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runOnce(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := compiler.LoadProgram(path, opts.Program)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitFailure, "program load failed", err)
	}

	h, err := resolveTarget(opts.RootOptions, opts.Target)
	if err != nil {
		return err
	}

	bin, err := h.Compile(cmd.Context(), p)
	if err != nil {
		formatter.Error("E002", err.Error(), nil)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}

	raw := make(map[string][]float64)
	for _, s := range opts.Bindings {
		register, index, value, err := parseBinding(s)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad --set flag", err)
		}
		register = prog.NormalizeName(register)
		reg, ok := bin.Register(register)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("--set %s: register not declared", s))
		}
		vals := raw[register]
		if vals == nil {
			vals = make([]float64, reg.Length)
			raw[register] = vals
		}
		if index < 0 || index >= reg.Length {
			return NewExitError(ExitCommandError, fmt.Sprintf("--set %s: index out of range", s))
		}
		vals[index] = value
	}

	mem, err := prog.NewMemoryMap(bin, raw)
	if err != nil {
		formatter.Error("E003", err.Error(), nil)
		return WrapExitError(ExitFailure, "binding failed", err)
	}

	res, err := h.Run(cmd.Context(), bin, mem)
	if err != nil {
		formatter.Error("E004", err.Error(), nil)
		return WrapExitError(ExitFailure, "run failed", err)
	}

	result := runResult{
		Target:     bin.Target,
		Shots:      res.Shots,
		Visibility: make(map[string]float64),
	}
	var text strings.Builder
	fmt.Fprintf(&text, "%s on %s: %d shots\n", p.Name(), bin.Target, res.Shots)
	for _, reg := range bin.Registers {
		if reg.Type != prog.RegBit {
			continue
		}
		if opts.Readout != "" && reg.Name != prog.NormalizeName(opts.Readout) {
			continue
		}
		for i := 0; i < reg.Length; i++ {
			vis, err := res.Visibility(reg.Name, i)
			if err != nil {
				return WrapExitError(ExitFailure, "aggregation failed", err)
			}
			key := reg.Name
			if reg.Length > 1 {
				key = fmt.Sprintf("%s[%d]", reg.Name, i)
			}
			result.Visibility[key] = vis
			fmt.Fprintf(&text, "  %-10s %.4f\n", key, vis)
		}
	}

	return formatter.SuccessText(text.String(), result)
}
