package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rigel-lab/qsweep/internal/compiler"
)

// programInfo is the JSON payload for one validated program.
type programInfo struct {
	Name      string `json:"name"`
	Shots     int    `json:"shots"`
	Registers int    `json:"registers"`
	Body      int    `json:"body"`
	Qubits    int    `json:"qubits"`
	Hash      string `json:"hash"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program.cue>",
		Short: "Validate a CUE program file",
		Long: `Parse and validate every program in a CUE file without compiling to
any target. Reports name, shot count, declarations, and content hash.

Example:
  qsweep validate experiments/rabi.cue
  qsweep validate experiments/rabi.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validatePrograms(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func validatePrograms(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	programs, err := compiler.LoadPrograms(path)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]programInfo, 0, len(names))
	var text strings.Builder
	for _, name := range names {
		p := programs[name]
		hash, err := p.Hash()
		if err != nil {
			return WrapExitError(ExitCommandError, "hashing failed", err)
		}
		infos = append(infos, programInfo{
			Name:      p.Name(),
			Shots:     p.Shots(),
			Registers: len(p.Registers()),
			Body:      len(p.Body()),
			Qubits:    len(p.Qubits()),
			Hash:      hash,
		})
		fmt.Fprintf(&text, "%s: ok (%d shots, %d registers, %d instructions, %d qubits)\n  %s\n",
			p.Name(), p.Shots(), len(p.Registers()), len(p.Body()), len(p.Qubits()), hash)
	}

	return formatter.SuccessText(text.String(), infos)
}
