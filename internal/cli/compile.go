package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rigel-lab/qsweep/internal/compiler"
	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Target   string
	Program  string
	Database string
}

// binaryInfo is the JSON payload for a compiled binary.
type binaryInfo struct {
	Target      string `json:"target"`
	ProgramHash string `json:"program_hash"`
	Hash        string `json:"hash"`
	Shots       int    `json:"shots"`
	Words       int    `json:"words"`
	PatchSlots  int    `json:"patch_slots"`
	Stored      bool   `json:"stored,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program.cue>",
		Short: "Compile a program to a target binary",
		Long: `Compile a program once into a reusable parametric binary for a target.
Parametric angles survive as patch-table slots; executing the binary with
different bindings never recompiles.

With --db the compiled artifact is stored, keyed by its content hash.

Example:
  qsweep compile experiments/rabi.cue --target sim-2q
  qsweep compile experiments/rabi.cue --target sim-2q --db results.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return compileProgram(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "target id (required)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "program name when the file declares several")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the artifact in this SQLite database")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func compileProgram(opts *CompileOptions, path string, cmd *cobra.Command) error {
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
		if native.IsCompileError(err) {
			return WrapExitError(ExitFailure, "compilation failed", err)
		}
		return WrapExitError(ExitCommandError, "compilation failed", err)
	}

	hash, err := bin.Hash()
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing failed", err)
	}

	info := binaryInfo{
		Target:      bin.Target,
		ProgramHash: bin.ProgramHash,
		Hash:        hash,
		Shots:       bin.Shots,
		Words:       len(bin.Words),
		PatchSlots:  len(bin.Patch),
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		if _, err := st.PutArtifact(cmd.Context(), bin); err != nil {
			return WrapExitError(ExitCommandError, "failed to store artifact", err)
		}
		info.Stored = true
	}

	var text strings.Builder
	fmt.Fprintf(&text, "compiled %s for %s\n", p.Name(), bin.Target)
	fmt.Fprintf(&text, "  binary:  %s\n", hash)
	fmt.Fprintf(&text, "  words:   %d (%d patch slots)\n", len(bin.Words), len(bin.Patch))
	fmt.Fprintf(&text, "  shots:   %d\n", bin.Shots)
	if info.Stored {
		fmt.Fprintf(&text, "  stored:  %s\n", opts.Database)
	}
	return formatter.SuccessText(text.String(), info)
}
