package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// targetInfo is the JSON payload for one catalog entry.
type targetInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Driver      string   `json:"driver"`
	Status      string   `json:"status"`
	Qubits      int      `json:"qubits"`
	Native      []string `json:"native"`
}

// NewTargetsCommand creates the targets command.
func NewTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List catalog targets",
		Long: `List the targets available for compilation and execution.

Shows the embedded simulator targets by default; --targets-dir swaps in a
site catalog.

Example:
  qsweep targets
  qsweep targets --format json
  qsweep targets --targets-dir ./site-catalog`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTargets(rootOpts, cmd)
		},
	}
	return cmd
}

func listTargets(opts *RootOptions, cmd *cobra.Command) error {
	catalog, err := loadCatalog(opts)
	if err != nil {
		return err
	}

	formatter := newFormatter(opts, cmd)

	targets := catalog.Targets()
	infos := make([]targetInfo, 0, len(targets))
	var text strings.Builder
	for _, t := range targets {
		native := make([]string, 0, len(t.Native))
		for g := range t.Native {
			native = append(native, string(g))
		}
		sortStrings(native)
		infos = append(infos, targetInfo{
			ID:          t.ID,
			Description: t.Description,
			Driver:      t.Driver,
			Status:      string(t.Status),
			Qubits:      len(t.Qubits),
			Native:      native,
		})
		fmt.Fprintf(&text, "%-14s %-8s %-9s %dq  [%s]  %s\n",
			t.ID, t.Driver, t.Status, len(t.Qubits),
			strings.Join(native, " "), t.Description)
	}

	return formatter.SuccessText(text.String(), infos)
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
