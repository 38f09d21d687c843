package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rigel-lab/qsweep/internal/harness"
)

// scenarioOutcome is the JSON payload for one executed scenario.
type scenarioOutcome struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Points   int      `json:"points"`
	Errors   []string `json:"errors,omitempty"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run conformance scenarios",
		Long: `Execute scenario files against the in-process simulator and report
pass/fail per scenario. A directory argument runs every .yaml file in it.

Exits 1 if any scenario fails its assertions.

Example:
  qsweep test scenarios/rabi.yaml
  qsweep test scenarios/`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args, cmd)
		},
	}
	return cmd
}

func collectScenarioPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(filepath.Join(arg, "*.yaml"))
		if err != nil {
			return nil, err
		}
		if matches != nil {
			sort.Strings(matches)
			paths = append(paths, matches...)
			continue
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found")
	}
	return paths, nil
}

func runScenarios(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	paths, err := collectScenarioPaths(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "no scenarios", err)
	}

	var outcomes []scenarioOutcome
	var text strings.Builder
	failed := 0
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
		}

		formatter.VerboseLog("running scenario %s", scenario.Name)
		result, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("scenario %s errored", scenario.Name), err)
		}

		outcome := scenarioOutcome{
			Scenario: scenario.Name,
			Pass:     result.Pass,
			Points:   len(result.Series.Points),
			Errors:   result.Errors,
		}
		outcomes = append(outcomes, outcome)

		status := "PASS"
		if !result.Pass {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(&text, "%s  %s (%d points)\n", status, scenario.Name, outcome.Points)
		for _, msg := range result.Errors {
			fmt.Fprintf(&text, "      %s\n", msg)
		}
	}
	fmt.Fprintf(&text, "%d scenarios, %d failed\n", len(outcomes), failed)

	if err := formatter.SuccessText(text.String(), outcomes); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(outcomes)))
	}
	return nil
}
