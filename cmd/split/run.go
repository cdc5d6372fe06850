package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/born-ml/fanout/internal/scenario"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDemoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the built-in reference scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runScenarios(cmd.OutOrStdout(), scenario.Builtin())
		},
	}
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run -f FILE [-f FILE ...]",
		Short: "Run scenarios from YAML files",
		Long: `Runs every scenario found in the given YAML files. A file may hold
several scenarios separated by "---". The command fails if any scenario's
input gradient differs from its "expect" values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.files) == 0 {
				return errors.New("at least one scenario file is required (-f)")
			}
			var all []*scenario.Scenario
			for _, path := range opts.files {
				scenarios, err := scenario.Load(path)
				if err != nil {
					return err
				}
				all = append(all, scenarios...)
			}
			return opts.runScenarios(cmd.OutOrStdout(), all)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.files, "file", "f", nil, "Scenario YAML file (repeatable)")
	return cmd
}

// runScenarios runs scenarios, renders the result table to out, and fails if
// any expectation was not met.
func (o *options) runScenarios(out io.Writer, scenarios []*scenario.Scenario) error {
	sink, err := o.reportSink()
	if err != nil {
		return err
	}
	results, err := scenario.RunAll(scenarios, sink)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		o.logger.Debug("scenario finished",
			zap.String("scenario", r.Name),
			zap.String("policy", r.Policy),
			zap.Bool("propagate", r.Propagate),
			zap.Bool("aliased", r.Aliased),
			zap.Float64s("input_grad", r.InputGrad),
			zap.Bool("matched", r.Matched),
		)
		if !r.Matched {
			failed++
		}
	}
	fmt.Fprintln(out, renderResults(results))

	if failed > 0 {
		return errors.Errorf("%d of %d scenario(s) did not produce the expected input gradient", failed, len(results))
	}
	return nil
}

func renderResults(results []*scenario.Result) string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Scenario", "Policy", "Gate", "Branches", "Input gradient", "Σ branch 0", "Σ branch 1", "Σ input", "Status")

	for _, r := range results {
		b0, b1, in := "-", "-", "-"
		if len(r.Reports) > 0 {
			last := r.Reports[len(r.Reports)-1]
			b0, b1, in = formatFloat(last.Branch0Sum), formatFloat(last.Branch1Sum), formatFloat(last.InputSum)
		}
		status := "ok"
		if !r.Matched {
			status = "MISMATCH"
		}
		table.Row(r.Name, r.Policy, fmt.Sprint(r.Propagate), fmt.Sprint(r.Branches),
			formatValues(r.InputGrad), b0, b1, in, status)
	}
	return table.String()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

func formatValues(values []float64) string {
	const maxShown = 8
	parts := make([]string, 0, min(len(values), maxShown)+1)
	for i, v := range values {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("… (%d more)", len(values)-maxShown))
			break
		}
		parts = append(parts, formatFloat(v))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
