package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"mercator-hq/waybill/pkg/cli"
	"mercator-hq/waybill/pkg/progress"
)

var progressFlags struct {
	file string
	step string
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show how much of a shipment record is filled in",
	Long: `Show completion of the required booking fields.

With --step, the command also checks whether every required field of that
wizard step (origin, destination, package) is complete and exits with status 2
when it is not.

Examples:
  waybill progress --file shipment.yaml
  waybill progress --file shipment.yaml --step origin
  waybill progress --file shipment.yaml -o json`,
	RunE: showProgress,
}

func init() {
	rootCmd.AddCommand(progressCmd)

	progressCmd.Flags().StringVarP(&progressFlags.file, "file", "f", "", "record file (.json, .yaml)")
	progressCmd.Flags().StringVar(&progressFlags.step, "step", "", "check whether this step can be left: origin, destination, package")
}

func showProgress(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	shipment, err := loadRecord(progressFlags.file)
	if err != nil {
		return err
	}

	tracker := progress.NewTracker()
	p := tracker.Calculate(shipment)

	if err := e.emit(cmd, p, func() string { return formatProgress(p) }); err != nil {
		return err
	}

	if progressFlags.step == "" {
		return nil
	}
	step := progress.Step(progressFlags.step)
	if _, ok := p.Steps[step]; !ok {
		return fmt.Errorf("unknown step %q (valid: origin, destination, package)", progressFlags.step)
	}
	if !tracker.CanAdvance(shipment, step) {
		return &cli.ExitError{Code: 2, Message: fmt.Sprintf("step %s is incomplete", step)}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Step %s complete\n", step)
	return nil
}

func formatProgress(p progress.FormProgress) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", cli.ProgressBar(p.Percentage), p.CompletionStatus)
	fmt.Fprintf(&b, "  %d of %d required fields\n", p.CompletedFields, p.TotalFields)
	if p.NextIncompleteField != nil {
		fmt.Fprintf(&b, "  Next: %s\n", *p.NextIncompleteField)
	}
	for _, step := range progress.Steps {
		sp, ok := p.Steps[step]
		if !ok {
			continue
		}
		mark := "✗"
		if sp.Complete {
			mark = "✓"
		}
		fmt.Fprintf(&b, "  %s %-12s %d/%d\n", mark, step, sp.CompletedFields, sp.TotalFields)
	}
	return b.String()
}
