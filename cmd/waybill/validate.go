package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"mercator-hq/waybill/pkg/cli"
	"mercator-hq/waybill/pkg/record"
	"mercator-hq/waybill/pkg/validation"
)

var validateFlags struct {
	file  string
	field string
	value string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a shipment record",
	Long: `Validate a shipment record against field, cross-field and business rules.

With --field, only that field is validated as if --value had just been typed
into it, together with the fields and cross-field rules that depend on it.

The command exits with status 2 when the record has errors. Warnings never
fail validation.

Examples:
  # Validate a whole record
  waybill validate --file shipment.yaml

  # Validate one edit
  waybill validate --file shipment.yaml --field destination.zip --value 10001

  # Machine-readable result
  waybill validate --file shipment.json -o json`,
	RunE: validateRecord,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.file, "file", "f", "", "record file (.json, .yaml)")
	validateCmd.Flags().StringVar(&validateFlags.field, "field", "", "validate only this field path")
	validateCmd.Flags().StringVar(&validateFlags.value, "value", "", "value for --field")
}

func validateRecord(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	shipment, err := loadRecord(validateFlags.file)
	if err != nil {
		return err
	}

	engine, err := newEngine(e.cfg, e.logger, nil)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	var res validation.Result
	if validateFlags.field != "" {
		path := record.FieldPath(validateFlags.field)
		value, err := record.ParseValue(path, validateFlags.value)
		if err != nil {
			return err
		}
		res = engine.ValidateField(path, value, shipment)
	} else {
		res = engine.ValidateAll(shipment)
	}

	if err := e.emit(cmd, res, func() string { return formatResult(res) }); err != nil {
		return err
	}

	if !res.IsValid {
		return &cli.ExitError{Code: 2, Message: fmt.Sprintf("validation failed: %d error(s)", len(res.Errors))}
	}
	return nil
}

// formatResult renders a result as sorted, human-readable lines.
func formatResult(res validation.Result) string {
	var b strings.Builder

	if res.IsValid {
		b.WriteString("✓ Record valid\n")
	}
	for _, k := range sortedKeys(res.Errors) {
		fmt.Fprintf(&b, "✗ Error: %s: %s\n", k, res.Errors[k])
	}
	for _, k := range sortedKeys(res.Warnings) {
		fmt.Fprintf(&b, "⚠  Warning: %s: %s\n", k, res.Warnings[k])
	}

	fmt.Fprintf(&b, "\nSummary:\n  %d error(s), %d warning(s)\n", len(res.Errors), len(res.Warnings))
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
