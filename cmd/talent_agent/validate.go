package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/talent-reconciler/internal/schemas"
	schemafiles "github.com/jonathan/talent-reconciler/schemas"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate JSON documents against a request schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var validateSchema string

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "extracted_cv",
		"Schema to validate against: "+strings.Join(schemaKinds(), ", "))
	rootCmd.AddCommand(validateCmd)
}

// schemaKinds lists the schema names without their file suffix
func schemaKinds() []string {
	kinds := make([]string, 0, len(schemafiles.Names))
	for _, name := range schemafiles.Names {
		kinds = append(kinds, strings.TrimSuffix(name, ".schema.json"))
	}
	return kinds
}

func runValidate(cmd *cobra.Command, args []string) error {
	validator, err := schemas.NewValidator(schemafiles.Files)
	if err != nil {
		return err
	}
	name := validateSchema + ".schema.json"
	if !validator.Has(name) {
		return fmt.Errorf("unknown schema %q (expected one of %s)", validateSchema, strings.Join(schemaKinds(), ", "))
	}

	failed := 0
	for _, path := range args {
		if _, err := validator.ValidateFile(name, path); err != nil {
			failed++
			var verr *schemas.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n%s", path, verr.Error())
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}
