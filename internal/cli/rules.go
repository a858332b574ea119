package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RevCBH/medalert/internal/rules"
)

// NewRulesCmd creates the rules command group
func NewRulesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule catalogs",
	}

	cmd.AddCommand(newRulesListCmd(app), newRulesValidateCmd())
	return cmd
}

func newRulesListCmd(app *App) *cobra.Command {
	var rulesFile string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := app.catalog(cmd.Context(), rulesFile)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(catalog.Records())
			}

			NewDisplay(cmd.OutOrStdout()).Rules(catalog)
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rules file (default from config, else built-in)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the rules as JSON")

	return cmd
}

func newRulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a rules file and report every problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := rules.LoadFile(args[0])
			if err != nil {
				var verr *rules.ValidationError
				if !errors.As(err, &verr) {
					return err
				}
				for _, e := range flatten(err) {
					if errors.As(e, &verr) {
						fmt.Fprintf(cmd.ErrOrStderr(), "  ✗ %v\n", verr)
					}
				}
				return fmt.Errorf("%s: rules file is invalid", args[0])
			}

			counts := catalog.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d rules (%d high, %d elevated, %d low)\n",
				args[0], catalog.Len(), counts[rules.RiskHigh], counts[rules.RiskElevated], counts[rules.RiskLow])
			return nil
		},
	}
}

// flatten returns the leaves of a tree of wrapped and joined errors
func flatten(err error) []error {
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		var out []error
		for _, inner := range e.Unwrap() {
			out = append(out, flatten(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		if inner := e.Unwrap(); inner != nil {
			return flatten(inner)
		}
	}
	return []error{err}
}
