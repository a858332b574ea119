package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/rules"
)

// ClassifyOptions holds flags for the classify command
type ClassifyOptions struct {
	RulesFile string
	JSON      bool
	Explain   bool
}

// NewClassifyCmd creates the classify command.
// Usage: medalert classify [TEXT...] [--rules FILE] [--json] [--explain]
func NewClassifyCmd(app *App) *cobra.Command {
	opts := ClassifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify a symptom description",
		Long: `Classifies a symptom description and prints the advisory.
With no arguments the description is read from stdin.`,
		Example: `  medalert classify "I have chest pain"
  echo "bad headache since noon" | medalert classify --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("nothing to classify")
			}

			catalog, err := app.catalog(cmd.Context(), opts.RulesFile)
			if err != nil {
				return err
			}

			match := classify.Explain(text, catalog)
			if opts.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(match)
			}

			NewDisplay(cmd.OutOrStdout()).Advisory(match, opts.Explain)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.RulesFile, "rules", "", "Rules file (default from config, else built-in)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "Show which rules matched")

	return cmd
}

// catalog loads the rules file at path, or the catalog the config selects
func (a *App) catalog(ctx context.Context, path string) (*rules.Catalog, error) {
	if path != "" {
		return rules.LoadFile(path)
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	provider := rules.NewProvider(ruleSource(cfg), rules.Default())
	if err := provider.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return provider.Catalog(), nil
}
