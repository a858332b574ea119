package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/RevCBH/medalert/internal/rules"
)

// withDefaults fills unset build metadata
func (v VersionInfo) withDefaults() VersionInfo {
	if v.Version == "" {
		v.Version = "dev"
	}
	if v.Commit == "" {
		v.Commit = "unknown"
	}
	if v.Date == "" {
		v.Date = "unknown"
	}
	return v
}

// write prints the version block followed by the built-in catalog size
func (v VersionInfo) write(w io.Writer) {
	v = v.withDefaults()
	fmt.Fprintf(w, "medalert version %s\n", v.Version)
	fmt.Fprintf(w, "commit: %s\n", v.Commit)
	fmt.Fprintf(w, "built: %s\n", v.Date)
	fmt.Fprintf(w, "rules: %d built-in\n", rules.Default().Len())
}

// NewVersionCmd creates the version command
func NewVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.versionInfo.write(cmd.OutOrStdout())
			return nil
		},
	}
}
