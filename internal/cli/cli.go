package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/RevCBH/medalert/internal/config"
)

// VersionInfo holds build metadata set via ldflags
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App represents the CLI application with all wired dependencies
type App struct {
	// Root command
	rootCmd *cobra.Command

	// Global flags
	verbose    bool
	configPath string
	envFile    string
	logLevel   string

	// Version information
	versionInfo VersionInfo
}

// New creates a new CLI application
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version string for the version command
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "medalert",
		Short: "Symptom triage advisories with emergency escalation",
		Long: `MedAlert classifies free-text symptom descriptions into triage
advisories, keeps a per-session history and escalates high-risk
symptoms to an emergency action layer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadEnv()
		},
	}

	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Verbose output")
	a.rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Config file (default ./"+config.FileName+")")
	a.rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env",
		"Environment file loaded before config")
	a.rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")

	a.rootCmd.AddCommand(
		NewServeCmd(a),
		NewClassifyCmd(a),
		NewRulesCmd(a),
		NewConsoleCmd(a),
		NewVersionCmd(a),
	)
}

// loadEnv loads the env file into the process environment. Variables
// already set win. A missing default file is not an error.
func (a *App) loadEnv() error {
	if a.envFile == "" {
		return nil
	}
	err := godotenv.Load(a.envFile)
	if err == nil {
		log.Debug().Str("file", a.envFile).Msg("Loaded environment file")
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !a.rootCmd.PersistentFlags().Changed("env-file") {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

// loadConfig loads the explicit config file, or ./.medalert.yaml if present
func (a *App) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", wdErr)
		}
		cfg, err = config.LoadConfig(wd)
	}
	if err != nil {
		return nil, err
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	return cfg, nil
}
