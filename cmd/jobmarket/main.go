// Package main provides the jobmarket CLI: the auth gateway server and tools
// for exercising the app shell from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/jobmarket/internal/config"
	"github.com/jonathan/jobmarket/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "jobmarket.yaml"

var (
	configPath   string
	gatewayURL   string
	storePath    string
	manifestPath string
	verbose      bool

	settings config.Config
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "jobmarket",
	Short: "Job marketplace app shell and auth gateway",
	Long: `jobmarket serves the auth gateway and drives the app shell: platform
detection, session and role restoration, sign-in and role selection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadSettings(cmd); err != nil {
			return err
		}

		var err error
		logger, err = observability.NewLogger(settings.Verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default ./"+defaultConfigFile+" if present)")
	flags.StringVar(&gatewayURL, "gateway", "", "Auth gateway base URL")
	flags.StringVar(&storePath, "store", "", "Path to the shell's SQLite state file")
	flags.StringVar(&manifestPath, "manifest", "", "Path to the host-marker manifest")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadSettings merges the config file, flags and defaults. Flags win.
func loadSettings(cmd *cobra.Command) error {
	file := &config.Config{}
	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		file = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("gateway") {
		file.GatewayURL = gatewayURL
	}
	if flags.Changed("store") {
		file.StorePath = storePath
	}
	if flags.Changed("manifest") {
		file.ManifestPath = manifestPath
	}
	if flags.Changed("verbose") {
		file.Verbose = verbose
	}
	if url := os.Getenv("DATABASE_URL"); url != "" && file.DatabaseURL == "" {
		file.DatabaseURL = url
	}

	merged := file.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return err
	}
	settings = merged
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
