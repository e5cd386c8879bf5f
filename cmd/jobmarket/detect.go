package main

import (
	"encoding/json"

	"github.com/jonathan/jobmarket/internal/observability"
	"github.com/jonathan/jobmarket/internal/platform"
	"github.com/spf13/cobra"
)

var detectJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the host platform and its capabilities",
	Long: `Detect which host the shell runs in from the host-marker manifest, or
from JOBMARKET_* environment markers when no manifest exists.`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(detectCmd)
}

type detectOutput struct {
	Variant      platform.Variant      `json:"variant"`
	Capabilities platform.Capabilities `json:"capabilities"`
}

func runDetect(cmd *cobra.Command, _ []string) error {
	env := &shellEnv{manifest: settings.ManifestPath}
	probe, _ := env.probe(false)

	variant := platform.NewDetector(probe).Detect()
	caps := platform.Resolve(variant)

	if detectJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(detectOutput{Variant: variant, Capabilities: caps})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintPlatform(variant, caps)
	return nil
}
