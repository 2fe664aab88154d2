package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/hostcrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/hostcrawl.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new hostcrawl configuration file",
		Long: `Initialize creates a new ` + config.DefaultConfigFile + ` configuration file in the current directory.

The generated file includes:
- Default settings for concurrency, depth and timeouts
- Commented examples for per-site cookies, headers and depth
- Documentation for all available options

Examples:
  # Create ` + config.DefaultConfigFile + ` in current directory
  hostcrawl init

  # Create config file at a specific path
  hostcrawl init -o myconfig.yaml

  # Force overwrite existing file
  hostcrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Cookies and headers in the file may be credentials.
	if err := os.WriteFile(outputPath, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure settings such as:")
	fmt.Fprintln(out, "  - Worker pool sizes and the per-host limit")
	fmt.Fprintln(out, "  - Authentication cookies and headers per site")
	fmt.Fprintln(out, "  - URL patterns to ignore or follow")

	return nil
}
