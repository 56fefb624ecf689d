package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chinazhenzhen/Storm-Bringer/packages/core/config"
)

func newInitCmd() *cobra.Command {
	var forceInit bool

	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default client configuration",
		Long: `Write a .storm-bringer.yaml with the default client settings.

Examples:
  storm-bringer init
  storm-bringer init ./api --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return initCommand(cmd, dir, forceInit)
		},
	}

	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
	return initCmd
}

func initCommand(cmd *cobra.Command, dir string, force bool) error {
	configFile := filepath.Join(dir, config.ConfigFilenames[0])

	if !force {
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"User-Agent": "storm-bringer/" + version,
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("failed to create config file: %w", err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	return nil
}
