package cli

import (
	"fmt"
	"path/filepath"

	"github.com/kelriclink/VideoTranSrt/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample configuration file",
	Long: `Write a commented sample configuration file.

Without a path the file is created at ~/.config/videotransrt/config.toml.
An existing file is only replaced with --force.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show which configuration file is used",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configPathCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}
	force, _ := cmd.Flags().GetBool("force")
	if fileExists(path) && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}
	if err := config.CreateSample(path); err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	absPath, _ := filepath.Abs(path)
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written: %s\n", absPath)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	_, resolved, exists, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"path": resolved, "exists": exists})
	}
	status := "found"
	if !exists {
		status = "not found, using defaults"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", resolved, status)
	return nil
}
