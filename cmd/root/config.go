package root

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/docker/itemd/pkg/cli"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long:  "View and manage user-level itemd configuration stored in ~/.config/itemd/config.yaml",
		Example: `  # Show the current configuration
  itemd config show

  # Show the path to the config file
  itemd config path

  # Change the default item store
  itemd config set store ~/items.json`,
		GroupID: "advanced",
		RunE:    runConfigShowCommand,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		Long:  "Display the current user configuration in YAML format",
		Args:  cobra.NoArgs,
		RunE:  runConfigShowCommand,
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the path to the config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigPathCommand,
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a single setting",
		Long: `Change a single setting and save the config file.

Keys: listen, store, shutdown_timeout, watch, log.max_size, log.max_backups`,
		Example: `  itemd config set listen unix:///tmp/itemd.sock
  itemd config set shutdown_timeout 10s
  itemd config set log.max_size 5MB`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSetCommand,
	}
}

func runConfigShowCommand(cmd *cobra.Command, _ []string) error {
	out := cli.NewPrinter(cmd.OutOrStdout())

	config, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := yaml.MarshalWithOptions(config, yaml.IndentSequence(true), yaml.UseSingleQuote(false))
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	out.Printf("%s", data)
	return nil
}

func runConfigPathCommand(cmd *cobra.Command, _ []string) error {
	out := cli.NewPrinter(cmd.OutOrStdout())
	out.Println(configFile())
	return nil
}

func runConfigSetCommand(cmd *cobra.Command, args []string) error {
	out := cli.NewPrinter(cmd.OutOrStdout())

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if err := config.Set(args[0], args[1]); err != nil {
		return err
	}

	if err := config.SaveTo(configFile()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	out.PrintOK(fmt.Sprintf("%s set to %q", args[0], args[1]))
	return nil
}
