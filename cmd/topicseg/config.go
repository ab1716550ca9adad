package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"topicseg/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(newConfigInitCommand(a))
	return cmd
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Long:  `Write the default configuration to path, or to ~/.config/topicseg/config.yaml.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := config.DefaultUserConfigPath()
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(path, config.Default()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			a.log.Info("wrote config", "path", path)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
