package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codegraph/internal/config"
	"codegraph/internal/paths"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .codegraph/config.json and register the workspace",
		Long: `Write a default .codegraph/config.json for the workspace and register it in the
project registry. The printed project id can be passed as --project from any directory.

The registry lives in $CODEGRAPH_HOME/registry.db, or under the user config directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := opts.workspaceRoot(cmd.Context())
			if err != nil {
				return err
			}

			dir, err := paths.EnsureDataDir(root)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", paths.DataDirName, err)
			}
			target := filepath.Join(dir, "config.json")
			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}

			cfg := config.DefaultConfig()
			if err := cfg.Save(root); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			db, projects, err := openRegistry(nil)
			if err != nil {
				return err
			}
			defer db.Close()
			project, err := projects.Register(cmd.Context(), filepath.Base(root), root)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nRegistered project %s\n", target, project.ID)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}

func newProjectsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the workspaces in the project registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, projects, err := openRegistry(nil)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := projects.List(cmd.Context())
			if err != nil {
				return err
			}
			output, err := FormatResponse(list, OutputFormat(opts.format))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}
