package main

import (
	"github.com/spf13/cobra"

	"codegraph/internal/version"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	root      string
	project   string
	format    string
	logFormat string
	logFile   string
	verbosity int
	quiet     bool
	record    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "codegraph",
		Short: "codegraph - dependency and call graphs for JavaScript/TypeScript workspaces",
		Long: `codegraph scans a JavaScript/TypeScript workspace with fast line-level heuristics
and answers questions about it: which files a file imports and is imported by, import
cycles, which functions call which, call depth, execution paths and call trees.

Large files are skimmed (header, footer and sampled or matching regions) instead of read
whole, and results are cached until the files they came from change.`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("codegraph version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.root, "root", "", "Workspace root (default: current directory)")
	flags.StringVar(&opts.project, "project", "", "Registered project id to use as the workspace (see init)")
	flags.StringVar(&opts.format, "format", string(FormatJSON), "Output format (json, yaml, toml)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (human, json; default from config)")
	flags.StringVar(&opts.logFile, "log-file", "", "Also append logs to this file")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress all logs")
	flags.BoolVar(&opts.record, "record", false, "Record results in the workspace result store")

	rootCmd.AddCommand(
		newDepsCmd(opts),
		newImportersCmd(opts),
		newCyclesCmd(opts),
		newImportsCmd(opts),
		newExportsCmd(opts),
		newFunctionsCmd(opts),
		newCallgraphCmd(opts),
		newCallersCmd(opts),
		newPathCmd(opts),
		newTreeCmd(opts),
		newSkimCmd(opts),
		newSearchCmd(opts),
		newWatchCmd(opts),
		newInitCmd(opts),
		newProjectsCmd(opts),
		newVersionCmd(opts),
	)
	return rootCmd
}
