package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"codegraph/internal/engine"
	cgerrors "codegraph/internal/errors"
)

// fileCommand builds a command taking one file argument
func fileCommand(opts *globalOptions, use, short, kind string, run func(*engine.Engine, *cobra.Command, string) any) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.emit(cmd, kind, args[0], run(s.engine, cmd, args[0]))
		},
	}
}

func newDepsCmd(opts *globalOptions) *cobra.Command {
	return fileCommand(opts, "deps", "Show a file's imports, exports, dependencies, importers and cycles", "deps",
		func(e *engine.Engine, cmd *cobra.Command, file string) any {
			return e.AnalyzeDependencies(cmd.Context(), file)
		})
}

func newImportersCmd(opts *globalOptions) *cobra.Command {
	return fileCommand(opts, "importers", "List the files that import a file", "importers",
		func(e *engine.Engine, cmd *cobra.Command, file string) any {
			return e.FindImporters(cmd.Context(), file)
		})
}

func newCyclesCmd(opts *globalOptions) *cobra.Command {
	return fileCommand(opts, "cycles", "List import cycles reachable from a file", "cycles",
		func(e *engine.Engine, cmd *cobra.Command, file string) any {
			return e.DetectCircularDependencies(cmd.Context(), file)
		})
}

func newImportsCmd(opts *globalOptions) *cobra.Command {
	return fileCommand(opts, "imports", "List the import statements of a file", "imports",
		func(e *engine.Engine, _ *cobra.Command, file string) any {
			return e.FileImports(file)
		})
}

func newExportsCmd(opts *globalOptions) *cobra.Command {
	return fileCommand(opts, "exports", "List the export statements of a file", "exports",
		func(e *engine.Engine, _ *cobra.Command, file string) any {
			return e.FileExports(file)
		})
}

func newFunctionsCmd(opts *globalOptions) *cobra.Command {
	return fileCommand(opts, "functions", "List the functions defined in a file", "functions",
		func(e *engine.Engine, _ *cobra.Command, file string) any {
			return e.Functions(file)
		})
}

func functionNotFound(name string) error {
	return cgerrors.New(cgerrors.FunctionNotFound, fmt.Sprintf("no definition of %q in the workspace", name), nil).
		WithDetails(map[string]string{"function": name})
}

func newCallgraphCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "callgraph <function>",
		Short: "Show a function's callers, callees, call depth and recursion",
		Long: `Show the call graph of a function. Functions are matched by name; when several
files define the same name the first one in workspace order is used.

Examples:
  codegraph callgraph handleOrder
  codegraph callgraph --format=yaml main`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			graph, ok := s.engine.AnalyzeCallGraph(cmd.Context(), args[0])
			if !ok {
				return functionNotFound(args[0])
			}
			return s.emit(cmd, "callgraph", args[0], graph)
		},
	}
}

func newCallersCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "callers <function>",
		Short: "List every call site of a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.emit(cmd, "callers", args[0], s.engine.FindCallers(cmd.Context(), args[0]))
		},
	}
}

func newPathCmd(opts *globalOptions) *cobra.Command {
	var maxDepth int
	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "List call chains from one function to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			paths := s.engine.TraceExecutionPath(cmd.Context(), args[0], args[1], maxDepth)
			return s.emit(cmd, "path", args[0]+"->"+args[1], paths)
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum calls per chain (default from config)")
	return cmd
}

func newTreeCmd(opts *globalOptions) *cobra.Command {
	var maxDepth int
	cmd := &cobra.Command{
		Use:   "tree <function>",
		Short: "Show the call tree below a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			tree, ok := s.engine.GetCallTree(cmd.Context(), args[0], maxDepth)
			if !ok {
				return functionNotFound(args[0])
			}
			return s.emit(cmd, "tree", args[0], tree)
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum tree depth (default from config)")
	return cmd
}

func newSkimCmd(opts *globalOptions) *cobra.Command {
	var withContent bool
	cmd := &cobra.Command{
		Use:   "skim <file> [terms...]",
		Short: "Read a file adaptively, sampling large files and locating search terms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res := s.engine.Skim(args[0], args[1:]...)
			if !withContent {
				res.Content = ""
			}
			return s.emit(cmd, "skim", args[0], res)
		},
	}
	cmd.Flags().BoolVar(&withContent, "content", false, "Include the composed content in the output")
	return cmd
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var maxFiles, maxResults int
	cmd := &cobra.Command{
		Use:   "search <terms...>",
		Short: "Search workspace files for terms (case-insensitive, per line)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			results := s.engine.SearchFiles(cmd.Context(), engine.SearchOptions{
				Terms:      args,
				MaxFiles:   maxFiles,
				MaxResults: maxResults,
			})
			return s.emit(cmd, "search", strings.Join(args, " "), results)
		},
	}
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "Maximum files to scan (0 = all)")
	cmd.Flags().IntVar(&maxResults, "max-results", 100, "Maximum matches to return (0 = all)")
	return cmd
}
