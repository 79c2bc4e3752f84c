package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codegraph/internal/config"
	"codegraph/internal/engine"
	cgerrors "codegraph/internal/errors"
	"codegraph/internal/paths"
	"codegraph/internal/slogutil"
	"codegraph/internal/storage"
)

// session is an open engine plus whatever has to be closed with it
type session struct {
	engine  *engine.Engine
	logger  *slog.Logger
	opts    *globalOptions
	closers []func() error
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("Failed to close resource", "error", err)
		}
	}
}

// workspaceRoot returns the root of the --project workspace, or the --root flag or the
// current directory, made absolute.
func (o *globalOptions) workspaceRoot(ctx context.Context) (string, error) {
	if o.project != "" {
		if o.root != "" {
			return "", fmt.Errorf("--root and --project cannot be used together")
		}
		return projectRoot(ctx, o.project)
	}

	root := o.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	return filepath.Abs(root)
}

// openRegistry opens the project registry shared by every workspace.
func openRegistry(logger *slog.Logger) (*storage.DB, *storage.ProjectRepository, error) {
	path, err := paths.RegistryPath()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to locate project registry: %w", err)
	}
	db, err := storage.Open(path, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, storage.NewProjectRepository(db), nil
}

func projectRoot(ctx context.Context, projectID string) (string, error) {
	db, projects, err := openRegistry(nil)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return resolveProject(ctx, projects, projectID)
}

func resolveProject(ctx context.Context, store storage.ProjectStore, projectID string) (string, error) {
	root, ok, err := store.WorkspaceRoot(ctx, projectID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", cgerrors.New(cgerrors.ProjectNotFound, fmt.Sprintf("no project with id %s", projectID), nil).
			WithDetails(map[string]interface{}{"project": projectID})
	}
	return root, nil
}

// logLevel is the verbosity flags' level, raised to the configured level when no -v was
// given.
func (o *globalOptions) logLevel(cfg *config.Config, quiet bool) slog.Level {
	level := slogutil.LevelFromVerbosity(o.verbosity, quiet)
	if o.verbosity == 0 && !quiet && cfg.Logging.Level != "" {
		if configured := slogutil.LevelFromString(cfg.Logging.Level); configured > level {
			level = configured
		}
	}
	return level
}

// newLogger writes to stderr so command output on stdout stays machine-readable. With
// --log-file the records are also appended to that file; --quiet only silences stderr.
func (o *globalOptions) newLogger(cfg *config.Config) (*slog.Logger, func() error, error) {
	format := o.logFormat
	if format == "" {
		format = cfg.Logging.Format
	}
	logger := slogutil.New(os.Stderr, format, o.logLevel(cfg, o.quiet))
	if o.logFile == "" {
		return logger, nil, nil
	}

	fileLogger, f, err := slogutil.NewFileLogger(o.logFile, format, o.logLevel(cfg, false))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return slog.New(slogutil.NewTeeHandler(logger.Handler(), fileLogger.Handler())), f.Close, nil
}

// openSession loads the workspace config and creates the engine, attaching the result
// store when --record is set or storage is enabled in config.
func openSession(cmd *cobra.Command, opts *globalOptions) (*session, error) {
	root, err := opts.workspaceRoot(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := opts.newLogger(cfg)
	if err != nil {
		return nil, err
	}
	s := &session{logger: logger, opts: opts}
	if closeLog != nil {
		s.closers = append(s.closers, closeLog)
	}

	eng, err := engine.NewEngine(cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.engine = eng
	s.closers = append(s.closers, eng.Close)

	if opts.record || cfg.Storage.Enabled {
		if err := s.attachStore(cmd.Context(), cfg, root); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) attachStore(ctx context.Context, cfg *config.Config, root string) error {
	db, err := storage.Open(paths.ResolveDataPath(root, cfg.Storage.Path), s.logger.With("component", "storage"))
	if err != nil {
		return err
	}
	s.closers = append(s.closers, db.Close)

	project, err := storage.NewProjectRepository(db).Register(ctx, filepath.Base(root), root)
	if err != nil {
		return err
	}
	results, err := storage.NewResultRepository(db, root)
	if err != nil {
		return err
	}
	results.SetCompression(cfg.Storage.Compress)
	s.closers = append(s.closers, results.Close)

	s.engine.SetResultSink(results)
	s.logger.Debug("Recording results", "project", project.ID, "db", db.Path())
	return nil
}

// emit records result under (kind, key) and writes it to the command output.
func (s *session) emit(cmd *cobra.Command, kind, key string, result any) error {
	s.engine.Record(cmd.Context(), kind, key, result)

	output, err := FormatResponse(result, OutputFormat(s.opts.format))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
	return err
}
