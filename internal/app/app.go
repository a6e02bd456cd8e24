package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/emberlab/emberc/internal/archive"
	"github.com/emberlab/emberc/internal/compile"
	"github.com/emberlab/emberc/internal/ctxlog"
	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/transform"
)

// App runs one configured compiler command.
type App struct {
	out    io.Writer
	fs     afero.Fs
	cfg    *Config
	logger *slog.Logger
}

// NewApp builds an app over the given filesystem. Output meant for the
// user goes to outW; logs go to errW.
func NewApp(outW, errW io.Writer, fs afero.Fs, cfg *Config) *App {
	return &App{
		out:    outW,
		fs:     fs,
		cfg:    cfg,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, errW),
	}
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	m, err := archive.LoadModel(a.fs, a.cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("loading model %s: %w", a.cfg.ModelPath, err)
	}
	a.logger.Debug("model loaded", "path", a.cfg.ModelPath, "nodes", m.Len())

	switch a.cfg.Command {
	case CommandDescribe:
		fmt.Fprint(a.out, graph.Describe(m))
		return nil
	case CommandRefine:
		return a.refine(ctx, m)
	case CommandCompile:
		return a.compile(ctx, m)
	default:
		return fmt.Errorf("unknown command %q", a.cfg.Command)
	}
}

func (a *App) loadOptions() (compile.Options, error) {
	if a.cfg.OptionsPath == "" {
		return compile.DefaultOptions(), nil
	}
	return compile.LoadOptions(a.fs, a.cfg.OptionsPath)
}

func (a *App) refine(ctx context.Context, m *graph.Model) error {
	opts, err := a.loadOptions()
	if err != nil {
		return err
	}
	compiler, err := compile.New(opts)
	if err != nil {
		return err
	}

	t := transform.NewTransformer(transform.NewCompilerContext(compiler))
	refined, result, err := t.RefineModel(ctx, m, a.cfg.MaxIterations)
	if err != nil {
		return err
	}
	a.logger.Info("refinement finished",
		"iterations", result.Iterations,
		"rewrites", result.Rewrites,
		"residual", len(result.Residual))
	if !result.Complete() {
		for _, id := range result.Residual {
			n, err := refined.Node(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "residual: %s (%s)\n", id, n.Op().OpName())
		}
	}
	return archive.SaveModel(a.fs, a.cfg.OutputPath, refined)
}

func (a *App) compile(ctx context.Context, m *graph.Model) error {
	opts, err := a.loadOptions()
	if err != nil {
		return err
	}
	compiler, err := compile.New(opts)
	if err != nil {
		return err
	}

	t := transform.NewTransformer(transform.NewCompilerContext(compiler))
	refined, result, err := t.RefineModel(ctx, m, a.cfg.MaxIterations)
	if err != nil {
		return err
	}
	if !result.Complete() {
		return &compile.ResidualError{Nodes: result.Residual}
	}

	compiled, err := compiler.CompileModel(ctx, refined, nil)
	if err != nil {
		return err
	}
	if err := compile.WriteHeaderFile(a.fs, a.cfg.OutputPath, compiled, opts); err != nil {
		return err
	}
	modelOut := modulePath(a.cfg.OutputPath)
	if err := archive.SaveModel(a.fs, modelOut, refined); err != nil {
		return err
	}
	a.logger.Info("compilation finished",
		"entry", compiled.Entry,
		"functions", len(compiled.Module.Functions()),
		"header", a.cfg.OutputPath,
		"module", modelOut)
	return nil
}

// modulePath derives the compiled-module archive path from the header path.
func modulePath(headerPath string) string {
	ext := filepath.Ext(headerPath)
	return strings.TrimSuffix(headerPath, ext) + ".emb"
}
