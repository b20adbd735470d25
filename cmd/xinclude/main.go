package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jacoelho/xinclude"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runWithArgs(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// usageError marks errors that exit with status 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

type flags struct {
	root      string
	output    string
	catalog   string
	maxDepth  int
	deps      bool
	watch     bool
	baseFixup bool
	verbose   bool
}

func runWithArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	env, err := loadEnv()
	if err != nil {
		renderError(stderr, err)
		return 2
	}

	cmd := newRootCommand(env, stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		renderError(stderr, err)
		var usage usageError
		if errors.As(err, &usage) {
			return 2
		}
		return 1
	}
	return 0
}

func newRootCommand(env envConfig, stdout, stderr io.Writer) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "xinclude [flags] <document>",
		Short: "Resolve XInclude directives in an XML document",
		Long: `Reads <document> relative to --root, replaces every xi:include element with
the content it references and writes the merged document.

Environment variables XINCLUDE_ROOT, XINCLUDE_CATALOG, XINCLUDE_MAX_DEPTH,
XINCLUDE_BASE_FIXUP and XINCLUDE_VERBOSE set the flag defaults.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError{fmt.Errorf("exactly one document argument is required, got %d", len(args))}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(stderr, f.verbose)
			defer func() { _ = logger.Sync() }()
			return execute(cmd.Context(), f, args[0], logger, stdout, stderr)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	fl := cmd.Flags()
	fl.StringVar(&f.root, "root", env.Root, "directory that locations are resolved against")
	fl.StringVarP(&f.output, "output", "o", "", "write the result to this file instead of stdout")
	fl.StringVar(&f.catalog, "catalog", env.Catalog, "YAML catalog that rewrites locations")
	fl.IntVar(&f.maxDepth, "max-depth", env.MaxDepth, "maximum inclusion nesting (0 uses the default)")
	fl.BoolVar(&f.deps, "deps", false, "print the sources the result depends on to stderr")
	fl.BoolVar(&f.watch, "watch", false, "process again whenever a dependency changes")
	fl.BoolVar(&f.baseFixup, "base-fixup", env.BaseFixup, "add xml:base to included top-level elements")
	fl.BoolVarP(&f.verbose, "verbose", "v", env.Verbose, "enable debug logging")
	return cmd
}

// newLogger builds a production JSON logger writing to w.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(config.EncoderConfig), zapcore.AddSync(w), config.Level)
	return zap.New(core)
}

func execute(ctx context.Context, f flags, document string, logger *zap.Logger, stdout, stderr io.Writer) error {
	location, err := documentLocation(f.root, document)
	if err != nil {
		return usageError{err}
	}
	if f.maxDepth < 0 {
		return usageError{fmt.Errorf("--max-depth must not be negative")}
	}

	opts := xinclude.NewOptions().
		WithLogger(logger).
		WithMaxDepth(f.maxDepth).
		WithBaseFixup(f.baseFixup)
	if f.catalog != "" {
		c, err := loadCatalog(f.catalog)
		if err != nil {
			return err
		}
		opts = opts.WithCatalog(c)
	}
	tr, err := xinclude.NewWithOptions(os.DirFS(f.root), opts)
	if err != nil {
		return err
	}

	once := func() ([]xinclude.ValidityToken, error) {
		res, err := transform(ctx, tr, location, f.output, stdout)
		if err != nil {
			return nil, err
		}
		if f.deps {
			if err := printDeps(stderr, res.Validity); err != nil {
				return nil, err
			}
		}
		return res.Validity, nil
	}

	tokens, err := once()
	if !f.watch {
		return err
	}
	if err != nil {
		renderError(stderr, err)
	}
	paths := watchPaths(f.root, location, tokens)
	return watch(ctx, logger, paths, func() []string {
		tokens, err := once()
		if err != nil {
			renderError(stderr, err)
		} else {
			logger.Info("document processed", zap.String("location", location), zap.Int("dependencies", len(tokens)))
		}
		return watchPaths(f.root, location, tokens)
	})
}

func transform(ctx context.Context, tr *xinclude.Transformer, location, output string, stdout io.Writer) (xinclude.Result, error) {
	if output == "" {
		res, err := tr.TransformLocation(ctx, location, stdout)
		if err == nil {
			_, err = fmt.Fprintln(stdout)
		}
		return res, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), ".xinclude-*")
	if err != nil {
		return xinclude.Result{}, fmt.Errorf("create output %s: %w", output, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	res, err := tr.TransformLocation(ctx, location, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close output %s: %w", output, closeErr)
	}
	if err != nil {
		return xinclude.Result{}, err
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return xinclude.Result{}, fmt.Errorf("write output %s: %w", output, err)
	}
	return res, nil
}

// documentLocation maps a document path to a location under root.
func documentLocation(root, document string) (string, error) {
	rel := document
	if filepath.IsAbs(document) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return "", fmt.Errorf("root %s: %w", root, err)
		}
		rel, err = filepath.Rel(absRoot, document)
		if err != nil {
			return "", fmt.Errorf("document %s: %w", document, err)
		}
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("document %s is outside of root %s", document, root)
	}
	return "/" + rel, nil
}

func loadCatalog(path string) (*xinclude.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	c, err := xinclude.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

func printDeps(w io.Writer, tokens []xinclude.ValidityToken) error {
	for _, tok := range tokens {
		if _, err := fmt.Fprintln(w, tok.String()); err != nil {
			return err
		}
	}
	return nil
}
