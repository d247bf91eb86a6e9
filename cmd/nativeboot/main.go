// Command nativeboot loads a native engine bundle and reports what it chose.
package main

//go:generate go run gen_bundle.go

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/nativeboot/activate"
	"github.com/wippyai/nativeboot/atexit"
	"github.com/wippyai/nativeboot/config"
	"github.com/wippyai/nativeboot/expr"
	"github.com/wippyai/nativeboot/isa"
	"github.com/wippyai/nativeboot/loader"
	"github.com/wippyai/nativeboot/materialise"
	"github.com/wippyai/nativeboot/metrics"
	"github.com/wippyai/nativeboot/platform"
)

//go:embed all:bundle
var demoBundle embed.FS

type options struct {
	settings    config.Settings
	bundleDir   string
	backend     string
	verbose     bool
	showMetrics bool
	interactive bool
	command     string
	args        []string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{settings: config.SettingsFromEnv()}

	flags := flag.NewFlagSet("nativeboot", flag.ContinueOnError)
	opts.settings.Bind(flags)
	flags.StringVar(&opts.bundleDir, "bundle", "", "Bundle directory with config/ and lib/<platform>/ (default: embedded demo bundle)")
	flags.StringVar(&opts.backend, "backend", "wasm", "Library backend: native or wasm")
	flags.BoolVar(&opts.verbose, "v", false, "Verbose development logging")
	flags.BoolVar(&opts.showMetrics, "metrics", false, "Print Prometheus metrics when done")
	flags.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flags.Usage = func() {
		out := flags.Output()
		fmt.Fprintln(out, "Usage: nativeboot [flags] init|info|tree [values...]")
		fmt.Fprintln(out, "       nativeboot -i  (interactive mode)")
		fmt.Fprintln(out)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	opts.command = "init"
	if flags.NArg() > 0 {
		opts.command = flags.Arg(0)
		opts.args = flags.Args()[1:]
	}
	switch opts.command {
	case "init", "info", "tree":
	default:
		err := fmt.Errorf("unknown command %q", opts.command)
		fmt.Fprintln(flags.Output(), err)
		flags.Usage()
		return nil, err
	}
	if opts.backend != "native" && opts.backend != "wasm" {
		err := fmt.Errorf("unknown backend %q", opts.backend)
		fmt.Fprintln(flags.Output(), err)
		flags.Usage()
		return nil, err
	}
	return opts, nil
}

// env is everything a command needs, built from options
type env struct {
	loader   *loader.Loader
	logger   *zap.Logger
	registry *prometheus.Registry
	cleanup  *atexit.Registry
	bundle   fs.FS
	close    func()
}

func newEnv(ctx context.Context, opts *options, logger *zap.Logger, observer loader.Observer) (*env, error) {
	bundle, err := openBundle(opts.bundleDir)
	if err != nil {
		return nil, err
	}

	var backend activate.Backend
	closeBackend := func() {}
	switch opts.backend {
	case "native":
		backend = activate.NewNativeBackend(logger)
	default:
		wasm := activate.NewWasmBackend(ctx, &activate.WasmConfig{
			SearchPath: activate.WasmSearchPathFromEnv(),
			Logger:     logger,
		})
		backend = wasm
		closeBackend = func() { _ = wasm.Close(ctx) }
	}

	registry := prometheus.NewRegistry()
	cleanup := atexit.New(logger)

	l := loader.New(loader.Options{
		Bundle:   bundle,
		Settings: opts.settings,
		Backend:  backend,
		Logger:   logger,
		Metrics:  metrics.NewCollector(registry),
		Cleanup:  cleanup,
		Observer: observer,
	})

	return &env{
		loader:   l,
		logger:   logger,
		registry: registry,
		cleanup:  cleanup,
		bundle:   bundle,
		close: func() {
			closeBackend()
			if err := cleanup.Run(); err != nil {
				logger.Warn("cleanup failed", zap.Error(err))
			}
		},
	}, nil
}

func openBundle(dir string) (fs.FS, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("bundle: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("bundle: %s is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(demoBundle, "bundle")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	e, err := newEnv(ctx, opts, logger, nil)
	if err != nil {
		return err
	}
	defer e.close()

	switch opts.command {
	case "info":
		err = runInfo(opts, e, out)
	case "tree":
		err = runTree(ctx, opts, e, out)
	default:
		err = runInit(ctx, e, out)
	}

	if opts.showMetrics {
		if merr := writeMetrics(out, e.registry); merr != nil && err == nil {
			err = merr
		}
	}
	return err
}

func runInit(ctx context.Context, e *env, out io.Writer) error {
	if err := e.loader.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	writeSnapshot(out, e.loader.Snapshot())
	return nil
}

func writeSnapshot(out io.Writer, s loader.Snapshot) {
	fmt.Fprintf(out, "State:          %s\n", s.State)
	fmt.Fprintf(out, "Platform:       %s\n", s.Platform)
	fmt.Fprintf(out, "Configuration:  %s\n", s.Source)
	fmt.Fprintf(out, "Mode:           %s (%s backend)\n", s.Mode, s.Backend)
	fmt.Fprintf(out, "Tier:           %s (host estimate %s)\n", s.Tier, s.HostTier)
	if s.SessionDir != "" {
		fmt.Fprintf(out, "Session:        %s\n", s.SessionID)
		fmt.Fprintf(out, "Extracted to:   %s\n", s.SessionDir)
	}
	fmt.Fprintf(out, "Init libraries: %s\n", listOrNone(s.InitLibraries))
	fmt.Fprintf(out, "Main libraries: %s\n", listOrNone(s.MainLibraries))
	fmt.Fprintf(out, "Loaded:         %s\n", listOrNone(s.LoadLibraries))
	fmt.Fprintf(out, "Activated:      %s\n", listOrNone(s.Activated))
}

// runInfo reports the host and the configuration without loading anything
func runInfo(opts *options, e *env, out io.Writer) error {
	fmt.Fprintf(out, "Host:           %s\n", platform.Describe())

	tag, err := platform.Host()
	if err != nil {
		fmt.Fprintf(out, "Platform:       unsupported (%v)\n", err)
	} else {
		fmt.Fprintf(out, "Platform:       %s\n", tag)
	}
	fmt.Fprintf(out, "Host tier:      %s\n", isa.HostTier())
	fmt.Fprintf(out, "CPU features:   %s\n", formatFeatures(isa.HostFeatures()))
	fmt.Fprintf(out, "Native backend: %s\n", availability(activate.NativeAvailable))
	if opts.settings.InstructionSet != "" {
		fmt.Fprintf(out, "Tier override:  %s\n", opts.settings.InstructionSet)
	}
	if err != nil {
		return nil
	}

	src := opts.settings.Source()
	store, err := config.Load(src, e.bundle, tag)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	fmt.Fprintf(out, "Configuration:  %s\n", src)
	fmt.Fprintf(out, "  %s = %s\n", config.CategoryInitialise, listOrNone(store.ValuesFor(config.CategoryInitialise)))
	for _, tier := range isa.All() {
		libs := store.ValuesFor(config.LibrariesCategory(tier.Tag()))
		load := store.ValuesFor(config.LoadCategory(tier.Tag()))
		if len(libs) == 0 && len(load) == 0 {
			continue
		}
		fmt.Fprintf(out, "  %-6s libraries = %s; load = %s\n", tier.Tag(), listOrNone(libs), listOrNone(load))
	}
	return nil
}

// runTree sums the given values (or a small sample) on the engine
func runTree(ctx context.Context, opts *options, e *env, out io.Writer) error {
	root, err := demoTree(opts.args)
	if err != nil {
		return err
	}
	if err := expr.PrintTree(out, root); err != nil {
		return err
	}

	status, err := materialise.New(e.loader, e.logger).Materialise(ctx, root)
	if err != nil {
		return fmt.Errorf("materialise: %w", err)
	}
	fmt.Fprintf(out, "Engine status:  %d\n", status)
	return nil
}

func demoTree(args []string) (*expr.Node, error) {
	if len(args) == 0 {
		return expr.Op("plus",
			expr.Array("a", []int{2, 2}, []float64{1, 2, 3, 4}),
			expr.Op("negate", expr.Array("b", []int{2, 2}, []float64{4, 3, 2, 1})),
		), nil
	}
	values := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", a, err)
		}
		values[i] = v
	}
	return expr.Op("sum", expr.Array("values", nil, values)), nil
}

func writeMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(out, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable in this build"
}

func formatFeatures(features map[string]bool) string {
	names := make([]string, 0, len(features))
	for name, ok := range features {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return listOrNone(names)
}
