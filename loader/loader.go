package loader

import (
	"context"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/nativeboot/activate"
	"github.com/wippyai/nativeboot/atexit"
	"github.com/wippyai/nativeboot/bundle"
	"github.com/wippyai/nativeboot/config"
	"github.com/wippyai/nativeboot/errors"
	"github.com/wippyai/nativeboot/isa"
	"github.com/wippyai/nativeboot/metrics"
	"github.com/wippyai/nativeboot/platform"
)

// Options configures a Loader
type Options struct {
	// Bundle holds config/NativeLibraries.properties and lib/<tag>/<name>.
	// Required unless Settings.ConfigFile is set.
	Bundle fs.FS

	Settings config.Settings

	// Backend opens libraries. Defaults to activate.NativeBackend.
	Backend activate.Backend

	// Platform detects the host. Defaults to platform.Host.
	Platform func() (platform.Tag, error)

	Logger   *zap.Logger
	Metrics  *metrics.Collector
	Cleanup  *atexit.Registry
	Observer Observer
}

// Loader owns the bootstrap state
type Loader struct {
	bundle   fs.FS
	settings config.Settings
	backend  activate.Backend
	detect   func() (platform.Tag, error)
	logger   *zap.Logger
	metrics  *metrics.Collector
	cleanup  *atexit.Registry
	observer Observer

	mu    sync.Mutex
	state State
	done  atomic.Bool
	seen  atomic.Int32 // mirrors state for lock-free reads

	// published once done is set
	result *attempt
}

// attempt is the working set of one protocol run
type attempt struct {
	tag       platform.Tag
	store     *config.Store
	mode      activate.Mode
	session   *bundle.Session
	activator *activate.Activator
	tier      isa.Tier
	hostTier  isa.Tier
	initLibs  []string
	mainLibs  []string
	loadLibs  []string
}

// New creates a Loader in the Uninitialized state
func New(opts Options) *Loader {
	l := &Loader{
		bundle:   opts.Bundle,
		settings: opts.Settings,
		backend:  opts.Backend,
		detect:   opts.Platform,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		cleanup:  opts.Cleanup,
		observer: opts.Observer,
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.backend == nil {
		l.backend = activate.NewNativeBackend(l.logger)
	}
	if l.detect == nil {
		l.detect = platform.Host
	}
	if l.cleanup == nil {
		l.cleanup = atexit.Default()
	}
	return l
}

// Initialized reports whether the engine is loaded
func (l *Loader) Initialized() bool { return l.done.Load() }

// State returns the current protocol step. It does not wait for a running
// protocol.
func (l *Loader) State() State { return State(l.seen.Load()) }

// Initialize runs the bootstrap protocol unless it already succeeded
func (l *Loader) Initialize(ctx context.Context) error {
	if l.done.Load() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Initialized {
		return nil
	}

	start := time.Now()
	a, err := l.run(ctx)
	l.metrics.RecordInitialization(err, time.Since(start))
	if err != nil {
		l.logger.Error("native engine initialization failed", zap.Error(err))
		l.transition(Uninitialized)
		return err
	}

	l.result = a
	l.done.Store(true)
	l.logger.Info("native engine initialized",
		zap.Stringer("platform", a.tag),
		zap.Stringer("tier", a.tier),
		zap.Strings("loaded", a.loadLibs),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (l *Loader) transition(to State) {
	from := l.state
	if from == to {
		return
	}
	l.state = to
	l.seen.Store(int32(to))
	l.logger.Debug("state changed", zap.Stringer("from", from), zap.Stringer("to", to))
	if l.observer != nil {
		l.observer.StateChanged(from, to)
	}
}

func (l *Loader) run(ctx context.Context) (*attempt, error) {
	a := &attempt{}

	tag, err := l.detect()
	if err != nil {
		return nil, err
	}
	a.tag = tag
	l.logger.Info("platform detected", zap.Stringer("platform", tag), zap.String("host", platform.Describe()))
	l.transition(PlatformChecked)

	src := l.settings.Source()
	if src.IsExternal() {
		l.logger.Info("using external library configuration", zap.String("path", src.Path))
	} else {
		l.logger.Info("using embedded library configuration")
	}
	a.store, err = config.Load(src, l.bundle, tag)
	if err != nil {
		return nil, err
	}
	l.transition(ConfigLoaded)

	a.mode = activate.Extracted
	if src.IsExternal() {
		a.mode = activate.SearchPath
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.initLibs = a.store.ValuesFor(config.CategoryInitialise)
	l.logger.Info("init phase libraries", zap.Strings("libraries", a.initLibs), zap.Stringer("mode", a.mode))

	var extractor *bundle.Extractor
	if a.mode == activate.Extracted {
		a.session, err = bundle.NewSession(l.cleanup, l.logger)
		if err != nil {
			return nil, err
		}
		extractor = bundle.NewExtractor(l.bundle, tag, l.logger, l.metrics)
		if err := extractor.Extract(a.session, a.initLibs); err != nil {
			return nil, err
		}
	}
	l.transition(InitLibsExtracted)

	opts := activate.Options{
		Mode:    a.mode,
		Backend: l.backend,
		Logger:  l.logger,
		Metrics: l.metrics,
	}
	if a.session != nil {
		opts.Dir = a.session.Dir()
	}
	a.activator = activate.New(opts)
	if err := l.activateAll(ctx, a.activator, a.initLibs); err != nil {
		return nil, err
	}
	l.transition(InitLibsLoaded)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.tier, err = isa.Resolve(ctx, l.settings.InstructionSet, a.activator.Prober(a.initLibs))
	if err != nil {
		return nil, err
	}
	a.hostTier = isa.HostTier()
	l.logger.Info("instruction set resolved",
		zap.Stringer("tier", a.tier),
		zap.Bool("override", l.settings.InstructionSet != ""),
		zap.Stringer("host_estimate", a.hostTier))
	l.transition(TierResolved)

	a.mainLibs = a.store.ValuesFor(config.LibrariesCategory(a.tier.Tag()))
	l.logger.Info("main phase libraries", zap.Strings("libraries", a.mainLibs))
	if extractor != nil {
		if err := extractor.Extract(a.session, a.mainLibs); err != nil {
			return nil, err
		}
	}
	l.transition(MainLibsExtracted)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.loadLibs = a.store.ValuesFor(config.LoadCategory(a.tier.Tag()))
	if err := l.activateAll(ctx, a.activator, a.loadLibs); err != nil {
		return nil, err
	}
	l.transition(MainLibsLoaded)

	return a, nil
}

func (l *Loader) activateAll(ctx context.Context, act *activate.Activator, names []string) error {
	for _, name := range names {
		if err := act.Activate(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot describes the loader for diagnostics
type Snapshot struct {
	State      State
	Platform   platform.Tag
	Source     config.Source
	Mode       activate.Mode
	Tier       isa.Tier
	HostTier   isa.Tier
	SessionID  string
	SessionDir string
	Backend    string

	InitLibraries []string
	MainLibraries []string
	LoadLibraries []string
	Activated     []string
}

// Snapshot returns the current state. Fields other than State, Source and
// Backend are only set once initialized.
func (l *Loader) Snapshot() Snapshot {
	s := Snapshot{
		State:   l.State(),
		Source:  l.settings.Source(),
		Backend: l.backend.Name(),
	}
	if !l.done.Load() {
		return s
	}

	a := l.result
	s.Platform = a.tag
	s.Mode = a.mode
	s.Tier = a.tier
	s.HostTier = a.hostTier
	if a.session != nil {
		s.SessionID = a.session.ID()
		s.SessionDir = a.session.Dir()
	}
	s.InitLibraries = append([]string(nil), a.initLibs...)
	s.MainLibraries = append([]string(nil), a.mainLibs...)
	s.LoadLibraries = append([]string(nil), a.loadLibs...)
	s.Activated = a.activator.Activated()
	return s
}

// Config returns the configuration store of the successful run
func (l *Loader) Config() (*config.Store, error) {
	if !l.done.Load() {
		return nil, errors.NotInitialized(errors.PhaseInitialize, "native engine")
	}
	return l.result.store, nil
}
