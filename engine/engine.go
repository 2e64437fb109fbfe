package engine

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/booking"
	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/expiry"
	"github.com/xraph/booking/ext"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/joblock"
	"github.com/xraph/booking/match"
	"github.com/xraph/booking/notify"
	"github.com/xraph/booking/observability"
	"github.com/xraph/booking/store"
	"github.com/xraph/booking/translator"
)

// Engine is the central coordinator for booking operations. Create one
// with New() and functional options; a store and a translator directory
// are required, everything else has working defaults.
type Engine struct {
	cfg        booking.Config
	store      store.Store
	dir        translator.Directory
	matcher    *match.Matcher
	dispatcher *notify.Dispatcher
	recorder   *audit.Recorder
	extensions *ext.Registry
	locker     joblock.Locker
	sweeper    *expiry.Sweeper
	logger     *slog.Logger
	clock      booking.Clock

	// Deferred wiring captured by options and applied in New once the
	// logger and config are final.
	dispatchOpts  []notify.Option
	pendingExts   []ext.Extension
	meterProvider metric.MeterProvider

	started bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the business-policy configuration.
func WithConfig(cfg booking.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger sets the structured logger for the engine and every
// subsystem it builds.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the engine's time source. Tests inject fixed clocks here.
func WithClock(c booking.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithStore sets the persistence backend.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithDirectory sets the translator/customer directory.
func WithDirectory(d translator.Directory) Option {
	return func(e *Engine) { e.dir = d }
}

// WithLocker sets the per-booking lease locker. Defaults to the in-memory
// locker; multi-process deployments use joblock.NewRedisLocker.
func WithLocker(l joblock.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithExtension registers a lifecycle extension with the engine.
func WithExtension(x ext.Extension) Option {
	return func(e *Engine) { e.pendingExts = append(e.pendingExts, x) }
}

// WithMessenger sets the email sender.
func WithMessenger(m notify.Messenger) Option {
	return func(e *Engine) {
		e.dispatchOpts = append(e.dispatchOpts, notify.WithMessenger(m))
	}
}

// WithSmsSender sets the SMS sender and origin number.
func WithSmsSender(s notify.SmsSender, fromNumber string) Option {
	return func(e *Engine) {
		e.dispatchOpts = append(e.dispatchOpts, notify.WithSmsSender(s, fromNumber))
	}
}

// WithPushSender sets the push sender.
func WithPushSender(p notify.PushSender) Option {
	return func(e *Engine) {
		e.dispatchOpts = append(e.dispatchOpts, notify.WithPushSender(p))
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// extension. If not set, the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}

// New creates an Engine with the given options. A store and a directory
// are required.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    booking.DefaultConfig(),
		logger: slog.Default(),
		clock:  booking.SystemClock,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		return nil, booking.ErrNoStore
	}
	if e.dir == nil {
		return nil, booking.ErrNoDirectory
	}
	if e.locker == nil {
		e.locker = joblock.NewMemoryLocker()
	}

	e.extensions = ext.NewRegistry(e.logger)
	for _, x := range e.pendingExts {
		e.extensions.Register(x)
	}
	e.registerMetrics()

	e.matcher = match.New(e.store, e.dir, match.WithLogger(e.logger))
	e.recorder = audit.NewRecorder(e.store,
		audit.WithLogger(e.logger),
		audit.WithClock(e.clock),
	)

	dispatchOpts := append([]notify.Option{
		notify.WithLogger(e.logger),
		notify.WithClock(e.clock),
		notify.WithEmitter(e.extensions),
	}, e.dispatchOpts...)
	e.dispatcher = notify.New(e.cfg, e.matcher, dispatchOpts...)

	sweeper, err := expiry.NewSweeper(e.store, e.Expire, e.cfg.SweepSchedule,
		expiry.WithLogger(e.logger),
		expiry.WithClock(e.clock),
	)
	if err != nil {
		return nil, err
	}
	e.sweeper = sweeper

	return e, nil
}

// registerMetrics registers the observability extension. A metrics
// bootstrap failure is logged, not fatal.
func (e *Engine) registerMetrics() {
	var (
		obs *observability.MetricsExtension
		err error
	)
	if e.meterProvider != nil {
		meter := e.meterProvider.Meter("github.com/xraph/booking/observability")
		obs, err = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obs, err = observability.NewMetricsExtension()
	}
	if err != nil {
		e.logger.Warn("metrics extension disabled", slog.String("error", err.Error()))
		return
	}
	e.extensions.Register(obs)
}

// Start launches the expiry sweeper.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.sweeper.Start(ctx); err != nil {
		return err
	}
	e.started = true
	return nil
}

// Stop shuts the engine down: the sweeper stops, extensions are notified,
// and the store is closed.
func (e *Engine) Stop(ctx context.Context) error {
	if e.started {
		if err := e.sweeper.Stop(ctx); err != nil {
			e.logger.Error("sweeper stop error", slog.String("error", err.Error()))
		}
		e.started = false
	}
	e.extensions.EmitShutdown(ctx)
	return e.store.Close()
}

// Extensions returns the extension registry.
func (e *Engine) Extensions() *ext.Registry { return e.extensions }

// Store returns the engine's store.
func (e *Engine) Store() store.Store { return e.store }

// Matcher returns the matching engine.
func (e *Engine) Matcher() *match.Matcher { return e.matcher }

// Sweeper returns the expiry sweeper.
func (e *Engine) Sweeper() *expiry.Sweeper { return e.sweeper }

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() booking.Config { return e.cfg }

// Job retrieves one booking.
func (e *Engine) Job(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	return e.store.GetJob(ctx, jobID)
}

// Trail returns the booking's audit history.
func (e *Engine) Trail(ctx context.Context, jobID id.JobID) ([]*audit.Entry, error) {
	return e.recorder.Trail(ctx, jobID)
}

// PotentialJobs returns every pending booking the translator could claim.
func (e *Engine) PotentialJobs(ctx context.Context, translatorID id.TranslatorID) ([]*job.Job, error) {
	return e.matcher.PotentialJobs(ctx, translatorID)
}

// lockKey names the lease guarding one booking's multi-step mutations.
func lockKey(jobID id.JobID) string {
	return "job:" + jobID.String()
}

// releaseLease frees a lease, logging a failed release.
func (e *Engine) releaseLease(ctx context.Context, lease joblock.Lease, jobID id.JobID) {
	if err := lease.Release(ctx); err != nil {
		e.logger.Warn("lease release failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
}
