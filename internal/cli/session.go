package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/storecart/internal/badgerkv"
	"github.com/roach88/storecart/internal/config"
	"github.com/roach88/storecart/internal/engine"
	"github.com/roach88/storecart/internal/metrics"
	"github.com/roach88/storecart/internal/persist"
	"github.com/roach88/storecart/internal/remote"
	"github.com/roach88/storecart/internal/store"
)

// drainTimeout bounds how long a command waits for queued remote calls
// before exiting.
const drainTimeout = 5 * time.Second

// stageError tags a setup failure with the JSON error code it reports as.
type stageError struct {
	code string
	err  error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// errorCode returns the JSON error code for err.
func errorCode(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.code
	}
	return CodeUnknown
}

// loadConfig resolves the effective configuration: file, then environment,
// then command line flags.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if opts.Database != "" {
		cfg.Storage.Path = opts.Database
	}
	if opts.Backend != "" {
		cfg.Storage.Backend = opts.Backend
	}
	if opts.Remote {
		cfg.Remote.Enabled = true
	}
	return cfg, cfg.Validate()
}

// session is one opened cart: local store, optional journal and remote
// mirror, and the engine over them.
type session struct {
	cfg      config.Config
	logger   *slog.Logger
	engine   *engine.Engine
	store    *store.Store // nil unless the sqlite backend is in use
	mirror   *remote.Mirror
	redis    *remote.RedisMutator
	registry *prometheus.Registry
	stop     context.CancelFunc
	closers  []func() error
}

// openSession opens the configured store and builds an engine over it.
// The cart is not loaded; callers call Load.
func openSession(ctx context.Context, opts *RootOptions, errOut io.Writer) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, &stageError{code: CodeConfig, err: WrapExitError(ExitCommandError, "invalid configuration", err)}
	}

	s := &session{
		cfg:      cfg,
		logger:   cfg.NewLogger(errOut, opts.Verbose),
		registry: prometheus.NewRegistry(),
	}
	m := metrics.New(s.registry)

	kv, err := s.openKV()
	if err != nil {
		return nil, &stageError{code: CodeStore, err: WrapExitError(ExitCommandError, "failed to open local store", err)}
	}

	adapterOpts := []persist.AdapterOption{
		persist.WithKey(cfg.Storage.Key),
		persist.WithLogger(s.logger),
	}
	if schema, err := persist.NewSchema(); err != nil {
		s.logger.Warn("cart schema unavailable, payloads will not be validated", "error", err)
	} else {
		adapterOpts = append(adapterOpts, persist.WithSchema(schema))
	}
	adapter := persist.NewAdapter(kv, adapterOpts...)

	engineOpts := []engine.Option{
		engine.WithHistoryDepth(cfg.HistoryDepth),
		engine.WithLogger(s.logger),
		engine.WithMetrics(m),
	}

	if s.store != nil && cfg.Journal {
		last, err := s.store.LastSeq(ctx)
		if err != nil {
			s.Close()
			return nil, &stageError{code: CodeStore, err: WrapExitError(ExitCommandError, "failed to read journal", err)}
		}
		engineOpts = append(engineOpts,
			engine.WithJournal(s.store),
			engine.WithClock(engine.NewClockAt(last)),
		)
	}

	if cfg.Remote.Enabled {
		if err := s.startMirror(ctx, kv, m); err != nil {
			s.Close()
			return nil, &stageError{code: CodeRemote, err: WrapExitError(ExitCommandError, "failed to start remote mirror", err)}
		}
		engineOpts = append(engineOpts, engine.WithMirror(s.mirror))
	}

	s.engine = engine.New(adapter, engineOpts...)
	return s, nil
}

func (s *session) openKV() (persist.KV, error) {
	switch s.cfg.Storage.Backend {
	case config.BackendSQLite:
		st, err := store.Open(s.cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		s.store = st
		s.closers = append(s.closers, st.Close)
		return st, nil

	case config.BackendBadger:
		bcfg := badgerkv.DefaultConfig(s.cfg.Storage.Path)
		bcfg.Logger = s.logger
		bs, err := badgerkv.Open(bcfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, bs.Close)
		return bs, nil

	case config.BackendMemory:
		return persist.NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", s.cfg.Storage.Backend)
}

// startMirror connects the Redis mutator, resolves this cart's remote id and
// starts the mirror worker. An unreachable server is not an error: calls
// will fail and be logged.
func (s *session) startMirror(ctx context.Context, kv persist.KV, m *metrics.Metrics) error {
	rm, err := remote.NewRedisMutator(s.cfg.Remote.RedisURL, s.cfg.Remote.KeyPrefix)
	if err != nil {
		return err
	}
	s.redis = rm

	cartID, err := remote.Resolve(ctx, kv, s.cfg.Remote.IdentityKey, remote.UUIDv7Generator{})
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rm.Ping(pingCtx); err != nil {
		s.logger.Warn("remote cart unreachable, changes stay local", "cart_id", cartID, "error", err)
	}

	s.mirror = remote.NewMirror(rm, cartID,
		remote.WithLogger(s.logger),
		remote.WithMetrics(m),
	)
	runCtx, stop := context.WithCancel(context.Background())
	s.stop = stop
	return s.mirror.Start(runCtx)
}

// view snapshots the committed cart.
func (s *session) view() CartView {
	v := CartView{
		Items:     s.engine.Items(),
		Total:     s.engine.Total().StringFixed(2),
		ItemCount: s.engine.ItemCount(),
		CanUndo:   s.engine.CanUndo(),
	}
	if s.mirror != nil {
		v.RemoteID = s.mirror.CartID()
	}
	return v
}

// Close drains the remote mirror and closes the stores.
func (s *session) Close() {
	if s.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := s.mirror.Drain(ctx); err != nil {
			s.logger.Warn("remote mirror did not drain", "pending", s.mirror.Pending(), "error", err)
		}
		cancel()
		s.mirror.Close()
		s.logger.Debug("remote mirror stopped", "sent", s.mirror.Sent(), "failed", s.mirror.Failed())
	}
	if s.stop != nil {
		s.stop()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("error closing redis client", "error", err)
		}
	}

	s.logMetrics()

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Error("error closing local store", "error", err)
		}
	}
	s.closers = nil
}

// logMetrics writes the session's counters at debug level.
func (s *session) logMetrics() {
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Debug("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, mt := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName()}
			for _, lp := range mt.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			switch {
			case mt.GetCounter() != nil:
				attrs = append(attrs, "value", mt.GetCounter().GetValue())
			case mt.GetGauge() != nil:
				attrs = append(attrs, "value", mt.GetGauge().GetValue())
			}
			s.logger.Debug("metric", attrs...)
		}
	}
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// commandContext returns cmd's context, or Background when run outside
// Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
