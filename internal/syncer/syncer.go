package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	conf "sheinstock/internal/config"
	"sheinstock/internal/integrations"
	_ "sheinstock/internal/integrations/shein" // registration
	"sheinstock/internal/store"
)

// wrapper for a built integration
type runningInt struct {
	Name string
	Inst integrations.Integration
}

// Syncer owns the configured integrations. Sync passes run either on demand
// (SyncNow, the normal mode) or on an interval when the config asks for one.
// Overlapping invocations are not serialized: upserts are idempotent and
// last-write-wins, so a race re-derives the same remote state.
type Syncer struct {
	log     zerolog.Logger
	st      store.Store
	mu      sync.Mutex
	cfg     *conf.Config
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	ints    []runningInt
}

func New(log zerolog.Logger, cfg *conf.Config, st store.Store) *Syncer {
	s := &Syncer{log: log, cfg: cfg, st: st}
	s.ints = s.buildIntegrations(cfg)
	return s
}

func (s *Syncer) buildIntegrations(cfg *conf.Config) []runningInt {
	var out []runningInt
	if cfg == nil || len(cfg.Integrations) == 0 {
		s.log.Warn().Msg("integrations: none configured (check config.json)")
		return out
	}
	for name, raw := range cfg.Integrations {
		f, ok := integrations.Get(name)
		if !ok {
			s.log.Warn().Str("integration", name).Msg("no factory registered, skipping")
			continue
		}
		inst, err := f(s.log.With().Str("integration", name).Logger(), raw, s.st)
		if err != nil {
			s.log.Error().Err(err).Str("integration", name).Msg("init failed")
			continue
		}
		out = append(out, runningInt{Name: name, Inst: inst})
	}
	s.log.Info().Int("built", len(out)).Msg("integrations ready")
	return out
}

// SyncNow runs every integration once and merges the results. The returned
// error is a hard precondition failure (shein.ErrUnauthenticated); partial
// remote failures land in Result.Diagnostics.
func (s *Syncer) SyncNow(ctx context.Context) (integrations.Result, error) {
	s.mu.Lock()
	ints := make([]runningInt, len(s.ints))
	copy(ints, s.ints)
	s.mu.Unlock()

	var merged integrations.Result
	var firstErr error
	for _, ri := range ints {
		res, err := ri.Inst.Sync(ctx)
		if err != nil {
			s.log.Error().Err(err).Str("integration", ri.Name).Msg("sync failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(ints) == 1 {
			merged = res
		} else {
			merged.Merge(ri.Name, res)
		}
	}
	return merged, firstErr
}

// Start launches the periodic loop. A no-op when the configured interval is
// zero (manual-only mode) or when already running.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if s.interval() <= 0 {
		s.mu.Unlock()
		s.log.Info().Msg("syncer: interval disabled, manual sync only")
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info().Msg("syncer: start")
	go s.loop(ctx)
	return nil
}

func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("syncer: stop")
}

// UpdateConfig swaps the config and rebuilds integrations; the periodic loop
// is restarted so it picks up a changed interval.
func (s *Syncer) UpdateConfig(cfg *conf.Config) {
	s.mu.Lock()
	s.cfg = cfg
	isRunning := s.running
	s.mu.Unlock()

	ints := s.buildIntegrations(cfg)
	s.mu.Lock()
	s.ints = ints
	s.mu.Unlock()

	s.log.Info().Msg("syncer: config updated")
	if isRunning {
		s.Stop()
		_ = s.Start(context.Background())
	}
}

func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Syncer) interval() time.Duration {
	if s.cfg != nil && s.cfg.SyncIntervalSeconds > 0 {
		return time.Duration(s.cfg.SyncIntervalSeconds) * time.Second
	}
	return 0
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()

	// first pass right away
	s.tickOnce(ctx)

	ticker := time.NewTicker(s.intervalLocked())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("syncer: loop done")
			return
		case <-ticker.C:
			ticker.Reset(s.intervalLocked())
			s.tickOnce(ctx)
		}
	}
}

func (s *Syncer) intervalLocked() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if iv := s.interval(); iv > 0 {
		return iv
	}
	return time.Hour
}

func (s *Syncer) tickOnce(ctx context.Context) {
	if _, err := s.SyncNow(ctx); err != nil {
		s.log.Warn().Err(err).Msg("scheduled sync skipped")
	}
}
