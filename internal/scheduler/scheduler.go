// Package scheduler pre-populates the derivative caches in the background.
//
// Two stages run as goroutines over the registry's path list. The thumbnail
// stage sweeps repeatedly until a pass completes without generating
// anything, then flags itself exhausted; the preview stage idles until that
// flag is up before starting its own sweeps. Both stages poll the activity
// tracker so interactive traffic always wins, and both stop promptly when
// the shared stop channel closes.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"photofind/internal/activity"
	"photofind/internal/logging"
	"photofind/internal/media"
	"photofind/internal/metrics"
)

// PathLister enumerates the source paths to sweep. *registry.Registry
// satisfies it.
type PathLister interface {
	ListPaths() ([]string, error)
}

// GenerateFunc produces (and caches) one derivative.
type GenerateFunc func(path string, tier media.Tier) ([]byte, error)

// ExistsFunc reports whether a derivative is already cached.
type ExistsFunc func(path string, tier media.Tier) bool

// Config wires a Scheduler's collaborators. The delay fields exist so tests
// can run passes without real-time sleeps; zero values get production
// defaults.
type Config struct {
	Paths    PathLister
	Generate GenerateFunc
	Exists   ExistsFunc
	Activity *activity.Tracker

	// PauseDelay is the poll interval while interactive traffic is active.
	PauseDelay time.Duration
	// ItemDelay spaces out consecutive generations within a pass.
	ItemDelay time.Duration
	// PassDelay separates thumbnail passes.
	PassDelay time.Duration
	// GateDelay is the preview stage's poll interval while waiting for the
	// thumbnail stage to exhaust.
	GateDelay time.Duration
	// IdleDelay separates preview passes.
	IdleDelay time.Duration
}

// Production cadence.
const (
	defaultPauseDelay = 500 * time.Millisecond
	defaultItemDelay  = 100 * time.Millisecond
	defaultPassDelay  = 10 * time.Second
	defaultGateDelay  = time.Second
	defaultIdleDelay  = 30 * time.Second
)

// Scheduler runs the two background cache stages.
type Scheduler struct {
	cfg Config

	thumbsExhausted atomic.Bool
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

// New builds a Scheduler, applying default delays where the config leaves
// them zero.
func New(cfg Config) *Scheduler {
	if cfg.PauseDelay == 0 {
		cfg.PauseDelay = defaultPauseDelay
	}
	if cfg.ItemDelay == 0 {
		cfg.ItemDelay = defaultItemDelay
	}
	if cfg.PassDelay == 0 {
		cfg.PassDelay = defaultPassDelay
	}
	if cfg.GateDelay == 0 {
		cfg.GateDelay = defaultGateDelay
	}
	if cfg.IdleDelay == 0 {
		cfg.IdleDelay = defaultIdleDelay
	}
	return &Scheduler{
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

// Start launches both stages.
func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.runThumbnailStage()
	go s.runPreviewStage()
	logging.Info("Background derivative scheduler started")
}

// Stop signals both stages and waits for them to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	logging.Info("Background derivative scheduler stopped")
}

// ThumbnailsExhausted reports whether the last thumbnail pass found nothing
// to do.
func (s *Scheduler) ThumbnailsExhausted() bool {
	return s.thumbsExhausted.Load()
}

func (s *Scheduler) runThumbnailStage() {
	defer s.wg.Done()
	logging.Info("Thumbnail stage starting")

	for {
		// Interactive traffic wins: hold off the whole pass while any
		// request is in flight.
		for s.cfg.Activity.Active() {
			if !s.sleep(s.cfg.PauseDelay) {
				return
			}
		}

		generated, interrupted, ok := s.runPass(media.TierThumbnail)
		if !ok {
			return
		}

		exhausted := generated == 0 && !interrupted
		s.thumbsExhausted.Store(exhausted)
		setExhaustedGauge(media.TierThumbnail, exhausted)
		if exhausted {
			logging.Debug("Thumbnail cache fully populated")
		} else {
			logging.Info("Thumbnail pass generated %d derivatives (interrupted: %v)", generated, interrupted)
		}

		if !s.sleep(s.cfg.PassDelay) {
			return
		}
	}
}

func (s *Scheduler) runPreviewStage() {
	defer s.wg.Done()
	logging.Info("Preview stage starting (gated on thumbnail completion)")

	for {
		// Thumbnails first: previews are an order of magnitude more work
		// per item, and the grid needs thumbnails before anyone opens a
		// single image.
		for !s.thumbsExhausted.Load() {
			if !s.sleep(s.cfg.GateDelay) {
				return
			}
		}
		for s.cfg.Activity.Active() {
			if !s.sleep(s.cfg.PauseDelay) {
				return
			}
		}

		generated, interrupted, ok := s.runPass(media.TierPreview)
		if !ok {
			return
		}
		exhausted := generated == 0 && !interrupted
		setExhaustedGauge(media.TierPreview, exhausted)
		if generated > 0 {
			logging.Info("Preview pass generated %d derivatives (interrupted: %v)", generated, interrupted)
		}

		if !s.sleep(s.cfg.IdleDelay) {
			return
		}
	}
}

// runPass sweeps every registry path once for one tier. Returns the number
// of derivatives generated, whether the pass aborted early for interactive
// traffic, and false when the stage must exit: either the scheduler is
// stopping or enumeration failed, which means the registry itself is broken
// rather than any one file.
func (s *Scheduler) runPass(tier media.Tier) (generated int, interrupted bool, ok bool) {
	paths, err := s.cfg.Paths.ListPaths()
	if err != nil {
		logging.Error("%s stage: registry enumeration failed, stopping stage: %v", tier, err)
		return 0, false, false
	}

	for _, path := range paths {
		// A request arrived mid-pass: abort early and let the stage loop
		// wait out the traffic before rescanning from the top.
		if s.cfg.Activity.Active() {
			return generated, true, true
		}

		select {
		case <-s.stopChan:
			return generated, true, false
		default:
		}

		if s.cfg.Exists(path, tier) {
			continue
		}

		if _, err := s.cfg.Generate(path, tier); err != nil {
			logging.Warn("Background %s generation failed for %s: %v", tier, path, err)
			metrics.SchedulerGenerations.WithLabelValues(tier.String(), "error").Inc()
		} else {
			metrics.SchedulerGenerations.WithLabelValues(tier.String(), "generated").Inc()
		}
		generated++

		if !s.sleep(s.cfg.ItemDelay) {
			return generated, interrupted, false
		}
	}

	metrics.SchedulerPasses.WithLabelValues(tier.String()).Inc()
	return generated, interrupted, true
}

// sleep waits for d or until Stop, reporting false on stop.
func (s *Scheduler) sleep(d time.Duration) bool {
	select {
	case <-s.stopChan:
		return false
	case <-time.After(d):
		return true
	}
}

func setExhaustedGauge(tier media.Tier, exhausted bool) {
	v := 0.0
	if exhausted {
		v = 1.0
	}
	metrics.SchedulerStageExhausted.WithLabelValues(tier.String()).Set(v)
}
