package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"signalSentry/config"
	"signalSentry/internal/admission"
	"signalSentry/internal/engine"
	"signalSentry/internal/ports"
)

const shutdownDrainTimeout = 30 * time.Second

// Service orchestrates the two polling loops: message admission across all
// units and price monitoring over the shared trade registry.
type Service struct {
	cfg       *config.Config
	logger    ports.Logger
	engine    *engine.Engine
	pipelines []*admission.Pipeline
}

// NewService creates the application service.
func NewService(cfg *config.Config, logger ports.Logger, eng *engine.Engine, pipelines []*admission.Pipeline) (*Service, error) {
	if cfg == nil || logger == nil || eng == nil {
		return nil, fmt.Errorf("missing required dependencies for service")
	}
	if len(pipelines) == 0 {
		return nil, fmt.Errorf("at least one admission pipeline is required")
	}
	return &Service{
		cfg:       cfg,
		logger:    logger,
		engine:    eng,
		pipelines: pipelines,
	}, nil
}

// Start seeds pipeline state and runs both polling loops until the context
// is cancelled or a shutdown signal arrives. In-flight cycles are drained
// before returning, so the registry is never abandoned mid-mutation.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Signal Sentry...", map[string]interface{}{
		"units":          len(s.pipelines),
		"messagePoll":    s.cfg.MessagePollInterval.String(),
		"pricePoll":      s.cfg.PricePollInterval.String(),
		"entryConfirm":   s.cfg.EntryConfirmTicks,
		"entryTolerance": s.cfg.EntryTolerancePips,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// Seed all units' processed-ID sets concurrently.
	var wg sync.WaitGroup
	for _, p := range s.pipelines {
		wg.Add(1)
		go func(p *admission.Pipeline) {
			defer wg.Done()
			p.LoadState(ctx)
		}(p)
	}
	wg.Wait()

	// SkipIfStillRunning guarantees no overlapping cycles of the same loop;
	// a slow cycle simply delays the next tick.
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := scheduler.AddFunc(fmt.Sprintf("@every %s", s.cfg.MessagePollInterval), func() {
		s.runAdmissionCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule admission loop: %w", err)
	}

	_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", s.cfg.PricePollInterval), func() {
		s.engine.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule monitoring loop: %w", err)
	}

	scheduler.Start()
	s.logger.Info(ctx, "Polling loops started")

	<-ctx.Done()
	s.logger.Info(ctx, "Shutting down, draining in-flight cycles...")

	drained := scheduler.Stop()
	select {
	case <-drained.Done():
		s.logger.Info(ctx, "All cycles drained")
	case <-time.After(shutdownDrainTimeout):
		s.logger.Warn(ctx, "Timeout waiting for in-flight cycles to drain")
	}

	s.logger.Info(ctx, "Signal Sentry stopped.")
	return nil
}

// runAdmissionCycle processes all units concurrently. Units touch disjoint
// per-unit state; their shared registry access is serialized inside the
// engine.
func (s *Service) runAdmissionCycle(ctx context.Context) {
	s.logger.Debug(ctx, "Admission cycle started", map[string]interface{}{"units": len(s.pipelines)})

	var wg sync.WaitGroup
	for _, p := range s.pipelines {
		wg.Add(1)
		go func(p *admission.Pipeline) {
			defer wg.Done()
			p.RunCycle(ctx)
		}(p)
	}
	wg.Wait()

	s.logger.Debug(ctx, "Admission cycle complete", map[string]interface{}{
		"monitoredTrades": s.engine.TradeCount(),
	})
}
