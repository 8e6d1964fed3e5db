package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/config"
	"github.com/mattjoyce/frontctl/internal/events"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/queue"
)

// Scheduler submits configured commands on fixed, jittered intervals.
type Scheduler struct {
	cfg       *config.Config
	submitter Submitter
	events    events.Publisher
	logger    *slog.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

type entry struct {
	schedule config.ScheduleConfig
	every    time.Duration
}

// New creates a new Scheduler instance.
func New(cfg *config.Config, sub Submitter, hub events.Publisher, logger *slog.Logger) *Scheduler {
	if hub == nil {
		hub = events.NewHub(128)
	}
	return &Scheduler{
		cfg:       cfg,
		submitter: sub,
		events:    hub,
		logger:    logger.With("component", "scheduler"),
		stopCh:    make(chan struct{}),
	}
}

// Start validates every schedule and starts one timer loop per schedule.
// No loop starts if any interval is invalid.
func (s *Scheduler) Start(ctx context.Context) error {
	entries := make([]entry, 0, len(s.cfg.Schedules))
	for _, sc := range s.cfg.Schedules {
		every, err := parseScheduleEvery(sc.Every)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", sc.Name, err)
		}
		entries = append(entries, entry{schedule: sc, every: every})
	}

	s.logger.Info("Starting scheduler", "schedules", len(entries))
	for _, e := range entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
	return nil
}

// Stop halts every timer loop and waits for them to exit. Safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping scheduler")
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	defer s.wg.Done()

	timer := time.NewTimer(calculateJitteredInterval(e.every, e.schedule.Jitter))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.fire(e.schedule)
			timer.Reset(calculateJitteredInterval(e.every, e.schedule.Jitter))
		case <-s.stopCh:
			return
		case <-ctx.Done():
			s.logger.Debug("Scheduler context cancelled, stopping loop", "schedule", e.schedule.Name)
			return
		}
	}
}

// fire submits one request for sc. A full queue skips this run rather than
// blocking the timer.
func (s *Scheduler) fire(sc config.ScheduleConfig) {
	req := command.NewRequest(sc.Command, params.FromMap(sc.Params))
	ev := queue.ForRequest(req, "scheduler:"+sc.Name)

	if !s.submitter.TrySubmit(ev) {
		s.events.Publish("scheduler.skipped", map[string]any{
			"schedule": sc.Name,
			"command":  sc.Command,
			"reason":   "queue_full",
		})
		s.logger.Warn("Skipped scheduled command, queue full", "schedule", sc.Name, "command", sc.Command)
		return
	}

	s.events.Publish("scheduler.scheduled", map[string]any{
		"schedule":   sc.Name,
		"command":    sc.Command,
		"request_id": req.ID,
	})
	s.logger.Debug("Submitted scheduled command", "schedule", sc.Name, "command", sc.Command, "request_id", req.ID)
}

// calculateJitteredInterval adds a random jitter to the base interval.
func calculateJitteredInterval(baseInterval time.Duration, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return baseInterval
	}
	randomJitter := time.Duration(rand.Int63n(jitter.Nanoseconds()))
	return baseInterval + randomJitter
}

// parseScheduleEvery converts the 'every' string from config to a base duration.
func parseScheduleEvery(every string) (time.Duration, error) {
	return config.ParseInterval(every)
}
