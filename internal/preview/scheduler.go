package preview

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// scheduler wraps a gocron scheduler requesting periodic rebuilds.
type scheduler struct {
	s gocron.Scheduler
}

func newScheduler(interval time.Duration, request func()) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(request),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return &scheduler{s: s}, nil
}

func (s *scheduler) start() {
	slog.Info("Starting periodic rebuild scheduler")
	s.s.Start()
}

func (s *scheduler) stop() error {
	return s.s.Shutdown()
}
