package scheduler

import (
	"context"
	"time"

	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
	"github.com/codingswamp/codingswamp-backend/internal/services"
)

// StatusRecomputer reapplies the study date rule once a day at a fixed
// local hour. Each run is a single transaction inside the study service.
type StatusRecomputer struct {
	log          *logger.Logger
	studyService services.StudyService
	hour         int
	stop         chan struct{}
}

func NewStatusRecomputer(log *logger.Logger, studyService services.StudyService, hour int) *StatusRecomputer {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	return &StatusRecomputer{
		log:          log.With("worker", "StatusRecomputer"),
		studyService: studyService,
		hour:         hour,
		stop:         make(chan struct{}),
	}
}

func (w *StatusRecomputer) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *StatusRecomputer) Stop() {
	close(w.stop)
}

func (w *StatusRecomputer) loop(ctx context.Context) {
	for {
		wait := time.Until(w.nextRun(time.Now()))
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			w.RunOnce(ctx)
		case <-w.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (w *StatusRecomputer) RunOnce(ctx context.Context) {
	changed, err := w.studyService.RecomputeStatuses(ctx, time.Now())
	if err != nil {
		w.log.Error("Study status recompute failed", "error", err)
		return
	}
	w.log.Info("Study status recompute finished", "changed", changed)
}

func (w *StatusRecomputer) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), w.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
