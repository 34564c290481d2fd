package main

import (
	"github.com/desertthunder/vidtalk/internal/tasks"
)

// followProgress prints updates until progress is closed; the returned channel closes after the last one.
func (r *Runner) followProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug("progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
			if update.Total > 0 && update.Step > 0 {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			} else {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return done
}
