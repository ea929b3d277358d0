package jobs

import (
	"context"
	"time"

	"github.com/deepfence/MispHarvester/pkg/output"
)

const DefaultStatusInterval = 30 * time.Second

// StartStatusReporter records runID as IN_PROGRESS in statusFile every
// interval until the returned channel receives the run's result, then
// records COMPLETE, ERROR or CANCELLED. The final line is written before the
// returned done channel is closed.
func StartStatusReporter(ctx context.Context, statusFile, runID string, interval time.Duration) (chan<- error, <-chan struct{}) {
	res := make(chan error)
	done := make(chan struct{})
	go func() {
		defer close(done)
		output.WriteRunStatus(statusFile, output.StatusInProgress, runID, "")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var err, abort error
	loop:
		for {
			select {
			case err = <-res:
				break loop
			case <-ctx.Done():
				abort = ctx.Err()
				break loop
			case <-ticker.C:
				output.WriteRunStatus(statusFile, output.StatusInProgress, runID, "")
			}
		}
		if abort != nil {
			output.WriteRunStatus(statusFile, output.StatusCancelled, runID, abort.Error())
			return
		}
		if err != nil {
			output.WriteRunStatus(statusFile, output.StatusError, runID, err.Error())
			return
		}
		output.WriteRunStatus(statusFile, output.StatusComplete, runID, "")
	}()
	return res, done
}
