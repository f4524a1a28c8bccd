package utils

import (
	"context"
	"slices"
	"time"

	"go.viam.com/simrecord/logging"
)

// SlowLogger warns with msg and the elapsed time after 2s, then every 5s, until the returned
// func is called or ctx ends.
func SlowLogger(ctx context.Context, logger logging.Logger, msg string, keysAndValues ...interface{}) func() {
	ctx, cancel := context.WithCancel(ctx)
	start := time.Now()
	go func() {
		timer := time.NewTimer(2 * time.Second)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			elapsed := time.Since(start).Round(time.Second).String()
			logger.Warnw(msg, append(slices.Clip(keysAndValues), "time_elapsed", elapsed)...)
			timer.Reset(5 * time.Second)
		}
	}()
	return cancel
}
