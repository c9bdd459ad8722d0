package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the watcher waits for a burst of events to end before
// reading the file again, so a half-written file is not run.
const settle = 50 * time.Millisecond

// watchProgram runs r once and again after every change of the program file
// until ctx is done.
func watchProgram(ctx context.Context, r *runner) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.program); err != nil {
		return fmt.Errorf("failed to watch '%s': %w", r.program, err)
	}

	rerun := func() {
		code := r.run(ctx)
		fmt.Fprintf(r.out, "-- exit %d, watching %s\n", code, r.program)
	}
	rerun()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.Any("error", err))

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			slog.Debug("program changed",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()))
			drain(watcher.Events)
			rerun()
			// editors replace files by rename, which drops the watch
			if err := watcher.Add(r.program); err != nil {
				slog.Warn("could not re-watch program",
					slog.String("file", r.program),
					slog.Any("error", err))
			}
		}
	}
}

// drain discards events until none has arrived for settle.
func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-time.After(settle):
			return
		}
	}
}
