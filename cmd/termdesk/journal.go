package main

import (
	"context"
	"log/slog"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/logging"
	"github.com/1broseidon/termdesk/internal/service"
)

type stateWatcher interface {
	Watch(ctx context.Context) <-chan desk.State
}

// stateJournal logs every window state change at debug level.
func stateJournal(w stateWatcher, logger *slog.Logger) service.ServiceFunc {
	log := logging.Component(logger, "journal")
	return service.NewServiceFunc("state-journal", func(ctx context.Context) error {
		for st := range w.Watch(ctx) {
			open := 0
			for _, win := range st.Windows {
				if win.Open {
					open++
				}
			}
			log.Debug("window state",
				slog.Uint64("version", st.Version),
				slog.String("focused", st.Focused),
				slog.Int("open", open),
			)
		}
		return ctx.Err()
	})
}
