package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Strob0t/TwinForge/internal/port/messagequeue"
	"github.com/Strob0t/TwinForge/internal/service"
)

// pipeline owns the queue consumers and the principal agent. It starts
// them so that no message is consumed before the principal can process it
// and stops them so that every consumed message finishes first.
type pipeline struct {
	principal     *service.PrincipalService
	jobs          *service.JobService
	notifications *service.NotificationService
	queue         messagequeue.Queue

	cancels  []func()
	stopOnce sync.Once
}

// start initializes the principal, then subscribes the job worker and the
// notifier.
func (p *pipeline) start(ctx context.Context) error {
	if err := p.principal.Initialize(); err != nil {
		return fmt.Errorf("principal agent: %w", err)
	}

	cancelJobs, err := p.jobs.Start(ctx)
	if err != nil {
		p.principal.Close()
		return fmt.Errorf("job worker: %w", err)
	}
	p.cancels = append(p.cancels, cancelJobs)

	cancelNotify, err := p.notifications.Start(ctx, p.queue)
	if err != nil {
		cancelJobs()
		p.principal.Close()
		return fmt.Errorf("notifications: %w", err)
	}
	p.cancels = append(p.cancels, cancelNotify)
	return nil
}

// stop drains the queue so buffered and in-flight requests complete, then
// cancels the subscriptions, waits for in-process jobs and closes the
// principal. It is safe to call more than once.
func (p *pipeline) stop() {
	p.stopOnce.Do(func() {
		if err := p.queue.Drain(); err != nil {
			slog.Warn("queue drain failed", "error", err)
		}
		for i := len(p.cancels) - 1; i >= 0; i-- {
			p.cancels[i]()
		}
		p.jobs.Wait()
		p.principal.Close()
	})
}
