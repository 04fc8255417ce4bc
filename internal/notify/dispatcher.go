package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eden/internal/apperr"
)

// Status of a dispatched message as seen by the caller.
type Status string

const (
	StatusSkipped Status = "skipped" // nobody to send to
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusQueued  Status = "queued" // still sending when the caller stopped waiting
)

// Delivery is the outcome reported next to an already committed state change.
type Delivery struct {
	Status Status
	Err    error // DependencyFailure when Status is StatusFailed
}

// Partial reports whether the caller should warn that confirmation mail may be late.
func (d Delivery) Partial() bool {
	return d.Status == StatusFailed || d.Status == StatusQueued
}

const sendTimeout = 30 * time.Second

// Dispatcher sends messages in the background.
type Dispatcher struct {
	sender Sender
	wait   time.Duration
	log    *slog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher returns a dispatcher that waits up to wait for each send to finish.
func NewDispatcher(sender Sender, wait time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, wait: wait, log: logger}
}

// Dispatch sends msg. The send outlives ctx's cancellation; failures after the
// grace period are only logged.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Delivery {
	if msg.To == "" {
		return Delivery{Status: StatusSkipped}
	}

	done := make(chan error, 1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		err := d.sender.Send(sendCtx, msg)
		if err != nil {
			d.log.Error("mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		}
		done <- err
	}()

	timer := time.NewTimer(d.wait)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			return Delivery{Status: StatusFailed, Err: apperr.Dependency("notify.Dispatch", "email delivery failed", err)}
		}
		return Delivery{Status: StatusSent}
	case <-timer.C:
	case <-ctx.Done():
	}
	return Delivery{Status: StatusQueued}
}

// Wait blocks until every background send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
