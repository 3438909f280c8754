package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/backkem/ieee1905/pkg/transport"
)

// Run drives the transport context until ctx is cancelled. The context
// and the hub are closed when Run returns. Run may only be called once.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(d.done)
	defer d.hub.Close()

	mode := d.config.DrainMode
	var rc syscall.RawConn
	if mode == DrainEvent {
		var err error
		rc, err = d.eventConn()
		if err != nil {
			d.log.Warnf("readiness draining unavailable, polling every %v: %v", d.config.PollInterval, err)
			mode = DrainPoll
		}
	}

	d.log.Infof("%s listening on %v as %s (drain=%s)", d.tc.Role(), d.tc.LocalAddr(), d.tc.LocalAddress(), mode)

	if mode == DrainEvent {
		return d.runEvent(ctx, rc)
	}
	defer d.tc.Close()
	return d.runPoll(ctx)
}

func (d *Daemon) eventConn() (syscall.RawConn, error) {
	if !readinessSupported {
		return nil, transport.ErrDrainUnsupported
	}
	return d.tc.SyscallConn()
}

// runEvent waits for socket readiness on a watcher goroutine and drains
// on the loop goroutine. The watcher only touches the raw socket.
func (d *Daemon) runEvent(ctx context.Context, rc syscall.RawConn) error {
	var (
		ready    = make(chan struct{})
		rearm    = make(chan struct{})
		watchErr = make(chan error, 1)
		stop     = make(chan struct{})
		wg       sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if err := waitReadable(rc); err != nil {
				watchErr <- err
				return
			}
			select {
			case ready <- struct{}{}:
			case <-stop:
				return
			}
			select {
			case <-rearm:
			case <-stop:
				return
			}
		}
	}()

	defer func() {
		close(stop)
		d.tc.Close()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-watchErr:
			return fmt.Errorf("daemon: wait for readiness: %w", err)

		case <-ready:
			n, err := d.tc.DrainReady()
			if errors.Is(err, transport.ErrClosed) {
				return nil
			}
			if err != nil {
				d.log.Warnf("drain: %v", err)
			}
			if n > 0 {
				d.log.Tracef("drained %d frames", n)
			}
			d.flushReplies()
			rearm <- struct{}{}

		case cmd := <-d.sendCh:
			d.execute(cmd)
		}
	}
}

// runPoll alternates between pending send requests and bounded polls.
func (d *Daemon) runPoll(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-d.sendCh:
			d.execute(cmd)
			continue
		default:
		}

		_, err := d.tc.Poll(d.config.PollInterval)
		if errors.Is(err, transport.ErrClosed) {
			return nil
		}
		if err != nil {
			d.log.Warnf("poll: %v", err)
		}
		d.flushReplies()
	}
}

func (d *Daemon) execute(cmd sendCommand) {
	mid, err := cmd.execute(d.tc)
	if err != nil {
		d.log.Warnf("send %s to %s: %v", cmd.typ, cmd.dst, err)
	} else {
		d.log.Debugf("sent %s mid=%d to %s", cmd.typ, mid, cmd.dst)
	}
	cmd.reply <- sendResult{mid: mid, err: err}
}
