// Package reactor defines the Reactor collaborator spec.md ยง2/ยง7 places
// outside the core: the single-threaded event loop that tells a
// conn.Connection when its file descriptor is readable or writable and
// when a scheduled timer has fired. The core only depends on the
// Reactor interface; Loop below is a reference implementation that
// makes the module runnable standalone, the same role badu-http's own
// net.Listener-driven accept loop plays around its conn/server types.
package reactor

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Reactor is the non-blocking I/O and timer multiplexer a Server drives
// connections through. Every method must be safe to call from the
// single reactor-owning goroutine only; nothing here is safe for
// concurrent use across goroutines (spec.md ยง5: single-threaded core).
type Reactor interface {
	// RegisterRead arms cb to run whenever conn has data available to
	// read. Calling it again for the same conn replaces cb.
	RegisterRead(conn net.Conn, cb func())
	// RegisterWrite arms cb to run whenever conn is writable. A
	// connection with nothing queued to write should Disarm its write
	// interest rather than busy-loop.
	RegisterWrite(conn net.Conn, cb func())
	// Disarm removes interest (read, write, or both) for conn.
	Disarm(conn net.Conn, read, write bool)
	// ScheduleTimer invokes cb once after d elapses, returning a cancel
	// function that is a no-op if the timer already fired.
	ScheduleTimer(d time.Duration, cb func()) (cancel func())
	// Close stops the loop and releases every goroutine it owns.
	Close() error
}

// Loop is a reference Reactor: one goroutine per registration that
// invokes its callback every pollTick (the callback does the I/O
// itself; Loop sets no deadlines), plus time.AfterFunc-backed timers.
// The poller goroutines run in an errgroup.Group, so Close blocks until
// they have exited; timers are not part of that group.
type Loop struct {
	mu       sync.Mutex
	regs     map[net.Conn]*registration
	group    *errgroup.Group
	cancel   context.CancelFunc
	ctx      context.Context
	pollTick time.Duration
}

type registration struct {
	readCb, writeCb   func()
	wantRead, wantWrite bool
	cancelRead, cancelWrite context.CancelFunc
}

// NewLoop returns a Loop polling each registered connection every
// pollTick for readability/writability. A small pollTick (a few
// milliseconds) keeps latency low without spinning a CPU core per
// connection.
func NewLoop(pollTick time.Duration) *Loop {
	if pollTick <= 0 {
		pollTick = 2 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	return &Loop{
		regs:     map[net.Conn]*registration{},
		group:    group,
		cancel:   cancel,
		ctx:      gctx,
		pollTick: pollTick,
	}
}

func (l *Loop) regFor(conn net.Conn) *registration {
	r, ok := l.regs[conn]
	if !ok {
		r = &registration{}
		l.regs[conn] = r
	}
	return r
}

func (l *Loop) RegisterRead(conn net.Conn, cb func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.regFor(conn)
	r.readCb = cb
	if !r.wantRead {
		r.wantRead = true
		l.spawnPoller(conn, r, true)
	}
}

func (l *Loop) RegisterWrite(conn net.Conn, cb func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.regFor(conn)
	r.writeCb = cb
	if !r.wantWrite {
		r.wantWrite = true
		l.spawnPoller(conn, r, false)
	}
}

func (l *Loop) Disarm(conn net.Conn, read, write bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.regs[conn]
	if !ok {
		return
	}
	if read && r.cancelRead != nil {
		r.cancelRead()
		r.wantRead = false
	}
	if write && r.cancelWrite != nil {
		r.cancelWrite()
		r.wantWrite = false
	}
	if !r.wantRead && !r.wantWrite {
		delete(l.regs, conn)
	}
}

// spawnPoller starts one goroutine repeatedly invoking cb on pollTick
// ticks until the loop or the individual registration is cancelled.
// net.Conn has no portable readiness primitive without syscall-level
// access, so the reference loop polls instead of blocking in select(2)
// - acceptable since spec.md ยง1 excludes the reactor's real
// implementation from the core's scope.
func (l *Loop) spawnPoller(conn net.Conn, r *registration, isRead bool) {
	ctx, cancel := context.WithCancel(l.ctx)
	if isRead {
		r.cancelRead = cancel
	} else {
		r.cancelWrite = cancel
	}
	l.group.Go(func() error {
		ticker := time.NewTicker(l.pollTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				l.mu.Lock()
				var cb func()
				if isRead {
					cb = r.readCb
				} else {
					cb = r.writeCb
				}
				l.mu.Unlock()
				if cb != nil {
					cb()
				}
			}
		}
	})
}

// ScheduleTimer backs timers with time.AfterFunc directly; a cancelled
// timer still consumes its goroutine slot until it fires or is stopped,
// mirroring time.Timer semantics.
func (l *Loop) ScheduleTimer(d time.Duration, cb func()) (cancel func()) {
	t := time.AfterFunc(d, cb)
	return func() { t.Stop() }
}

// Close cancels every poller goroutine and waits for them to exit.
func (l *Loop) Close() error {
	l.cancel()
	return l.group.Wait()
}
