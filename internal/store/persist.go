package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Persister writes blobs to a Backend from a single goroutine. Every saved
// blob is a full snapshot, so saves of the same name coalesce: the writer only
// stores the latest pending snapshot per name. Save never waits on the
// backend; a failed write is logged and flips the store into degraded
// (session-only) mode.
type Persister struct {
	backend Backend
	log     *slog.Logger

	mu      sync.Mutex
	flushed *sync.Cond
	pending map[string]Blob
	order   []string // pending names in first-save order
	queued  uint64   // saves accepted
	written uint64   // saves covered by a finished write pass
	closed  bool

	wake chan struct{}
	done chan struct{}

	degraded atomic.Bool
}

// NewPersister starts the writer goroutine.
func NewPersister(b Backend, log *slog.Logger) *Persister {
	p := &Persister{
		backend: b,
		log:     orDefault(log),
		pending: map[string]Blob{},
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	p.flushed = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Backend returns the underlying storage.
func (p *Persister) Backend() Backend { return p.backend }

// Degraded reports whether the most recent durable write failed.
func (p *Persister) Degraded() bool { return p.degraded.Load() }

// Save replaces any pending snapshot of b.Name with b and wakes the writer.
func (p *Persister) Save(b Blob) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn("persister closed, dropping write", "blob", b.Name)
		return
	}
	if _, ok := p.pending[b.Name]; !ok {
		p.order = append(p.order, b.Name)
	}
	p.pending[b.Name] = b
	p.queued++
	p.mu.Unlock()
	p.signal()
}

// Flush blocks until every save made before the call has been written or
// superseded by a later write.
func (p *Persister) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := p.queued
	for p.written < target {
		p.flushed.Wait()
	}
}

// Close writes what is pending and stops the writer. The backend stays open.
func (p *Persister) Close() {
	p.mu.Lock()
	already := p.closed
	p.closed = true
	p.mu.Unlock()
	if !already {
		p.signal()
	}
	<-p.done
}

func (p *Persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.closed {
			p.mu.Unlock()
			<-p.wake
			p.mu.Lock()
		}
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		batch, order, upTo := p.pending, p.order, p.queued
		p.pending, p.order = map[string]Blob{}, nil
		p.mu.Unlock()

		for _, name := range order {
			p.write(batch[name])
		}

		p.mu.Lock()
		p.written = upTo
		p.flushed.Broadcast()
		p.mu.Unlock()
	}
}

func (p *Persister) write(b Blob) {
	if err := p.backend.SaveBlob(context.Background(), b); err != nil {
		if !p.degraded.Swap(true) {
			p.log.Warn("durable write failed, continuing with session-only persistence",
				"blob", b.Name, "error", err)
		} else {
			p.log.Debug("durable write still failing", "blob", b.Name, "error", err)
		}
		return
	}
	if p.degraded.Swap(false) {
		p.log.Info("durable writes recovered", "blob", b.Name)
	}
}
