// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runloop implements a cooperative, bounded-step background
// data runloop: three pipelines (NBIO file reads, PNG image decode,
// HTTP transfers) each advanced by a fixed amount of work per Iterate
// call, so a caller on a render or event loop never blocks waiting on
// I/O (spec §1/§2).
package runloop

import (
	"fmt"
	"sync"

	"code.hybscloud.com/datarunloop/runloop/callback"
	"code.hybscloud.com/datarunloop/runloop/httpadapter"
	"code.hybscloud.com/datarunloop/runloop/nbioadapter"
	"code.hybscloud.com/datarunloop/runloop/pngadapter"
	"code.hybscloud.com/datarunloop/runloop/rlog"
	"code.hybscloud.com/datarunloop/runloop/texture"
)

// TickFunc is one step of an opaque peer iterator (spec §4.8: the
// DB/Overlay collaborators are out of scope internally, but their
// call sites in the tick order are not).
type TickFunc func() error

// peer is one registered TickFunc, kept alongside its name for
// logging when it returns an error.
type peer struct {
	name string
	fn   TickFunc
}

// Runloop owns the three pipelines (C5/C6/C7) and their shared
// collaborators (C8: spec §4.8).
type Runloop struct {
	nbio nbioState
	http httpState

	nbioOpener        nbioadapter.Opener
	pngDecoderFactory func() pngadapter.Decoder
	httpTransport     httpadapter.Transport
	uploader          texture.Uploader
	log               rlog.Logger
	httpBodyRegistry  *callback.Registry[bodyFunc]

	peers []peer

	stats RunloopStats

	threaded bool
	// stateLock serializes access to nbio/http/stats between Push,
	// Iterate (non-threaded), and the worker goroutine (threaded).
	stateLock sync.Mutex

	condLock sync.Mutex
	cond     *sync.Cond
	wake     bool
	quit     bool
	done     chan struct{}
}

// New builds a Runloop. With no options, every collaborator defaults
// to a real but minimal implementation (plain files, net/http, a
// stdlib PNG decode, no-op upload, discarded logs) so New(...) alone
// is enough to drive the pipelines end to end.
func New(opts ...Option) *Runloop {
	cfg := defaultConfig
	for _, fn := range opts {
		fn(&cfg)
	}

	rl := &Runloop{
		nbio:              newNbioState(),
		http:              newHTTPState(),
		nbioOpener:        cfg.NbioOpener,
		pngDecoderFactory: cfg.PNGDecoderFactory,
		httpTransport:     cfg.HTTPTransport,
		uploader:          cfg.Uploader,
		log:               cfg.Logger,
		httpBodyRegistry:  newHTTPBodyRegistry(cfg.httpBodyOverrides),
		threaded:          cfg.Threaded,
	}

	if rl.threaded {
		rl.cond = sync.NewCond(&rl.condLock)
		rl.done = make(chan struct{})
		go rl.runThreaded()
	}

	return rl
}

// Push encodes primary/secondary into a Request and enqueues it on the
// queue selected by kind (spec §4.1/§4.8/§6: C1). With flush=false, a
// full queue silently drops the newest entry, matching Queue.Push; with
// flush=true the queue is cleared first, so it holds at most this one
// Request immediately after Push returns (spec §3 Invariant 5, §8).
func (rl *Runloop) Push(kind RequestKind, primary, secondary string, priority, duration int, flush bool) bool {
	rl.stateLock.Lock()
	defer rl.stateLock.Unlock()

	var q *Queue
	switch kind {
	case KindFile:
		q = rl.nbio.queue
	case KindImage:
		q = rl.nbio.image.queue
	case KindHTTP:
		q = rl.http.queue
	default:
		return false
	}

	if flush {
		q.Clear()
	}
	ok := q.Push(encodeRequest(primary, secondary), priority, duration)
	if rl.threaded {
		rl.wakeWorker()
	}
	return ok
}

// Iterate runs exactly one tick of all three pipelines (spec §2:
// "Iterate is the only operation a caller on a render loop needs to
// call"). In threaded mode the pipelines are already being advanced by
// the worker goroutine and Iterate returns immediately without doing
// anything; calling it is optional but harmless.
func (rl *Runloop) Iterate() {
	if rl.threaded {
		return
	}
	rl.stateLock.Lock()
	defer rl.stateLock.Unlock()
	rl.tick()
}

// RegisterPeer adds an opaque tick step run after NBIO/HTTP each tick,
// in registration order (spec §4.8: the DB/Overlay peer iterators'
// internals are out of scope, but their call sites in the composition
// order are not — see original_source/runloop_data.c's
// rarch_main_data_overlay_iterate / rarch_main_data_db_iterate).
func (rl *Runloop) RegisterPeer(name string, fn TickFunc) {
	rl.stateLock.Lock()
	defer rl.stateLock.Unlock()
	rl.peers = append(rl.peers, peer{name: name, fn: fn})
}

// tick advances all pipelines once, in the original's composition
// order: NBIO (which also advances its image sub-state), then HTTP,
// then any registered peers (spec §2/§4.8).
func (rl *Runloop) tick() {
	rl.tickNbio()
	rl.tickHTTP()
	for _, p := range rl.peers {
		if err := p.fn(); err != nil {
			rl.log.Error("peer tick failed", "peer", p.name, "err", err)
		}
	}
	rl.stats.Ticks++
}

// runThreaded is the worker goroutine started by New when
// WithThreadedDataRunloop is set. It mirrors the source's
// lock/cond-wait pattern: the worker sleeps on cond until Push or Quit
// signals it, then drains one tick under stateLock.
func (rl *Runloop) runThreaded() {
	defer close(rl.done)
	for {
		rl.condLock.Lock()
		for !rl.wake && !rl.quit {
			rl.cond.Wait()
		}
		quit := rl.quit
		rl.wake = false
		rl.condLock.Unlock()

		if quit {
			return
		}

		rl.stateLock.Lock()
		rl.tick()
		busy := rl.nbio.reader != nil || rl.nbio.image.decoder != nil ||
			rl.http.connection != nil || rl.http.transfer != nil ||
			rl.nbio.queue.Len() > 0 || rl.nbio.image.queue.Len() > 0 || rl.http.queue.Len() > 0
		rl.stateLock.Unlock()

		// Re-arm only while a pipeline is still mid-transfer or a queue
		// still holds work; otherwise wait for the next Push/Close signal.
		if busy {
			rl.condLock.Lock()
			rl.wake = true
			rl.condLock.Unlock()
		}
	}
}

func (rl *Runloop) wakeWorker() {
	rl.condLock.Lock()
	rl.wake = true
	rl.cond.Signal()
	rl.condLock.Unlock()
}

// Close stops the worker goroutine started in threaded mode and
// releases pipeline handles. Close on a non-threaded Runloop only
// releases handles. Close is idempotent.
func (rl *Runloop) Close() error {
	if rl.threaded {
		rl.condLock.Lock()
		rl.quit = true
		rl.cond.Signal()
		rl.condLock.Unlock()
		<-rl.done
		rl.threaded = false
	}

	rl.stateLock.Lock()
	defer rl.stateLock.Unlock()
	rl.resetPipelineState()
	return nil
}

// ClearState tears down and re-initializes all three pipelines' runtime
// state in place: any in-flight reader/decoder/connection/transfer is
// closed, every queue is cleared, and frame counters reset (spec §4.8:
// clear_state()). Collaborators configured via Option (opener, decoder
// factory, transport, uploader, logger, registered peers) are left
// untouched — only pipeline state resets, not configuration. Unlike
// Close, ClearState leaves a threaded Runloop's worker goroutine
// running; the round-trip law (spec §8) holds because the worker only
// ever observes state through the same stateLock ClearState takes.
func (rl *Runloop) ClearState() {
	rl.stateLock.Lock()
	defer rl.stateLock.Unlock()
	rl.resetPipelineState()
	rl.stats = RunloopStats{}
}

// resetPipelineState is the shared teardown Close and ClearState both
// run under stateLock.
func (rl *Runloop) resetPipelineState() {
	rl.nbio.parseFree()
	rl.nbio.image.parseFree()
	if rl.http.connection != nil {
		_ = rl.http.connection.Close()
		rl.http.connection = nil
	}
	if rl.http.transfer != nil {
		_ = rl.http.transfer.Close()
		rl.http.transfer = nil
	}
	rl.http.connectionCB = nil
	rl.http.connectionCallbackName = ""
	rl.http.cb = nil
	rl.http.queue.Clear()
}

// logf records a PipelineError at the appropriate level and forwards
// it to the configured Logger. nil err is valid for kinds that carry
// no underlying cause (e.g. ErrBadRequest, ErrHandleBusy).
func (rl *Runloop) logf(kind ErrorKind, pipeline string, err error, format string, args ...any) {
	pe := &PipelineError{Kind: kind, Pipeline: pipeline, Err: err}
	msg := fmt.Sprintf(format, args...)
	switch kind {
	case ErrBadRequest, ErrHandleBusy:
		rl.log.Debug(msg, "kind", pe.Kind.String(), "pipeline", pipeline)
	default:
		rl.log.Error(msg, "kind", pe.Kind.String(), "pipeline", pipeline, "err", pe.Err)
	}
}
