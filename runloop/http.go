// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

import (
	"errors"

	"code.hybscloud.com/datarunloop/runloop/httpadapter"
)

// httpState is C7's state (spec §3: HttpState).
type httpState struct {
	connection              httpadapter.Connection
	connectionCB            completionFunc
	connectionCallbackName  string
	transfer                httpadapter.Transfer
	cb                      bodyFunc
	queue                   *Queue
}

func newHTTPState() httpState {
	return httpState{queue: NewQueue(defaultQueueCapacity)}
}

// tickHTTP runs one HTTP step (spec §4.7). Connection and transfer are
// both driven in the same tick, matching the source's unconditional
// `if (http->handle) ... else poll()` following the connection block:
// a connection that completes this tick can be promoted to a transfer
// that then also takes its first Update this same tick.
func (rl *Runloop) tickHTTP() {
	h := &rl.http

	if h.connection != nil {
		done, err := h.connection.Iterate()
		if done {
			h.finishConnection(rl, err)
		}
	}

	if h.transfer != nil {
		h.updateTransfer(rl)
	} else {
		h.poll(rl)
	}
}

// finishConnection runs the connection-done handler, then frees the
// connection regardless of outcome (spec §4.7).
func (h *httpState) finishConnection(rl *Runloop, iterErr error) {
	if iterErr != nil && !errors.Is(iterErr, ErrWouldBlock) {
		rl.logf(ErrTransferError, "http", iterErr, "http connection ended with error")
	}
	if h.connectionCB != nil {
		if err := h.connectionCB(rl); err != nil {
			rl.logf(ErrTransferError, "http", err, "http connection-done callback failed")
		}
	}
	_ = h.connection.Close()
	h.connection = nil
}

// cbHTTPConnDefault promotes a finished connection to a transfer and
// resolves the final body callback from connectionCallbackName via the
// static registry (spec §4.7, §9: "static registry, no reflection").
func cbHTTPConnDefault(rl *Runloop) error {
	h := &rl.http

	transfer, err := rl.httpTransport.NewTransfer(h.connection)
	if err != nil {
		rl.logf(ErrOpenFailed, "http", err, "could not create transfer session")
		return err
	}

	h.transfer = transfer
	h.cb = nil
	if fn, ok := rl.httpBodyRegistry.Lookup(h.connectionCallbackName); ok {
		h.cb = fn
	}
	return nil
}

// updateTransfer advances the body transfer by one bounded step (spec
// §4.4/§4.7), logging progress while not yet done (spec §6).
func (h *httpState) updateTransfer(rl *Runloop) {
	pos, total, done, err := h.transfer.Update()
	if !done {
		rl.log.Debug("http transfer progress", "pos", pos, "total", total)
		return
	}
	if err != nil && !errors.Is(err, ErrWouldBlock) {
		// TransferError: fall through to parse as if completed; the
		// body bytes may be incomplete and the callback handles that
		// (spec §7).
		rl.logf(ErrTransferError, "http", err, "http transfer ended with error")
	}

	body, _, _ := h.transfer.Data(true)
	if h.cb != nil {
		if cbErr := h.cb(rl, body); cbErr != nil {
			rl.logf(ErrTransferError, "http", cbErr, "http body callback failed")
		}
	}

	_ = h.transfer.Close()
	h.transfer = nil
	h.cb = nil
	h.queue.Clear()
}

// poll pulls the next Request and opens a Connection (spec §4.7).
// Refuses while either handle is still held (§9: HandleBusy resolved
// as drop-not-requeue — see DESIGN.md).
func (h *httpState) poll(rl *Runloop) {
	raw, ok := h.queue.Pull()
	if !ok {
		return
	}
	req, ok := parseRequest(raw)
	if !ok {
		rl.logf(ErrBadRequest, "http", nil, "dropping malformed request %q", raw)
		return
	}
	if h.connection != nil || h.transfer != nil {
		rl.logf(ErrHandleBusy, "http", nil, "dropping request %q, transfer already in flight", req.Primary)
		return
	}

	conn, err := rl.httpTransport.NewConnection(req.Primary)
	if err != nil {
		rl.logf(ErrOpenFailed, "http", err, "could not connect to %q", req.Primary)
		return
	}

	h.connection = conn
	h.connectionCB = cbHTTPConnDefault
	h.connectionCallbackName = req.Secondary
}
