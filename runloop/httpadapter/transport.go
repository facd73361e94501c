// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package httpadapter is the HTTP transport adapter (spec §4.4): a
// connection iterator and a chunked body-transfer iterator. The actual
// socket/TLS/DNS machinery is explicitly out of scope (spec §1); the
// default Transport here is a thin wrapper over net/http that still
// satisfies the iterate-until-done shape the HTTP pipeline (C7)
// drives, so the pipeline's state machine is exercised against a real
// HTTP client rather than only against fakes.
package httpadapter

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

const defaultChunkSize = 32 * 1024

// Connection is resolved+connected iteratively; Iterate reports done
// once the underlying request has completed (spec §9: the raw
// connect loop is not distinguished from the request round-trip at
// this layer — both are out of scope; only the done/not-done signal
// matters to the pipeline).
type Connection interface {
	Iterate() (done bool, err error)
	Done() bool
	Close() error
}

// Transfer delivers the response body in bounded chunks.
type Transfer interface {
	// Update advances the transfer by one chunk, reporting cumulative
	// position and, when known, total size (-1 if unknown, matching
	// the convention of an absent Content-Length).
	Update() (pos, total int64, done bool, err error)
	// Data returns the accumulated body. When acceptIncomplete is
	// false, ok is only true once Update has reported done.
	Data(acceptIncomplete bool) (data []byte, n int, ok bool)
	Close() error
}

// Transport builds Connections and promotes them to Transfers.
type Transport interface {
	NewConnection(url string) (Connection, error)
	NewTransfer(Connection) (Transfer, error)
}

// ClientTransport is the default Transport, backed by *http.Client.
type ClientTransport struct {
	Client *http.Client
}

func (t ClientTransport) client() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

func (t ClientTransport) NewConnection(url string) (Connection, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return &clientConnection{client: t.client(), req: req}, nil
}

func (t ClientTransport) NewTransfer(c Connection) (Transfer, error) {
	cc, ok := c.(*clientConnection)
	if !ok || cc.resp == nil {
		return nil, errors.New("httpadapter: connection has no response to transfer")
	}
	total := int64(-1)
	if cc.resp.ContentLength >= 0 {
		total = cc.resp.ContentLength
	}
	// The transfer takes over the response body, so closing the
	// connection afterwards does not cut the transfer short.
	body := cc.resp.Body
	cc.resp.Body = nil
	return &clientTransfer{body: body, total: total, chunk: make([]byte, defaultChunkSize)}, nil
}

// clientConnection performs the request round-trip on its first
// Iterate call and reports done from then on.
type clientConnection struct {
	client *http.Client
	req    *http.Request
	resp   *http.Response
	done   bool
}

func (c *clientConnection) Iterate() (done bool, err error) {
	if c.done {
		return true, nil
	}
	resp, err := c.client.Do(c.req)
	c.done = true
	if err != nil {
		return true, err
	}
	c.resp = resp
	return true, nil
}

func (c *clientConnection) Done() bool { return c.done && c.resp != nil }

func (c *clientConnection) Close() error {
	if c.resp != nil && c.resp.Body != nil {
		return c.resp.Body.Close()
	}
	return nil
}

// clientTransfer reads the response body in bounded chunks per Update
// call, matching the pipeline's bounded-work-per-tick contract.
type clientTransfer struct {
	body  io.ReadCloser
	chunk []byte
	buf   bytes.Buffer
	pos   int64
	total int64
	done  bool
}

func (t *clientTransfer) Update() (pos, total int64, done bool, err error) {
	if t.done {
		return t.pos, t.total, true, nil
	}
	n, err := t.body.Read(t.chunk)
	if n > 0 {
		t.buf.Write(t.chunk[:n])
		t.pos += int64(n)
	}
	if err != nil {
		t.done = true
		if errors.Is(err, io.EOF) {
			return t.pos, t.total, true, nil
		}
		return t.pos, t.total, true, err
	}
	return t.pos, t.total, false, nil
}

func (t *clientTransfer) Data(acceptIncomplete bool) ([]byte, int, bool) {
	if !t.done && !acceptIncomplete {
		return nil, 0, false
	}
	b := t.buf.Bytes()
	return b, len(b), true
}

func (t *clientTransfer) Close() error {
	if t.body == nil {
		return nil
	}
	err := t.body.Close()
	t.body = nil
	return err
}
