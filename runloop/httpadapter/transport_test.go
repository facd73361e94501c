// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpadapter_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"code.hybscloud.com/datarunloop/runloop/httpadapter"
)

func TestClientTransportFetchesBody(t *testing.T) {
	const want = "hello from the test server"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(want))
	}))
	defer srv.Close()

	tr := httpadapter.ClientTransport{}

	conn, err := tr.NewConnection(srv.URL)
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	defer conn.Close()

	var done bool
	for i := 0; i < 10 && !done; i++ {
		done, err = conn.Iterate()
		if err != nil {
			t.Fatalf("connection Iterate() error = %v", err)
		}
	}
	if !done || !conn.Done() {
		t.Fatalf("connection never finished: done=%v, Done()=%v", done, conn.Done())
	}

	xfer, err := tr.NewTransfer(conn)
	if err != nil {
		t.Fatalf("NewTransfer() error = %v", err)
	}
	defer xfer.Close()

	var xferDone bool
	for i := 0; i < 100 && !xferDone; i++ {
		_, _, xferDone, err = xfer.Update()
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	if !xferDone {
		t.Fatalf("transfer never finished")
	}

	data, n, ok := xfer.Data(false)
	if !ok {
		t.Fatalf("Data(false) ok = false after done")
	}
	if n != len(want) || string(data) != want {
		t.Fatalf("Data() = %q, want %q", data, want)
	}
}

func TestClientTransportNewTransferWithoutResponse(t *testing.T) {
	tr := httpadapter.ClientTransport{}
	conn, err := tr.NewConnection("http://127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	if _, err := tr.NewTransfer(conn); err == nil {
		t.Fatalf("NewTransfer() before the connection resolved returned nil error")
	}
}

func TestClientTransportConnectionError(t *testing.T) {
	tr := httpadapter.ClientTransport{}
	conn, err := tr.NewConnection("http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	done, err := conn.Iterate()
	if !done {
		t.Fatalf("Iterate() done = false, want true even on dial failure")
	}
	if err == nil {
		t.Fatalf("Iterate() against an unreachable address returned nil error")
	}
}
