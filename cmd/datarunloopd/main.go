// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command datarunloopd is a minimal harness demonstrating the runloop:
// it pushes one file-read Request and one HTTP Request from the
// command line and ticks until both pipelines go idle or a timeout
// elapses.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"code.hybscloud.com/datarunloop/runloop"
	"code.hybscloud.com/datarunloop/runloop/rlog"
)

func main() {
	var (
		filePath = flag.String("file", "", "path to read via the NBIO pipeline")
		httpURL  = flag.String("url", "", "URL to fetch via the HTTP pipeline")
		timeout  = flag.Duration("timeout", 10*time.Second, "how long to tick before giving up")
	)
	flag.Parse()

	logger := rlog.New(rlog.WithLevel(slog.LevelInfo))
	rl := runloop.New(runloop.WithLogger(logger))
	defer rl.Close()

	if *filePath != "" {
		rl.Push(runloop.KindFile, *filePath, "", 0, 0, false)
	}
	if *httpURL != "" {
		rl.Push(runloop.KindHTTP, *httpURL, runloop.CbCoreUpdaterList, 0, 0, false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Warn("timed out waiting for pipelines to finish")
			return
		case <-ticker.C:
			rl.Iterate()
			s := rl.Stats()
			if !s.NbioBusy && !s.ImageBusy && !s.HTTPBusy && s.Ticks > 0 {
				logger.Info("all pipelines idle", "ticks", s.Ticks)
				os.Exit(0)
			}
		}
	}
}
